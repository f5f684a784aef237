// Package content is the read-only content store: the question bank,
// puzzle image references, and trivia facts, indexed by category and
// level. The bank ships embedded in the binary and is identical across
// sessions.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/codepuzzle/api/internal/codepuzzle"
)

//go:embed bank.json
var bankFS embed.FS

// Level is everything the game needs for one puzzle: an ordered list of
// exactly codepuzzle.QuestionsPerLevel questions, the puzzle image
// reference, and one trivia fact shown on completion.
type Level struct {
	Category  codepuzzle.Category
	Number    int
	Questions []codepuzzle.Question
	Image     string
	Trivia    string
}

// Store holds the parsed question bank.
type Store struct {
	levels map[codepuzzle.Category]map[int]Level
}

type bankQuestion struct {
	Prompt       string `json:"prompt"`
	Instructions string `json:"instructions"`
	Answer       string `json:"answer"`
	Hint         string `json:"hint"`
	Kind         string `json:"kind"`
}

type bankLevel struct {
	Image     string         `json:"image"`
	Trivia    string         `json:"trivia"`
	Questions []bankQuestion `json:"questions"`
}

// New parses and validates the embedded bank.
func New() (*Store, error) {
	raw, err := bankFS.ReadFile("bank.json")
	if err != nil {
		return nil, fmt.Errorf("reading bank: %w", err)
	}

	var bank map[string]map[string]bankLevel
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("parsing bank: %w", err)
	}

	s := &Store{levels: make(map[codepuzzle.Category]map[int]Level)}
	for _, cat := range codepuzzle.Categories {
		byLevel, ok := bank[string(cat)]
		if !ok {
			return nil, fmt.Errorf("bank missing category %q", cat)
		}
		s.levels[cat] = make(map[int]Level)

		for n := 1; n <= codepuzzle.MaxLevel; n++ {
			bl, ok := byLevel[strconv.Itoa(n)]
			if !ok {
				return nil, fmt.Errorf("bank missing %s level %d", cat, n)
			}
			if len(bl.Questions) != codepuzzle.QuestionsPerLevel {
				return nil, fmt.Errorf("%s level %d has %d questions, want %d",
					cat, n, len(bl.Questions), codepuzzle.QuestionsPerLevel)
			}

			lvl := Level{
				Category: cat,
				Number:   n,
				Image:    bl.Image,
				Trivia:   bl.Trivia,
			}
			for _, q := range bl.Questions {
				kind := codepuzzle.QuestionKind(q.Kind)
				if kind != codepuzzle.QuestionFillBlank && kind != codepuzzle.QuestionCode {
					return nil, fmt.Errorf("%s level %d: unknown question kind %q", cat, n, q.Kind)
				}
				lvl.Questions = append(lvl.Questions, codepuzzle.Question{
					Prompt:       q.Prompt,
					Instructions: q.Instructions,
					Answer:       q.Answer,
					Hint:         q.Hint,
					Kind:         kind,
				})
			}
			s.levels[cat][n] = lvl
		}
	}
	return s, nil
}

// Level returns the content for (category, number). The question slice
// is a fresh copy on every call; callers may reorder it freely.
func (s *Store) Level(category codepuzzle.Category, number int) (Level, error) {
	if !category.Valid() {
		return Level{}, fmt.Errorf("unknown category %q", category)
	}
	lvl, ok := s.levels[category][number]
	if !ok {
		return Level{}, fmt.Errorf("no level %d in category %q", number, category)
	}
	out := lvl
	out.Questions = make([]codepuzzle.Question, len(lvl.Questions))
	copy(out.Questions, lvl.Questions)
	return out, nil
}
