// Package codepuzzle defines the core domain types shared across the
// service. It has zero external dependencies — everything here is pure Go.
package codepuzzle

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a player, progress row, or
// snapshot does not exist. A snapshot older than its expiry window is
// reported the same way.
var ErrNotFound = errors.New("not found")

// Category is a top-level content track.
type Category string

const (
	CategoryBeginner Category = "beginner"
	CategoryAdvanced Category = "advanced"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryBeginner, CategoryAdvanced}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryBeginner || c == CategoryAdvanced
}

const (
	// MaxLevel is the highest level in every category.
	MaxLevel = 5
	// PiecesPerPuzzle is how many reveal units each puzzle image has.
	PiecesPerPuzzle = 5
	// QuestionsPerLevel is how many questions the content store holds per level.
	QuestionsPerLevel = 5
)

// QuestionKind distinguishes fill-in-the-blank prompts from free-form
// code-writing prompts.
type QuestionKind string

const (
	QuestionFillBlank QuestionKind = "fillblank"
	QuestionCode      QuestionKind = "code"
)

// Question is one immutable entry of the content store.
type Question struct {
	Prompt       string
	Instructions string
	Answer       string
	Hint         string
	Kind         QuestionKind
}

// Player is a persisted player profile.
type Player struct {
	ID         string
	Name       string
	TotalScore int
	CreatedAt  time.Time
	LastPlayed time.Time
}

// CategoryProgress tracks a player's standing within one category.
// UnlockedLevel only ever increases, and only to the next sequential
// level after a completion, capped at MaxLevel.
type CategoryProgress struct {
	UnlockedLevel   int
	CompletedLevels []int
	TotalScore      int
}

// NewCategoryProgress returns the initial standing for a fresh category.
func NewCategoryProgress() CategoryProgress {
	return CategoryProgress{UnlockedLevel: 1, CompletedLevels: []int{}}
}

// Unlocked reports whether level can be started.
func (p CategoryProgress) Unlocked(level int) bool {
	return level >= 1 && level <= p.UnlockedLevel
}

// Completed reports whether level has been finished at least once.
func (p CategoryProgress) Completed(level int) bool {
	for _, l := range p.CompletedLevels {
		if l == level {
			return true
		}
	}
	return false
}

// HasProgress reports whether the player has done anything in this
// category yet. Used to gate category resets.
func (p CategoryProgress) HasProgress() bool {
	return len(p.CompletedLevels) > 0 || p.UnlockedLevel > 1
}

// Snapshot is the persisted partial-progress record for an in-progress
// level, keyed by (player, category). Question content is never stored;
// a resume rebuilds the sequence from the content store.
type Snapshot struct {
	PlayerID          string
	Category          Category
	Level             int
	QuestionIndex     int
	Score             int
	QuestionsAnswered int
	CorrectAnswers    int
	WrongAnswers      int
	PiecesCollected   int
	RevealedPieces    []int
	SavedAt           time.Time
}
