package server

import (
	"net/http"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/game"
)

// QuestionInfo is the displayable part of the current question. The
// expected answer is never sent to the client.
type QuestionInfo struct {
	Number       int    `json:"number"`
	Prompt       string `json:"prompt"`
	Instructions string `json:"instructions,omitempty"`
	Kind         string `json:"kind"`
}

// GameStateResponse is the live game state for the game screen.
type GameStateResponse struct {
	Category          codepuzzle.Category `json:"category"`
	Level             int                 `json:"level"`
	Score             int                 `json:"score"`
	QuestionsAnswered int                 `json:"questionsAnswered"`
	CorrectAnswers    int                 `json:"correctAnswers"`
	WrongAnswers      int                 `json:"wrongAnswers"`
	PiecesCollected   int                 `json:"piecesCollected"`
	RevealedPieces    []int               `json:"revealedPieces"`
	PuzzleComplete    bool                `json:"puzzleComplete"`
	Image             string              `json:"image"`
	Question          *QuestionInfo       `json:"question,omitempty"`
	Trivia            string              `json:"trivia,omitempty"`
}

func stateResponse(v game.View) GameStateResponse {
	resp := GameStateResponse{
		Category:          v.Category,
		Level:             v.Level,
		Score:             v.Score,
		QuestionsAnswered: v.QuestionsAnswered,
		CorrectAnswers:    v.CorrectAnswers,
		WrongAnswers:      v.WrongAnswers,
		PiecesCollected:   v.PiecesCollected,
		RevealedPieces:    v.RevealedPieces,
		PuzzleComplete:    v.PuzzleComplete,
		Image:             v.Image,
		Trivia:            v.Trivia,
	}
	if v.Question != nil {
		resp.Question = &QuestionInfo{
			Number:       v.Question.Number,
			Prompt:       v.Question.Prompt,
			Instructions: v.Question.Instructions,
			Kind:         string(v.Question.Kind),
		}
	}
	return resp
}

// categoryParam reads and validates the category query parameter.
func categoryParam(r *http.Request) (codepuzzle.Category, bool) {
	category := codepuzzle.Category(r.URL.Query().Get("category"))
	return category, category.Valid()
}

func handleGameState(games *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		category, ok := categoryParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}

		s, ok := games.Session(player.ID, category)
		if !ok {
			writeError(w, http.StatusNotFound, "no active game for this category")
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(s.View()))
	}
}
