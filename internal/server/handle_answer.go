package server

import (
	"net/http"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/game"
)

// AnswerRequest carries one submitted answer.
type AnswerRequest struct {
	Category codepuzzle.Category `json:"category"`
	Answer   string              `json:"answer"`
}

// AnswerResponse is the graded outcome of one submission.
type AnswerResponse struct {
	Correct         bool   `json:"correct"`
	Score           int    `json:"score"`
	PieceRevealed   int    `json:"pieceRevealed,omitempty"`
	PiecesCollected int    `json:"piecesCollected"`
	PuzzleComplete  bool   `json:"puzzleComplete"`
	Expected        string `json:"expected,omitempty"`
	Trivia          string `json:"trivia,omitempty"`
}

func handleAnswer(games *game.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !req.Category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}

		s, ok := games.Session(player.ID, req.Category)
		if !ok {
			writeError(w, http.StatusNotFound, "no active game for this category")
			return
		}

		res, err := s.SubmitAnswer(r.Context(), req.Answer)
		if err != nil {
			writeGameError(w, err)
			return
		}

		v := s.View()
		switch {
		case res.PuzzleComplete:
			broker.Publish(player.ID, Event{
				Type:            "puzzle_complete",
				Category:        req.Category,
				Level:           v.Level,
				PiecesCollected: res.PiecesCollected,
				Score:           res.Score,
			})
		case res.Correct:
			broker.Publish(player.ID, Event{
				Type:            "piece_revealed",
				Category:        req.Category,
				Level:           v.Level,
				Piece:           res.PieceRevealed,
				PiecesCollected: res.PiecesCollected,
				Score:           res.Score,
			})
		default:
			broker.Publish(player.ID, Event{
				Type:     "wrong_answer",
				Category: req.Category,
				Level:    v.Level,
				Score:    res.Score,
			})
		}

		writeJSON(w, http.StatusOK, AnswerResponse{
			Correct:         res.Correct,
			Score:           res.Score,
			PieceRevealed:   res.PieceRevealed,
			PiecesCollected: res.PiecesCollected,
			PuzzleComplete:  res.PuzzleComplete,
			Expected:        res.Expected,
			Trivia:          res.Trivia,
		})
	}
}
