package server

import (
	"net/http"

	"github.com/codepuzzle/api/internal/game"
)

// HintResponse carries the hint for the current question.
type HintResponse struct {
	Hint string `json:"hint"`
}

func handleSkip(games *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		var req CategoryRequest
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

		v, err := s.Skip(r.Context())
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(v))
	}
}

func handleHint(games *game.Manager) http.HandlerFunc {
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

		hint, err := s.Hint()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, HintResponse{Hint: hint})
	}
}
