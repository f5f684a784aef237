package server

import (
	"errors"
	"net/http"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/game"
)

// StartGameRequest selects a category and level to play.
type StartGameRequest struct {
	Category codepuzzle.Category `json:"category"`
	Level    int                 `json:"level"`
}

// CategoryRequest names a category for operations that need nothing else.
type CategoryRequest struct {
	Category codepuzzle.Category `json:"category"`
}

// writeGameError maps engine errors to HTTP responses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrAnswerRequired):
		writeError(w, http.StatusBadRequest, "answer is required")
	case errors.Is(err, game.ErrSubmissionPending):
		writeError(w, http.StatusConflict, "previous answer is still being processed")
	case errors.Is(err, game.ErrPuzzleComplete):
		writeError(w, http.StatusConflict, "puzzle is already complete")
	case errors.Is(err, game.ErrSessionClosed):
		writeError(w, http.StatusConflict, "game session has ended")
	case errors.Is(err, game.ErrLevelLocked):
		writeError(w, http.StatusConflict, "level is locked")
	case errors.Is(err, game.ErrNoProgress):
		writeError(w, http.StatusConflict, "no progress in this category")
	case errors.Is(err, game.ErrAllLevelsComplete):
		writeError(w, http.StatusConflict, "all levels are complete")
	case errors.Is(err, codepuzzle.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleStartGame(games *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		var req StartGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !req.Category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		if req.Level < 1 || req.Level > codepuzzle.MaxLevel {
			writeError(w, http.StatusBadRequest, "level out of range")
			return
		}

		s, err := games.StartLevel(r.Context(), player.ID, req.Category, req.Level)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(s.View()))
	}
}

func handleContinueGame(games *game.Manager) http.HandlerFunc {
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

		s, err := games.Continue(r.Context(), player.ID, req.Category)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(s.View()))
	}
}

func handleLeaveGame(games *game.Manager) http.HandlerFunc {
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

		if err := games.Leave(r.Context(), player.ID, req.Category); err != nil {
			if errors.Is(err, codepuzzle.ErrNotFound) {
				writeError(w, http.StatusNotFound, "no active game for this category")
				return
			}
			writeGameError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
