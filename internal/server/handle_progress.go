package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/game"
)

// CategoryProgressInfo is one category's standing in the progress view.
type CategoryProgressInfo struct {
	UnlockedLevel   int   `json:"unlockedLevel"`
	CompletedLevels []int `json:"completedLevels"`
	TotalScore      int   `json:"totalScore"`
}

// ProgressResponse is the response for GET /api/progress.
type ProgressResponse struct {
	Name       string                                       `json:"name"`
	TotalScore int                                          `json:"totalScore"`
	Progress   map[codepuzzle.Category]CategoryProgressInfo `json:"progress"`
}

func handleProgress(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		all, err := store.AllProgress(r.Context(), player.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := ProgressResponse{
			Name:     player.Name,
			Progress: make(map[codepuzzle.Category]CategoryProgressInfo, len(all)),
		}
		for cat, p := range all {
			resp.Progress[cat] = CategoryProgressInfo{
				UnlockedLevel:   p.UnlockedLevel,
				CompletedLevels: p.CompletedLevels,
				TotalScore:      p.TotalScore,
			}
			resp.TotalScore += p.TotalScore
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleResetCategory wipes one category back to level 1. The UI asks
// for confirmation before calling; the engine rejects a reset when
// there is nothing to reset.
func handleResetCategory(games *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		category := codepuzzle.Category(chi.URLParam(r, "category"))
		if !category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}

		err := games.ResetCategory(r.Context(), player.ID, category)
		if errors.Is(err, game.ErrNoProgress) {
			writeError(w, http.StatusConflict, "no progress to reset")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
