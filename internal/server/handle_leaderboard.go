package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codepuzzle/api/internal/codepuzzle"
)

const leaderboardLimit = 5

// LeaderboardResponse is the response for GET /api/leaderboard/{category}.
type LeaderboardResponse struct {
	Category codepuzzle.Category `json:"category"`
	Entries  []LeaderboardEntry  `json:"entries"`
}

func handleLeaderboard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := codepuzzle.Category(chi.URLParam(r, "category"))
		if !category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}

		entries, err := store.Leaderboard(r.Context(), category, leaderboardLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, LeaderboardResponse{Category: category, Entries: entries})
	}
}
