package server

import "net/http"

// recentPlayersLimit caps the load-game screen to the most recently
// active players.
const recentPlayersLimit = 10

// PlayersResponse is the response for GET /api/players/recent.
type PlayersResponse struct {
	Players []PlayerSummary `json:"players"`
}

func handleListPlayers(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := store.ListRecentPlayers(r.Context(), recentPlayersLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, PlayersResponse{Players: players})
	}
}
