package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/codepuzzle/api/internal/game"
)

// DeleteAccountRequest is the request body for DELETE /api/players/me.
// Deletion is destructive and re-confirms the password.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

func handleDeleteAccount(store Store, games *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		var req DeleteAccountRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		_, hash, err := store.PlayerByName(r.Context(), player.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "incorrect password")
			return
		}

		games.CloseAll(player.ID)
		if err := store.DeletePlayer(r.Context(), player.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
