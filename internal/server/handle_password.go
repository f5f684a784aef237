package server

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordChangeRequest is the request body for PUT /api/players/me/password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func handleChangePassword(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r)

		var req PasswordChangeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.NewPassword = strings.TrimSpace(req.NewPassword)
		if req.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "new password is required")
			return
		}
		if len(req.NewPassword) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "password must be at least 4 characters")
			return
		}

		// Identity check before any mutation.
		_, hash, err := store.PlayerByName(r.Context(), player.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)); err != nil {
			writeError(w, http.StatusUnauthorized, "incorrect password")
			return
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := store.UpdatePassword(r.Context(), player.ID, string(newHash)); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
