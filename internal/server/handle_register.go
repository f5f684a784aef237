package server

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 4

// RegisterRequest is the request body for POST /api/players.
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login: the bearer token for
// subsequent requests plus the player's display fields.
type AuthResponse struct {
	Token      string `json:"token"`
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
}

func handleRegister(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Password = strings.TrimSpace(req.Password)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "password is required")
			return
		}
		if len(req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "password must be at least 4 characters")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		player, err := store.CreatePlayer(r.Context(), req.Name, string(hash))
		if errors.Is(err, ErrDuplicateName) {
			writeError(w, http.StatusBadRequest, "name already taken")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Registration logs the player straight in.
		token, err := store.CreateSession(r.Context(), player.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{
			Token:    token,
			PlayerID: player.ID,
			Name:     player.Name,
		})
	}
}
