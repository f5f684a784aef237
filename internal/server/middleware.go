package server

import (
	"context"
	"net/http"

	"github.com/codepuzzle/api/internal/codepuzzle"
)

type ctxKey int

const ctxKeyPlayer ctxKey = iota

// requireAuth resolves the bearer token to a player and stashes it in
// the request context.
func requireAuth(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			player, err := playerFromToken(r, store, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) codepuzzle.Player {
	return r.Context().Value(ctxKeyPlayer).(codepuzzle.Player)
}
