package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codepuzzle/api/internal/codepuzzle"
)

var errNoSession = errors.New("no valid session")

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", errNoSession
	}
	return token, nil
}

func playerFromToken(r *http.Request, store Store, token string) (codepuzzle.Player, error) {
	p, err := store.PlayerFromToken(r.Context(), token)
	if errors.Is(err, codepuzzle.ErrNotFound) {
		return codepuzzle.Player{}, errNoSession
	}
	return p, err
}
