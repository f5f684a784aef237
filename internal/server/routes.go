package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/codepuzzle/api/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, games *game.Manager, db *sql.DB, spaDir string) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Code Puzzle API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Public routes.
	r.Post("/api/players", handleRegister(store))
	r.Post("/api/login", handleLogin(store))
	r.Get("/api/players/recent", handleListPlayers(store))
	r.Get("/api/leaderboard/{category}", handleLeaderboard(store))

	// EventSource cannot send an Authorization header.
	r.Get("/api/game/events", handleEvents(store, broker))

	// Player routes, session token required.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth(store))

		r.Post("/api/logout", handleLogout(store, games))
		r.Put("/api/players/me/password", handleChangePassword(store))
		r.Delete("/api/players/me", handleDeleteAccount(store, games))
		r.Get("/api/progress", handleProgress(store))
		r.Post("/api/progress/{category}/reset", handleResetCategory(games))

		r.Post("/api/game/start", handleStartGame(games))
		r.Post("/api/game/continue", handleContinueGame(games))
		r.Post("/api/game/leave", handleLeaveGame(games))
		r.Get("/api/game/state", handleGameState(games))
		r.Get("/api/game/hint", handleHint(games))
		r.Post("/api/game/answer", handleAnswer(games, broker))
		r.Post("/api/game/skip", handleSkip(games))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
