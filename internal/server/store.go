package server

import (
	"context"
	"errors"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/game"
)

// ErrDuplicateName is returned when a player name is already taken.
// Names collide case-insensitively.
var ErrDuplicateName = errors.New("name already taken")

// PlayerSummary is one row of the load-game screen: the most recently
// played players with their overall scores.
type PlayerSummary struct {
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
	LastPlayed int64  `json:"lastPlayed"`
}

// LeaderboardEntry is one row of the per-category leaderboard.
type LeaderboardEntry struct {
	Name            string `json:"name"`
	Score           int    `json:"score"`
	LevelsCompleted int    `json:"levelsCompleted"`
}

// Store is the persistence surface: player profiles, auth sessions,
// the leaderboard, and the engine's progress/snapshot needs.
type Store interface {
	CreatePlayer(ctx context.Context, name, passwordHash string) (codepuzzle.Player, error)
	PlayerByName(ctx context.Context, name string) (codepuzzle.Player, string, error)
	PlayerByID(ctx context.Context, id string) (codepuzzle.Player, error)
	ListRecentPlayers(ctx context.Context, limit int) ([]PlayerSummary, error)
	UpdatePassword(ctx context.Context, playerID, passwordHash string) error
	DeletePlayer(ctx context.Context, playerID string) error

	CreateSession(ctx context.Context, playerID string) (string, error)
	PlayerFromToken(ctx context.Context, token string) (codepuzzle.Player, error)
	DeleteSession(ctx context.Context, token string) error

	AllProgress(ctx context.Context, playerID string) (map[codepuzzle.Category]codepuzzle.CategoryProgress, error)
	Leaderboard(ctx context.Context, category codepuzzle.Category, limit int) ([]LeaderboardEntry, error)

	game.Store
}
