package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codepuzzle/api/internal/codepuzzle"
)

// snapshotTTL is how long a saved game stays resumable. A snapshot read
// after this window is purged and reported as absent.
const snapshotTTL = 24 * time.Hour

// SQLiteStore implements Store on a single SQLite database. Writes are
// whole-row; the design assumes a single writer per deployment.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreatePlayer(ctx context.Context, name, passwordHash string) (codepuzzle.Player, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return codepuzzle.Player{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM players WHERE name_lower = lower(?)`, name).Scan(&exists)
	if err == nil {
		return codepuzzle.Player{}, ErrDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return codepuzzle.Player{}, err
	}

	p := codepuzzle.Player{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedAt:  time.Now(),
		LastPlayed: time.Now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, name, name_lower, password_hash, created_at, last_played)
		VALUES (?, ?, lower(?), ?, ?, ?)
	`, p.ID, p.Name, p.Name, passwordHash, p.CreatedAt.UnixMilli(), p.LastPlayed.UnixMilli())
	if err != nil {
		return codepuzzle.Player{}, err
	}

	for _, cat := range codepuzzle.Categories {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO category_progress (player_id, category, unlocked_level, completed_levels, total_score)
			VALUES (?, ?, 1, '[]', 0)
		`, p.ID, cat)
		if err != nil {
			return codepuzzle.Player{}, err
		}
	}

	return p, tx.Commit()
}

const playerColumns = `
	p.id, p.name, p.created_at, p.last_played,
	(SELECT COALESCE(SUM(cp.total_score), 0) FROM category_progress cp WHERE cp.player_id = p.id)
`

func scanPlayer(row *sql.Row) (codepuzzle.Player, error) {
	var p codepuzzle.Player
	var createdAt, lastPlayed int64
	err := row.Scan(&p.ID, &p.Name, &createdAt, &lastPlayed, &p.TotalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return p, codepuzzle.ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.CreatedAt = time.UnixMilli(createdAt)
	p.LastPlayed = time.UnixMilli(lastPlayed)
	return p, nil
}

func (s *SQLiteStore) PlayerByName(ctx context.Context, name string) (codepuzzle.Player, string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM players WHERE name_lower = lower(?)
	`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return codepuzzle.Player{}, "", codepuzzle.ErrNotFound
	}
	if err != nil {
		return codepuzzle.Player{}, "", err
	}

	p, err := scanPlayer(s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players p WHERE p.name_lower = lower(?)
	`, name))
	return p, hash, err
}

func (s *SQLiteStore) PlayerByID(ctx context.Context, id string) (codepuzzle.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players p WHERE p.id = ?
	`, id))
}

func (s *SQLiteStore) ListRecentPlayers(ctx context.Context, limit int) ([]PlayerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.last_played,
			(SELECT COALESCE(SUM(cp.total_score), 0) FROM category_progress cp WHERE cp.player_id = p.id)
		FROM players p
		ORDER BY p.last_played DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []PlayerSummary{}
	for rows.Next() {
		var ps PlayerSummary
		if err := rows.Scan(&ps.Name, &ps.LastPlayed, &ps.TotalScore); err != nil {
			return nil, err
		}
		players = append(players, ps)
	}
	return players, rows.Err()
}

func (s *SQLiteStore) UpdatePassword(ctx context.Context, playerID, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE players SET password_hash = ? WHERE id = ?
	`, passwordHash, playerID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return codepuzzle.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeletePlayer(ctx context.Context, playerID string) error {
	// Progress rows, snapshots, and auth sessions go with the player
	// via ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, playerID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return codepuzzle.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, playerID string) (string, error) {
	token := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_sessions (id, player_id, created_at)
		VALUES (?, ?, ?)
	`, token, playerID, time.Now().UnixMilli())
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *SQLiteStore) PlayerFromToken(ctx context.Context, token string) (codepuzzle.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+`
		FROM players p
		JOIN player_sessions ps ON ps.player_id = p.id
		WHERE ps.id = ?
	`, token))
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM player_sessions WHERE id = ?`, token)
	return err
}

func (s *SQLiteStore) Progress(ctx context.Context, playerID string, category codepuzzle.Category) (codepuzzle.CategoryProgress, error) {
	var p codepuzzle.CategoryProgress
	var completedJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT unlocked_level, completed_levels, total_score
		FROM category_progress
		WHERE player_id = ? AND category = ?
	`, playerID, category).Scan(&p.UnlockedLevel, &completedJSON, &p.TotalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return p, codepuzzle.ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(completedJSON), &p.CompletedLevels); err != nil {
		return p, fmt.Errorf("decoding completed levels: %w", err)
	}
	if p.CompletedLevels == nil {
		p.CompletedLevels = []int{}
	}
	return p, nil
}

func (s *SQLiteStore) SaveProgress(ctx context.Context, playerID string, category codepuzzle.Category, p codepuzzle.CategoryProgress) error {
	completedJSON, err := json.Marshal(p.CompletedLevels)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE category_progress
		SET unlocked_level = ?, completed_levels = ?, total_score = ?
		WHERE player_id = ? AND category = ?
	`, p.UnlockedLevel, string(completedJSON), p.TotalScore, playerID, category)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return codepuzzle.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE players SET last_played = ? WHERE id = ?
	`, time.Now().UnixMilli(), playerID)
	return err
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap codepuzzle.Snapshot) error {
	revealedJSON, err := json.Marshal(snap.RevealedPieces)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (
			player_id, category, level, question_index, score,
			questions_answered, correct_answers, wrong_answers,
			pieces_collected, revealed_pieces, saved_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, category) DO UPDATE SET
			level = excluded.level,
			question_index = excluded.question_index,
			score = excluded.score,
			questions_answered = excluded.questions_answered,
			correct_answers = excluded.correct_answers,
			wrong_answers = excluded.wrong_answers,
			pieces_collected = excluded.pieces_collected,
			revealed_pieces = excluded.revealed_pieces,
			saved_at = excluded.saved_at
	`, snap.PlayerID, snap.Category, snap.Level, snap.QuestionIndex, snap.Score,
		snap.QuestionsAnswered, snap.CorrectAnswers, snap.WrongAnswers,
		snap.PiecesCollected, string(revealedJSON), snap.SavedAt.UnixMilli())
	return err
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, playerID string, category codepuzzle.Category) (codepuzzle.Snapshot, error) {
	snap := codepuzzle.Snapshot{PlayerID: playerID, Category: category}
	var revealedJSON string
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT level, question_index, score, questions_answered,
			correct_answers, wrong_answers, pieces_collected,
			revealed_pieces, saved_at
		FROM snapshots
		WHERE player_id = ? AND category = ?
	`, playerID, category).Scan(&snap.Level, &snap.QuestionIndex, &snap.Score,
		&snap.QuestionsAnswered, &snap.CorrectAnswers, &snap.WrongAnswers,
		&snap.PiecesCollected, &revealedJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return codepuzzle.Snapshot{}, codepuzzle.ErrNotFound
	}
	if err != nil {
		return codepuzzle.Snapshot{}, err
	}

	snap.SavedAt = time.UnixMilli(savedAt)
	if time.Since(snap.SavedAt) > snapshotTTL {
		// Stale saved games are silently purged and reported absent.
		if err := s.DeleteSnapshot(ctx, playerID, category); err != nil {
			return codepuzzle.Snapshot{}, err
		}
		return codepuzzle.Snapshot{}, codepuzzle.ErrNotFound
	}

	if err := json.Unmarshal([]byte(revealedJSON), &snap.RevealedPieces); err != nil {
		return codepuzzle.Snapshot{}, fmt.Errorf("decoding revealed pieces: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, playerID string, category codepuzzle.Category) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE player_id = ? AND category = ?
	`, playerID, category)
	return err
}

func (s *SQLiteStore) AllProgress(ctx context.Context, playerID string) (map[codepuzzle.Category]codepuzzle.CategoryProgress, error) {
	all := make(map[codepuzzle.Category]codepuzzle.CategoryProgress, len(codepuzzle.Categories))
	for _, cat := range codepuzzle.Categories {
		p, err := s.Progress(ctx, playerID, cat)
		if err != nil {
			return nil, err
		}
		all[cat] = p
	}
	return all, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, category codepuzzle.Category, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, cp.total_score, cp.completed_levels
		FROM category_progress cp
		JOIN players p ON p.id = cp.player_id
		WHERE cp.category = ?
		ORDER BY cp.total_score DESC, p.name
		LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		var completedJSON string
		if err := rows.Scan(&e.Name, &e.Score, &completedJSON); err != nil {
			return nil, err
		}
		var completed []int
		if err := json.Unmarshal([]byte(completedJSON), &completed); err != nil {
			return nil, fmt.Errorf("decoding completed levels: %w", err)
		}
		e.LevelsCompleted = len(completed)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
