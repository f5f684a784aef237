package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/content"
)

type sessionKey struct {
	playerID string
	category codepuzzle.Category
}

// Manager owns the live sessions, one per (player, category). It is
// the explicit session context the presentation layer talks to:
// sessions are created at level start or resume and torn down at
// leave, logout, or account deletion.
type Manager struct {
	content *content.Store
	store   Store
	sched   Scheduler
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[sessionKey]*Session
}

// NewManager wires the engine. Pass TimerScheduler{} outside of tests.
func NewManager(contentStore *content.Store, store Store, sched Scheduler, logger *slog.Logger) *Manager {
	return &Manager{
		content:  contentStore,
		store:    store,
		sched:    sched,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[sessionKey]*Session),
	}
}

// Session returns the live session for (player, category), if any.
func (m *Manager) Session(playerID string, category codepuzzle.Category) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey{playerID, category}]
	return s, ok
}

// StartLevel begins a fresh run of (category, level). The level must be
// unlocked. Any prior snapshot for the category is cleared and any live
// session replaced.
func (m *Manager) StartLevel(ctx context.Context, playerID string, category codepuzzle.Category, level int) (*Session, error) {
	prog, err := m.store.Progress(ctx, playerID, category)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	if !prog.Unlocked(level) {
		return nil, ErrLevelLocked
	}

	if err := m.store.DeleteSnapshot(ctx, playerID, category); err != nil && !errors.Is(err, codepuzzle.ErrNotFound) {
		return nil, fmt.Errorf("clearing snapshot: %w", err)
	}

	lvl, err := m.content.Level(category, level)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	s := newSession(playerID, lvl, m.store, m.sched, m.logger, m.now)
	m.replace(sessionKey{playerID, category}, s)
	return s, nil
}

// Resume reconstructs a session from the category's snapshot. The
// question sequence is rebuilt fresh from the content store; only
// progress counters and revealed pieces come from the snapshot.
// Returns codepuzzle.ErrNotFound when no usable snapshot exists.
func (m *Manager) Resume(ctx context.Context, playerID string, category codepuzzle.Category) (*Session, error) {
	snap, err := m.store.LoadSnapshot(ctx, playerID, category)
	if err != nil {
		return nil, err
	}

	lvl, err := m.content.Level(category, snap.Level)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	s := newSession(playerID, lvl, m.store, m.sched, m.logger, m.now)
	s.questionIndex = snap.QuestionIndex
	s.score = snap.Score
	s.questionsAnswered = snap.QuestionsAnswered
	s.correctAnswers = snap.CorrectAnswers
	s.wrongAnswers = snap.WrongAnswers
	s.piecesCollected = snap.PiecesCollected
	for _, p := range snap.RevealedPieces {
		if p >= 1 && p <= codepuzzle.PiecesPerPuzzle {
			s.pieces[p-1] = true
		}
	}

	m.replace(sessionKey{playerID, category}, s)
	return s, nil
}

// Continue is the resume-or-start flow behind the Continue button:
// prefer the saved snapshot; otherwise start the frontier level. With
// no progress at all, or with every level already completed, there is
// nothing to continue.
func (m *Manager) Continue(ctx context.Context, playerID string, category codepuzzle.Category) (*Session, error) {
	s, err := m.Resume(ctx, playerID, category)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, codepuzzle.ErrNotFound) {
		return nil, err
	}

	prog, err := m.store.Progress(ctx, playerID, category)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	if !prog.HasProgress() {
		return nil, ErrNoProgress
	}
	if len(prog.CompletedLevels) == codepuzzle.MaxLevel {
		return nil, ErrAllLevelsComplete
	}
	return m.StartLevel(ctx, playerID, category, prog.UnlockedLevel)
}

// Leave exits the category's session back to level select.
func (m *Manager) Leave(ctx context.Context, playerID string, category codepuzzle.Category) error {
	key := sessionKey{playerID, category}

	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if !ok {
		return codepuzzle.ErrNotFound
	}
	return s.leave(ctx)
}

// CloseAll tears down every live session for the player. Used at
// logout, player switch, and account deletion.
func (m *Manager) CloseAll(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if key.playerID == playerID {
			s.close()
			delete(m.sessions, key)
		}
	}
}

// ResetCategory wipes the category back to level 1 with no completions
// and no score, and discards any snapshot. Rejected when there is no
// progress to reset. Confirmation is the caller's concern.
func (m *Manager) ResetCategory(ctx context.Context, playerID string, category codepuzzle.Category) error {
	prog, err := m.store.Progress(ctx, playerID, category)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}
	if !prog.HasProgress() {
		return ErrNoProgress
	}

	key := sessionKey{playerID, category}
	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		s.close()
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if err := m.store.DeleteSnapshot(ctx, playerID, category); err != nil && !errors.Is(err, codepuzzle.ErrNotFound) {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return m.store.SaveProgress(ctx, playerID, category, codepuzzle.NewCategoryProgress())
}

// replace installs a session, closing any predecessor so its pending
// deferred advances become no-ops.
func (m *Manager) replace(key sessionKey, s *Session) {
	m.mu.Lock()
	if old, ok := m.sessions[key]; ok {
		old.close()
	}
	m.sessions[key] = s
	m.mu.Unlock()
}
