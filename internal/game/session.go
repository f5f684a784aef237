// Package game owns the live game state: answer grading, scoring,
// puzzle-piece reveals, level unlocking, and the snapshot-driven
// resume and reset flows.
package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/content"
)

const (
	pointsCorrect = 10
	pointsWrong   = 5

	// Delays before the deferred advance to the next question. The
	// longer incorrect delay gives the player time to read the
	// expected answer.
	correctAdvanceDelay = 2 * time.Second
	wrongAdvanceDelay   = 3 * time.Second
)

var (
	// ErrAnswerRequired is returned for an empty submission. Nothing is
	// graded and no state changes.
	ErrAnswerRequired = errors.New("answer required")
	// ErrSubmissionPending rejects a submission while a prior answer's
	// deferred advance is still outstanding.
	ErrSubmissionPending = errors.New("submission already in progress")
	// ErrPuzzleComplete rejects game actions after the 5th piece.
	ErrPuzzleComplete = errors.New("puzzle already complete")
	// ErrSessionClosed rejects actions on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
	// ErrLevelLocked rejects starting a level above the unlocked one.
	ErrLevelLocked = errors.New("level is locked")
	// ErrNoProgress rejects continue/reset on an untouched category.
	ErrNoProgress = errors.New("no progress in this category")
	// ErrAllLevelsComplete signals that continue has nothing left to
	// start; the player picks a level to replay instead.
	ErrAllLevelsComplete = errors.New("all levels completed")
)

// Store is the persistence the engine needs: per-category progress and
// per-(player, category) session snapshots.
type Store interface {
	Progress(ctx context.Context, playerID string, category codepuzzle.Category) (codepuzzle.CategoryProgress, error)
	SaveProgress(ctx context.Context, playerID string, category codepuzzle.Category, p codepuzzle.CategoryProgress) error

	SaveSnapshot(ctx context.Context, snap codepuzzle.Snapshot) error
	LoadSnapshot(ctx context.Context, playerID string, category codepuzzle.Category) (codepuzzle.Snapshot, error)
	DeleteSnapshot(ctx context.Context, playerID string, category codepuzzle.Category) error
}

// Session is the live state of one in-progress level. One session
// exists per (player, category); the Manager owns the mapping.
//
// All methods are safe for concurrent use, but the design is a
// single-player debounce: the submission permit rejects a second
// SubmitAnswer while a prior one's deferred advance is pending.
type Session struct {
	playerID string
	category codepuzzle.Category

	store  Store
	sched  Scheduler
	logger *slog.Logger
	now    func() time.Time

	mu                sync.Mutex
	level             int
	questionIndex     int
	score             int
	questionsAnswered int
	correctAnswers    int
	wrongAnswers      int
	questions         []codepuzzle.Question
	pieces            [codepuzzle.PiecesPerPuzzle]bool
	piecesCollected   int
	image             string
	trivia            string
	puzzleComplete    bool
	submitting        bool
	closed            bool
}

// QuestionView is the displayable part of the current question. The
// expected answer never leaves the engine.
type QuestionView struct {
	Number       int
	Prompt       string
	Instructions string
	Kind         codepuzzle.QuestionKind
}

// View is a copy of the display fields the presentation layer consumes.
type View struct {
	Category          codepuzzle.Category
	Level             int
	Score             int
	QuestionsAnswered int
	CorrectAnswers    int
	WrongAnswers      int
	PiecesCollected   int
	RevealedPieces    []int
	PuzzleComplete    bool
	Question          *QuestionView
	Image             string
	Trivia            string
}

// SubmitResult is the graded outcome of one submission.
type SubmitResult struct {
	Correct         bool
	Score           int
	PieceRevealed   int
	PiecesCollected int
	PuzzleComplete  bool
	Expected        string
	Trivia          string
}

// View returns the current display state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Category:          s.category,
		Level:             s.level,
		Score:             s.score,
		QuestionsAnswered: s.questionsAnswered,
		CorrectAnswers:    s.correctAnswers,
		WrongAnswers:      s.wrongAnswers,
		PiecesCollected:   s.piecesCollected,
		RevealedPieces:    s.revealedLocked(),
		PuzzleComplete:    s.puzzleComplete,
		Image:             s.image,
	}
	if s.puzzleComplete {
		v.Trivia = s.trivia
		return v
	}
	q := s.currentQuestionLocked()
	v.Question = &QuestionView{
		Number:       s.questionIndex + 1,
		Prompt:       q.Prompt,
		Instructions: q.Instructions,
		Kind:         q.Kind,
	}
	return v
}

// currentQuestionLocked wraps the index past the end of the sequence
// before reading, mirroring what loading a question always did.
func (s *Session) currentQuestionLocked() codepuzzle.Question {
	if s.questionIndex >= len(s.questions) {
		s.questionIndex = 0
	}
	return s.questions[s.questionIndex]
}

func (s *Session) revealedLocked() []int {
	revealed := make([]int, 0, s.piecesCollected)
	for i, r := range s.pieces {
		if r {
			revealed = append(revealed, i+1)
		}
	}
	return revealed
}

// SubmitAnswer grades one submission. An empty answer is rejected
// before grading and does not engage the submission permit. Both
// outcomes schedule a deferred advance that moves to the next question,
// persists a snapshot, and releases the permit.
func (s *Session) SubmitAnswer(ctx context.Context, text string) (SubmitResult, error) {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return SubmitResult{}, ErrSessionClosed
	case s.puzzleComplete:
		s.mu.Unlock()
		return SubmitResult{}, ErrPuzzleComplete
	case s.submitting:
		s.mu.Unlock()
		return SubmitResult{}, ErrSubmissionPending
	case trimmed == "":
		s.mu.Unlock()
		return SubmitResult{}, ErrAnswerRequired
	}

	s.submitting = true
	q := s.currentQuestionLocked()
	s.questionsAnswered++

	res := SubmitResult{Correct: Grade(trimmed, q.Answer)}
	var delay time.Duration
	var storeErr error

	if res.Correct {
		s.correctAnswers++
		s.score += pointsCorrect
		res.PieceRevealed, storeErr = s.revealPieceLocked(ctx)
		delay = correctAdvanceDelay
	} else {
		s.wrongAnswers++
		s.score -= pointsWrong
		if s.score < 0 {
			s.score = 0
		}
		res.Expected = q.Answer
		// Demote the missed question to the end of the sequence so it
		// recurs; the next question slides into the current index.
		s.questions = append(s.questions[:s.questionIndex], s.questions[s.questionIndex+1:]...)
		s.questions = append(s.questions, q)
		delay = wrongAdvanceDelay
	}

	if !s.puzzleComplete {
		if err := s.saveSnapshotLocked(ctx); err != nil && storeErr == nil {
			storeErr = err
		}
	}

	res.Score = s.score
	res.PiecesCollected = s.piecesCollected
	res.PuzzleComplete = s.puzzleComplete
	if s.puzzleComplete {
		res.Trivia = s.trivia
	}
	advanceAfter := res.Correct
	s.mu.Unlock()

	s.sched.AfterFunc(delay, func() { s.advance(advanceAfter) })

	if storeErr != nil {
		return res, storeErr
	}
	return res, nil
}

// advance is the deferred post-answer transition. It always releases
// the submission permit; everything else is skipped if the session was
// torn down or the puzzle completed in the meantime.
func (s *Session) advance(increment bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if s.closed || s.puzzleComplete {
		return
	}

	if increment {
		s.questionIndex++
	}
	if s.questionIndex >= len(s.questions) {
		s.questionIndex = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.saveSnapshotLocked(ctx); err != nil {
		s.logger.Error("saving snapshot after advance", "player", s.playerID, "category", s.category, "error", err)
	}
}

// revealPieceLocked reveals the first not-yet-revealed piece and
// returns its identifier. The 5th reveal completes the puzzle: the
// snapshot is discarded, the level recorded as completed, the next
// level unlocked if this one was the frontier, and the session score
// folded into the category total.
func (s *Session) revealPieceLocked(ctx context.Context) (int, error) {
	piece := 0
	for i := range s.pieces {
		if !s.pieces[i] {
			s.pieces[i] = true
			s.piecesCollected++
			piece = i + 1
			break
		}
	}
	if piece == 0 {
		return 0, nil
	}

	if s.piecesCollected < codepuzzle.PiecesPerPuzzle {
		return piece, nil
	}

	s.puzzleComplete = true
	if err := s.store.DeleteSnapshot(ctx, s.playerID, s.category); err != nil {
		return piece, err
	}

	prog, err := s.store.Progress(ctx, s.playerID, s.category)
	if err != nil {
		return piece, err
	}
	if !prog.Completed(s.level) {
		prog.CompletedLevels = append(prog.CompletedLevels, s.level)
	}
	if s.level < codepuzzle.MaxLevel && prog.UnlockedLevel == s.level {
		prog.UnlockedLevel = s.level + 1
	}
	// Replays add their score again; there is no completion dedup.
	prog.TotalScore += s.score
	return piece, s.store.SaveProgress(ctx, s.playerID, s.category, prog)
}

// Skip moves to the next question without grading. Score and counters
// are untouched.
func (s *Session) Skip(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return View{}, ErrSessionClosed
	}
	if s.puzzleComplete {
		return View{}, ErrPuzzleComplete
	}

	s.questionIndex++
	if s.questionIndex >= len(s.questions) {
		s.questionIndex = 0
	}
	if err := s.saveSnapshotLocked(ctx); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

// Hint returns the current question's hint.
func (s *Session) Hint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	if s.puzzleComplete {
		return "", ErrPuzzleComplete
	}
	return s.currentQuestionLocked().Hint, nil
}

func (s *Session) saveSnapshotLocked(ctx context.Context) error {
	return s.store.SaveSnapshot(ctx, codepuzzle.Snapshot{
		PlayerID:          s.playerID,
		Category:          s.category,
		Level:             s.level,
		QuestionIndex:     s.questionIndex,
		Score:             s.score,
		QuestionsAnswered: s.questionsAnswered,
		CorrectAnswers:    s.correctAnswers,
		WrongAnswers:      s.wrongAnswers,
		PiecesCollected:   s.piecesCollected,
		RevealedPieces:    s.revealedLocked(),
		SavedAt:           s.now(),
	})
}

// close tears the session down. Pending deferred advances become
// no-ops; state changes committed before close stay committed.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// leave exits to level select: the snapshot is kept only when pieces
// were collected and the puzzle is unfinished.
func (s *Session) leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	if !s.puzzleComplete && s.piecesCollected > 0 {
		return s.saveSnapshotLocked(ctx)
	}
	return nil
}

func newSession(playerID string, lvl content.Level, store Store, sched Scheduler, logger *slog.Logger, now func() time.Time) *Session {
	return &Session{
		playerID:  playerID,
		category:  lvl.Category,
		level:     lvl.Number,
		questions: lvl.Questions,
		image:     lvl.Image,
		trivia:    lvl.Trivia,
		store:     store,
		sched:     sched,
		logger:    logger,
		now:       now,
	}
}
