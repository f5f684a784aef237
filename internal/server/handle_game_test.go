package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codepuzzle/api/internal/codepuzzle"
	"github.com/codepuzzle/api/internal/content"
	"github.com/codepuzzle/api/internal/database"
	"github.com/codepuzzle/api/internal/game"
	"github.com/codepuzzle/api/internal/migrations"
)

// syncScheduler fires deferred advances inline so tests never wait on
// real timers.
type syncScheduler struct{}

func (syncScheduler) AfterFunc(_ time.Duration, fn func()) { fn() }

type env struct {
	router *chi.Mux
	db     *sql.DB
	bank   *content.Store
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	// Real SQLite in-memory DB — lightweight, no mocks needed.
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	bank, err := content.New()
	if err != nil {
		t.Fatalf("load question bank: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSQLiteStore(db)
	games := game.NewManager(bank, store, syncScheduler{}, logger)

	r := chi.NewRouter()
	addRoutes(r, logger, store, games, db, "")
	return &env{router: r, db: db, bank: bank}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) register(t *testing.T, name, password string) AuthResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/players", "", RegisterRequest{Name: name, Password: password})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %q: status = %d: %s", name, w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

// answers returns the expected answers for a level in bank order, which
// is the order a fresh session asks them in.
func (e *env) answers(t *testing.T, category codepuzzle.Category, level int) []string {
	t.Helper()
	lvl, err := e.bank.Level(category, level)
	if err != nil {
		t.Fatalf("level %s/%d: %v", category, level, err)
	}
	out := make([]string, len(lvl.Questions))
	for i, q := range lvl.Questions {
		out[i] = q.Answer
	}
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	e := setupEnv(t)

	auth := e.register(t, "Ana", "secret")
	if auth.Token == "" || auth.PlayerID == "" {
		t.Fatalf("register returned empty token or id: %+v", auth)
	}

	// Names are unique ignoring case.
	w := e.do(t, http.MethodPost, "/api/players", "", RegisterRequest{Name: "ana", Password: "secret"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = e.do(t, http.MethodPost, "/api/login", "", LoginRequest{Name: "ANA", Password: "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/login", "", LoginRequest{Name: "Ana", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = e.do(t, http.MethodPost, "/api/login", "", LoginRequest{Name: "Nobody", Password: "secret"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown player status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := setupEnv(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"empty name", RegisterRequest{Name: "", Password: "secret"}},
		{"empty password", RegisterRequest{Name: "Ana", Password: ""}},
		{"short password", RegisterRequest{Name: "Ana", Password: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/players", "", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodGet, "/api/progress", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = e.do(t, http.MethodGet, "/api/progress", "bogus-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGameFlow(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Maria", "secret")
	answers := e.answers(t, codepuzzle.CategoryBeginner, 1)

	w := e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	var state GameStateResponse
	json.NewDecoder(w.Body).Decode(&state)
	if state.Question == nil || state.Question.Number != 1 {
		t.Fatalf("start state question = %+v, want question 1", state.Question)
	}
	if state.Image == "" {
		t.Error("start state missing puzzle image")
	}

	// Correct answer reveals a piece.
	w = e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answers[0]})
	if w.Code != http.StatusOK {
		t.Fatalf("answer status = %d: %s", w.Code, w.Body.String())
	}
	var res AnswerResponse
	json.NewDecoder(w.Body).Decode(&res)
	if !res.Correct || res.Score != 10 || res.PieceRevealed != 1 {
		t.Fatalf("answer = %+v, want correct, score 10, piece 1", res)
	}

	// Wrong answer echoes the expected answer and floors the score.
	w = e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: "definitely wrong"})
	if w.Code != http.StatusOK {
		t.Fatalf("wrong answer status = %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&res)
	if res.Correct || res.Expected == "" || res.Score != 5 {
		t.Fatalf("wrong answer = %+v, want incorrect with expected echo and score 5", res)
	}

	// Empty answer is a client error.
	w = e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty answer status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	// Hint for the current question.
	w = e.do(t, http.MethodGet, "/api/game/hint?category=beginner", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hint status = %d: %s", w.Code, w.Body.String())
	}

	// Skip moves on without scoring.
	w = e.do(t, http.MethodPost, "/api/game/skip", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})
	if w.Code != http.StatusOK {
		t.Fatalf("skip status = %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&state)
	if state.Score != 5 {
		t.Errorf("score after skip = %d, want 5", state.Score)
	}

	// State endpoint reflects the session.
	w = e.do(t, http.MethodGet, "/api/game/state?category=beginner", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&state)
	if state.PiecesCollected != 1 {
		t.Errorf("pieces collected = %d, want 1", state.PiecesCollected)
	}
}

func TestStartLockedLevel(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Jo", "secret")

	w := e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 3})
	if w.Code != http.StatusConflict {
		t.Fatalf("locked level status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 9})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range level status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCompleteLevelAndProgress(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Pia", "secret")
	answers := e.answers(t, codepuzzle.CategoryBeginner, 1)

	w := e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}

	var res AnswerResponse
	for _, answer := range answers {
		w = e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
			AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answer})
		if w.Code != http.StatusOK {
			t.Fatalf("answer status = %d: %s", w.Code, w.Body.String())
		}
		json.NewDecoder(w.Body).Decode(&res)
		if !res.Correct {
			t.Fatalf("answer %q graded incorrect", answer)
		}
	}
	if !res.PuzzleComplete || res.PiecesCollected != 5 || res.Trivia == "" {
		t.Fatalf("final answer = %+v, want complete puzzle with trivia", res)
	}

	// Completion unlocked level 2 and banked the score.
	w = e.do(t, http.MethodGet, "/api/progress", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("progress status = %d: %s", w.Code, w.Body.String())
	}
	var prog ProgressResponse
	json.NewDecoder(w.Body).Decode(&prog)
	beginner := prog.Progress[codepuzzle.CategoryBeginner]
	if beginner.UnlockedLevel != 2 {
		t.Errorf("unlocked level = %d, want 2", beginner.UnlockedLevel)
	}
	if len(beginner.CompletedLevels) != 1 || beginner.CompletedLevels[0] != 1 {
		t.Errorf("completed levels = %v, want [1]", beginner.CompletedLevels)
	}
	if beginner.TotalScore != 50 {
		t.Errorf("category score = %d, want 50", beginner.TotalScore)
	}

	// Leaderboard picks up the banked score.
	w = e.do(t, http.MethodGet, "/api/leaderboard/beginner", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d: %s", w.Code, w.Body.String())
	}
	var board LeaderboardResponse
	json.NewDecoder(w.Body).Decode(&board)
	if len(board.Entries) != 1 || board.Entries[0].Name != "Pia" || board.Entries[0].Score != 50 {
		t.Fatalf("leaderboard = %+v, want Pia with 50", board)
	}

	// The finished session rejects further answers.
	w = e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answers[0]})
	if w.Code != http.StatusConflict {
		t.Errorf("answer after completion status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestLeaveAndContinue(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Leo", "secret")
	answers := e.answers(t, codepuzzle.CategoryBeginner, 1)

	e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})
	e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answers[0]})

	w := e.do(t, http.MethodPost, "/api/game/leave", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})
	if w.Code != http.StatusNoContent {
		t.Fatalf("leave status = %d: %s", w.Code, w.Body.String())
	}

	// The session is gone.
	w = e.do(t, http.MethodGet, "/api/game/state?category=beginner", auth.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("state after leave status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// Continue resumes the saved game.
	w = e.do(t, http.MethodPost, "/api/game/continue", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})
	if w.Code != http.StatusOK {
		t.Fatalf("continue status = %d: %s", w.Code, w.Body.String())
	}
	var state GameStateResponse
	json.NewDecoder(w.Body).Decode(&state)
	if state.Score != 10 || state.PiecesCollected != 1 {
		t.Fatalf("resumed state score=%d pieces=%d, want 10 and 1", state.Score, state.PiecesCollected)
	}
}

func TestContinueWithoutProgress(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Ida", "secret")

	w := e.do(t, http.MethodPost, "/api/game/continue", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})
	if w.Code != http.StatusConflict {
		t.Fatalf("continue status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestStaleSnapshotIgnored(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Tom", "secret")
	answers := e.answers(t, codepuzzle.CategoryBeginner, 1)

	// Complete level 1, then leave level 2 partway through.
	e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})
	for _, answer := range answers {
		e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
			AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answer})
	}
	answers2 := e.answers(t, codepuzzle.CategoryBeginner, 2)
	e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 2})
	e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
		AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answers2[0]})
	e.do(t, http.MethodPost, "/api/game/leave", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})

	// Age the snapshot past the expiry window.
	stale := time.Now().Add(-25 * time.Hour).UnixMilli()
	if _, err := e.db.Exec(`UPDATE snapshots SET saved_at = ?`, stale); err != nil {
		t.Fatalf("aging snapshot: %v", err)
	}

	// Continue falls back to a fresh start at the unlocked level.
	w := e.do(t, http.MethodPost, "/api/game/continue", auth.Token,
		CategoryRequest{Category: codepuzzle.CategoryBeginner})
	if w.Code != http.StatusOK {
		t.Fatalf("continue status = %d: %s", w.Code, w.Body.String())
	}
	var state GameStateResponse
	json.NewDecoder(w.Body).Decode(&state)
	if state.Score != 0 || state.PiecesCollected != 0 || state.Level != 2 {
		t.Fatalf("state after stale snapshot = %+v, want fresh level 2", state)
	}
}

func TestResetCategory(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Nia", "secret")

	// Nothing to reset yet.
	w := e.do(t, http.MethodPost, "/api/progress/beginner/reset", auth.Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("reset without progress status = %d, want %d", w.Code, http.StatusConflict)
	}

	answers := e.answers(t, codepuzzle.CategoryBeginner, 1)
	e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})
	for _, answer := range answers {
		e.do(t, http.MethodPost, "/api/game/answer", auth.Token,
			AnswerRequest{Category: codepuzzle.CategoryBeginner, Answer: answer})
	}

	w = e.do(t, http.MethodPost, "/api/progress/beginner/reset", auth.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/progress", auth.Token, nil)
	var prog ProgressResponse
	json.NewDecoder(w.Body).Decode(&prog)
	beginner := prog.Progress[codepuzzle.CategoryBeginner]
	if beginner.UnlockedLevel != 1 || len(beginner.CompletedLevels) != 0 || beginner.TotalScore != 0 {
		t.Fatalf("progress after reset = %+v, want fresh category", beginner)
	}
}

func TestLogoutClosesSessions(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Zed", "secret")

	e.do(t, http.MethodPost, "/api/game/start", auth.Token,
		StartGameRequest{Category: codepuzzle.CategoryBeginner, Level: 1})

	w := e.do(t, http.MethodPost, "/api/logout", auth.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d: %s", w.Code, w.Body.String())
	}

	// The token is dead.
	w = e.do(t, http.MethodGet, "/api/progress", auth.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("progress after logout status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestChangePasswordAndDeleteAccount(t *testing.T) {
	e := setupEnv(t)
	auth := e.register(t, "Kim", "secret")

	w := e.do(t, http.MethodPut, "/api/players/me/password", auth.Token,
		PasswordChangeRequest{CurrentPassword: "wrong", NewPassword: "newpass"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("change with wrong current status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = e.do(t, http.MethodPut, "/api/players/me/password", auth.Token,
		PasswordChangeRequest{CurrentPassword: "secret", NewPassword: "newpass"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("change password status = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/login", "", LoginRequest{Name: "Kim", Password: "newpass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodDelete, "/api/players/me", auth.Token,
		DeleteAccountRequest{Password: "newpass"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete account status = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/login", "", LoginRequest{Name: "Kim", Password: "newpass"})
	if w.Code != http.StatusNotFound {
		t.Errorf("login after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRecentPlayers(t *testing.T) {
	e := setupEnv(t)
	e.register(t, "First", "secret")
	e.register(t, "Second", "secret")

	w := e.do(t, http.MethodGet, "/api/players/recent", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recent players status = %d: %s", w.Code, w.Body.String())
	}
	var players PlayersResponse
	json.NewDecoder(w.Body).Decode(&players)
	if len(players.Players) != 2 {
		t.Fatalf("recent players = %d, want 2", len(players.Players))
	}
}
