package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Code Puzzle API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Code Puzzle game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/players
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	postRegister.SetSummary("Register player")
	postRegister.SetDescription("Creates a player account and returns a session token.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postRegister)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticate with name and password. Returns a session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Saves any in-progress games and ends the session. Requires Bearer token.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postLogout.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogout)

	// GET /api/players/recent
	getRecent, _ := r.NewOperationContext(http.MethodGet, "/api/players/recent")
	getRecent.SetSummary("Recent players")
	getRecent.SetDescription("Returns recently active players for the login screen.")
	getRecent.AddRespStructure(PlayersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getRecent)

	// PUT /api/players/me/password
	putPassword, _ := r.NewOperationContext(http.MethodPut, "/api/players/me/password")
	putPassword.SetSummary("Change password")
	putPassword.SetDescription("Changes the player's password after verifying the current one. Requires Bearer token.")
	putPassword.AddReqStructure(PasswordChangeRequest{})
	putPassword.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	putPassword.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putPassword.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putPassword)

	// DELETE /api/players/me
	deleteMe, _ := r.NewOperationContext(http.MethodDelete, "/api/players/me")
	deleteMe.SetSummary("Delete account")
	deleteMe.SetDescription("Deletes the player and all progress after password confirmation. Requires Bearer token.")
	deleteMe.AddReqStructure(DeleteAccountRequest{})
	deleteMe.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteMe)

	// GET /api/leaderboard/{category}
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard/{category}")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Returns the top players for a category by total score.")
	getLeaderboard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/progress")
	getProgress.SetSummary("Player progress")
	getProgress.SetDescription("Returns unlocked and completed levels per category. Requires Bearer token.")
	getProgress.AddRespStructure(ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProgress)

	// POST /api/progress/{category}/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/progress/{category}/reset")
	postReset.SetSummary("Reset category")
	postReset.SetDescription("Clears all progress in one category. Requires Bearer token.")
	postReset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postReset)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start level")
	postStart.SetDescription("Starts a fresh game at an unlocked level. Requires Bearer token.")
	postStart.AddReqStructure(StartGameRequest{})
	postStart.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/game/continue
	postContinue, _ := r.NewOperationContext(http.MethodPost, "/api/game/continue")
	postContinue.SetSummary("Continue game")
	postContinue.SetDescription("Resumes a saved game or starts the highest unlocked level. Requires Bearer token.")
	postContinue.AddReqStructure(CategoryRequest{})
	postContinue.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postContinue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postContinue)

	// POST /api/game/leave
	postLeave, _ := r.NewOperationContext(http.MethodPost, "/api/game/leave")
	postLeave.SetSummary("Leave game")
	postLeave.SetDescription("Saves a snapshot of the running game and closes it. Requires Bearer token.")
	postLeave.AddReqStructure(CategoryRequest{})
	postLeave.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postLeave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postLeave)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the running game for one category. Requires Bearer token.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// GET /api/game/hint
	getHint, _ := r.NewOperationContext(http.MethodGet, "/api/game/hint")
	getHint.SetSummary("Hint")
	getHint.SetDescription("Returns the hint for the current question. Requires Bearer token.")
	getHint.AddRespStructure(HintResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getHint)

	// POST /api/game/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/game/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Grades the answer to the current question. Requires Bearer token.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// POST /api/game/skip
	postSkip, _ := r.NewOperationContext(http.MethodPost, "/api/game/skip")
	postSkip.SetSummary("Skip question")
	postSkip.SetDescription("Moves to the next question without scoring. Requires Bearer token.")
	postSkip.AddReqStructure(CategoryRequest{})
	postSkip.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSkip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postSkip)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream for real-time game updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
