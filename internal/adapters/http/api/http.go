// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/verdict/internal/adapters/judge"
	"github.com/okian/verdict/internal/adapters/leaderboard"
	"github.com/okian/verdict/internal/adapters/realtime"
	"github.com/okian/verdict/internal/adapters/repository"
	service "github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/domain/types"
)

// privilegedHeader marks a leaderboard read as coming from a contest
// official; those readers see live snapshots even during a freeze.
const privilegedHeader = "X-Privileged"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EvaluateCode(ctx context.Context, req service.EvaluateRequest) (*service.Evaluation, error)
	SubmitFile(ctx context.Context, req service.FileRequest) (*service.FileReceipt, error)
	SetManualScore(ctx context.Context, submissionID string, score float64, feedback, judgedBy string) error
	DownloadURL(ctx context.Context, submissionID string) (string, error)

	Accept(ctx context.Context, submissionID string) (types.Snapshot, error)
	ToggleFreeze(ctx context.Context, contestID string) bool
	Snapshot(ctx context.Context, contestID string, privileged bool) (types.Snapshot, error)
	Frozen(contestID string) bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	leaderboardHandler *LeaderboardHandler
	streamHandler      *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, hub *realtime.Hub, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		streamHandler:      NewStreamHandler(hub),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions/evaluate", MetricsMiddleware(s.submissionsHandler.HandleEvaluate, "evaluate"))
	mux.HandleFunc("/submissions/file", MetricsMiddleware(s.submissionsHandler.HandleFile, "file"))
	mux.HandleFunc("/submissions/", MetricsMiddleware(s.submissionsHandler.HandleSubmission, "submission"))
	mux.HandleFunc("/leaderboard/accept", MetricsMiddleware(s.leaderboardHandler.HandleAccept, "accept"))
	mux.HandleFunc("/contests/", MetricsMiddleware(s.leaderboardHandler.HandleContest(s.streamHandler), "contests"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates orchestrator error kinds into the
// machine-readable envelope. Unrecognized errors become a generic 500
// so low-level causes never leak verbatim.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProblemNotFound):
		writeError(w, http.StatusNotFound, "PROBLEM_NOT_FOUND", err)
	case errors.Is(err, service.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, "SUBMISSION_NOT_FOUND", err)
	case errors.Is(err, service.ErrNoTestCases):
		writeError(w, http.StatusUnprocessableEntity, "NO_TEST_CASES", err)
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		writeError(w, http.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", err)
	case errors.Is(err, service.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err)
	case errors.Is(err, service.ErrNotFinished):
		writeError(w, http.StatusConflict, "SUBMISSION_NOT_FINISHED", err)
	case errors.Is(err, service.ErrNoArtifact):
		writeError(w, http.StatusNotFound, "SUBMISSION_NOT_FOUND", err)
	case errors.Is(err, repository.ErrFinalized):
		writeError(w, http.StatusConflict, "SUBMISSION_FINALIZED", err)
	case errors.Is(err, repository.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err)
	case errors.Is(err, judge.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "JUDGE_UNAVAILABLE", errors.New("judge engine unavailable"))
	case errors.Is(err, leaderboard.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, "SNAPSHOT_NOT_FOUND", err)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", errors.New("internal error"))
	}
}
