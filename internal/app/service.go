// Package service provides the evaluation orchestrator that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/verdict/internal/adapters/judge"
	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/adapters/storage"
	"github.com/okian/verdict/internal/domain/dedupe"
	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/scoring"
	"github.com/okian/verdict/internal/domain/types"
	"github.com/okian/verdict/pkg/logger"
	"github.com/okian/verdict/pkg/metrics"
)

// engineActor identifies machine-judged submissions in the audit trail.
const engineActor = "engine"

// Judge is the orchestrator's view of the external evaluation engine.
type Judge interface {
	Evaluate(ctx context.Context, req judge.Request) ([]types.CaseResult, error)
}

// Board is the orchestrator's view of the leaderboard aggregator.
type Board interface {
	Accept(ctx context.Context, contestID, teamID, problemID string, score float64, finishedAt time.Time) (types.Snapshot, error)
	ToggleFreeze(ctx context.Context, contestID string) bool
	Snapshot(ctx context.Context, contestID string, privileged bool) (types.Snapshot, error)
	Frozen(contestID string) bool
}

// EvaluateRequest carries one code submission. Actor is the identity
// performing the submission; it is always explicit, never ambient.
type EvaluateRequest struct {
	TeamID    string
	ProblemID string
	StudentID *string
	Source    string
	Actor     string
}

// Evaluation is the outcome envelope returned to the submitter.
type Evaluation struct {
	SubmissionID string
	Status       model.Status
	Raw          float64
	Final        float64
	Cases        []types.CaseResult
}

// FileRequest carries one uploaded file submission.
type FileRequest struct {
	TeamID    string
	ProblemID string
	StudentID *string
	Filename  string
	Data      []byte
	Actor     string
}

// FileReceipt acknowledges a stored file submission.
type FileReceipt struct {
	SubmissionID string
	URL          string
}

// Service orchestrates the evaluation pipeline: intake, judge dispatch,
// scoring, persistence, leaderboard recompute.
type Service struct {
	store   repository.Store
	judge   Judge
	blobs   storage.Store
	board   Board
	deduper dedupe.Deduper

	maxUploadBytes int64
	allowedTypes   map[string]struct{}

	now   func() time.Time
	newID func() string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the submission record store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithJudge sets the evaluation engine client.
func WithJudge(j Judge) Option {
	return func(s *Service) {
		if j != nil {
			s.judge = j
		}
	}
}

// WithStorage sets the artifact blob store.
func WithStorage(st storage.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.blobs = st
		}
	}
}

// WithBoard sets the leaderboard aggregator.
func WithBoard(b Board) Option {
	return func(s *Service) {
		if b != nil {
			s.board = b
		}
	}
}

// WithDeduper sets the accept idempotency tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithMaxUploadBytes caps the size of a file submission.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithAllowedFileTypes sets the accepted file extensions (without dots).
func WithAllowedFileTypes(exts []string) Option {
	return func(s *Service) {
		if len(exts) == 0 {
			return
		}
		s.allowedTypes = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			s.allowedTypes[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. A judge client must be supplied via
// WithJudge; the remaining collaborators default to in-memory
// implementations.
func New(opts ...Option) *Service {
	s := &Service{
		store:          repository.NewMemoryStore(),
		blobs:          storage.NewMemoryStore(),
		deduper:        dedupe.NewInMemoryDeduper(),
		maxUploadBytes: 10 << 20,
		allowedTypes: map[string]struct{}{
			"pdf": {}, "zip": {}, "txt": {}, "doc": {}, "docx": {},
			"py": {}, "cpp": {}, "c": {}, "go": {}, "java": {},
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// EvaluateCode runs a code submission through the full pipeline.
//
// The prior-attempt count is reserved in the same store write that
// inserts the pending submission; two concurrent evaluations for the
// same team and problem each see the other in their penalty. The judge
// round-trip happens outside any store lock, and the terminal status,
// final score and detail batch land in one atomic write.
func (s *Service) EvaluateCode(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	start := time.Now()

	problem, err := s.store.Problem(ctx, req.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, req.ProblemID)
	}
	cases, err := s.store.TestCases(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		// Nothing is persisted; the attempt does not count.
		return nil, fmt.Errorf("%w: %s", ErrNoTestCases, req.ProblemID)
	}

	createdAt := s.now()
	sub := model.Submission{
		ID:        s.newID(),
		TeamID:    req.TeamID,
		ProblemID: req.ProblemID,
		StudentID: req.StudentID,
		Status:    model.StatusPending,
		CreatedAt: createdAt,
	}
	art := model.Artifact{
		ID:      s.newID(),
		Kind:    model.ArtifactCode,
		Content: req.Source,
	}
	prior, err := s.store.CreateSubmission(ctx, sub, art)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkEvaluating(ctx, sub.ID); err != nil {
		return nil, err
	}

	results, err := s.judge.Evaluate(ctx, judgeRequest(problem, req.Source, cases))
	if err != nil {
		s.logger.Error(ctx, "judge dispatch failed",
			logger.String("submissionID", sub.ID),
			logger.Error(err),
		)
		if finErr := s.store.Finalize(ctx, sub.ID, model.StatusInternalError, 0, engineActor, nil); finErr != nil {
			s.logger.Error(ctx, "failed to finalize after judge failure",
				logger.String("submissionID", sub.ID),
				logger.Error(finErr),
			)
		}
		return nil, err
	}

	score := scoring.Compute(cases, results, prior, problem.PenaltyRate)
	status := terminalStatus(results)
	details := buildDetails(s.newID, sub.ID, cases, results)

	if err := s.store.Finalize(ctx, sub.ID, status, score.Final, engineActor, details); err != nil {
		return nil, err
	}

	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "submission evaluated",
		logger.String("submissionID", sub.ID),
		logger.String("teamID", req.TeamID),
		logger.String("problemID", req.ProblemID),
		logger.String("status", status.String()),
		logger.Float64("score", score.Final),
		logger.Int("priorAttempts", prior),
	)

	return &Evaluation{
		SubmissionID: sub.ID,
		Status:       status,
		Raw:          score.Raw,
		Final:        score.Final,
		Cases:        results,
	}, nil
}

// judgeRequest builds the engine request for a problem's full case set.
// Limits are the maximum across cases; the engine enforces them per run.
func judgeRequest(problem model.Problem, source string, cases []model.TestCase) judge.Request {
	inputs := make([]judge.CaseInput, len(cases))
	var maxTimeMS, maxMemKB int64
	for i, tc := range cases {
		inputs[i] = judge.CaseInput{ID: tc.ID, Stdin: tc.Input, Expected: tc.Expected}
		if tc.TimeLimitMS > maxTimeMS {
			maxTimeMS = tc.TimeLimitMS
		}
		if tc.MemoryLimitKB > maxMemKB {
			maxMemKB = tc.MemoryLimitKB
		}
	}
	return judge.Request{
		Language:     judge.MapLanguage(problem.Language),
		Source:       source,
		ProblemID:    problem.ID,
		ProblemTitle: problem.Title,
		Cases:        inputs,
		TimeLimitS:   float64(maxTimeMS) / 1000,
		MemLimitKB:   maxMemKB,
	}
}

// terminalStatus derives the submission's terminal state from the case
// results. Resource or compile failures take precedence; wrong answers
// and partial passes still count as finished, carrying a partial score.
func terminalStatus(results []types.CaseResult) model.Status {
	for _, r := range results {
		switch r.Status {
		case "time_limit_exceeded":
			return model.StatusTimeLimitExceeded
		case "memory_limit_exceeded":
			return model.StatusMemoryLimitExceeded
		case "runtime_error":
			return model.StatusRuntimeError
		case "compile_error", "compilation_error":
			return model.StatusCompilationError
		}
	}
	return model.StatusFinished
}

// buildDetails converts case results into the immutable audit batch.
// Weight records the earned weight: the case weight on pass, zero
// otherwise.
func buildDetails(newID func() string, submissionID string, cases []model.TestCase, results []types.CaseResult) []model.Detail {
	weights := make(map[string]float64, len(cases))
	for _, tc := range cases {
		weights[tc.ID] = tc.Weight
	}

	details := make([]model.Detail, len(results))
	for i, r := range results {
		var earned float64
		if r.Passed() {
			earned = weights[r.TestCaseID]
		}
		note := r.Status
		if r.Output != "" {
			note = r.Status + ": " + r.Output
		}
		tcID := r.TestCaseID
		details[i] = model.Detail{
			ID:           newID(),
			SubmissionID: submissionID,
			TestCaseID:   &tcID,
			Weight:       earned,
			Note:         note,
			RuntimeMS:    r.RuntimeMS,
			MemoryKB:     r.MemoryKB,
		}
	}
	return details
}

// SubmitFile validates, uploads and records a file submission. The
// extension allow-list and size ceiling are checked before any side
// effect; when the record write fails after a successful upload, the
// orphaned blob is deleted.
func (s *Service) SubmitFile(ctx context.Context, req FileRequest) (*FileReceipt, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if _, ok := s.allowedTypes[ext]; !ok {
		metrics.RecordFileRejected("file_type")
		return nil, fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, ext)
	}
	if int64(len(req.Data)) > s.maxUploadBytes {
		metrics.RecordFileRejected("file_too_large")
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(req.Data))
	}

	problem, err := s.store.Problem(ctx, req.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, req.ProblemID)
	}

	subID := s.newID()
	name := subID + "." + ext
	url, err := s.blobs.Upload(ctx, req.Data, "submissions/"+problem.ID, name)
	if err != nil {
		return nil, err
	}

	sub := model.Submission{
		ID:        subID,
		TeamID:    req.TeamID,
		ProblemID: req.ProblemID,
		StudentID: req.StudentID,
		Status:    model.StatusPending,
		CreatedAt: s.now(),
	}
	art := model.Artifact{
		ID:      s.newID(),
		Kind:    model.ArtifactFile,
		Content: url,
	}
	if _, err := s.store.CreateSubmission(ctx, sub, art); err != nil {
		if _, delErr := s.blobs.Delete(ctx, url); delErr != nil {
			s.logger.Warn(ctx, "failed to delete orphaned artifact",
				logger.String("url", url),
				logger.Error(delErr),
			)
		}
		return nil, err
	}

	metrics.RecordFileUpload()
	s.logger.Info(ctx, "file submission recorded",
		logger.String("submissionID", subID),
		logger.String("teamID", req.TeamID),
		logger.String("problemID", req.ProblemID),
		logger.String("filename", req.Filename),
	)
	return &FileReceipt{SubmissionID: subID, URL: url}, nil
}

// SetManualScore finalizes a pending file submission with a judge
// actor's score and one feedback detail. Terminal submissions are
// rejected; a wrong manual score is corrected by soft-deleting the
// submission and re-submitting, never by rewriting the record.
func (s *Service) SetManualScore(ctx context.Context, submissionID string, score float64, feedback, judgedBy string) error {
	sub, err := s.store.Submission(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}
	if sub.Status.Terminal() {
		return repository.ErrFinalized
	}

	detail := model.Detail{
		ID:           s.newID(),
		SubmissionID: submissionID,
		Note:         feedback,
	}
	if err := s.store.Finalize(ctx, submissionID, model.StatusFinished, score, judgedBy, []model.Detail{detail}); err != nil {
		return err
	}

	metrics.RecordManualScore()
	s.logger.Info(ctx, "manual score assigned",
		logger.String("submissionID", submissionID),
		logger.Float64("score", score),
		logger.String("judgedBy", judgedBy),
	)
	return nil
}

// DownloadURL returns the storage URL of a submission's file artifact.
func (s *Service) DownloadURL(ctx context.Context, submissionID string) (string, error) {
	if _, err := s.store.Submission(ctx, submissionID); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}
	arts, err := s.store.Artifacts(ctx, submissionID)
	if err != nil {
		return "", err
	}
	for _, a := range arts {
		if a.Kind == model.ArtifactFile {
			return a.Content, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoArtifact, submissionID)
}

// Accept folds a finished submission into its contest's leaderboard.
// Accepting the same submission twice is idempotent: the second call
// returns the current ranking without reapplying the score.
func (s *Service) Accept(ctx context.Context, submissionID string) (types.Snapshot, error) {
	sub, err := s.store.Submission(ctx, submissionID)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}
	if sub.Status != model.StatusFinished {
		return types.Snapshot{}, fmt.Errorf("%w: status %s", ErrNotFinished, sub.Status)
	}
	problem, err := s.store.Problem(ctx, sub.ProblemID)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrProblemNotFound, sub.ProblemID)
	}

	if s.deduper.SeenAndRecord(ctx, "accept:"+submissionID) {
		return s.board.Snapshot(ctx, problem.ContestID, true)
	}

	snap, err := s.board.Accept(ctx, problem.ContestID, sub.TeamID, sub.ProblemID, sub.Score, sub.CreatedAt)
	if err != nil {
		s.deduper.Unrecord(ctx, "accept:"+submissionID)
		return types.Snapshot{}, err
	}
	return snap, nil
}

// ToggleFreeze flips a contest's freeze state and reports the new state.
func (s *Service) ToggleFreeze(ctx context.Context, contestID string) bool {
	frozen := s.board.ToggleFreeze(ctx, contestID)
	metrics.UpdateContestFrozen(contestID, frozen)
	s.logger.Info(ctx, "contest freeze toggled",
		logger.String("contestID", contestID),
		logger.Bool("frozen", frozen),
	)
	return frozen
}

// Snapshot returns the leaderboard view a caller may see, honoring the
// freeze state for non-privileged viewers.
func (s *Service) Snapshot(ctx context.Context, contestID string, privileged bool) (types.Snapshot, error) {
	return s.board.Snapshot(ctx, contestID, privileged)
}

// Frozen reports whether a contest is currently frozen.
func (s *Service) Frozen(contestID string) bool {
	return s.board.Frozen(contestID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	total := s.store.Count(ctx)
	metrics.UpdateTotalSubmissions(total)

	return map[string]interface{}{
		"totalSubmissions": total,
		"acceptedTracked":  s.deduper.Size(),
	}
}
