package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/pkg/metrics"
)

// In-memory Store implementation.
//
// A single RWMutex guards all tables. Every write operation runs its
// validation first and mutates state only once nothing can fail, which
// gives the all-or-nothing semantics the orchestrator relies on. The
// judge round-trip never happens under this lock; writer sections are
// short and purely in-memory.

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu sync.RWMutex

	problems  map[string]model.Problem
	testCases map[string][]model.TestCase // problemID -> cases in authored order

	submissions map[string]model.Submission
	artifacts   map[string][]model.Artifact // submissionID -> artifacts
	details     map[string][]model.Detail   // submissionID -> detail batch

	// byAttempt indexes submission IDs per team+problem in creation
	// order; it backs the prior-count reservation.
	byAttempt map[attemptKey][]string

	now func() time.Time
}

type attemptKey struct {
	teamID    string
	problemID string
}

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the wall clock, used by tests for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		problems:    make(map[string]model.Problem),
		testCases:   make(map[string][]model.TestCase),
		submissions: make(map[string]model.Submission),
		artifacts:   make(map[string][]model.Artifact),
		details:     make(map[string][]model.Detail),
		byAttempt:   make(map[attemptKey][]string),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Problem returns a problem by ID, excluding soft-deleted rows.
func (s *MemoryStore) Problem(_ context.Context, id string) (model.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.problems[id]
	if !ok || p.Deleted() {
		return model.Problem{}, ErrNotFound
	}
	return p, nil
}

// TestCases returns the fixed case set for a problem.
func (s *MemoryStore) TestCases(_ context.Context, problemID string) ([]model.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cases, ok := s.testCases[problemID]
	if !ok {
		return nil, nil
	}
	out := make([]model.TestCase, len(cases))
	copy(out, cases)
	return out, nil
}

// CreateSubmission inserts a pending submission and its first artifact,
// returning the prior-attempt count under the same writer section.
func (s *MemoryStore) CreateSubmission(_ context.Context, sub model.Submission, art model.Artifact) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.ID]; exists {
		return 0, ErrConflict
	}

	key := attemptKey{teamID: sub.TeamID, problemID: sub.ProblemID}
	prior := 0
	for _, id := range s.byAttempt[key] {
		if existing, ok := s.submissions[id]; ok && !existing.Deleted() {
			prior++
		}
	}

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	if art.CreatedAt.IsZero() {
		art.CreatedAt = sub.CreatedAt
	}
	art.SubmissionID = sub.ID

	s.submissions[sub.ID] = sub
	s.artifacts[sub.ID] = append(s.artifacts[sub.ID], art)
	s.byAttempt[key] = append(s.byAttempt[key], sub.ID)

	metrics.RecordSubmissionCreated()
	return prior, nil
}

// MarkEvaluating moves a pending submission into the evaluating window.
func (s *MemoryStore) MarkEvaluating(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[submissionID]
	if !ok || sub.Deleted() {
		return ErrNotFound
	}
	if sub.Status != model.StatusPending {
		return ErrBadTransition
	}
	sub.Status = model.StatusEvaluating
	s.submissions[submissionID] = sub
	return nil
}

// Finalize writes the terminal status, score, judging identity and
// detail batch atomically.
func (s *MemoryStore) Finalize(_ context.Context, submissionID string, status model.Status, score float64, judgedBy string, details []model.Detail) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !status.Terminal() {
		return ErrBadTransition
	}
	if score < 0 || score > 100 {
		return ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[submissionID]
	if !ok || sub.Deleted() {
		return ErrNotFound
	}
	if sub.Status.Terminal() {
		return ErrFinalized
	}
	if !sub.Status.CanTransition(status) {
		return ErrBadTransition
	}

	// Validation is done; from here every mutation succeeds, so the
	// batch lands as a whole.
	ts := s.now()
	batch := make([]model.Detail, len(details))
	for i, d := range details {
		d.SubmissionID = submissionID
		if d.CreatedAt.IsZero() {
			d.CreatedAt = ts
		}
		batch[i] = d
	}

	sub.Status = status
	sub.Score = score
	sub.JudgedBy = judgedBy
	s.submissions[submissionID] = sub
	s.details[submissionID] = append(s.details[submissionID], batch...)

	metrics.RecordSubmissionFinalized(status.String())
	return nil
}

// Submission returns a submission by ID, excluding soft-deleted rows.
func (s *MemoryStore) Submission(_ context.Context, id string) (model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok || sub.Deleted() {
		return model.Submission{}, ErrNotFound
	}
	return sub, nil
}

// Details returns the detail batch of a submission in write order.
func (s *MemoryStore) Details(_ context.Context, submissionID string) ([]model.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.details[submissionID]
	out := make([]model.Detail, len(batch))
	copy(out, batch)
	return out, nil
}

// Artifacts returns the artifacts of a submission in write order.
func (s *MemoryStore) Artifacts(_ context.Context, submissionID string) ([]model.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arts := s.artifacts[submissionID]
	out := make([]model.Artifact, len(arts))
	copy(out, arts)
	return out, nil
}

// SubmissionsByTeamProblem returns a team's visible submissions for a
// problem in creation order.
func (s *MemoryStore) SubmissionsByTeamProblem(_ context.Context, teamID, problemID string) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := attemptKey{teamID: teamID, problemID: problemID}
	var out []model.Submission
	for _, id := range s.byAttempt[key] {
		if sub, ok := s.submissions[id]; ok && !sub.Deleted() {
			out = append(out, sub)
		}
	}
	return out, nil
}

// PutProblem seeds or replaces a catalog problem.
func (s *MemoryStore) PutProblem(_ context.Context, p model.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.problems[p.ID] = p
	return nil
}

// PutTestCases appends cases to their problems' case sets.
func (s *MemoryStore) PutTestCases(_ context.Context, cases []model.TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tc := range cases {
		s.testCases[tc.ProblemID] = append(s.testCases[tc.ProblemID], tc)
	}
	return nil
}

// SoftDeleteSubmission hides a submission from all reads.
func (s *MemoryStore) SoftDeleteSubmission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok || sub.Deleted() {
		return ErrNotFound
	}
	ts := s.now()
	sub.DeletedAt = &ts
	s.submissions[id] = sub
	return nil
}

// Count returns the number of visible submissions.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sub := range s.submissions {
		if !sub.Deleted() {
			n++
		}
	}
	return n
}
