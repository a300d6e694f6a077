// Package repository defines the submission record store and its errors.
package repository

import (
	"context"

	"github.com/okian/verdict/internal/domain/model"
)

// Store owns submissions, their artifacts and per-case details, and the
// read-only problem/test-case catalog. Write operations are atomic: a
// multi-row write either lands completely or not at all, and readers
// never observe a partial detail batch.
type Store interface {
	// Problem returns a problem by ID, excluding soft-deleted rows.
	Problem(ctx context.Context, id string) (model.Problem, error)

	// TestCases returns the fixed case set for a problem, in authored order.
	TestCases(ctx context.Context, problemID string) ([]model.TestCase, error)

	// CreateSubmission inserts a pending submission together with its
	// first artifact and returns the number of prior submissions by the
	// same team for the same problem. The count and the insert happen
	// under one writer section: two concurrent creates each observe the
	// other in their prior count.
	CreateSubmission(ctx context.Context, sub model.Submission, art model.Artifact) (prior int, err error)

	// MarkEvaluating moves a pending submission into the evaluating
	// window. Fails with ErrBadTransition from any other state.
	MarkEvaluating(ctx context.Context, submissionID string) error

	// Finalize moves a submission to a terminal status and writes its
	// score, the identity that produced it and the detail batch in one
	// atomic step. Fails with ErrFinalized if the submission is already
	// terminal.
	Finalize(ctx context.Context, submissionID string, status model.Status, score float64, judgedBy string, details []model.Detail) error

	// Submission returns a submission by ID, excluding soft-deleted rows.
	Submission(ctx context.Context, id string) (model.Submission, error)

	// Details returns the detail batch of a submission in write order.
	Details(ctx context.Context, submissionID string) ([]model.Detail, error)

	// Artifacts returns the artifacts of a submission in write order.
	Artifacts(ctx context.Context, submissionID string) ([]model.Artifact, error)

	// SubmissionsByTeamProblem returns a team's non-deleted submissions
	// for a problem in creation order.
	SubmissionsByTeamProblem(ctx context.Context, teamID, problemID string) ([]model.Submission, error)

	// PutProblem and PutTestCases seed the catalog. Contest authoring
	// owns these rows; the evaluation path only reads them.
	PutProblem(ctx context.Context, p model.Problem) error
	PutTestCases(ctx context.Context, cases []model.TestCase) error

	// SoftDeleteSubmission hides a submission from all reads without
	// destroying the audit trail.
	SoftDeleteSubmission(ctx context.Context, id string) error

	// Count returns the number of visible submissions.
	Count(ctx context.Context) int
}
