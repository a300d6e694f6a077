// Package model contains domain models passed between layers.
package model

import "time"

// ArtifactKind distinguishes inline code payloads from uploaded files.
type ArtifactKind int

const (
	ArtifactCode ArtifactKind = iota
	ArtifactFile
)

func (k ArtifactKind) String() string {
	if k == ArtifactFile {
		return "file"
	}
	return "code"
}

// Submission is one attempt by a team against one problem. StudentID is
// optional; JudgedBy identifies the system or the judge actor that
// produced the final score.
type Submission struct {
	ID        string
	TeamID    string
	ProblemID string
	StudentID *string
	JudgedBy  string
	Status    Status
	Score     float64 // always within [0,100]
	CreatedAt time.Time
	DeletedAt *time.Time // soft delete; reads filter on this
}

// Deleted reports whether the submission has been soft-deleted.
func (s *Submission) Deleted() bool {
	return s.DeletedAt != nil
}

// Artifact is the payload of a submission: inline source code or the URL
// of an uploaded file. Every submission has at least one artifact.
type Artifact struct {
	ID           string
	SubmissionID string
	Kind         ArtifactKind
	// Content holds source code for ArtifactCode and the storage URL for
	// ArtifactFile.
	Content   string
	CreatedAt time.Time
}

// TestCase is one input/expected-output pair with grading weight and
// resource limits. The set of cases for a problem is fixed at evaluation
// time; scoring reads, never mutates.
type TestCase struct {
	ID            string
	ProblemID     string
	Weight        float64 // strictly positive
	TimeLimitMS   int64
	MemoryLimitKB int64
	Input         string
	Expected      string
}

// Detail is the per-test-case outcome of one submission. Details are
// written once as a batch and never updated. TestCaseID is nil for
// manually graded file submissions.
type Detail struct {
	ID           string
	SubmissionID string
	TestCaseID   *string
	Weight       float64
	Note         string
	RuntimeMS    int64
	MemoryKB     int64
	CreatedAt    time.Time
}

// Problem carries the fields the evaluation path needs. PenaltyRate is
// the fraction deducted per prior submission; nil means no penalty.
type Problem struct {
	ID          string
	ContestID   string
	Title       string
	Language    string
	PenaltyRate *float64
	DeletedAt   *time.Time
}

// Deleted reports whether the problem has been soft-deleted.
func (p *Problem) Deleted() bool {
	return p.DeletedAt != nil
}
