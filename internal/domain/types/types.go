// Package types contains common types used across the application
package types

import "time"

// StatusSuccess is the judge engine's label for a passing case.
const StatusSuccess = "success"

// CaseResult is the judged outcome of one test case.
type CaseResult struct {
	TestCaseID string `json:"test_case_id"`
	Status     string `json:"status"` // "success" or an engine-specific failure label
	RuntimeMS  int64  `json:"runtime_ms"`
	MemoryKB   int64  `json:"memory_kb"`
	Output     string `json:"output,omitempty"` // stderr/compile output on failure
}

// Passed reports whether the case counts toward the passed weight.
func (c CaseResult) Passed() bool {
	return c.Status == StatusSuccess
}

// Row is one ranked leaderboard line for a contest.
type Row struct {
	Rank       int       `json:"rank"`
	TeamID     string    `json:"team_id"`
	Score      float64   `json:"score"`
	AchievedAt time.Time `json:"achieved_at"`
}

// Snapshot is an immutable, timestamped, fully recomputed ranking for a
// contest, published atomically to viewers.
type Snapshot struct {
	ContestID string    `json:"contest_id"`
	Rows      []Row     `json:"rows"`
	TakenAt   time.Time `json:"taken_at"`
}
