package testsubmissions

import "time"

// Config holds configuration for the submission load test
type Config struct {
	BaseURL        string        // Base URL of the service
	ContestID      string        // Contest whose leaderboard is checked
	ProblemIDs     []string      // Problems to submit against
	NumSubmissions int           // Number of submissions to generate
	NumTeams       int           // Size of the team pool
	TopN           int           // Number of top entries to fetch
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Output file for submissions
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Submission is one generated evaluation request.
type Submission struct {
	TeamID    string `json:"team_id"`
	ProblemID string `json:"problem_id"`
	Source    string `json:"source"`
	Actor     string `json:"actor"`
}

// Evaluation mirrors the response of POST /submissions/evaluate.
type Evaluation struct {
	SubmissionID string  `json:"submission_id"`
	Status       string  `json:"status"`
	RawScore     float64 `json:"raw_score"`
	FinalScore   float64 `json:"final_score"`
}

// Entry represents a leaderboard row
type Entry struct {
	Rank   int     `json:"rank"`
	TeamID string  `json:"team_id"`
	Score  float64 `json:"score"`
}

// Snapshot mirrors the response of GET /contests/{id}/leaderboard.
type Snapshot struct {
	ContestID string  `json:"contest_id"`
	Rows      []Entry `json:"rows"`
}

// Outcome pairs a generated submission with its judged result.
type Outcome struct {
	Submission Submission `json:"submission"`
	Evaluation Evaluation `json:"evaluation"`
	Accepted   bool       `json:"accepted"`
}

// Stats holds test statistics
type Stats struct {
	SubmissionsGenerated int
	SubmissionsSubmitted int
	SubmissionsFinished  int
	SubmissionsRejected  int
	SubmissionsFailed    int
	SubmissionsAccepted  int
	LeaderboardEntries   int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
