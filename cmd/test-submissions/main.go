package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/verdict/internal/testsubmissions"
)

// Default configuration constants.
const (
	defaultNumSubmissions = 1000
	defaultTopN           = 50
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
	defaultTeamDivisor    = 4
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		contestID      = flag.String("contest", "demo", "Contest ID whose leaderboard is verified")
		problems       = flag.String("problems", "demo-sum,demo-echo", "Comma-separated problem IDs to submit against")
		numSubmissions = flag.Int("submissions", defaultNumSubmissions, "Number of submissions to generate and evaluate")
		numTeams       = flag.Int("teams", 0, "Size of the team pool (default submissions / 4)")
		topN           = flag.Int("top", defaultTopN, "Number of top entries to fetch from the leaderboard")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile     = flag.String("output", "", "Output file for submission outcomes (default: submission_outcomes_TIMESTAMP.json)")
		logFile        = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testsubmissions.ShowHelp()
		return
	}

	// Setup logging
	if err := testsubmissions.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	teams := *numTeams
	if teams <= 0 {
		teams = *numSubmissions / defaultTeamDivisor
		if teams < 1 {
			teams = 1
		}
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testsubmissions.Config{
		BaseURL:        *baseURL,
		ContestID:      *contestID,
		ProblemIDs:     strings.Split(*problems, ","),
		NumSubmissions: *numSubmissions,
		NumTeams:       teams,
		TopN:           *topN,
		Workers:        *workers,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	// Run the test
	if err := testsubmissions.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
