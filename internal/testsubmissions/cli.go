package testsubmissions

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/verdict/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the submission test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Verdict Submission Test Tool
============================

A concurrent tool for load testing the submission evaluation pipeline.
Run the service with VERDICT_SEED_DEMO=true (or point -problems at an
existing catalog) and make sure a judge engine is reachable.

Usage:
  go run cmd/test-submissions/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -contest string
        Contest ID whose leaderboard is verified (default "demo")
  -problems string
        Comma-separated problem IDs to submit against (default "demo-sum,demo-echo")
  -submissions int
        Number of submissions to generate and evaluate (default 1000)
  -teams int
        Size of the team pool (default submissions / 4)
  -top int
        Number of top entries to fetch from the leaderboard (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for submission outcomes (default: submission_outcomes_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-submissions/main.go

  # Test with custom parameters
  go run cmd/test-submissions/main.go -submissions 5000 -workers 16 -url http://localhost:8080

  # Test a specific catalog
  go run cmd/test-submissions/main.go -contest spring-final -problems p1,p2,p3
`)
}
