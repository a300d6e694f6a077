package testsubmissions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/verdict/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete submission test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting verdict submission test",
		logger.String("baseURL", config.BaseURL),
		logger.String("contestID", config.ContestID),
		logger.Any("problemIDs", config.ProblemIDs),
		logger.Int("submissions", config.NumSubmissions),
		logger.Int("teams", config.NumTeams),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate submissions
	submissions, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("submission generation failed: %w", err)
	}

	// Step 3: Evaluate submissions concurrently
	outcomes, err := submitSubmissions(ctx, config, submissions, stats)
	if err != nil {
		return fmt.Errorf("submission evaluation failed: %w", err)
	}

	// Step 4: Publish finished submissions to the leaderboard
	if err := acceptSubmissions(ctx, config, outcomes, stats); err != nil {
		return fmt.Errorf("leaderboard accept failed: %w", err)
	}

	// Step 5: Let broadcasts settle
	logger.Get().Info(ctx, "waiting for snapshots to settle")
	time.Sleep(SettleDelay)

	// Step 6: Get leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, outcomes, leaderboard); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save outcomes to file
	if err := saveOutcomesToFile(ctx, config, outcomes); err != nil {
		logger.Get().Warn(ctx, "failed to save outcomes to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveOutcomesToFile saves the submission outcomes to a JSON file.
func saveOutcomesToFile(ctx context.Context, config *Config, outcomes []Outcome) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "submission_outcomes_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write outcomes to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, outcome := range outcomes {
		jsonData, err := marshalJSON(outcome)
		if err != nil {
			return fmt.Errorf("failed to marshal outcome %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write outcome %d: %w", i, err)
		}

		// Add comma except for last outcome
		if i < len(outcomes)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "outcomes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, submissionsPerSecond float64

	if stats.SubmissionsSubmitted > 0 {
		successRate = float64(stats.SubmissionsFinished) / float64(stats.SubmissionsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		submissionsPerSecond = float64(stats.SubmissionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("submissionsGenerated", stats.SubmissionsGenerated),
		logger.Int("submissionsSubmitted", stats.SubmissionsSubmitted),
		logger.Int("submissionsFinished", stats.SubmissionsFinished),
		logger.Int("submissionsRejected", stats.SubmissionsRejected),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("submissionsAccepted", stats.SubmissionsAccepted),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", submissionsPerSecond))
}
