package testsubmissions

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// acceptRequest mirrors the body of POST /leaderboard/accept.
type acceptRequest struct {
	SubmissionID string `json:"submission_id"`
}

// acceptSubmissions publishes every finished submission to the
// leaderboard concurrently.
func acceptSubmissions(ctx context.Context, config *Config, outcomes []Outcome, stats *Stats) error {
	log.Printf("Accepting finished submissions with %d workers...", config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/leaderboard/accept"

	var (
		accepted int64
		failed   int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					id := outcomes[index].Evaluation.SubmissionID
					if err := acceptSingleSubmission(ctx, client, url, id); err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("Failed to accept %s: %v", id, err)
						}
					} else {
						outcomes[index].Accepted = true
						atomic.AddInt64(&accepted, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						acc := atomic.LoadInt64(&accepted)
						fail := atomic.LoadInt64(&failed)
						log.Printf("Accept progress: %d accepted, %d failed", acc, fail)
					}
				}
			}
		}(i)
	}

	// Send indices of finished submissions to workers
	go func() {
		defer close(indexChan)
		for i := range outcomes {
			if outcomes[i].Evaluation.Status != "finished" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	stats.SubmissionsAccepted = int(atomic.LoadInt64(&accepted))

	log.Printf(`Leaderboard accept completed:
   Accepted: %d
   Failed: %d
`, stats.SubmissionsAccepted, int(atomic.LoadInt64(&failed)))

	return nil
}

// acceptSingleSubmission posts one submission ID to the accept endpoint.
func acceptSingleSubmission(ctx context.Context, client *HTTPClient, url, submissionID string) error {
	resp, err := client.Post(ctx, url, acceptRequest{SubmissionID: submissionID})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// getLeaderboard retrieves the top N leaderboard entries for the contest.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("Getting top %d leaderboard entries for contest %s...", config.TopN, config.ContestID)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/contests/%s/leaderboard?limit=%d", config.BaseURL, config.ContestID, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var snap Snapshot
	if err := unmarshalJSON(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(snap.Rows)
	log.Printf("Retrieved %d leaderboard entries", len(snap.Rows))

	return snap.Rows, nil
}
