package testsubmissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSubmissions evaluates submissions concurrently using worker pools
func submitSubmissions(ctx context.Context, config *Config, submissions []Submission, stats *Stats) ([]Outcome, error) {
	log.Printf("Submitting %d submissions with %d workers...", len(submissions), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/submissions/evaluate"

	outcomes := make([]Outcome, len(submissions))

	// Counters for statistics
	var (
		finished  int64
		rejected  int64
		failed    int64
		submitted int64
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
					sub := submissions[index]
					eval, result := submitSingleSubmission(ctx, client, url, sub)
					outcomes[index] = Outcome{Submission: sub, Evaluation: eval}

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "finished":
						atomic.AddInt64(&finished, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						fin := atomic.LoadInt64(&finished)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("Progress: %d/%d submitted (finished: %d, rejected: %d, failed: %d)",
								total, len(submissions), fin, rej, fail)
						} else {
							fmt.Printf("\rSubmitted: %d/%d (finished: %d, rejected: %d, failed: %d)",
								total, len(submissions), fin, rej, fail)
						}
					}
				}
			}
		}(i)
	}

	// Send submission indices to workers
	go func() {
		defer close(indexChan)
		for i := range submissions {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.SubmissionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SubmissionsFinished = int(atomic.LoadInt64(&finished))
	stats.SubmissionsRejected = int(atomic.LoadInt64(&rejected))
	stats.SubmissionsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Submission evaluation completed:
   Finished: %d
   Rejected: %d
   Failed: %d
`, stats.SubmissionsFinished, stats.SubmissionsRejected, stats.SubmissionsFailed)

	return outcomes, nil
}

// submitSingleSubmission evaluates one submission and classifies the result.
// "finished" means the pipeline produced a score; "rejected" covers
// terminal judge outcomes like time_limit_exceeded; "failed" is a
// transport or server error.
func submitSingleSubmission(ctx context.Context, client *HTTPClient, url string, sub Submission) (Evaluation, string) {
	resp, err := client.Post(ctx, url, sub)
	if err != nil {
		return Evaluation{}, "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Evaluation{}, "failed"
	}

	if resp.StatusCode != StatusOK {
		return Evaluation{}, "failed"
	}

	var eval Evaluation
	if err := unmarshalJSON(body, &eval); err != nil {
		return Evaluation{}, "failed"
	}

	if eval.Status == "finished" {
		return eval, "finished"
	}
	return eval, "rejected"
}
