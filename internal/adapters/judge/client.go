// Package judge adapts the external sandboxed execution engine behind a
// narrow request/response contract. The engine runs submitted code
// against test-case inputs and reports pass/fail plus resource usage;
// everything else about it is out of scope here.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/verdict/internal/domain/types"
	"github.com/okian/verdict/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout     = 30 * time.Second
	defaultSubmitPath  = "/judge"
	contentTypeJSON    = "application/json; charset=utf-8"
	maxResponseBodyLen = 8 << 20 // 8 MiB cap on engine responses
)

// CaseInput is one test case shipped to the engine.
type CaseInput struct {
	ID       string `json:"id"`
	Stdin    string `json:"stdin"`
	Expected string `json:"expected_output"`
}

// Request is the engine-facing evaluation request.
type Request struct {
	Language     string      `json:"language"`
	Source       string      `json:"source_code"`
	ProblemID    string      `json:"problem_id"`
	ProblemTitle string      `json:"problem_title"`
	Cases        []CaseInput `json:"test_cases"`
	TimeLimitS   float64     `json:"time_limit_s"`
	MemLimitKB   int64       `json:"memory_limit_kb"`
}

// caseResult mirrors the engine's per-case wire shape.
type caseResult struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	RuntimeMS int64  `json:"runtime_ms"`
	MemoryKB  int64  `json:"memory_kb"`
	Output    string `json:"output"`
}

type response struct {
	Results []caseResult `json:"results"`
}

// Client submits evaluation requests to the engine over HTTP.
type Client struct {
	baseURL string
	path    string
	timeout time.Duration
	http    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the engine base URL, e.g. "http://judge:8090".
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout bounds the full judge round-trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient overrides the underlying http.Client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a judge client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		path:    defaultSubmitPath,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Evaluate ships the request to the engine and returns typed per-case
// results. The round-trip is bounded by the configured timeout on top of
// whatever deadline ctx already carries.
//
// A result set covering fewer cases than requested is returned as-is:
// scoring treats unmatched cases as silently skipped. An empty set is an
// error; it carries no grading signal.
func (c *Client) Evaluate(ctx context.Context, req Request) ([]types.CaseResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordJudgeLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode judge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordJudgeError("transport")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	if err != nil {
		metrics.RecordJudgeError("read")
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordJudgeError("status")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.RecordJudgeError("malformed")
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(parsed.Results) == 0 {
		metrics.RecordJudgeError("empty")
		return nil, ErrEmptyResult
	}

	out := make([]types.CaseResult, len(parsed.Results))
	for i, r := range parsed.Results {
		if r.ID == "" {
			metrics.RecordJudgeError("malformed")
			return nil, fmt.Errorf("%w: result %d has no case id", ErrMalformed, i)
		}
		out[i] = types.CaseResult{
			TestCaseID: r.ID,
			Status:     r.Status,
			RuntimeMS:  r.RuntimeMS,
			MemoryKB:   r.MemoryKB,
			Output:     r.Output,
		}
	}
	return out, nil
}

// MapLanguage translates a problem's declared language into the engine's
// identifier. Unknown languages pass through unchanged; the engine owns
// the authoritative list.
func MapLanguage(lang string) string {
	switch lang {
	case "c++", "cpp17":
		return "cpp"
	case "python3":
		return "python"
	case "golang":
		return "go"
	default:
		return lang
	}
}
