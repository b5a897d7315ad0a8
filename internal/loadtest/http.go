package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/pkg/logger"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Outcome classes of a submitted query.
const (
	outcomeResolved    = "resolved"
	outcomeWarned      = "warned"
	outcomeRejected    = "rejected"
	outcomeNotFound    = "not_found"
	outcomeRateLimited = "rate_limited"
	outcomeFailed      = "failed"
)

// client wraps http.Client with the service's base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

type operatingPointRequest struct {
	Pump string   `json:"pump"`
	Flow float64  `json:"flow"`
	Head *float64 `json:"head,omitempty"`
}

type operatingPointResponse struct {
	Verdict struct {
		Status string `json:"status"`
	} `json:"verdict"`
}

// resolve posts q to /operating-point and classifies the response.
func (c *client) resolve(ctx context.Context, q operating.Query) string {
	body, err := json.Marshal(operatingPointRequest{Pump: q.Pump, Flow: q.Flow, Head: q.Head})
	if err != nil {
		return outcomeFailed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/operating-point", bytes.NewReader(body))
	if err != nil {
		return outcomeFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return outcomeFailed
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out operatingPointResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
			return outcomeFailed
		}
		if out.Verdict.Status == operating.StatusWarning.String() {
			return outcomeWarned
		}
		return outcomeResolved
	case http.StatusUnprocessableEntity:
		return outcomeRejected
	case http.StatusNotFound:
		return outcomeNotFound
	case http.StatusTooManyRequests:
		return outcomeRateLimited
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return outcomeFailed
	}
}

// submit resolves every case on cfg.Workers goroutines and returns the
// outcome of each case by index.
func submit(ctx context.Context, cfg *Config, c *client, cases []Case, stats *Stats, log logger.Logger) []string {
	log.Info(ctx, "submitting queries", logger.Int("queries", len(cases)), logger.Int("workers", cfg.Workers))

	outcomes := make([]string, len(cases))
	var submitted atomic.Int64

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = c.resolve(ctx, cases[i].Query)
				if n := submitted.Add(1); n%progressEvery == 0 {
					log.Debug(ctx, "progress", logger.Int("submitted", int(n)), logger.Int("total", len(cases)))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	for _, o := range outcomes {
		switch o {
		case outcomeResolved:
			stats.Resolved++
		case outcomeWarned:
			stats.Resolved++
			stats.Warned++
		case outcomeRejected:
			stats.Rejected++
		case outcomeNotFound:
			stats.NotFound++
		case outcomeRateLimited:
			stats.RateLimited++
		case outcomeFailed:
			stats.Failed++
		}
	}
	return outcomes
}

// progressEvery sets how often submit logs progress.
const progressEvery = 500
