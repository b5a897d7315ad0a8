// Package loadtest drives a running pump curve service with generated
// operating point queries and checks that every response matches the class
// the query was built to produce.
package loadtest

import (
	"errors"
	"time"

	"github.com/okian/pumpcurve/internal/domain/operating"
)

// Defaults used when a Config field is left zero.
const (
	DefaultQueries = 1000
	DefaultTimeout = 10 * time.Second
)

// ErrMismatch is returned by Run when responses disagree with expectations.
var ErrMismatch = errors.New("unexpected responses")

// Config holds the parameters of one load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Queries    int           // Number of queries to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Seed of the query generator
	OutputFile string        // XLSX file receiving the generated queries, optional
	Verbose    bool          // Log every mismatch
}

// Expectation is the response class a generated query should produce.
type Expectation string

// Response classes.
const (
	ExpectResolved Expectation = "resolved"
	ExpectRejected Expectation = "rejected"
	ExpectNotFound Expectation = "not_found"
)

// Case is one generated query with its expected outcome.
type Case struct {
	Query  operating.Query
	Expect Expectation
}

// PumpInfo is the part of a GET /pumps entry the generator needs.
type PumpInfo struct {
	Name              string  `json:"name"`
	MaxFlow           float64 `json:"max_flow"`
	AllowNegativeHead bool    `json:"allow_negative_head"`
}

// Stats holds the outcome of a run.
type Stats struct {
	Generated   int
	Submitted   int
	Resolved    int
	Warned      int
	Rejected    int
	NotFound    int
	RateLimited int
	Failed      int
	Mismatches  int
	StartTime   time.Time
	Duration    time.Duration
}

// QueriesPerSecond is the submission throughput of the run.
func (s *Stats) QueriesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}
