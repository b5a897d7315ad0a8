// Package worker resolves batches of operating point queries on a bounded
// pool of goroutines.
package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/pkg/logger"
	"github.com/okian/pumpcurve/pkg/metrics"
)

// Resolver resolves one query. Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, q operating.Query) (operating.Result, error)
}

// Outcome is the result of the query at Index of a batch. Exactly one of
// Result and Err is meaningful.
type Outcome struct {
	Index  int
	Result operating.Result
	Err    error
}

type job struct {
	index int
	query operating.Query
}

// Pool fans a batch out to a fixed number of workers.
type Pool struct {
	resolver Resolver
	workers  int
	name     string
	logger   logger.Logger
}

// NewPool creates a pool over resolver with one worker per CPU by default.
func NewPool(resolver Resolver, opts ...Option) *Pool {
	p := &Pool{
		resolver: resolver,
		workers:  runtime.NumCPU(),
		name:     "batch",
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int { return p.workers }

// Run resolves every query and returns outcomes in query order. A failing
// query does not stop the others. If ctx ends first, Run returns its error
// and no outcomes.
func (p *Pool) Run(ctx context.Context, queries []operating.Query) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	jobs := make(chan job, len(queries))
	for i, q := range queries {
		jobs <- job{index: i, query: q}
	}
	close(jobs)

	n := min(p.workers, len(queries))
	out := make([]Outcome, len(queries))

	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			p.drain(ctx, jobs, out)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		p.logger.Warn(ctx, "batch abandoned", logger.Int("queries", len(queries)), logger.Error(err))
		return nil, err
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordBatch(len(queries), latencyMs)
	p.logger.Debug(ctx, "batch resolved",
		logger.Int("queries", len(queries)),
		logger.Int("workers", n),
		logger.Float64("latency_ms", latencyMs),
	)
	return out, nil
}

// drain resolves jobs until the channel is empty or ctx ends. Each job owns
// its slot in out, so no locking is needed.
func (p *Pool) drain(ctx context.Context, jobs <-chan job, out []Outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			res, err := p.resolver.Resolve(ctx, j.query)
			out[j.index] = Outcome{Index: j.index, Result: res, Err: err}
		}
	}
}
