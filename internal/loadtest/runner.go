package loadtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/pumpcurve/internal/adapters/export"
	"github.com/okian/pumpcurve/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes one load run against cfg.BaseURL and returns its statistics.
// It fails with ErrMismatch when a response disagrees with its query.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	cfg = withDefaults(cfg)
	if log == nil {
		log = logger.Nop()
	}
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("queries", cfg.Queries),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	// Step 1: check service health
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: read the catalog and generate queries over it
	var pumps []PumpInfo
	if err := c.get(ctx, "/pumps", &pumps); err != nil {
		return nil, fmt.Errorf("catalog retrieval failed: %w", err)
	}
	cases, err := Generate(pumps, cfg.Queries, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}
	stats.Generated = len(cases)

	var before serviceCounters
	if err := c.get(ctx, "/stats", &before); err != nil {
		return nil, fmt.Errorf("stats retrieval failed: %w", err)
	}

	// Step 3: submit concurrently
	outcomes := submit(ctx, cfg, c, cases, stats, log)
	stats.Duration = time.Since(stats.StartTime)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	// Step 4: verify responses and service counters
	verify(ctx, cfg, cases, outcomes, stats, log)
	var after serviceCounters
	if err := c.get(ctx, "/stats", &after); err != nil {
		return stats, fmt.Errorf("stats retrieval failed: %w", err)
	}
	if err := verifyCounters(before, after, stats); err != nil {
		log.Warn(ctx, "service counters disagree with run", logger.Error(err))
	}

	// Step 5: keep the queries for replay
	if cfg.OutputFile != "" {
		if err := saveQueries(cfg.OutputFile, cases); err != nil {
			log.Warn(ctx, "failed to save queries", logger.Error(err))
		} else {
			log.Info(ctx, "queries saved", logger.String("file", cfg.OutputFile))
		}
	}

	logStats(ctx, log, stats)
	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatches, stats.Submitted)
	}
	return stats, nil
}

func withDefaults(cfg *Config) *Config {
	out := *cfg
	if out.Queries <= 0 {
		out.Queries = DefaultQueries
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return &out
}

// saveQueries writes the generated queries as a batch workbook. Runs larger
// than one batch keep their first export.MaxBatchRows queries.
func saveQueries(path string, cases []Case) error {
	if len(cases) > export.MaxBatchRows {
		cases = cases[:export.MaxBatchRows]
	}
	body, err := export.QueriesXLSX(Queries(cases))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, body, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("resolved", stats.Resolved),
		logger.Int("warned", stats.Warned),
		logger.Int("rejected", stats.Rejected),
		logger.Int("notFound", stats.NotFound),
		logger.Int("rateLimited", stats.RateLimited),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("queriesPerSecond", stats.QueriesPerSecond()),
	)
}
