package loadtest

import (
	"context"
	"fmt"

	"github.com/okian/pumpcurve/pkg/logger"
)

// matches reports whether an outcome class satisfies an expectation.
// Rate-limited and unsent queries prove nothing either way.
func matches(expect Expectation, outcome string) (bool, bool) {
	switch outcome {
	case "", outcomeRateLimited:
		return false, false
	case outcomeResolved, outcomeWarned:
		return expect == ExpectResolved, true
	case outcomeRejected:
		return expect == ExpectRejected, true
	case outcomeNotFound:
		return expect == ExpectNotFound, true
	default:
		return false, true
	}
}

// verify compares every outcome with its case and counts mismatches.
func verify(ctx context.Context, cfg *Config, cases []Case, outcomes []string, stats *Stats, log logger.Logger) {
	for i, c := range cases {
		ok, checked := matches(c.Expect, outcomes[i])
		if !checked || ok {
			continue
		}
		stats.Mismatches++
		if cfg.Verbose {
			log.Warn(ctx, "unexpected response",
				logger.Int("case", i),
				logger.String("pump", c.Query.Pump),
				logger.Float64("flow", c.Query.Flow),
				logger.String("expected", string(c.Expect)),
				logger.String("got", outcomes[i]),
			)
		}
	}
}

// serviceCounters is the part of GET /stats compared across a run.
type serviceCounters struct {
	Resolutions int64 `json:"resolutions"`
	Rejected    int64 `json:"rejected"`
	NotFound    int64 `json:"notFound"`
}

// verifyCounters checks that the service counted at least what this run saw.
// Other clients may add to the counters, so only a shortfall is reported.
func verifyCounters(before, after serviceCounters, stats *Stats) error {
	checks := []struct {
		name string
		got  int64
		want int
	}{
		{"resolutions", after.Resolutions - before.Resolutions, stats.Resolved},
		{"rejected", after.Rejected - before.Rejected, stats.Rejected},
		{"notFound", after.NotFound - before.NotFound, stats.NotFound},
	}
	for _, c := range checks {
		if c.got < int64(c.want) {
			return fmt.Errorf("service counted %d %s, run saw %d", c.got, c.name, c.want)
		}
	}
	return nil
}
