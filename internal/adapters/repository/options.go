package repository

import "github.com/okian/pumpcurve/internal/domain/pump"

// Option applies a configuration option to the CurveStore.
type Option func(*CurveStore)

// WithSamples sets the sample count used for pumps that do not set their own.
// Values outside [pump.MinSamples, pump.MaxSamples] are ignored.
func WithSamples(n int) Option {
	return func(s *CurveStore) {
		if n >= pump.MinSamples && n <= pump.MaxSamples {
			s.samples = n
		}
	}
}

// WithEagerGeneration generates every curve set when a catalog is installed
// instead of on first lookup.
func WithEagerGeneration() Option {
	return func(s *CurveStore) {
		s.eager = true
	}
}
