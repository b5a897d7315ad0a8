// Package service wires the curve repository and the operating point resolver
// into the service the HTTP API and the CLI depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pumpcurve/internal/adapters/catalog"
	"github.com/okian/pumpcurve/internal/adapters/repository"
	"github.com/okian/pumpcurve/internal/adapters/worker"
	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/pkg/logger"
	"github.com/okian/pumpcurve/pkg/metrics"
)

const (
	sourceBuiltin = "builtin"
	sourceInline  = "inline"
)

// Service implements the API dependencies for the pump curve system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.CurveStore
	resolver *operating.Resolver
	pool     *worker.Pool

	// Configuration
	catalogPath string
	catalog     []pump.Spec
	samples     int
	policy      pump.Policy
	eager       bool
	workers     int

	// State
	started   bool
	startedAt time.Time
	source    string

	resolutions atomic.Int64
	warned      atomic.Int64
	rejected    atomic.Int64
	notFound    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalogPath loads the pump catalog from a YAML file on Start and Reload.
func WithCatalogPath(path string) Option {
	return func(s *Service) {
		s.catalogPath = path
	}
}

// WithCatalog uses specs as the pump catalog. A catalog path takes precedence.
func WithCatalog(specs []pump.Spec) Option {
	return func(s *Service) {
		if len(specs) > 0 {
			s.catalog = specs
		}
	}
}

// WithSamples sets the curve sample count for pumps that leave it unset.
func WithSamples(n int) Option {
	return func(s *Service) {
		if n >= pump.MinSamples && n <= pump.MaxSamples {
			s.samples = n
		}
	}
}

// WithPolicy sets the default validation thresholds.
func WithPolicy(p pump.Policy) Option {
	return func(s *Service) {
		if p.Validate() == nil {
			s.policy = p.Merge(pump.DefaultPolicy())
		}
	}
}

// WithBatchWorkers sets how many batch queries resolve concurrently. Zero
// selects one per CPU.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithEagerCurves generates every curve set when the catalog is installed.
func WithEagerCurves() Option {
	return func(s *Service) {
		s.eager = true
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		samples: pump.DefaultSamples,
		policy:  pump.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the catalog and builds the repository and resolver.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting pump curve service...")

	specs, source, err := s.loadCatalog()
	if err != nil {
		return err
	}

	opts := []repository.Option{repository.WithSamples(s.samples)}
	if s.eager {
		opts = append(opts, repository.WithEagerGeneration())
	}
	store, err := repository.NewCurveStore(ctx, specs, opts...)
	if err != nil {
		return fmt.Errorf("build curve store: %w", err)
	}

	s.store = store
	s.resolver = operating.NewResolver(store, operating.WithDefaultPolicy(s.policy))
	s.pool = worker.NewPool(s, worker.WithWorkers(s.workers), worker.WithLogger(s.logger))
	s.source = source
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "pump curve service started",
		logger.Int("pumps", store.Count(ctx)),
		logger.String("catalog", source),
		logger.Int("samples", s.samples),
		logger.Bool("eager", s.eager),
	)
	return nil
}

// Stop marks the service stopped. Subsequent calls fail with ErrNotStarted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "pump curve service stopped")
}

func (s *Service) loadCatalog() ([]pump.Spec, string, error) {
	switch {
	case s.catalogPath != "":
		specs, err := catalog.LoadFile(s.catalogPath)
		if err != nil {
			return nil, "", fmt.Errorf("load catalog: %w", err)
		}
		return specs, s.catalogPath, nil
	case len(s.catalog) > 0:
		return s.catalog, sourceInline, nil
	default:
		return pump.DefaultCatalog(), sourceBuiltin, nil
	}
}

func (s *Service) components() (*repository.CurveStore, *operating.Resolver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.resolver, nil
}

// Pumps returns the catalog in catalog order.
func (s *Service) Pumps(ctx context.Context) ([]pump.Spec, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	names := store.Names(ctx)
	out := make([]pump.Spec, 0, len(names))
	for _, name := range names {
		spec, err := store.Spec(ctx, name)
		if err != nil {
			// Replaced concurrently; skip rather than fail the listing.
			continue
		}
		out = append(out, spec)
	}
	return out, nil
}

// Pump returns the spec of name.
func (s *Service) Pump(ctx context.Context, name string) (pump.Spec, error) {
	store, _, err := s.components()
	if err != nil {
		return pump.Spec{}, err
	}
	return store.Spec(ctx, name)
}

// Curves returns the spec and curve set of name.
func (s *Service) Curves(ctx context.Context, name string) (pump.Spec, curve.Set, error) {
	store, _, err := s.components()
	if err != nil {
		return pump.Spec{}, curve.Set{}, err
	}
	return store.Lookup(ctx, name)
}

// Resolve resolves one operating point and records its outcome.
func (s *Service) Resolve(ctx context.Context, q operating.Query) (operating.Result, error) {
	_, resolver, err := s.components()
	if err != nil {
		return operating.Result{}, err
	}

	start := time.Now()
	res, err := resolver.Resolve(ctx, q)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordResolutionLatency(latencyMs)

	if err != nil {
		s.recordFailure(ctx, q, err, latencyMs)
		return operating.Result{}, err
	}

	s.resolutions.Add(1)
	metrics.RecordResolution(res.Pump, res.Verdict.Status.String())
	if res.Verdict.Status == operating.StatusWarning {
		s.warned.Add(1)
		for _, w := range res.Verdict.Warnings {
			metrics.RecordWarning(string(w.Code))
		}
	}
	s.logger.Debug(ctx, "operating point resolved",
		logger.String("pump", res.Pump),
		logger.Float64("flow", res.Flow),
		logger.Float64("head", res.ResolvedHead),
		logger.String("status", res.Verdict.Status.String()),
		logger.Any("warnings", res.Verdict.Codes()),
	)
	return res, nil
}

func (s *Service) recordFailure(ctx context.Context, q operating.Query, err error, latencyMs float64) {
	if re, ok := operating.AsRejection(err); ok {
		s.rejected.Add(1)
		metrics.RecordRejection(string(re.Reason))
		metrics.RecordResolution(q.Pump, operating.StatusRejected.String())
		s.logger.Debug(ctx, "operating point rejected",
			logger.String("pump", q.Pump),
			logger.String("reason", string(re.Reason)),
		)
		return
	}
	errorType := "internal"
	if errors.Is(err, pump.ErrNotFound) {
		s.notFound.Add(1)
		errorType = "not_found"
	}
	metrics.RecordErrorByType(errorType, "warning")
	metrics.RecordErrorLatency("resolver", errorType, latencyMs)
	s.logger.Debug(ctx, "operating point not resolved", logger.String("pump", q.Pump), logger.Error(err))
}

// BatchItem is the outcome of one query of a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	ID     string
	Query  operating.Query
	Result *operating.Result
	Err    error
}

// ResolveBatch resolves queries independently on the batch pool; a failing
// query does not stop the others. Items keep the order of queries.
func (s *Service) ResolveBatch(ctx context.Context, queries []operating.Query) ([]BatchItem, error) {
	s.mu.RLock()
	pool, started := s.pool, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	outcomes, err := pool.Run(ctx, queries)
	if err != nil {
		return nil, err
	}
	items := make([]BatchItem, len(queries))
	for i, o := range outcomes {
		items[i] = BatchItem{ID: uuid.NewString(), Query: queries[i]}
		if o.Err != nil {
			items[i].Err = o.Err
			continue
		}
		res := o.Result
		items[i].Result = &res
	}
	return items, nil
}

// Upsert adds or replaces one pump spec.
func (s *Service) Upsert(ctx context.Context, spec pump.Spec) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Upsert(ctx, spec); err != nil {
		return err
	}
	s.logger.Info(ctx, "pump spec replaced", logger.String("pump", spec.Name))
	return nil
}

// Invalidate drops the cached curves of name, or of every pump when name is empty.
func (s *Service) Invalidate(ctx context.Context, name string) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	if name == "" {
		store.InvalidateAll(ctx)
		s.logger.Info(ctx, "curve cache cleared")
		return nil
	}
	if err := store.Invalidate(ctx, name); err != nil {
		return err
	}
	s.logger.Info(ctx, "curve cache entry cleared", logger.String("pump", name))
	return nil
}

// Reload reads the catalog again and swaps it in at once. On error the
// current catalog stays in place.
func (s *Service) Reload(ctx context.Context) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	specs, source, err := s.loadCatalog()
	if err != nil {
		s.logger.Warn(ctx, "catalog reload failed", logger.Error(err))
		return err
	}
	if err := store.Replace(ctx, specs); err != nil {
		s.logger.Warn(ctx, "catalog reload failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "catalog reloaded", logger.String("catalog", source), logger.Int("pumps", len(specs)))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"samples":     s.samples,
		"resolutions": s.resolutions.Load(),
		"warned":      s.warned.Load(),
		"rejected":    s.rejected.Load(),
		"notFound":    s.notFound.Load(),
	}

	if s.started {
		pumps := s.store.Count(ctx)
		cached := s.store.Cached(ctx)

		stats["catalog"] = s.source
		stats["pumps"] = pumps
		stats["cachedCurves"] = cached
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		metrics.UpdateCatalogSize(pumps)
		metrics.UpdateCachedCurves(cached)
	}

	return stats
}
