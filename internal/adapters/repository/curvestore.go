package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/pkg/metrics"
)

// entry is one pump of a catalog generation. Its curve set is built at most
// once; invalidation installs a fresh entry rather than resetting this one.
type entry struct {
	spec      pump.Spec
	once      sync.Once
	generated atomic.Bool
	set       curve.Set
	err       error
}

func (e *entry) load(samples int) (curve.Set, bool, error) {
	hit := true
	e.once.Do(func() {
		hit = false
		start := time.Now()
		e.set, e.err = curve.Generate(e.spec, samples)
		if e.err == nil {
			metrics.RecordCurveGeneration(e.spec.Name, float64(time.Since(start).Microseconds())/1000)
		}
		e.generated.Store(true)
	})
	return e.set, hit, e.err
}

// snapshot is an immutable view of the catalog. Readers load it without
// locking; writers copy it, modify the copy and publish it.
type snapshot struct {
	order   []string
	entries map[string]*entry
}

func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		order:   make([]string, len(s.order)),
		entries: make(map[string]*entry, len(s.entries)),
	}
	copy(c.order, s.order)
	for k, v := range s.entries {
		c.entries[k] = v
	}
	return c
}

// CurveStore is an in-memory Store. Reads never block on writers and
// concurrent first lookups of a pump generate its curves once.
type CurveStore struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[snapshot]
	samples int
	eager   bool
}

var _ Store = (*CurveStore)(nil)

// NewCurveStore creates a store holding specs.
func NewCurveStore(ctx context.Context, specs []pump.Spec, opts ...Option) (*CurveStore, error) {
	s := &CurveStore{samples: pump.DefaultSamples}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&snapshot{entries: map[string]*entry{}})
	if err := s.Replace(ctx, specs); err != nil {
		return nil, err
	}
	return s, nil
}

// Names returns the pump names in catalog order.
func (s *CurveStore) Names(_ context.Context) []string {
	snap := s.current.Load()
	out := make([]string, len(snap.order))
	copy(out, snap.order)
	return out
}

// Spec returns the spec of name.
func (s *CurveStore) Spec(_ context.Context, name string) (pump.Spec, error) {
	e, ok := s.current.Load().entries[name]
	if !ok {
		return pump.Spec{}, fmt.Errorf("%w: %s", pump.ErrNotFound, name)
	}
	return e.spec, nil
}

// CurveSet returns a copy of the curve set of name.
func (s *CurveStore) CurveSet(ctx context.Context, name string) (curve.Set, error) {
	_, set, err := s.Lookup(ctx, name)
	return set, err
}

// Lookup returns the spec and a copy of the curve set of name.
func (s *CurveStore) Lookup(_ context.Context, name string) (pump.Spec, curve.Set, error) {
	e, ok := s.current.Load().entries[name]
	if !ok {
		return pump.Spec{}, curve.Set{}, fmt.Errorf("%w: %s", pump.ErrNotFound, name)
	}
	set, hit, err := e.load(s.samples)
	if hit {
		metrics.RecordCurveCacheHit()
	} else {
		metrics.RecordCurveCacheMiss()
		metrics.UpdateCachedCurves(s.cached())
	}
	if err != nil {
		return pump.Spec{}, curve.Set{}, fmt.Errorf("generate curves for %s: %w", name, err)
	}
	return e.spec, set.Clone(), nil
}

// Upsert adds or replaces spec.
func (s *CurveStore) Upsert(_ context.Context, spec pump.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	if old, ok := next.entries[spec.Name]; ok {
		if old.generated.Load() {
			metrics.RecordCurveInvalidation(1)
		}
	} else {
		next.order = append(next.order, spec.Name)
	}
	e := &entry{spec: spec}
	next.entries[spec.Name] = e
	if s.eager {
		if _, _, err := e.load(s.samples); err != nil {
			return err
		}
	}
	s.publish(next)
	return nil
}

// Replace validates specs and installs them as the whole catalog.
func (s *CurveStore) Replace(_ context.Context, specs []pump.Spec) error {
	if len(specs) == 0 {
		return ErrEmptyCatalog
	}
	if err := pump.ValidateCatalog(specs); err != nil {
		return err
	}
	next := &snapshot{
		order:   make([]string, 0, len(specs)),
		entries: make(map[string]*entry, len(specs)),
	}
	for _, spec := range specs {
		e := &entry{spec: spec}
		if s.eager {
			if _, _, err := e.load(s.samples); err != nil {
				return err
			}
		}
		next.order = append(next.order, spec.Name)
		next.entries[spec.Name] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if dropped := s.cached(); dropped > 0 {
		metrics.RecordCurveInvalidation(dropped)
	}
	s.publish(next)
	return nil
}

// Invalidate drops the cached curves of name.
func (s *CurveStore) Invalidate(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	old, ok := next.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", pump.ErrNotFound, name)
	}
	if old.generated.Load() {
		metrics.RecordCurveInvalidation(1)
	}
	next.entries[name] = &entry{spec: old.spec}
	s.publish(next)
	return nil
}

// InvalidateAll drops every cached curve set.
func (s *CurveStore) InvalidateAll(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	dropped := 0
	for name, old := range next.entries {
		if old.generated.Load() {
			dropped++
		}
		next.entries[name] = &entry{spec: old.spec}
	}
	if dropped > 0 {
		metrics.RecordCurveInvalidation(dropped)
	}
	s.publish(next)
}

// Count returns the number of catalog pumps.
func (s *CurveStore) Count(_ context.Context) int {
	return len(s.current.Load().order)
}

// Cached returns the number of generated curve sets.
func (s *CurveStore) Cached(_ context.Context) int {
	return s.cached()
}

func (s *CurveStore) cached() int {
	n := 0
	for _, e := range s.current.Load().entries {
		if e.generated.Load() && e.err == nil {
			n++
		}
	}
	return n
}

// publish installs next; callers hold mu.
func (s *CurveStore) publish(next *snapshot) {
	s.current.Store(next)
	metrics.UpdateCatalogSize(len(next.order))
	metrics.UpdateCachedCurves(s.cached())
}
