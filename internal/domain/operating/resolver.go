// Package operating resolves a requested operating point against a pump's
// characteristic curves and classifies how plausible it is.
package operating

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/interp"
	"github.com/okian/pumpcurve/internal/domain/pump"
)

// Query is a requested operating point. Head is optional.
type Query struct {
	Pump string
	Flow float64
	Head *float64
}

// HasHead reports whether a head was specified.
func (q Query) HasHead() bool { return q.Head != nil }

// HeadOf returns a pointer to h for building queries.
func HeadOf(h float64) *float64 { return &h }

// Result is a resolved operating point.
type Result struct {
	Pump         string   `json:"pump"`
	Flow         float64  `json:"flow"`
	ResolvedHead float64  `json:"resolved_head"`
	UserHead     *float64 `json:"user_head,omitempty"`
	Power        float64  `json:"power"`
	Efficiency   float64  `json:"efficiency"`
	NPSH         float64  `json:"npsh"`
	Verdict      Verdict  `json:"verdict"`
}

// CurveSource supplies a pump's spec together with its curve set, taken from
// the same catalog generation.
type CurveSource interface {
	Lookup(ctx context.Context, name string) (pump.Spec, curve.Set, error)
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithDefaultPolicy sets the thresholds used where a pump leaves its own unset.
func WithDefaultPolicy(p pump.Policy) Option {
	return func(r *Resolver) {
		if p.Validate() == nil {
			r.defaults = p.Merge(pump.DefaultPolicy())
		}
	}
}

// Resolver interpolates and validates operating points. It keeps no state
// between calls.
type Resolver struct {
	source   CurveSource
	defaults pump.Policy
}

// NewResolver creates a resolver over source.
func NewResolver(source CurveSource, opts ...Option) *Resolver {
	r := &Resolver{
		source:   source,
		defaults: pump.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the pump, rejects invalid input, interpolates head, power,
// efficiency and NPSH at the query flow and attaches a verdict.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	spec, set, err := r.source.Lookup(ctx, q.Pump)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %q: %w", q.Pump, err)
	}
	policy := spec.Policy.Merge(r.defaults)

	if err := checkInput(q, policy); err != nil {
		return Result{}, err
	}

	res := Result{Pump: spec.Name, Flow: q.Flow}
	if q.HasHead() {
		h := *q.Head
		res.UserHead = &h
	}
	if q.Flow == 0 {
		res.ResolvedHead = set.Head[0]
		res.Power = set.Power[0]
		res.NPSH = set.NPSH[0]
		res.Efficiency = 0
	} else {
		res.ResolvedHead = interp.Linear(q.Flow, set.Flow, set.Head)
		res.Power = interp.Linear(q.Flow, set.Flow, set.Power)
		res.NPSH = interp.Linear(q.Flow, set.Flow, set.NPSH)
		res.Efficiency = interp.Linear(q.Flow, set.Flow, set.Efficiency)
	}

	res.Verdict = evaluate(point{
		query:  q,
		result: res,
		spec:   spec,
		set:    set,
		policy: policy,
	})
	return res, nil
}

func checkInput(q Query, policy pump.Policy) error {
	if math.IsNaN(q.Flow) || math.IsInf(q.Flow, 0) {
		return &RejectionError{Reason: RejectNonNumeric, Value: q.Flow}
	}
	if q.HasHead() && (math.IsNaN(*q.Head) || math.IsInf(*q.Head, 0)) {
		return &RejectionError{Reason: RejectNonNumeric, Value: *q.Head}
	}
	if q.Flow < 0 {
		return &RejectionError{Reason: RejectNegativeFlow, Value: q.Flow}
	}
	if q.HasHead() && *q.Head < 0 && !policy.AllowNegativeHead {
		return &RejectionError{Reason: RejectNegativeHead, Value: *q.Head}
	}
	return nil
}
