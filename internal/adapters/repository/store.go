// Package repository holds the pump catalog and the curve sets generated from it.
package repository

import (
	"context"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/pump"
)

// Store provides read/write access to the pump catalog and its curve sets.
type Store interface {
	// Names returns the catalog's pump names in catalog order.
	Names(ctx context.Context) []string

	// Spec returns the rated specification of a pump.
	// Returns pump.ErrNotFound if the name is unknown.
	Spec(ctx context.Context, name string) (pump.Spec, error)

	// CurveSet returns a private copy of the pump's curve set, generating
	// it on first use.
	CurveSet(ctx context.Context, name string) (curve.Set, error)

	// Lookup returns the spec and curve set of one catalog generation.
	Lookup(ctx context.Context, name string) (pump.Spec, curve.Set, error)

	// Upsert validates spec and adds or replaces it. A replaced pump's
	// cached curves are dropped.
	Upsert(ctx context.Context, spec pump.Spec) error

	// Replace swaps the whole catalog at once.
	Replace(ctx context.Context, specs []pump.Spec) error

	// Invalidate drops the cached curves of one pump.
	Invalidate(ctx context.Context, name string) error

	// InvalidateAll drops every cached curve set.
	InvalidateAll(ctx context.Context)

	// Count returns the number of catalog pumps.
	Count(ctx context.Context) int

	// Cached returns the number of generated curve sets currently held.
	Cached(ctx context.Context) int
}
