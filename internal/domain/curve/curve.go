// Package curve generates the sampled characteristic curves of a pump.
package curve

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/okian/pumpcurve/internal/domain/interp"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"gonum.org/v1/gonum/floats"
)

// ErrInvariant reports a generated curve set that breaks its invariants.
var ErrInvariant = errors.New("curve invariant violated")

// Set is the sampled characteristic of one pump: a strictly increasing flow
// grid starting at zero and four parallel value sequences.
type Set struct {
	Pump       string    `json:"pump"`
	Flow       []float64 `json:"flow"`
	Head       []float64 `json:"head"`
	Power      []float64 `json:"power"`
	NPSH       []float64 `json:"npsh"`
	Efficiency []float64 `json:"efficiency"`
}

// Len returns the number of samples.
func (s Set) Len() int { return len(s.Flow) }

// MaxFlow returns the last flow sample.
func (s Set) MaxFlow() float64 {
	if len(s.Flow) == 0 {
		return 0
	}
	return s.Flow[len(s.Flow)-1]
}

// HeadRange returns the smallest and largest head samples.
func (s Set) HeadRange() (lo, hi float64) {
	if len(s.Head) == 0 {
		return 0, 0
	}
	return floats.Min(s.Head), floats.Max(s.Head)
}

// Clone returns a deep copy so callers cannot alias cached storage.
func (s Set) Clone() Set {
	return Set{
		Pump:       s.Pump,
		Flow:       slices.Clone(s.Flow),
		Head:       slices.Clone(s.Head),
		Power:      slices.Clone(s.Power),
		NPSH:       slices.Clone(s.NPSH),
		Efficiency: slices.Clone(s.Efficiency),
	}
}

// Validate checks the set invariants: equal lengths, finite values, strictly
// increasing flow starting at zero, zero efficiency at zero flow and
// non-negative NPSH.
func (s Set) Validate() error {
	if len(s.Flow) == 0 {
		return fmt.Errorf("%w: empty flow grid", ErrInvariant)
	}
	if s.Flow[0] != 0 {
		return fmt.Errorf("%w: flow grid starts at %g", ErrInvariant, s.Flow[0])
	}
	for name, ys := range map[string][]float64{"head": s.Head, "power": s.Power, "npsh": s.NPSH, "efficiency": s.Efficiency} {
		if err := interp.Check(s.Flow, ys); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariant, name, err)
		}
	}
	if s.Efficiency[0] != 0 {
		return fmt.Errorf("%w: efficiency at shutoff is %g", ErrInvariant, s.Efficiency[0])
	}
	if floats.Min(s.NPSH) < 0 {
		return fmt.Errorf("%w: negative npsh", ErrInvariant)
	}
	return nil
}

// Generate samples the curves of spec. fallbackSamples is used when the spec
// does not fix its own sample count.
func Generate(spec pump.Spec, fallbackSamples int) (Set, error) {
	if err := spec.Validate(); err != nil {
		return Set{}, err
	}
	shape := spec.Curves
	n := shape.SampleCount(fallbackSamples)
	if n < pump.MinSamples || n > pump.MaxSamples {
		return Set{}, fmt.Errorf("%w: %s: %d samples", pump.ErrInvalidSpec, spec.Name, n)
	}

	set := Set{
		Pump:       spec.Name,
		Flow:       floats.Span(make([]float64, n), 0, shape.MaxFlow),
		Head:       make([]float64, n),
		Power:      make([]float64, n),
		NPSH:       make([]float64, n),
		Efficiency: make([]float64, n),
	}
	// Span accumulates rounding; the grid must end exactly at the rated maximum.
	set.Flow[n-1] = shape.MaxFlow
	for i, q := range set.Flow {
		set.Head[i] = headAt(shape.Head, q)
		set.Power[i] = powerAt(shape.Power, q/shape.MaxFlow)
		set.NPSH[i] = npshAt(shape.NPSH, shape.MaxFlow, q)
		set.Efficiency[i] = efficiencyAt(spec.RatedEfficiencyPercent, shape.BEPFlow, shape.Falloff(), q)
	}

	if err := set.Validate(); err != nil {
		return Set{}, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return set, nil
}

func headAt(h pump.HeadShape, q float64) float64 {
	return h.ShutoffM - (h.ShutoffM-h.RefHeadM)*math.Pow(q/h.RefFlow, h.Exponent)
}

func powerAt(p pump.PowerShape, x float64) float64 {
	return p.Base + p.Linear*x + p.Quadratic*x*x
}

func npshAt(n pump.NPSHShape, maxFlow, q float64) float64 {
	var v float64
	if !n.HasPeak(maxFlow) {
		x := q / maxFlow
		v = n.Base + n.Rise1*x + n.Rise2*x*x
	} else if q <= n.PeakFlow {
		x := q / n.PeakFlow
		v = n.Base + n.Rise1*x + n.Rise2*x*x
	} else {
		z := (q - n.PeakFlow) / (maxFlow - n.PeakFlow)
		v = n.Base + n.Rise1 + n.Rise2 - (n.Fall1*z + n.Fall2*z*z)
	}
	return math.Max(0, v)
}

// efficiencyAt rises as η·(1-(1-x)²) up to the BEP and decays as
// η·(1-k·(x-1)²) beyond it, x = q/BEP, clamped to [0, η].
func efficiencyAt(peak, bep, falloff, q float64) float64 {
	x := q / bep
	var v float64
	if x <= 1 {
		v = peak * (1 - (1-x)*(1-x))
	} else {
		v = peak * (1 - falloff*(x-1)*(x-1))
	}
	return math.Max(0, math.Min(peak, v))
}
