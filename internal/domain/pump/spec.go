// Package pump holds the static nameplate data of pump models and the
// analytic shape parameters their characteristic curves are generated from.
package pump

import (
	"fmt"
	"math"
	"strings"
)

// Sample count bounds for a generated curve.
const (
	MinSamples     = 80
	MaxSamples     = 150
	DefaultSamples = 100

	defaultEfficiencyFalloff = 0.8
)

// Spec is the nameplate data of one pump model. It is created when the
// catalog is loaded and never mutated; replacing a pump means replacing its Spec.
type Spec struct {
	Name                   string  `yaml:"name" json:"name"`
	RatedPowerCV           float64 `yaml:"rated_power_cv" json:"rated_power_cv"`
	RatedRPM               float64 `yaml:"rated_rpm" json:"rated_rpm"`
	RatedNPSHM             float64 `yaml:"rated_npsh_m" json:"rated_npsh_m"`
	RatedEfficiencyPercent float64 `yaml:"rated_efficiency_percent" json:"rated_efficiency_percent"`

	Curves Shape  `yaml:"curves" json:"-"`
	Policy Policy `yaml:"policy" json:"-"`
}

// Shape parameterises the analytic curves of a pump. Flow is in m³/h, head
// and NPSH in metres of liquid column, power in CV.
type Shape struct {
	// MaxFlow is the last flow sample; the grid always starts at zero.
	MaxFlow float64 `yaml:"max_flow"`
	// Samples is the number of grid points; zero selects the repository default.
	Samples int `yaml:"samples"`
	// BEPFlow is the best efficiency flow.
	BEPFlow float64 `yaml:"bep_flow"`
	// EfficiencyFalloff is the parabolic decay coefficient above the BEP.
	EfficiencyFalloff float64 `yaml:"efficiency_falloff"`

	Head  HeadShape  `yaml:"head"`
	Power PowerShape `yaml:"power"`
	NPSH  NPSHShape  `yaml:"npsh"`
}

// HeadShape describes H(q) = Shutoff - (Shutoff - RefHead) * (q/RefFlow)^Exponent.
type HeadShape struct {
	ShutoffM float64 `yaml:"shutoff_m"`
	RefHeadM float64 `yaml:"ref_head_m"`
	RefFlow  float64 `yaml:"ref_flow"`
	Exponent float64 `yaml:"exponent"`
}

// PowerShape describes P(x) = Base + Linear*x + Quadratic*x², x = q/MaxFlow.
type PowerShape struct {
	Base      float64 `yaml:"base"`
	Linear    float64 `yaml:"linear"`
	Quadratic float64 `yaml:"quadratic"`
}

// NPSHShape describes the required NPSH curve. Without a PeakFlow it is
// Base + Rise1*x + Rise2*x² over x = q/MaxFlow. With a PeakFlow inside the
// grid the curve rises over x = q/PeakFlow and then falls gently by
// Fall1*z + Fall2*z², z = (q-PeakFlow)/(MaxFlow-PeakFlow).
type NPSHShape struct {
	Base     float64 `yaml:"base"`
	Rise1    float64 `yaml:"rise1"`
	Rise2    float64 `yaml:"rise2"`
	PeakFlow float64 `yaml:"peak_flow"`
	Fall1    float64 `yaml:"fall1"`
	Fall2    float64 `yaml:"fall2"`
}

// SampleCount returns the effective number of samples given a fallback.
func (s Shape) SampleCount(fallback int) int {
	if s.Samples > 0 {
		return s.Samples
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultSamples
}

// Falloff returns the efficiency decay coefficient, defaulting when unset.
func (s Shape) Falloff() float64 {
	if s.EfficiencyFalloff > 0 {
		return s.EfficiencyFalloff
	}
	return defaultEfficiencyFalloff
}

// HasPeak reports whether the NPSH curve rises then falls.
func (n NPSHShape) HasPeak(maxFlow float64) bool {
	return n.PeakFlow > 0 && n.PeakFlow < maxFlow
}

// Validate checks the nameplate values and the curve shape.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	checks := []struct {
		name string
		ok   bool
	}{
		{"rated_power_cv must be positive", positive(s.RatedPowerCV)},
		{"rated_rpm must be positive", positive(s.RatedRPM)},
		{"rated_npsh_m must not be negative", nonNegative(s.RatedNPSHM)},
		{"rated_efficiency_percent must be in (0,100]", positive(s.RatedEfficiencyPercent) && s.RatedEfficiencyPercent <= 100},
		{"max_flow must be positive", positive(s.Curves.MaxFlow)},
		{"bep_flow must be positive", positive(s.Curves.BEPFlow)},
		{"bep_flow must be below max_flow", s.Curves.BEPFlow < s.Curves.MaxFlow},
		{"samples out of range", s.Curves.Samples == 0 || (s.Curves.Samples >= MinSamples && s.Curves.Samples <= MaxSamples)},
		{"efficiency_falloff must not be negative", nonNegative(s.Curves.EfficiencyFalloff)},
		{"head.ref_flow must be positive", positive(s.Curves.Head.RefFlow)},
		{"head.exponent must be positive", positive(s.Curves.Head.Exponent)},
		{"head must not rise with flow", finite(s.Curves.Head.ShutoffM) && finite(s.Curves.Head.RefHeadM) && s.Curves.Head.ShutoffM >= s.Curves.Head.RefHeadM},
		{"power coefficients must keep the curve non-decreasing", finite(s.Curves.Power.Base) && nonNegative(s.Curves.Power.Linear) && nonNegative(s.Curves.Power.Quadratic)},
		{"npsh coefficients must not be negative", nonNegative(s.Curves.NPSH.Base) && nonNegative(s.Curves.NPSH.Rise1) && nonNegative(s.Curves.NPSH.Rise2) && nonNegative(s.Curves.NPSH.Fall1) && nonNegative(s.Curves.NPSH.Fall2)},
		{"npsh.peak_flow must not be negative", nonNegative(s.Curves.NPSH.PeakFlow)},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s: %s", ErrInvalidSpec, s.Name, c.name)
		}
	}
	if err := s.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSpec, s.Name, err)
	}
	return nil
}

func finite(v float64) bool      { return !math.IsNaN(v) && !math.IsInf(v, 0) }
func positive(v float64) bool    { return finite(v) && v > 0 }
func nonNegative(v float64) bool { return finite(v) && v >= 0 }
