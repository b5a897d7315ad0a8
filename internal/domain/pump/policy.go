package pump

import "errors"

// Default validation thresholds.
const (
	DefaultFarAboveMargin        = 0.2
	DefaultLowFlowFraction       = 0.05
	DefaultHeadToleranceFraction = 0.15
	DefaultHeadMinTolerance      = 3.0
	DefaultLowEfficiencyFraction = 0.7
	DefaultLowHeadFraction       = 0.05
)

// Policy holds the operating point validation thresholds for a pump.
// Zero-valued thresholds inherit from the defaults passed to Merge, so zero
// never switches a check off. A pump relaxes a check by setting a threshold
// it cannot reach instead.
type Policy struct {
	// AllowNegativeHead accepts a negative specified head (suction side operation).
	AllowNegativeHead bool `yaml:"allow_negative_head"`
	// FarAboveMargin is the fraction above the last flow sample that
	// escalates "above range" to "far above range".
	FarAboveMargin float64 `yaml:"far_above_margin"`
	// LowFlowFraction of the last flow sample below which flow is unusually low.
	LowFlowFraction float64 `yaml:"low_flow_fraction"`
	// HeadToleranceFraction of the curve head allowed between the specified
	// head and the curve before the point is considered off-curve.
	HeadToleranceFraction float64 `yaml:"head_tolerance_fraction"`
	// HeadMinTolerance is the absolute floor of that tolerance, in metres.
	HeadMinTolerance float64 `yaml:"head_min_tolerance"`
	// LowEfficiencyFraction of the rated efficiency below which a point is flagged.
	LowEfficiencyFraction float64 `yaml:"low_efficiency_fraction"`
	// LowHeadFraction of the maximum curve head below which a positive
	// specified head is unusually low.
	LowHeadFraction float64 `yaml:"low_head_fraction"`
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		FarAboveMargin:        DefaultFarAboveMargin,
		LowFlowFraction:       DefaultLowFlowFraction,
		HeadToleranceFraction: DefaultHeadToleranceFraction,
		HeadMinTolerance:      DefaultHeadMinTolerance,
		LowEfficiencyFraction: DefaultLowEfficiencyFraction,
		LowHeadFraction:       DefaultLowHeadFraction,
	}
}

// Merge fills unset thresholds of p from defaults.
func (p Policy) Merge(defaults Policy) Policy {
	if p.FarAboveMargin == 0 {
		p.FarAboveMargin = defaults.FarAboveMargin
	}
	if p.LowFlowFraction == 0 {
		p.LowFlowFraction = defaults.LowFlowFraction
	}
	if p.HeadToleranceFraction == 0 {
		p.HeadToleranceFraction = defaults.HeadToleranceFraction
	}
	if p.HeadMinTolerance == 0 {
		p.HeadMinTolerance = defaults.HeadMinTolerance
	}
	if p.LowEfficiencyFraction == 0 {
		p.LowEfficiencyFraction = defaults.LowEfficiencyFraction
	}
	if p.LowHeadFraction == 0 {
		p.LowHeadFraction = defaults.LowHeadFraction
	}
	return p
}

// Validate rejects negative or non-finite thresholds. Fractions above one are
// rejected except for the far-above margin.
func (p Policy) Validate() error {
	switch {
	case !nonNegative(p.FarAboveMargin):
		return errors.New("far_above_margin must not be negative")
	case !nonNegative(p.LowFlowFraction) || p.LowFlowFraction > 1:
		return errors.New("low_flow_fraction must be in [0,1]")
	case !nonNegative(p.HeadToleranceFraction) || p.HeadToleranceFraction > 1:
		return errors.New("head_tolerance_fraction must be in [0,1]")
	case !nonNegative(p.HeadMinTolerance):
		return errors.New("head_min_tolerance must not be negative")
	case !nonNegative(p.LowEfficiencyFraction) || p.LowEfficiencyFraction > 1:
		return errors.New("low_efficiency_fraction must be in [0,1]")
	case !nonNegative(p.LowHeadFraction) || p.LowHeadFraction > 1:
		return errors.New("low_head_fraction must be in [0,1]")
	}
	return nil
}
