package pump

import "fmt"

// Names of the built-in catalog entries.
const (
	BC21ThreeCV = "BC-21 R 1/2 (3 CV)"
	BC21FourCV  = "BC-21 R 1/2 (4 CV)"
	WorkPump    = "Bomba Trabalho"
)

// DefaultCatalog returns the built-in pump table in display order.
func DefaultCatalog() []Spec {
	return []Spec{
		{
			Name:                   BC21ThreeCV,
			RatedPowerCV:           3,
			RatedRPM:               3500,
			RatedNPSHM:             2.87,
			RatedEfficiencyPercent: 57.05,
			Curves: Shape{
				MaxFlow: 42,
				Samples: 80,
				BEPFlow: 25,
				Head:    HeadShape{ShutoffM: 32, RefHeadM: 0, RefFlow: 45, Exponent: 1.8},
				// 0.8 + 2.2·x + 0.001·q², with q = 42x.
				Power: PowerShape{Base: 0.8, Linear: 2.2, Quadratic: 1.764},
				NPSH:  NPSHShape{Base: 1.5, Rise1: 2.5, Rise2: 1.4112},
			},
		},
		{
			Name:                   BC21FourCV,
			RatedPowerCV:           4,
			RatedRPM:               3500,
			RatedNPSHM:             2.87,
			RatedEfficiencyPercent: 54.68,
			Curves: Shape{
				MaxFlow: 50,
				Samples: 80,
				BEPFlow: 30,
				Head:    HeadShape{ShutoffM: 42, RefHeadM: 0, RefFlow: 55, Exponent: 1.8},
				Power:   PowerShape{Base: 1.2, Linear: 2.8, Quadratic: 2.0},
				NPSH:    NPSHShape{Base: 1.8, Rise1: 2.2, Rise2: 1.5},
			},
		},
		{
			Name:                   WorkPump,
			RatedPowerCV:           46.5,
			RatedRPM:               1700,
			RatedNPSHM:             25,
			RatedEfficiencyPercent: 75,
			Curves: Shape{
				MaxFlow: 500,
				Samples: 100,
				BEPFlow: 300,
				Head:    HeadShape{ShutoffM: 200, RefHeadM: -10, RefFlow: 500, Exponent: 1.5},
				// 12 + 34.5·(0.3x + 0.7x²)
				Power: PowerShape{Base: 12, Linear: 10.35, Quadratic: 24.15},
				NPSH:  NPSHShape{Base: 15, Rise1: 4, Rise2: 6, PeakFlow: 300, Fall1: 0.9, Fall2: 0.6},
			},
			Policy: Policy{AllowNegativeHead: true},
		},
	}
}

// ValidateCatalog checks every spec and rejects duplicate names.
func ValidateCatalog(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicate, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
