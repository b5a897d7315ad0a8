package curve_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/pump"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate_DefaultCatalog(t *testing.T) {
	Convey("Given every pump of the default catalog", t, func() {
		for _, spec := range pump.DefaultCatalog() {
			set, err := curve.Generate(spec, pump.DefaultSamples)

			Convey("When generating "+spec.Name, func() {
				So(err, ShouldBeNil)

				Convey("Then all sequences share the flow grid length", func() {
					n := set.Len()
					So(n, ShouldEqual, spec.Curves.Samples)
					So(len(set.Head), ShouldEqual, n)
					So(len(set.Power), ShouldEqual, n)
					So(len(set.NPSH), ShouldEqual, n)
					So(len(set.Efficiency), ShouldEqual, n)
				})

				Convey("Then flow starts at zero, ends at max flow and strictly increases", func() {
					So(set.Flow[0], ShouldEqual, 0.0)
					So(set.MaxFlow(), ShouldEqual, spec.Curves.MaxFlow)
					for i := 1; i < set.Len(); i++ {
						So(set.Flow[i], ShouldBeGreaterThan, set.Flow[i-1])
					}
				})

				Convey("Then efficiency is zero at shutoff and peaks near the BEP", func() {
					So(set.Efficiency[0], ShouldEqual, 0.0)
					best := 0
					for i, e := range set.Efficiency {
						So(e, ShouldBeLessThanOrEqualTo, spec.RatedEfficiencyPercent)
						if e > set.Efficiency[best] {
							best = i
						}
					}
					step := set.Flow[1] - set.Flow[0]
					So(math.Abs(set.Flow[best]-spec.Curves.BEPFlow), ShouldBeLessThanOrEqualTo, step)
					So(set.Efficiency[best], ShouldBeGreaterThan, 0.99*spec.RatedEfficiencyPercent)
				})

				Convey("Then efficiency decays on both sides of the BEP", func() {
					for i := 1; i < set.Len(); i++ {
						if set.Flow[i] <= spec.Curves.BEPFlow {
							So(set.Efficiency[i], ShouldBeGreaterThanOrEqualTo, set.Efficiency[i-1])
						} else if set.Flow[i-1] >= spec.Curves.BEPFlow {
							So(set.Efficiency[i], ShouldBeLessThanOrEqualTo, set.Efficiency[i-1])
						}
					}
				})

				Convey("Then head starts at shutoff head and never rises", func() {
					So(set.Head[0], ShouldEqual, spec.Curves.Head.ShutoffM)
					for i := 1; i < set.Len(); i++ {
						So(set.Head[i], ShouldBeLessThanOrEqualTo, set.Head[i-1])
						So(math.IsNaN(set.Head[i]), ShouldBeFalse)
					}
				})

				Convey("Then power never falls and npsh stays non-negative", func() {
					So(set.Power[0], ShouldEqual, spec.Curves.Power.Base)
					for i := 1; i < set.Len(); i++ {
						So(set.Power[i], ShouldBeGreaterThanOrEqualTo, set.Power[i-1])
					}
					for _, v := range set.NPSH {
						So(v, ShouldBeGreaterThanOrEqualTo, 0)
					}
				})
			})
		}
	})
}

func TestGenerate_Determinism(t *testing.T) {
	Convey("Given the same spec generated twice", t, func() {
		spec := pump.DefaultCatalog()[0]
		a, errA := curve.Generate(spec, 0)
		b, errB := curve.Generate(spec, 0)

		Convey("Then both sets are value-identical", func() {
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(a, ShouldResemble, b)
		})

		Convey("Then a clone does not alias the original", func() {
			c := a.Clone()
			c.Head[0] = -1
			So(a.Head[0], ShouldEqual, spec.Curves.Head.ShutoffM)
		})
	})
}

func TestGenerate_WorkPumpShapes(t *testing.T) {
	Convey("Given the work pump with a peaked npsh curve", t, func() {
		spec := pump.DefaultCatalog()[2]
		set, err := curve.Generate(spec, 0)
		So(err, ShouldBeNil)

		Convey("Then its head ends at the negative design end head", func() {
			So(set.Head[set.Len()-1], ShouldAlmostEqual, -10.0, 1e-9)
		})

		Convey("Then npsh rises to the peak then gently falls", func() {
			lo, hi := set.NPSH[0], 0.0
			for _, v := range set.NPSH {
				hi = math.Max(hi, v)
			}
			So(lo, ShouldEqual, 15.0)
			So(hi, ShouldBeLessThanOrEqualTo, 25.0)
			So(set.NPSH[set.Len()-1], ShouldAlmostEqual, 23.5, 1e-9)
		})
	})
}

func TestGenerate_Rejects(t *testing.T) {
	Convey("Given invalid specs", t, func() {
		base := pump.DefaultCatalog()[0]

		Convey("When the sample count is out of range", func() {
			spec := base
			spec.Curves.Samples = 10
			_, err := curve.Generate(spec, 0)
			So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
		})

		Convey("When the fallback sample count is out of range", func() {
			spec := base
			spec.Curves.Samples = 0
			_, err := curve.Generate(spec, 500)
			So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
		})

		Convey("When the head rises with flow", func() {
			spec := base
			spec.Curves.Head.RefHeadM = 40
			_, err := curve.Generate(spec, 0)
			So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
		})

		Convey("When the BEP is at or beyond max flow", func() {
			for _, bep := range []float64{base.Curves.MaxFlow, 80} {
				spec := base
				spec.Curves.BEPFlow = bep
				_, err := curve.Generate(spec, 0)
				So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
			}
		})

		Convey("When max flow is zero", func() {
			spec := base
			spec.Curves.MaxFlow = 0
			_, err := curve.Generate(spec, 0)
			So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
		})
	})
}
