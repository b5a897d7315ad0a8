package operating_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	. "github.com/smartystreets/goconvey/convey"
)

// catalogSource generates curves on every lookup.
type catalogSource struct {
	specs map[string]pump.Spec
}

func newCatalogSource(specs ...pump.Spec) catalogSource {
	m := make(map[string]pump.Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return catalogSource{specs: m}
}

func (c catalogSource) Lookup(_ context.Context, name string) (pump.Spec, curve.Set, error) {
	spec, ok := c.specs[name]
	if !ok {
		return pump.Spec{}, curve.Set{}, fmt.Errorf("%w: %s", pump.ErrNotFound, name)
	}
	set, err := curve.Generate(spec, pump.DefaultSamples)
	return spec, set, err
}

func TestResolver_Scenarios(t *testing.T) {
	Convey("Given a resolver over the default catalog", t, func() {
		ctx := context.Background()
		r := operating.NewResolver(newCatalogSource(pump.DefaultCatalog()...))

		Convey("When resolving a mid-range flow without head", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 21})

			Convey("Then the head lies inside the curve's range and the verdict is ok", func() {
				So(err, ShouldBeNil)
				So(res.ResolvedHead, ShouldBeGreaterThan, 3.7)
				So(res.ResolvedHead, ShouldBeLessThan, 32.0)
				So(res.UserHead, ShouldBeNil)
				So(res.Verdict.Status, ShouldEqual, operating.StatusOK)
				So(res.Verdict.Warnings, ShouldBeEmpty)
			})

			Convey("Then power, efficiency and npsh are interpolated", func() {
				So(res.Power, ShouldBeBetween, 0.8, 4.8)
				So(res.Efficiency, ShouldBeBetween, 50.0, 57.05)
				So(res.NPSH, ShouldBeBetween, 1.5, 5.5)
			})
		})

		Convey("When the flow is beyond the design maximum", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 50, Head: operating.HeadOf(5)})

			Convey("Then the verdict warns the flow is above range", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Status, ShouldEqual, operating.StatusWarning)
				So(res.Verdict.Has(operating.WarnFlowAboveRange), ShouldBeTrue)
				So(res.Verdict.Has(operating.WarnFlowFarAboveRange), ShouldBeFalse)
				So(*res.UserHead, ShouldEqual, 5.0)
			})

			Convey("Then the outputs are clamped to the last sample", func() {
				So(res.ResolvedHead, ShouldAlmostEqual, 32*(1-math.Pow(42.0/45.0, 1.8)), 1e-9)
			})
		})

		Convey("When the flow is far beyond the design maximum", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 60})

			Convey("Then only the far-above warning is raised for flow", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnFlowFarAboveRange), ShouldBeTrue)
				So(res.Verdict.Has(operating.WarnFlowAboveRange), ShouldBeFalse)
			})
		})

		Convey("When the pump is unknown", func() {
			_, err := r.Resolve(ctx, operating.Query{Pump: "NoSuchPump", Flow: 10})

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, pump.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, operating.ErrInvalidInput), ShouldBeFalse)
			})
		})

		Convey("When the pump is unknown and the flow negative", func() {
			_, err := r.Resolve(ctx, operating.Query{Pump: "NoSuchPump", Flow: -1})

			Convey("Then the lookup failure wins", func() {
				So(errors.Is(err, pump.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the flow is negative", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: -3})

			Convey("Then the query is rejected without a result", func() {
				So(errors.Is(err, operating.ErrInvalidInput), ShouldBeTrue)
				So(res, ShouldResemble, operating.Result{})
				re, ok := operating.AsRejection(err)
				So(ok, ShouldBeTrue)
				So(re.Reason, ShouldEqual, operating.RejectNegativeFlow)
				So(re.Verdict().Status, ShouldEqual, operating.StatusRejected)
			})
		})

		Convey("When the flow is not a number", func() {
			_, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: math.NaN()})

			Convey("Then the query is rejected as non-numeric", func() {
				re, ok := operating.AsRejection(err)
				So(ok, ShouldBeTrue)
				So(re.Reason, ShouldEqual, operating.RejectNonNumeric)
			})
		})

		Convey("When a negative head is given for a pump that forbids it", func() {
			_, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21FourCV, Flow: 10, Head: operating.HeadOf(-2)})

			Convey("Then the query is rejected", func() {
				re, ok := operating.AsRejection(err)
				So(ok, ShouldBeTrue)
				So(re.Reason, ShouldEqual, operating.RejectNegativeHead)
			})
		})

		Convey("When a negative head is given for the work pump", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.WorkPump, Flow: 400, Head: operating.HeadOf(-5)})

			Convey("Then it resolves with a suction advisory", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Codes(), ShouldResemble, []operating.WarningCode{operating.WarnNegativeHeadSuction})
			})
		})

		Convey("When the flow is zero", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 0, Head: operating.HeadOf(20)})

			Convey("Then efficiency is zero and shutoff values are used", func() {
				So(err, ShouldBeNil)
				So(res.Efficiency, ShouldEqual, 0.0)
				So(res.ResolvedHead, ShouldEqual, 32.0)
				So(res.Power, ShouldEqual, 0.8)
				So(res.NPSH, ShouldEqual, 1.5)
			})

			Convey("Then the shutoff condition is reported without a low efficiency advisory", func() {
				So(res.Verdict.Has(operating.WarnShutoff), ShouldBeTrue)
				So(res.Verdict.Has(operating.WarnLowEfficiency), ShouldBeFalse)
			})
		})

		Convey("When flow and head are both zero", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 0, Head: operating.HeadOf(0)})

			Convey("Then the pump is reported stopped", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnPumpStopped), ShouldBeTrue)
				So(res.Verdict.Has(operating.WarnShutoff), ShouldBeFalse)
			})
		})

		Convey("When only the head is zero", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 21, Head: operating.HeadOf(0)})

			Convey("Then free discharge is reported and the curve deviation is not checked", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Codes(), ShouldResemble, []operating.WarningCode{operating.WarnFreeDischarge})
			})
		})

		Convey("When the specified head is far from the curve", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 21, Head: operating.HeadOf(30)})

			Convey("Then the warning carries the expected head", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnFarFromCurve), ShouldBeTrue)
				w := res.Verdict.Warnings[0]
				So(w.Code, ShouldEqual, operating.WarnFarFromCurve)
				So(w.Actual, ShouldEqual, 30.0)
				So(w.Reference, ShouldEqual, res.ResolvedHead)
			})
		})

		Convey("When the specified head is close to the curve", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 21, Head: operating.HeadOf(24)})

			Convey("Then the verdict is ok", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Status, ShouldEqual, operating.StatusOK)
			})
		})

		Convey("When the specified head exceeds the shutoff head", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 5, Head: operating.HeadOf(40)})

			Convey("Then head above range precedes the curve deviation", func() {
				So(err, ShouldBeNil)
				codes := res.Verdict.Codes()
				So(len(codes), ShouldBeGreaterThanOrEqualTo, 2)
				So(codes[0], ShouldEqual, operating.WarnHeadAboveRange)
				So(codes[1], ShouldEqual, operating.WarnFarFromCurve)
			})
		})

		Convey("When the flow is unusually low", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 1})

			Convey("Then low flow and low efficiency are reported in rule order", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Codes(), ShouldResemble, []operating.WarningCode{
					operating.WarnFlowUnusuallyLow,
					operating.WarnLowEfficiency,
				})
			})
		})

		Convey("When the flow equals each pump's rated maximum", func() {
			for _, spec := range pump.DefaultCatalog() {
				res, err := r.Resolve(ctx, operating.Query{Pump: spec.Name, Flow: spec.Curves.MaxFlow})

				Convey("Then no above-range warning is raised for "+spec.Name, func() {
					So(err, ShouldBeNil)
					So(res.Verdict.Has(operating.WarnFlowAboveRange), ShouldBeFalse)
					So(res.Verdict.Has(operating.WarnFlowFarAboveRange), ShouldBeFalse)
				})
			}
		})

		Convey("When the specified head is a small positive value", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 41, Head: operating.HeadOf(1)})

			Convey("Then it is reported as unusually low against the largest curve head", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnHeadUnusuallyLow), ShouldBeTrue)
				for _, w := range res.Verdict.Warnings {
					if w.Code == operating.WarnHeadUnusuallyLow {
						So(w.Actual, ShouldEqual, 1.0)
						So(w.Reference, ShouldAlmostEqual, 32*pump.DefaultLowHeadFraction, 1e-9)
					}
				}
			})
		})

		Convey("When the specified head is above the low head limit", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 41, Head: operating.HeadOf(5)})

			Convey("Then it is not reported as unusually low", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnHeadUnusuallyLow), ShouldBeFalse)
			})
		})
	})
}

func TestResolver_Policy(t *testing.T) {
	Convey("Given a resolver with a strict default head tolerance", t, func() {
		ctx := context.Background()
		strict := pump.DefaultPolicy()
		strict.HeadToleranceFraction = 0.001
		strict.HeadMinTolerance = 0.05
		r := operating.NewResolver(newCatalogSource(pump.DefaultCatalog()...), operating.WithDefaultPolicy(strict))

		Convey("When a head close to the curve is resolved", func() {
			res, err := r.Resolve(ctx, operating.Query{Pump: pump.BC21ThreeCV, Flow: 21, Head: operating.HeadOf(24)})

			Convey("Then it is now flagged as off-curve", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnFarFromCurve), ShouldBeTrue)
			})
		})

		Convey("When a pump overrides the tolerance itself", func() {
			spec := pump.DefaultCatalog()[0]
			spec.Policy.HeadToleranceFraction = 0.5
			r := operating.NewResolver(newCatalogSource(spec), operating.WithDefaultPolicy(strict))
			res, err := r.Resolve(ctx, operating.Query{Pump: spec.Name, Flow: 21, Head: operating.HeadOf(24)})

			Convey("Then the pump's own threshold wins", func() {
				So(err, ShouldBeNil)
				So(res.Verdict.Has(operating.WarnFarFromCurve), ShouldBeFalse)
			})
		})
	})
}

func TestResolver_Deterministic(t *testing.T) {
	Convey("Given repeated resolutions of the same query", t, func() {
		r := operating.NewResolver(newCatalogSource(pump.DefaultCatalog()...))
		q := operating.Query{Pump: pump.WorkPump, Flow: 123.4, Head: operating.HeadOf(150)}
		first, err := r.Resolve(context.Background(), q)
		So(err, ShouldBeNil)

		Convey("Then every result is identical", func() {
			for i := 0; i < 10; i++ {
				again, err := r.Resolve(context.Background(), q)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, first)
			}
		})
	})
}
