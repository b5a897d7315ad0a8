package interp_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/pumpcurve/internal/domain/interp"
	. "github.com/smartystreets/goconvey/convey"
	gonuminterp "gonum.org/v1/gonum/interp"
)

func grid(n int, step float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) * step
	}
	return xs
}

func TestLinear(t *testing.T) {
	Convey("Given a short table searched linearly", t, func() {
		xs := []float64{0, 1, 2, 4}
		ys := []float64{10, 20, 15, 35}

		Convey("When x is a sample point", func() {
			Convey("Then the sample value is returned exactly", func() {
				for i := range xs {
					So(interp.Linear(xs[i], xs, ys), ShouldEqual, ys[i])
				}
			})
		})

		Convey("When x lies inside an interval", func() {
			Convey("Then the value is linearly interpolated", func() {
				So(interp.Linear(0.5, xs, ys), ShouldAlmostEqual, 15.0, 1e-12)
				So(interp.Linear(1.5, xs, ys), ShouldAlmostEqual, 17.5, 1e-12)
				So(interp.Linear(3, xs, ys), ShouldAlmostEqual, 25.0, 1e-12)
			})
		})

		Convey("When x lies outside the sampled range", func() {
			Convey("Then the end samples are returned", func() {
				So(interp.Linear(xs[0]-1, xs, ys), ShouldEqual, ys[0])
				So(interp.Linear(xs[len(xs)-1]+1, xs, ys), ShouldEqual, ys[len(ys)-1])
				So(interp.Linear(math.Inf(1), xs, ys), ShouldEqual, ys[len(ys)-1])
				So(interp.Linear(math.Inf(-1), xs, ys), ShouldEqual, ys[0])
			})
		})

		Convey("When x is NaN", func() {
			Convey("Then NaN is returned", func() {
				So(math.IsNaN(interp.Linear(math.NaN(), xs, ys)), ShouldBeTrue)
			})
		})
	})

	Convey("Given a long table searched by bisection", t, func() {
		xs := grid(101, 0.37)
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = 3*x*x + 0.1
		}

		Convey("Then every sample point round-trips exactly", func() {
			for i := range xs {
				So(interp.Linear(xs[i], xs, ys), ShouldEqual, ys[i])
			}
		})

		Convey("Then midpoints are the mean of their neighbours", func() {
			for i := 0; i < len(xs)-1; i++ {
				mid := (xs[i] + xs[i+1]) / 2
				So(interp.Linear(mid, xs, ys), ShouldAlmostEqual, (ys[i]+ys[i+1])/2, 1e-9)
			}
		})

		Convey("Then repeated calls return identical results", func() {
			for _, x := range []float64{-5, 0.01, 7.77, 18.5, 36.9, 99} {
				first := interp.Linear(x, xs, ys)
				for k := 0; k < 5; k++ {
					So(interp.Linear(x, xs, ys), ShouldEqual, first)
				}
			}
		})

		Convey("Then the result is non-decreasing for increasing ys", func() {
			prev := math.Inf(-1)
			for x := -1.0; x <= 38; x += 0.013 {
				y := interp.Linear(x, xs, ys)
				So(y, ShouldBeGreaterThanOrEqualTo, prev)
				prev = y
			}
		})
	})

	Convey("Given a single sample", t, func() {
		xs := []float64{3}
		ys := []float64{9}

		Convey("Then every x maps to that sample", func() {
			So(interp.Linear(-1, xs, ys), ShouldEqual, 9.0)
			So(interp.Linear(3, xs, ys), ShouldEqual, 9.0)
			So(interp.Linear(10, xs, ys), ShouldEqual, 9.0)
		})
	})
}

func TestCheck(t *testing.T) {
	Convey("Given sample tables", t, func() {
		Convey("When the table is valid", func() {
			So(interp.Check([]float64{0, 1, 2}, []float64{5, 4, 3}), ShouldBeNil)
		})

		Convey("When the table is empty", func() {
			So(errors.Is(interp.Check(nil, nil), interp.ErrEmpty), ShouldBeTrue)
		})

		Convey("When lengths differ", func() {
			err := interp.Check([]float64{0, 1}, []float64{1})
			So(errors.Is(err, interp.ErrLengthMismatch), ShouldBeTrue)
		})

		Convey("When xs repeats a value", func() {
			err := interp.Check([]float64{0, 1, 1}, []float64{1, 2, 3})
			So(errors.Is(err, interp.ErrNotIncreasing), ShouldBeTrue)
		})

		Convey("When a sample is not finite", func() {
			err := interp.Check([]float64{0, 1}, []float64{1, math.NaN()})
			So(errors.Is(err, interp.ErrNonFiniteSamples), ShouldBeTrue)
		})
	})
}

func TestLinearAgreesWithGonum(t *testing.T) {
	Convey("Given a curve-like table and gonum's piecewise linear fit", t, func() {
		xs := grid(100, 0.5)
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = 30 - 0.01*x*x
		}
		var pl gonuminterp.PiecewiseLinear
		So(pl.Fit(xs, ys), ShouldBeNil)

		Convey("Then both agree inside and outside the sampled range", func() {
			for x := -2.0; x <= 52; x += 0.37 {
				So(interp.Linear(x, xs, ys), ShouldAlmostEqual, pl.Predict(x), 1e-9)
			}
		})
	})
}
