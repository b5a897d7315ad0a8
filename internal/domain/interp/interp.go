// Package interp implements clamped one-dimensional piecewise-linear
// interpolation over sampled curves.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Above this many samples the bracketing interval is found by binary search.
const binarySearchThreshold = 20

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmpty            = errors.New("interp: empty samples")
	ErrLengthMismatch   = errors.New("interp: xs and ys differ in length")
	ErrNotIncreasing    = errors.New("interp: xs not strictly increasing")
	ErrNonFiniteSamples = errors.New("interp: non-finite sample")
)

// Check verifies the contract Linear relies on: at least one sample, equal
// lengths, finite values and strictly increasing xs.
func Check(xs, ys []float64) error {
	if len(xs) == 0 {
		return ErrEmpty
	}
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(xs), len(ys))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return fmt.Errorf("%w at index %d", ErrNonFiniteSamples, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return fmt.Errorf("%w at index %d", ErrNotIncreasing, i)
		}
	}
	return nil
}

// Linear returns ys interpolated at x. Values outside [xs[0], xs[last]] are
// clamped to the end samples; sample points are returned exactly. The caller
// guarantees the Check contract. A NaN x yields NaN.
func Linear(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if math.IsNaN(x) || n == 0 {
		return math.NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}

	if n > binarySearchThreshold {
		// first index whose sample lies strictly right of x; 1 <= j <= n-1
		j := sort.Search(n, func(i int) bool { return xs[i] > x })
		return segment(x, xs, ys, j-1)
	}
	for i := 0; i < n-1; i++ {
		if x < xs[i+1] {
			return segment(x, xs, ys, i)
		}
	}
	return ys[n-1]
}

// segment interpolates on [xs[i], xs[i+1]) and keeps the result inside the
// segment's value range so rounding cannot break monotonicity.
func segment(x float64, xs, ys []float64, i int) float64 {
	t := (x - xs[i]) / (xs[i+1] - xs[i])
	y := ys[i] + t*(ys[i+1]-ys[i])
	lo, hi := ys[i], ys[i+1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, y))
}
