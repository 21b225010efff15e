package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scaper-sim/scaper/internal/cost"
)

// lineSearchResult is one bracketing-sectioning line search's outcome.
type lineSearchResult struct {
	alpha float64
	ok    bool
}

// lineSearch implements §4.10 step 3: maximize f along x + alpha*direction
// by bracketing-sectioning with cubic Hermite candidate interpolation.
func lineSearch(f *cost.Function, x []float64, f0 float64, grad0, direction []float64, alphaStart float64, opts Options) lineSearchResult {
	phiPrime0 := floats.Dot(grad0, direction)

	evalAt := func(alpha float64) (value, deriv float64) {
		next := make([]float64, len(x))
		for i := range next {
			next[i] = x[i] + alpha*direction[i]
		}
		e := f.Evaluate(next)
		return e.Value, floats.Dot(e.Gradient, direction)
	}

	alpha := alphaStart
	var feasibleValue float64
	feasible := false
	for i := 0; i < opts.MaxHalvings; i++ {
		v, _ := evalAt(alpha)
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			feasibleValue = v
			feasible = true
			break
		}
		alpha /= 2
	}
	if !feasible {
		return lineSearchResult{ok: false}
	}

	low, lowValue, lowDeriv := 0.0, f0, phiPrime0
	high := alpha
	_, highDeriv := evalAt(high)
	highValue := feasibleValue

	accept := func(candidate, candDeriv float64) bool {
		if math.Abs(candDeriv) <= opts.CurvatureFraction*math.Abs(phiPrime0) {
			return true
		}
		return math.Abs((candidate-low)*candDeriv) < 1e-16
	}

	for iter := 0; iter < opts.MaxLineSearchIterations; iter++ {
		candidate := cubicHermiteCandidate(low, lowValue, lowDeriv, high, highValue, highDeriv)

		width := high - low
		lo := low + 0.2*width
		hi := low + 0.8*width
		if candidate < lo {
			candidate = lo
		}
		if candidate > hi {
			candidate = hi
		}

		candValue, candDeriv := evalAt(candidate)

		if accept(candidate, candDeriv) {
			return lineSearchResult{alpha: candidate, ok: true}
		}

		switch {
		case candValue < lowValue || candDeriv < 0:
			high, highValue, highDeriv = candidate, candValue, candDeriv
		case highDeriv > 0:
			low, lowValue, lowDeriv = candidate, candValue, candDeriv
			newHigh := high * 10
			if newHigh > opts.MaxStep {
				newHigh = opts.MaxStep
			}
			high = newHigh
			highValue, highDeriv = evalAt(high)
		default:
			low, lowValue, lowDeriv = candidate, candValue, candDeriv
		}
	}

	return lineSearchResult{ok: false}
}

// cubicHermiteCandidate finds the stationary point of the cubic
// Hermite interpolant of (value, derivative) at the bracket endpoints,
// per Nocedal & Wright's line-search interpolation scheme; falls back
// to the bracket midpoint when the interpolant has no real root (the
// two endpoints' curvature data is inconsistent with a single cubic).
func cubicHermiteCandidate(low, lowValue, lowDeriv, high, highValue, highDeriv float64) float64 {
	d1 := lowDeriv + highDeriv - 3*(highValue-lowValue)/(high-low)
	disc := d1*d1 - lowDeriv*highDeriv
	if disc < 0 {
		return (low + high) / 2
	}
	d2 := math.Sqrt(disc)
	if high < low {
		d2 = -d2
	}
	denom := highDeriv - lowDeriv + 2*d2
	if denom == 0 {
		return (low + high) / 2
	}
	return high - (high-low)*(highDeriv+d2-d1)/denom
}
