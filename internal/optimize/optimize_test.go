package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/cost"
)

// logisticObservation builds a one-class, two-alternative cost.Observation
// whose log-likelihood is the textbook two-outcome logistic log(sigmoid(
// coef*theta)) -- the same fixture shape used by internal/cost's own
// tests, reused here because it gives Maximize a convex-in-log-space,
// analytically checkable objective.
func logisticObservation(coef float64) cost.Observation {
	return cost.Observation{
		Weight:            1,
		ClassEstimatedRow: [][]float64{{0}},
		ClassFixedU:       []float64{0},
		ChoiceVarMatrix:   [][][]float64{{{coef}, {0}}},
		ChoiceFixedU:      [][]float64{{0, 0}},
	}
}

// symmetricFunction returns a single-parameter cost.Function whose
// log-likelihood is log(sigmoid(theta)) + log(sigmoid(-theta)), which
// is maximized at theta=0 with value log(0.25) -- a bounded, strictly
// concave objective suitable for checking that Maximize actually finds
// an interior maximum rather than just detecting unboundedness.
func symmetricFunction(t *testing.T) *cost.Function {
	t.Helper()
	f, err := cost.New([]cost.Observation{logisticObservation(1), logisticObservation(-1)}, map[string]int{"theta": 0})
	require.NoError(t, err)
	return f
}

func TestMaximizeFindsSymmetricInteriorMaximum(t *testing.T) {
	f := symmetricFunction(t)
	opts := DefaultOptions()

	result := Maximize(f, []float64{2.0}, opts)

	require.Equal(t, Success, result.Status)
	assert.InDelta(t, 0.0, result.X[0], 1e-3)
	assert.InDelta(t, math.Log(0.25), result.Value, 1e-3)
	require.Len(t, result.Gradient, 1)
	assert.Less(t, math.Abs(result.Gradient[0]), opts.GradTol*10)
}

func TestMaximizeConvergesFromEitherSide(t *testing.T) {
	f := symmetricFunction(t)
	opts := DefaultOptions()

	fromAbove := Maximize(f, []float64{3.0}, opts)
	fromBelow := Maximize(f, []float64{-3.0}, opts)

	require.Equal(t, Success, fromAbove.Status)
	require.Equal(t, Success, fromBelow.Status)
	assert.InDelta(t, fromAbove.X[0], fromBelow.X[0], 1e-2)
}

func TestMaximizeReportsStandardErrorsOnSuccess(t *testing.T) {
	f := symmetricFunction(t)

	result := Maximize(f, []float64{1.0}, DefaultOptions())

	require.Equal(t, Success, result.Status)
	require.Len(t, result.StdErrors, 1)
	assert.False(t, math.IsNaN(result.StdErrors[0]))
	assert.GreaterOrEqual(t, result.StdErrors[0], 0.0)
}

func TestCubicHermiteCandidateFallsBackOnNoRealRoot(t *testing.T) {
	// lowDeriv = highDeriv = 10 and highValue = 20/3 make d1 exactly 0
	// while lowDeriv*highDeriv = 100, forcing a negative discriminant;
	// the function must fall back to the bracket midpoint rather than
	// return NaN.
	candidate := cubicHermiteCandidate(0, 0, 10, 1, 20.0/3.0, 10)
	assert.False(t, math.IsNaN(candidate))
	assert.InDelta(t, 0.5, candidate, 1e-9)
}
