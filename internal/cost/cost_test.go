package cost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/scaperr"
)

// singleClassObservation builds a one-class, two-alternative Observation
// whose only estimated parameter loads alternative 0's utility by coef
// and alternative 1's by 0, so the conditional choice probability (and
// its gradient) reduce to the textbook two-outcome softmax.
func singleClassObservation(weight, coef float64) Observation {
	return Observation{
		Weight:            weight,
		ClassEstimatedRow: [][]float64{{0}},
		ClassFixedU:       []float64{0},
		ChoiceVarMatrix:   [][][]float64{{{coef}, {0}}},
		ChoiceFixedU:      [][]float64{{0, 0}},
	}
}

func TestEvalObservationSingleClassMatchesTwoOutcomeSoftmax(t *testing.T) {
	obs := singleClassObservation(1, 1)
	ll, grad := evalObservation(obs, []float64{0})

	// theta=0 => alt utilities [0,0] => p0=p1=0.5
	require.InDelta(t, math.Log(0.5), ll, 1e-9)
	require.Len(t, grad, 1)
	assert.InDelta(t, 0.5, grad[0], 1e-9)
}

func TestEvalObservationGradientShrinksAsProbabilityRises(t *testing.T) {
	obs := singleClassObservation(1, 1)
	_, gradLow := evalObservation(obs, []float64{0})
	_, gradHigh := evalObservation(obs, []float64{5})

	// as theta grows, p0 -> 1 and the gradient (1-p0) -> 0.
	assert.Less(t, gradHigh[0], gradLow[0])
	assert.Greater(t, gradHigh[0], 0.0)
}

func TestFunctionEvaluateAggregatesWeightedObservations(t *testing.T) {
	observations := []Observation{
		singleClassObservation(1, 1),
		singleClassObservation(2, 1),
	}
	f := &Function{Observations: observations, NumParams: 1}

	result := f.Evaluate([]float64{0})

	wantValue := 1*math.Log(0.5) + 2*math.Log(0.5)
	assert.InDelta(t, wantValue, result.Value, 1e-9)
	assert.InDelta(t, 1*0.5+2*0.5, result.Gradient[0], 1e-9)
	require.NotNil(t, result.Score)

	r, c := result.Score.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 1, c)
}

func TestFunctionHessianIsConcave(t *testing.T) {
	observations := []Observation{singleClassObservation(1, 1), singleClassObservation(1, -1)}
	f := &Function{Observations: observations, NumParams: 1}

	h := f.Hessian([]float64{0.25}, 1e-4)
	r, c := h.Dims()
	require.Equal(t, 1, r)
	require.Equal(t, 1, c)

	// a two-outcome logistic log-likelihood is concave in theta: the
	// second derivative of log(sigmoid) is always <= 0.
	assert.LessOrEqual(t, h.At(0, 0), 1e-6)
}

func TestValidateObservedReportsUnusedParameter(t *testing.T) {
	observations := []Observation{singleClassObservation(1, 1)}
	paramIndex := map[string]int{"used": 0, "never_touched": 1}

	// singleClassObservation only has one estimated column; pad its rows
	// to match paramIndex's width so the unused column is genuinely
	// untouched rather than a shape mismatch.
	for i := range observations {
		observations[i].ClassEstimatedRow[0] = append(observations[i].ClassEstimatedRow[0], 0)
		observations[i].ChoiceVarMatrix[0][0] = append(observations[i].ChoiceVarMatrix[0][0], 0)
		observations[i].ChoiceVarMatrix[0][1] = append(observations[i].ChoiceVarMatrix[0][1], 0)
	}

	err := ValidateObserved(observations, paramIndex)
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.MissingEstimatedParameter))
}

func TestValidateObservedPassesWhenEveryParameterIsExercised(t *testing.T) {
	observations := []Observation{singleClassObservation(1, 1)}
	paramIndex := map[string]int{"used": 0}

	err := ValidateObserved(observations, paramIndex)
	assert.NoError(t, err)
}
