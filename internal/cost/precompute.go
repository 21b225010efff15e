// Package cost implements the latent-class MNL log-likelihood of §4.9:
// per-observation precomputation against a shared estimated-parameter
// index, and a parallel-reduced value/gradient/score evaluator the
// optimizer drives.
package cost

import (
	"github.com/scaper-sim/scaper/internal/choiceset"
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/world"
)

// Observation is one agent's precomputed cost-function inputs, linear
// in a candidate parameter vector θ over paramIndex's column ordering.
type Observation struct {
	Weight float64

	// ClassEstimatedRow[c] . θ + ClassFixedU[c] is class c's
	// membership-utility index.
	ClassEstimatedRow [][]float64
	ClassFixedU       []float64

	// ChoiceVarMatrix[c][a] . θ + ChoiceFixedU[c][a] is alternative a's
	// path-utility index under class c; alternative 0 is always the
	// observed path.
	ChoiceVarMatrix [][][]float64
	ChoiceFixedU    [][]float64
}

// Precompute builds one Observation from cs (an observed-path-first
// Choiceset, per §4.7) under paramIndex's estimated-parameter ordering.
// w must be the same (or an equivalently zone-indexed) World the
// Choiceset's alternatives were generated against.
func Precompute(ctx *config.ModelContext, w *world.World, cs model.Choiceset, paramIndex map[string]int) Observation {
	agent := cs.Agent
	numClasses := ctx.NumLatentClasses
	numAlts := len(cs.Alternatives)

	obs := Observation{
		Weight:            agent.Weight,
		ClassEstimatedRow: make([][]float64, numClasses),
		ClassFixedU:       make([]float64, numClasses),
		ChoiceVarMatrix:   make([][][]float64, numClasses),
		ChoiceFixedU:      make([][]float64, numClasses),
	}

	for c := 0; c < numClasses; c++ {
		row, fixed := config.Decompose(ctx, ctx.ClassUtil.ClassTerms(ctx, agent, c), paramIndex, w.Pool())
		obs.ClassEstimatedRow[c] = row
		obs.ClassFixedU[c] = fixed

		obs.ChoiceVarMatrix[c] = make([][]float64, numAlts)
		obs.ChoiceFixedU[c] = make([]float64, numAlts)
		for a, alt := range cs.Alternatives {
			path, ok := choiceset.FromTrips(ctx, agent, w, alt.Trips)
			if !ok {
				scaperr.ImpossibleState("choice-set alternative does not reconstruct to a feasible day-path: %+v", alt.Trips)
			}
			r, fixedU := pathRowAndFixed(ctx, w, agent, path, c, paramIndex)
			obs.ChoiceVarMatrix[c][a] = r
			obs.ChoiceFixedU[c][a] = fixedU + alt.Correction
		}
	}

	return obs
}

// pathRowAndFixed sums every decision's Terms along path under class's
// coefficients, decomposed against paramIndex.
func pathRowAndFixed(ctx *config.ModelContext, w *world.World, agent model.Agent, path model.DayPath, class int, paramIndex map[string]int) ([]float64, float64) {
	row := make([]float64, len(paramIndex))
	fixed := 0.0
	for i, d := range path.Decs {
		s := path.States[i]
		terms := ctx.Utility.Terms(ctx, agent, s, d, w, class)
		r, f := config.Decompose(ctx, terms, paramIndex, w.Pool())
		for j := range row {
			row[j] += r[j]
		}
		fixed += f
	}
	return row, fixed
}

// ValidateObserved implements §4.9's failure mode: every parameter
// listed as estimate must actually appear (with a nonzero coefficient
// somewhere) across the precomputed observations, or the cost function
// must refuse to run and name the missing ones.
func ValidateObserved(observations []Observation, paramIndex map[string]int) error {
	names := make([]string, len(paramIndex))
	for name, i := range paramIndex {
		names[i] = name
	}
	seen := make([]bool, len(paramIndex))
	mark := func(row []float64) {
		for j, v := range row {
			if v != 0 {
				seen[j] = true
			}
		}
	}
	for _, obs := range observations {
		for _, row := range obs.ClassEstimatedRow {
			mark(row)
		}
		for _, rows := range obs.ChoiceVarMatrix {
			for _, row := range rows {
				mark(row)
			}
		}
	}

	var missing []string
	for j, ok := range seen {
		if !ok {
			missing = append(missing, names[j])
		}
	}
	if len(missing) > 0 {
		return scaperr.New(scaperr.MissingEstimatedParameter, "never observed in data: %v", missing)
	}
	return nil
}
