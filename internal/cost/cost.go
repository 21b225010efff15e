package cost

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Function is the §4.9 latent-class MNL log-likelihood: a weighted sum
// of per-observation terms, each linear in a candidate parameter vector
// θ via that observation's Precompute output.
type Function struct {
	Observations []Observation
	NumParams    int
}

// New builds a Function over observations, validating that every
// estimated parameter is actually exercised by the data.
func New(observations []Observation, paramIndex map[string]int) (*Function, error) {
	if err := ValidateObserved(observations, paramIndex); err != nil {
		return nil, err
	}
	return &Function{Observations: observations, NumParams: len(paramIndex)}, nil
}

// Result is one Evaluate call's output: the (weighted) total
// log-likelihood, its gradient with respect to θ, and the outer-product
// score matrix the sandwich standard-error estimator consumes.
type Result struct {
	Value    float64
	Gradient []float64
	Score    *mat.Dense
}

// Evaluate computes Value/Gradient/Score at theta by a parallel
// reduction over observations: each worker fills the per-observation
// log-likelihood and gradient slots of its own chunk, and the slots are
// weighted and summed once every worker finishes, grounded
// on the goroutine/WaitGroup fan-out/fan-in pattern used elsewhere in
// this codebase for per-item independent work.
func (f *Function) Evaluate(theta []float64) Result {
	n := len(f.Observations)
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	ll := make([]float64, n)
	grads := make([][]float64, n)

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				ll[i], grads[i] = evalObservation(f.Observations[i], theta)
			}
		}(lo, hi)
	}
	wg.Wait()

	value := 0.0
	gradient := make([]float64, f.NumParams)
	for i, obs := range f.Observations {
		value += obs.Weight * ll[i]
		floats.AddScaled(gradient, obs.Weight, grads[i])
	}

	mean := make([]float64, f.NumParams)
	for _, g := range grads {
		floats.Add(mean, g)
	}
	floats.Scale(1/float64(n), mean)

	score := mat.NewDense(f.NumParams, f.NumParams, nil)
	centered := make([]float64, f.NumParams)
	for i, obs := range f.Observations {
		floats.SubTo(centered, grads[i], mean)
		for r := 0; r < f.NumParams; r++ {
			if centered[r] == 0 {
				continue
			}
			for c := 0; c < f.NumParams; c++ {
				score.Set(r, c, score.At(r, c)+obs.Weight*centered[r]*centered[c])
			}
		}
	}

	return Result{Value: value, Gradient: gradient, Score: score}
}

// evalObservation computes one observation's unweighted log-likelihood
// contribution (Evaluate applies obs.Weight) and its gradient with respect to θ, per the closed-form
// derivation of §4.9: class membership probabilities and conditional
// path probabilities are each a softmax over a linear index in θ, and
// the posterior class-membership weight given the observed path
// (alternative 0) ties the two softmax gradients together.
func evalObservation(obs Observation, theta []float64) (float64, []float64) {
	numClasses := len(obs.ClassEstimatedRow)

	classUtil := make([]float64, numClasses)
	for c := range classUtil {
		classUtil[c] = floats.Dot(obs.ClassEstimatedRow[c], theta) + obs.ClassFixedU[c]
	}
	classProb := softmax(classUtil)

	condProb := make([][]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		numAlts := len(obs.ChoiceVarMatrix[c])
		altUtil := make([]float64, numAlts)
		for a := 0; a < numAlts; a++ {
			altUtil[a] = floats.Dot(obs.ChoiceVarMatrix[c][a], theta) + obs.ChoiceFixedU[c][a]
		}
		condProb[c] = softmax(altUtil)
	}

	likelihood := 0.0
	for c := 0; c < numClasses; c++ {
		likelihood += classProb[c] * condProb[c][0]
	}
	ll := math.Log(likelihood)

	posterior := make([]float64, numClasses)
	for c := range posterior {
		posterior[c] = classProb[c] * condProb[c][0] / likelihood
	}

	numParams := len(theta)
	meanClassRow := make([]float64, numParams)
	for c, p := range classProb {
		floats.AddScaled(meanClassRow, p, obs.ClassEstimatedRow[c])
	}

	grad := make([]float64, numParams)
	diff := make([]float64, numParams)
	for c := 0; c < numClasses; c++ {
		if posterior[c] == 0 {
			continue
		}

		floats.SubTo(diff, obs.ClassEstimatedRow[c], meanClassRow)
		floats.AddScaled(grad, posterior[c], diff)

		meanChoiceRow := make([]float64, numParams)
		for a, p := range condProb[c] {
			floats.AddScaled(meanChoiceRow, p, obs.ChoiceVarMatrix[c][a])
		}
		floats.SubTo(diff, obs.ChoiceVarMatrix[c][0], meanChoiceRow)
		floats.AddScaled(grad, posterior[c], diff)
	}

	return ll, grad
}

// softmax returns the normalized softmax of util, shifted by its max
// for numerical stability. Reuses the same max-shift pattern as
// simulator.ClassProbabilities.
func softmax(util []float64) []float64 {
	maxU := floats.Max(util)
	probs := make([]float64, len(util))
	sum := 0.0
	for i, u := range util {
		probs[i] = math.Exp(u - maxU)
		sum += probs[i]
	}
	floats.Scale(1/sum, probs)
	return probs
}

// Hessian computes the numerical Hessian of the log-likelihood at theta
// by central differences, step size epsilon. Used as the alternative
// (non-sandwich) standard-error source when the optimizer's
// NumericalHessian option is set.
func (f *Function) Hessian(theta []float64, epsilon float64) *mat.Dense {
	n := len(theta)
	h := mat.NewDense(n, n, nil)

	base := make([]float64, n)
	copy(base, theta)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			pp := perturb(base, i, epsilon, j, epsilon)
			pm := perturb(base, i, epsilon, j, -epsilon)
			mp := perturb(base, i, -epsilon, j, epsilon)
			mm := perturb(base, i, -epsilon, j, -epsilon)

			fpp := f.Evaluate(pp).Value
			fpm := f.Evaluate(pm).Value
			fmp := f.Evaluate(mp).Value
			fmm := f.Evaluate(mm).Value

			v := (fpp - fpm - fmp + fmm) / (4 * epsilon * epsilon)
			h.Set(i, j, v)
			h.Set(j, i, v)
		}
	}
	return h
}

// perturb returns a copy of base with index i shifted by di and index
// j shifted by dj (i may equal j, in which case the shifts combine).
func perturb(base []float64, i int, di float64, j int, dj float64) []float64 {
	out := make([]float64, len(base))
	copy(out, base)
	out[i] += di
	out[j] += dj
	return out
}
