// Package optimize implements the §4.10 BFGS maximizer: a quasi-Newton
// ascent driver with a bracketing-sectioning line search, used to fit a
// cost.Function's parameter vector by maximum likelihood.
package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/scaper-sim/scaper/internal/cost"
)

// Status classifies how a Maximize call ended.
type Status int

const (
	Success Status = iota
	MaxIterationsReached
	NumericalFailure
	LineSearchFailed
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case MaxIterationsReached:
		return "MaxIterationsReached"
	case NumericalFailure:
		return "NumericalFailure"
	case LineSearchFailed:
		return "LineSearchFailed"
	default:
		return "UnknownStatus"
	}
}

// Options tunes the outer BFGS loop and its line search. Zero-value
// Options is invalid; use DefaultOptions as a base.
type Options struct {
	MaxOuterIterations      int
	MaxLineSearchIterations int
	MaxHalvings             int     // initial-feasible-step search, §4.10 step 3
	MaxVarChange            float64 // per-coordinate step cap in the starting-step heuristic
	MaxStep                 float64 // bracket-widening ceiling
	ValueTol                float64 // |f_{k+1}-f_k| convergence threshold
	GradTol                 float64 // sum|grad| convergence threshold
	CurvatureFraction       float64 // line-search acceptance: |f'(a)| <= CurvatureFraction*|f'(0)|
	NumericalHessian        bool    // standard errors from cost.Function.Hessian instead of the BFGS estimate
	HessianEpsilon          float64
}

// DefaultOptions returns the §4.10-mandated constants, plus the
// implementation-chosen MAX_VAR_CHANGE/MaxStep/HessianEpsilon values
// recorded in the design ledger.
func DefaultOptions() Options {
	return Options{
		MaxOuterIterations:      10000,
		MaxLineSearchIterations: 200,
		MaxHalvings:             20,
		MaxVarChange:            1.0,
		MaxStep:                 1e10,
		ValueTol:                1e-10,
		GradTol:                 1e-6,
		CurvatureFraction:       0.95,
		HessianEpsilon:          1e-8,
	}
}

// Result is the outcome of a Maximize call.
type Result struct {
	X          []float64
	Value      float64
	Gradient   []float64
	Iterations int
	Status     Status
	StdErrors  []float64 // nil if Status != Success
}

// Maximize runs BFGS ascent on f starting from x0 until convergence, a
// line-search failure, or the outer-iteration cap, per §4.10.
func Maximize(f *cost.Function, x0 []float64, opts Options) Result {
	n := len(x0)
	x := append([]float64(nil), x0...)

	eval := f.Evaluate(x)
	value := eval.Value
	grad := eval.Gradient

	h := initialInverseHessian(n, eval.Score)

	alphaPrev := 1.0
	for iter := 0; iter < opts.MaxOuterIterations; iter++ {
		direction := matVec(h, grad)
		dirSum := floats.Norm(direction, 1)
		if math.IsNaN(dirSum) || math.IsInf(dirSum, 0) {
			return Result{X: x, Value: value, Gradient: grad, Iterations: iter, Status: NumericalFailure}
		}

		alphaStart := alphaPrev * 10
		if dirSum > 0 {
			if cap := opts.MaxVarChange / dirSum; cap < alphaStart {
				alphaStart = cap
			}
		}
		if alphaStart > 1.0 {
			alphaStart = 1.0
		}

		ls := lineSearch(f, x, value, grad, direction, alphaStart, opts)
		if !ls.ok {
			return Result{X: x, Value: value, Gradient: grad, Iterations: iter, Status: LineSearchFailed}
		}

		nextX := make([]float64, n)
		for i := range nextX {
			nextX[i] = x[i] + ls.alpha*direction[i]
		}
		nextEval := f.Evaluate(nextX)

		deltaValue := math.Abs(nextEval.Value - value)
		gradSum := floats.Norm(nextEval.Gradient, 1)

		deltaX := make([]float64, n)
		deltaGrad := make([]float64, n)
		floats.SubTo(deltaX, nextX, x)
		floats.SubTo(deltaGrad, nextEval.Gradient, grad)
		h = bfgsUpdate(h, deltaX, deltaGrad)

		x = nextX
		value = nextEval.Value
		grad = nextEval.Gradient
		alphaPrev = ls.alpha

		if deltaValue <= opts.ValueTol && gradSum < opts.GradTol {
			score := f.Evaluate(x).Score
			stdErrs := standardErrors(f, x, h, score, opts)
			return Result{X: x, Value: value, Gradient: grad, Iterations: iter + 1, Status: Success, StdErrors: stdErrs}
		}
	}

	return Result{X: x, Value: value, Gradient: grad, Iterations: opts.MaxOuterIterations, Status: MaxIterationsReached}
}

// initialInverseHessian seeds H0 as the inverse of the sum-of-score
// matrix at x0, falling back to identity if that matrix is singular
// or score is nil.
func initialInverseHessian(n int, score *mat.Dense) *mat.Dense {
	h := identity(n)
	if score == nil {
		return h
	}
	var inv mat.Dense
	if err := inv.Inverse(score); err != nil {
		return h
	}
	h.CloneFrom(&inv)
	return h
}

func identity(n int) *mat.Dense {
	h := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		h.Set(i, i, 1)
	}
	return h
}

func matVec(h *mat.Dense, v []float64) []float64 {
	n := len(v)
	vec := mat.NewVecDense(n, v)
	var out mat.VecDense
	out.MulVec(h, vec)
	return mat.Col(nil, 0, &out)
}

// bfgsUpdate applies the standard rank-2 inverse-Hessian update with
// the §4.10 curvature guard: if deltaX . deltaGrad <= 0 the curvature
// condition fails and H resets to identity rather than risk an
// indefinite update.
func bfgsUpdate(h *mat.Dense, deltaX, deltaGrad []float64) *mat.Dense {
	n := len(deltaX)
	sy := floats.Dot(deltaX, deltaGrad)
	if sy <= 0 {
		return identity(n)
	}
	rho := 1 / sy

	s := mat.NewVecDense(n, deltaX)
	y := mat.NewVecDense(n, deltaGrad)

	var syOuter mat.Dense // s y^T
	syOuter.Outer(1, s, y)
	var ysOuter mat.Dense // y s^T
	ysOuter.Outer(1, y, s)
	var ssOuter mat.Dense // s s^T
	ssOuter.Outer(rho, s, s)

	id := identity(n)
	var scaledSY, scaledYS, left, right mat.Dense
	scaledSY.Scale(rho, &syOuter)
	left.Sub(id, &scaledSY)
	scaledYS.Scale(rho, &ysOuter)
	right.Sub(id, &scaledYS)

	var tmp, product, result mat.Dense
	tmp.Mul(&left, h)
	product.Mul(&tmp, &right)
	result.Add(&product, &ssOuter)
	return &result
}

// standardErrors computes sqrt(diag(H . B . H)), §4.10 step 8: H is
// either the BFGS inverse-Hessian estimate at the optimum or the
// numerical Hessian's inverse (per opts.NumericalHessian), and B is the
// sum-of-score matrix at the optimum.
func standardErrors(f *cost.Function, x []float64, bfgsH *mat.Dense, score *mat.Dense, opts Options) []float64 {
	n := len(x)
	h := bfgsH
	if opts.NumericalHessian {
		numerical := f.Hessian(x, opts.HessianEpsilon)
		var inv mat.Dense
		if err := inv.Inverse(numerical); err != nil {
			return nil
		}
		h = &inv
	}
	if score == nil {
		return nil
	}

	var hb, hbh mat.Dense
	hb.Mul(h, score)
	hbh.Mul(&hb, h)

	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		v := hbh.At(i, i)
		if v < 0 {
			errs[i] = math.NaN()
			continue
		}
		errs[i] = math.Sqrt(v)
	}
	return errs
}
