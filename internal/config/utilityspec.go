package config

import (
	"github.com/scaper-sim/scaper/internal/matx"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// Term is one named-variable contribution to a decision's utility: the
// parameter name it is scaled by, and the variable's own value in the
// broadcast shape of the decision being evaluated (Scalar for a
// concrete-zone decision, RowVec/ColVec/ODMat for the compressed
// NonFixed(All) forms the value-function engine uses).
//
// This is the concrete rendering of the spec's "UtilitySpec — a
// pluggable module producing named-variable sequences": the core never
// inspects what a Term's variable *means*, only its name (to look up a
// coefficient) and its Mat (to accumulate).
type Term struct {
	Param string
	Var   matx.Mat
}

// UtilitySpec is the pluggable collaborator that defines the concrete
// utility function. §1 Non-goals: the core does not define what goes
// into a Term, only how Terms are combined (Accumulate) and consumed
// (by the value-function engine and the cost function, identically).
type UtilitySpec interface {
	Terms(ctx *ModelContext, agent model.Agent, s model.State, d model.Decision, w *world.World, class int) []Term
}

// ParamIndex assigns each estimated parameter name a stable column
// index into the candidate parameter vector θ the cost function and
// optimizer operate on, in Estimated()'s table order.
func ParamIndex(ps *ParameterSet) map[string]int {
	names := ps.Estimated()
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}

// Decompose splits terms into a row over the estimated-parameter index
// (the coefficient a candidate θ would multiply, summed per estimated
// name) and the fixed utility contributed by every non-estimated term
// (evaluated at the term's current coefficient from ctx.Params). This
// is the §4.9 "class_estimated_row / class_fixed_u" and
// "choice_var_matrix / choice_fixed_u" split, applied identically to
// class-membership terms and per-alternative path-utility terms. Every
// term's Mat is released to pool once read.
func Decompose(ctx *ModelContext, terms []Term, paramIndex map[string]int, pool *matx.Pool) (row []float64, fixed float64) {
	row = make([]float64, len(paramIndex))
	for _, t := range terms {
		v := t.Var.At(0)
		if i, ok := paramIndex[t.Param]; ok {
			row[i] += v
		} else {
			fixed += ctx.Params.Value(t.Param) * v
		}
		pool.Release(t.Var)
	}
	return row, fixed
}

// Accumulate folds a UtilitySpec's Terms into acc (an already-rented Mat
// of the decision's broadcast shape), scaling each term's variable by
// the parameter set's current value for its name. Every term's Mat is
// released back to pool once folded in -- Terms rents a fresh one per
// call and nothing else holds a reference to it afterward.
func Accumulate(ctx *ModelContext, terms []Term, acc *matx.Mat, pool *matx.Pool) {
	for _, t := range terms {
		coef := ctx.Params.Value(t.Param)
		v := t.Var
		v.Scale *= coef
		matx.AddInto(acc, v)
		pool.Release(t.Var)
	}
}
