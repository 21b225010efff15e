package config

import (
	"strconv"

	"github.com/scaper-sim/scaper/internal/matx"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// LinearUtility is the default UtilitySpec: a linear-in-parameters
// accumulation of mode-specific LOS terms, alternative-specific
// constants per activity, land-use attraction for non-fixed
// destinations, and a per-activity Continue/End rate. It names its
// parameters so a parameter table need only supply the ones it cares
// about; everything else defaults to 0 via ParameterSet's permissive
// lookup.
type LinearUtility struct{}

func scalarTerm(param string, value float64) Term {
	return Term{Param: param, Var: matx.New(matx.Scalar, 0, value, []float64{1})}
}

// classSuffix names a class-specific parameter variant: every
// coefficient is estimated separately per latent class (§4.9
// class_estimated_row), so LinearUtility suffixes every parameter name
// it looks up with the class index. A parameter table that does not
// vary a coefficient by class simply repeats the same value under each
// class's name.
func classSuffix(class int) string {
	return "_c" + strconv.Itoa(class)
}

// Terms implements UtilitySpec.
func (LinearUtility) Terms(ctx *ModelContext, agent model.Agent, s model.State, d model.Decision, w *world.World, class int) []Term {
	suffix := classSuffix(class)
	switch d.Kind {
	case model.DecStart:
		return []Term{scalarTerm("asc_start_"+d.Activity.String()+suffix, 1)}

	case model.DecContinue:
		return []Term{scalarTerm("rate_continue_"+s.Activity.String()+suffix, 1)}

	case model.DecEnd:
		return []Term{scalarTerm("rate_end_"+s.Activity.String()+suffix, 1)}

	case model.DecTravel:
		return travelTerms(ctx, agent, s, d, w, suffix)
	}
	return nil
}

func travelTerms(ctx *ModelContext, agent model.Agent, s model.State, d model.Decision, w *world.World, suffix string) []Term {
	mode := d.Mode.String()
	terms := []Term{scalarTerm("asc_travel_"+mode+suffix, 1)}

	for _, m := range w.TravelTime(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		terms = append(terms, Term{Param: "tt_" + mode + suffix, Var: m})
	}
	for _, m := range w.TravelWait(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		terms = append(terms, Term{Param: "wait_" + mode + suffix, Var: m})
	}
	for _, m := range w.TravelAccess(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		terms = append(terms, Term{Param: "access_" + mode + suffix, Var: m})
	}
	for _, m := range w.TravelCost(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		terms = append(terms, Term{Param: "cost_" + mode + suffix, Var: m})
	}

	// Zone-sampling correction: zero on unsampled Worlds, weighted by the
	// table's single, class-independent "correction" parameter (a
	// parameter table supplies it as a fixed 1; like any missing
	// parameter it defaults to 0).
	terms = append(terms, Term{Param: "correction", Var: w.Corrections(s.Location, d.Dest)})

	if d.Dest.Kind == model.LocNonFixed {
		terms = append(terms, Term{Param: "logpop" + suffix, Var: w.LogPop(d.Dest)})
		terms = append(terms, Term{Param: "logemp" + suffix, Var: w.LogEmp(d.Dest)})
		terms = append(terms, Term{Param: "parking_" + mode + suffix, Var: w.ParkingRate(d.Dest)})
	}

	return terms
}

// ClassUtility implements ClassSpec: a per-class alternative-specific
// constant plus income and age covariates, each named by class index so
// a parameter table can supply (or omit, defaulting to 0) whichever
// classes/covariates it estimates. Class 0's terms are conventionally
// left at 0 (the softmax reference class).
func (l LinearUtility) ClassUtility(ctx *ModelContext, agent model.Agent, class int) float64 {
	u := 0.0
	for _, t := range l.ClassTerms(ctx, agent, class) {
		u += ctx.Params.Value(t.Param) * t.Var.At(0)
	}
	return u
}

// ClassTerms implements ClassSpec.ClassTerms: a per-class
// alternative-specific constant plus income and age covariates, each
// named by class index so a parameter table can supply (or omit,
// defaulting to 0) whichever classes/covariates it estimates. Class 0's
// terms are conventionally left at 0 (the softmax reference class).
func (LinearUtility) ClassTerms(ctx *ModelContext, agent model.Agent, class int) []Term {
	suffix := strconv.Itoa(class)
	return []Term{
		scalarTerm("class_asc_"+suffix, 1),
		scalarTerm("class_income_"+suffix, agent.Income),
		scalarTerm("class_age_"+suffix, float64(agent.Age)),
	}
}
