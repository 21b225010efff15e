package config

import "github.com/scaper-sim/scaper/internal/model"

// ClassSpec is the pluggable collaborator defining latent-class
// membership utility: the linear index that, softmaxed over every
// configured class, gives an agent's class-membership probabilities.
// Unlike UtilitySpec, class utility depends only on the agent and the
// candidate class, never on state/decision/world, so it is returned as a
// plain float64 rather than a broadcastable Term list.
type ClassSpec interface {
	ClassUtility(ctx *ModelContext, agent model.Agent, class int) float64

	// ClassTerms returns the same linear index as ClassUtility, but
	// decomposed into named, coefficient-scaled terms -- the form the
	// cost function needs to separate a candidate parameter vector's
	// estimated coefficients from the fixed contribution of
	// non-estimated ones (§4.9 class_estimated_row/class_fixed_u).
	ClassTerms(ctx *ModelContext, agent model.Agent, class int) []Term
}
