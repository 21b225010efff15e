// Package simulator implements the day-path simulator of §4.6: given an
// agent and one value-function Engine per latent class, it draws a
// latent class by softmax over class-membership utility, then walks the
// agent forward from its start state one exploded decision at a time,
// drawing each step by inverse-CDF sampling over the Engine's Phi
// values, until an End decision is taken.
package simulator

import (
	"math"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/statespace"
	"github.com/scaper-sim/scaper/internal/valuefunc"
	"github.com/scaper-sim/scaper/internal/world"
)

// ClassEngines is one value-function Engine per latent class, index i
// holding class i's Engine (its own EV cache, evaluating utility under
// class i's coefficient set).
type ClassEngines []*valuefunc.Engine

// NewClassEngines builds one Engine per ctx.NumLatentClasses against w,
// each given its own evcache.Cache rented from pool.
func NewClassEngines(ctx *config.ModelContext, agent model.Agent, w *world.World, pool *evcache.Pool) ClassEngines {
	engines := make(ClassEngines, ctx.NumLatentClasses)
	for c := range engines {
		cache := evcache.New(ctx.DayLength(), w.NumZones(), pool)
		engines[c] = valuefunc.New(ctx, agent, w, cache, c)
	}
	return engines
}

// Simulator draws paths against a fixed agent, world, and per-class
// engine set.
type Simulator struct {
	ctx     *config.ModelContext
	agent   model.Agent
	w       *world.World
	engines ClassEngines
	rng     func() float64 // uniform(0,1) source, injected for reproducibility
}

// New builds a Simulator. engines must have length ctx.NumLatentClasses
// and engines[c] must have been built against class c's coefficients.
func New(ctx *config.ModelContext, agent model.Agent, w *world.World, engines ClassEngines, rng func() float64) *Simulator {
	return &Simulator{ctx: ctx, agent: agent, w: w, engines: engines, rng: rng}
}

// Result is the outcome of one simulated day: the drawn latent class
// and the resulting DayPath.
type Result struct {
	LatentClass int
	Path        model.DayPath
}

// Simulate draws a latent class, then simulates one full day-path under
// that class's engine, per §4.6.
func (sim *Simulator) Simulate() Result {
	class := sim.drawClass()
	path := sim.simulatePath(sim.engines[class])
	return Result{LatentClass: class, Path: path}
}

// drawClass samples the latent class via softmax over
// ClassSpec.ClassUtility.
func (sim *Simulator) drawClass() int {
	probs := ClassProbabilities(sim.ctx, sim.agent)
	u := sim.rng()
	cum := 0.0
	for c, p := range probs {
		cum += p
		if u <= cum {
			return c
		}
	}
	return len(probs) - 1
}

// ClassProbabilities returns agent's marginal latent-class membership
// probabilities: softmax over ctx.ClassUtil.ClassUtility(ctx, agent, c)
// across every class. Exported so collaborators outside the simulator
// (the choice-set generator's class-averaged correction, the cost
// function's class-probability term) compute it identically.
func ClassProbabilities(ctx *config.ModelContext, agent model.Agent) []float64 {
	n := ctx.NumLatentClasses
	utils := make([]float64, n)
	maxU := math.Inf(-1)
	for c := 0; c < n; c++ {
		utils[c] = ctx.ClassUtil.ClassUtility(ctx, agent, c)
		if utils[c] > maxU {
			maxU = utils[c]
		}
	}
	sum := 0.0
	for c := range utils {
		utils[c] = math.Exp(utils[c] - maxU)
		sum += utils[c]
	}
	for c := range utils {
		utils[c] /= sum
	}
	return utils
}

// simulatePath walks forward from the agent's start state, drawing one
// exploded decision at a time, until an End decision is taken.
func (sim *Simulator) simulatePath(e *valuefunc.Engine) model.DayPath {
	s := model.State{Activity: model.Home, Location: sim.agent.StartLocation(), TimeOfDay: sim.ctx.DayStart}

	path := model.DayPath{Agent: sim.agent}
	for {
		class := statespace.Classify(sim.ctx, sim.agent, s)
		if class == statespace.Bad {
			scaperr.ImpossibleState("simulator reached a Bad state: %+v", s)
		}
		if class == statespace.End {
			return path
		}

		decisions := statespace.ExplodedOptions(sim.ctx, sim.agent, sim.w, s)
		phis := make([]float64, len(decisions))
		total := 0.0
		for i, d := range decisions {
			phis[i] = e.Phi(s, d)
			total += phis[i]
		}
		if total <= 0 {
			scaperr.ImpossibleState("zero-sum option set at Good state: %+v", s)
		}

		d := decisions[drawIndex(phis, total, sim.rng())]
		path.States = append(path.States, s)
		path.Decs = append(path.Decs, d)
		s = statespace.NextSingleState(sim.ctx, sim.agent, sim.w, s, d)
	}
}

// drawIndex draws an index from an unnormalized probability-proportional
// array by inverse-CDF sampling.
func drawIndex(weights []float64, total float64, u float64) int {
	target := u * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target <= cum {
			return i
		}
	}
	return len(weights) - 1
}
