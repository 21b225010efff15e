package choiceset

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runlog"
	"github.com/scaper-sim/scaper/internal/simulator"
	"github.com/scaper-sim/scaper/internal/world"
)

// Params bundles the knobs a choice-set generation run needs beyond the
// shared ModelContext: how many zones to importance-sample per agent,
// how many simulated alternatives to draw, and the uniform(0,1) source
// driving both sampling and simulation.
type Params struct {
	SampleZones     int
	NumAlternatives int
	RNG             func() float64
}

// DefaultZoneUtility is the zone-importance-sampling utility of §4.2:
// a linear index over each zone's log-population and log-employment,
// named so a parameter table can supply (or omit, defaulting to a
// uniform-over-zones draw) the "zs_logpop"/"zs_logemp" coefficients.
func DefaultZoneUtility(ctx *config.ModelContext, net *world.NetworkData) world.ZoneUtility {
	return func(zone int) float64 {
		return ctx.Params.Value("zs_logpop")*net.LogPop[zone] + ctx.Params.Value("zs_logemp")*net.LogEmp[zone]
	}
}

// Generate builds one Choiceset for agent from its observed trips, per
// §4.7. Returns ok=false (after logging the reason) if the observed
// trips do not convert to a feasible DayPath under the current model --
// the caller's run loop should count this as a skipped agent, not abort
// the run.
func Generate(ctx *config.ModelContext, agent model.Agent, net *world.NetworkData, observed []model.Trip, zoneUtil world.ZoneUtility, p Params, log *runlog.Logger) (model.Choiceset, bool) {
	required := requiredZones(agent, observed)
	n := p.SampleZones
	if n < len(required) {
		n = len(required)
	}

	sampler := world.NewSampler(net, p.RNG)
	w, _ := sampler.Sample(agent, n, zoneUtil)
	defer w.Close()

	observedPath, ok := FromTrips(ctx, agent, w, observed)
	if !ok {
		if log != nil {
			log.Error(nil, "observed trips do not form a feasible day-path under the current model, skipping agent")
		}
		return model.Choiceset{}, false
	}

	pool := evcache.NewPool()
	engines := simulator.NewClassEngines(ctx, agent, w, pool)

	start := model.State{Activity: model.Home, Location: agent.StartLocation(), TimeOfDay: ctx.DayStart}
	startEV := make([]float64, ctx.NumLatentClasses)
	for c := range startEV {
		startEV[c] = engines[c].Value(start)
	}
	classProbs := simulator.ClassProbabilities(ctx, agent)

	type candidate struct {
		trips []model.Trip
		path  model.DayPath
	}
	candidates := []candidate{{trips: observed, path: observedPath}}

	sim := simulator.New(ctx, agent, w, engines, p.RNG)
	for i := 0; i < p.NumAlternatives; i++ {
		res := sim.Simulate()
		candidates = append(candidates, candidate{
			trips: ToTrips(agent, res.Path, res.LatentClass),
			path:  res.Path,
		})
	}

	type group struct {
		trips []model.Trip
		path  model.DayPath
		count int
	}
	var groups []group
	for _, cand := range candidates {
		merged := false
		for i := range groups {
			if model.TripsEqual(groups[i].trips, cand.trips) {
				groups[i].count++
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, group{trips: cand.trips, path: cand.path, count: 1})
		}
	}

	alts := make([]model.Alternative, len(groups))
	for i, g := range groups {
		cond := conditionalCorrection(ctx, agent, w, startEV, classProbs, g.path)
		alts[i] = model.Alternative{Trips: g.trips, Correction: cond + math.Log(float64(g.count))}
	}

	return model.Choiceset{Agent: agent, SampledZones: w.Zones(), Alternatives: alts}, true
}

// conditionalCorrection computes -ln(class-averaged conditional path
// probability) for path, per §4.7 step 4: for each class, the
// conditional probability of path given class telescopes to
// exp(U(path|c) - V̄(start|c)) (the Φ-product of a full path always
// equals exp(total utility) times exp(EV of the terminal End state,
// which is 0); the class-average uses the agent's marginal class
// probabilities as weights.
func conditionalCorrection(ctx *config.ModelContext, agent model.Agent, w *world.World, startEV, classProbs []float64, path model.DayPath) float64 {
	condProb := make([]float64, len(classProbs))
	for c := range classProbs {
		u := pathUtility(ctx, agent, w, path, c)
		condProb[c] = math.Exp(u - startEV[c])
	}
	return -math.Log(stat.MeanWeighted(condProb, classProbs))
}

// pathUtility sums u(s,d) (never EV) along path under class's
// coefficients. Every decision on a reconstructed or simulated path is
// an exploded (concrete-zone) decision, so every Term's Mat is Scalar.
func pathUtility(ctx *config.ModelContext, agent model.Agent, w *world.World, path model.DayPath, class int) float64 {
	total := 0.0
	for i, d := range path.Decs {
		s := path.States[i]
		for _, t := range ctx.Utility.Terms(ctx, agent, s, d, w, class) {
			coef := ctx.Params.Value(t.Param)
			total += coef * t.Var.At(0)
			w.Pool().Release(t.Var)
		}
	}
	return total
}

// requiredZones is the union of the agent's home/work zones and every
// zone a trip in observed touches, per §4.7 step 1.
func requiredZones(agent model.Agent, observed []model.Trip) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(z int) {
		if !seen[z] {
			seen[z] = true
			out = append(out, z)
		}
	}
	for _, z := range agent.RequiredZones() {
		add(z)
	}
	for _, t := range observed {
		add(t.OriginZone)
		add(t.DestZone)
	}
	return out
}
