package statespace

import (
	"math"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// NextSingleState picks the concrete deterministic time delta used
// during simulation (not EV computation) and returns the resulting
// State: End advances time by 0; Travel advances by the sum of the
// scalar travel+wait+access LOS (converted from minutes to timesteps);
// everything else advances by decision_step(time).
func NextSingleState(ctx *config.ModelContext, agent model.Agent, w *world.World, s model.State, d model.Decision) model.State {
	var dt float64
	switch d.Kind {
	case model.DecEnd:
		dt = 0
	case model.DecTravel:
		dt = travelMinutes(w, d, s) / ctx.TimestepMinutes
	default:
		dt = ctx.DecisionStep(s.TimeOfDay)
	}
	return NextState(ctx, agent, s, d, s.TimeOfDay+dt)
}

// travelMinutes sums the scalar (peak-blended) travel+wait+access LOS
// in minutes for a concrete-zone Travel decision.
func travelMinutes(w *world.World, d model.Decision, s model.State) float64 {
	total := 0.0
	for _, m := range w.TravelTime(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.Scale * m.Data[0]
		w.Pool().Release(m)
	}
	for _, m := range w.TravelWait(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.Scale * m.Data[0]
		w.Pool().Release(m)
	}
	for _, m := range w.TravelAccess(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.Scale * m.Data[0]
		w.Pool().Release(m)
	}
	return total
}

// NextIntegralTimeStates returns the set of integer-timestep candidate
// next-states reachable from (s, d): for Travel, one per element of
// World.TravelTimesteps (travel time varies across the destination, so
// multiple integral arrival times are possible); otherwise the two
// states bracketing the continuous arrival time (floor and ceil),
// used as the value-function engine's linear-interpolation anchors.
func NextIntegralTimeStates(ctx *config.ModelContext, agent model.Agent, w *world.World, s model.State, d model.Decision) []model.State {
	if d.Kind == model.DecTravel && !d.Dest.IsAllZones() {
		steps := w.TravelTimesteps(d.Mode, s.Location, d.Dest, ctx.TimestepMinutes)
		out := make([]model.State, len(steps))
		for i, step := range steps {
			out[i] = NextState(ctx, agent, s, d, s.TimeOfDay+float64(step))
		}
		return out
	}

	dt := ctx.DecisionStep(s.TimeOfDay)
	if d.Kind == model.DecEnd {
		dt = 0
	}
	arrival := s.TimeOfDay + dt
	lo := math.Floor(arrival)
	hi := math.Ceil(arrival)
	if lo == hi {
		return []model.State{NextState(ctx, agent, s, d, lo)}
	}
	return []model.State{
		NextState(ctx, agent, s, d, lo),
		NextState(ctx, agent, s, d, hi),
	}
}
