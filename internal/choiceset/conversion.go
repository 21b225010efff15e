// Package choiceset implements Trip<->DayPath conversion and the
// per-agent choice-set generator of §4.7/§4.8: sampling a World, turning
// observed trips into the one true DayPath, simulating alternatives,
// and scoring every alternative's importance-sampling correction.
package choiceset

import (
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/statespace"
	"github.com/scaper-sim/scaper/internal/world"
)

// ToTrips converts a simulated or reconstructed DayPath into its Trip
// list, per §4.8 forward direction: a Trip is emitted wherever a Travel
// decision is immediately followed by a Start, its departure time taken
// from the Travel decision's own state (the state right before
// travelling begins).
func ToTrips(agent model.Agent, path model.DayPath, class int) []model.Trip {
	var trips []model.Trip
	for i := 0; i+1 < len(path.Decs); i++ {
		d := path.Decs[i]
		next := path.Decs[i+1]
		if d.Kind != model.DecTravel || next.Kind != model.DecStart {
			continue
		}
		s := path.States[i]
		trips = append(trips, model.Trip{
			AgentID:     agent.ID,
			LatentClass: class,
			Activity:    next.Activity,
			Mode:        d.Mode,
			OriginZone:  s.Location.Zone,
			DestZone:    d.Dest.Zone,
			DepartTime:  s.TimeOfDay,
		})
	}
	return trips
}

// FromTrips reconstructs the DayPath an observed Trip list implies, per
// §4.8 reverse direction: Continue through time until each trip's
// departure threshold, then End -> Travel -> Start, then Continue
// through any remaining time. Returns ok=false if any produced state is
// Bad, or the final state does not classify as End -- an observation the
// current model cannot explain, which callers must skip rather than
// feed to estimation.
func FromTrips(ctx *config.ModelContext, agent model.Agent, w *world.World, trips []model.Trip) (model.DayPath, bool) {
	path := model.DayPath{Agent: agent}
	s := model.State{Activity: model.Home, Location: agent.StartLocation(), TimeOfDay: ctx.DayStart}

	advance := func(d model.Decision, next model.State) bool {
		if statespace.Classify(ctx, agent, next) == statespace.Bad {
			return false
		}
		path.States = append(path.States, s)
		path.Decs = append(path.Decs, d)
		s = next
		return true
	}

	for _, trip := range trips {
		for s.TimeOfDay+ctx.DecisionStepSize/2 < trip.DepartTime {
			d := model.Continue()
			next := statespace.NextState(ctx, agent, s, d, s.TimeOfDay+ctx.DecisionStep(s.TimeOfDay))
			if !advance(d, next) {
				return model.DayPath{}, false
			}
		}

		endDec := model.End()
		endNext := statespace.NextState(ctx, agent, s, endDec, s.TimeOfDay)
		if !advance(endDec, endNext) {
			return model.DayPath{}, false
		}

		dest := locationFor(trip.Activity, trip.DestZone)
		travelDec := model.Travel(trip.Mode, dest)
		travelNext := statespace.NextSingleState(ctx, agent, w, s, travelDec)
		if !advance(travelDec, travelNext) {
			return model.DayPath{}, false
		}

		startDec := model.Start(trip.Activity)
		startNext := statespace.NextState(ctx, agent, s, startDec, s.TimeOfDay+ctx.DecisionStep(s.TimeOfDay))
		if !advance(startDec, startNext) {
			return model.DayPath{}, false
		}
	}

	for statespace.Classify(ctx, agent, s) == statespace.Good {
		d := model.Continue()
		next := statespace.NextState(ctx, agent, s, d, s.TimeOfDay+ctx.DecisionStep(s.TimeOfDay))
		if !advance(d, next) {
			return model.DayPath{}, false
		}
	}

	if statespace.Classify(ctx, agent, s) != statespace.End {
		return model.DayPath{}, false
	}
	return path, true
}

// locationFor maps an activity to the Location kind its destination
// zone is represented by: Home and Work always resolve to the agent's
// fixed Residence/Workplace zones, every other activity is NonFixed.
func locationFor(a model.Activity, zone int) model.Location {
	switch a {
	case model.Home:
		return model.Residence(zone)
	case model.Work:
		return model.Workplace(zone)
	default:
		return model.NonFixed(zone)
	}
}
