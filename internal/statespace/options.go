// Package statespace implements the abstract state-space contract:
// feasible-decision enumeration, the Good/Bad/End feasibility
// classifier, and the transition functions (next_state,
// next_single_state, next_integral_time_states). It is intentionally
// liberal about what decisions it proposes -- infeasible resulting
// states are filtered downstream by producing -Inf value functions, not
// by options() itself.
package statespace

import (
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// Options generates the feasible decisions from state, dispatching on
// state.Activity. When explode is true, Travel to a NonFixed
// destination is emitted once per zone (the form the simulator uses);
// otherwise it is emitted once, compressed as NonFixed(All) (the form
// the value-function engine uses so it can compute every destination's
// EV in one broadcast pass).
func Options(ctx *config.ModelContext, agent model.Agent, w *world.World, s model.State) []model.Decision {
	switch s.Activity {
	case model.Depart:
		return departOptions(ctx, agent, w, s, false)
	case model.Arrive:
		return arriveOptions(agent, s)
	default:
		return []model.Decision{model.Continue(), model.End()}
	}
}

// ExplodedOptions is Options with explode=true: every NonFixed Travel
// destination enumerated as its own option. Used by the path simulator.
func ExplodedOptions(ctx *config.ModelContext, agent model.Agent, w *world.World, s model.State) []model.Decision {
	switch s.Activity {
	case model.Depart:
		return departOptions(ctx, agent, w, s, true)
	case model.Arrive:
		return arriveOptions(agent, s)
	default:
		return []model.Decision{model.Continue(), model.End()}
	}
}

func departOptions(ctx *config.ModelContext, agent model.Agent, w *world.World, s model.State, explode bool) []model.Decision {
	var out []model.Decision
	modes := ctx.ModeSet(agent)
	atHome := s.Location.Kind == model.LocResidence && s.Location.Zone == agent.HomeZone
	atWork := agent.HasWork && s.Location.Kind == model.LocWorkplace && s.Location.Zone == agent.WorkZone

	for _, m := range modes {
		if !atHome {
			out = append(out, model.Travel(m, model.Residence(agent.HomeZone)))
		}
		if agent.HasWork && !atWork {
			out = append(out, model.Travel(m, model.Workplace(agent.WorkZone)))
		}
		if explode {
			for _, z := range w.Zones() {
				out = append(out, model.Travel(m, model.NonFixed(z)))
			}
		} else {
			out = append(out, model.Travel(m, model.NonFixed(model.AllZones)))
		}
	}
	return out
}

func arriveOptions(agent model.Agent, s model.State) []model.Decision {
	switch s.Location.Kind {
	case model.LocResidence:
		return []model.Decision{model.Start(model.Home)}
	case model.LocWorkplace:
		return []model.Decision{model.Start(model.Work)}
	default:
		acts := model.DiscretionaryActivities()
		out := make([]model.Decision, len(acts))
		for i, a := range acts {
			out[i] = model.Start(a)
		}
		return out
	}
}
