package statespace

import (
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
)

// Class is the feasibility classification of a State.
type Class int

const (
	Good Class = iota
	Bad
	End
)

func (c Class) String() string {
	switch c {
	case Good:
		return "Good"
	case End:
		return "End"
	default:
		return "Bad"
	}
}

// Classify implements the feasibility classifier of §4.3.
func Classify(ctx *config.ModelContext, agent model.Agent, s model.State) Class {
	if s.TimeOfDay < ctx.DayStart || s.TimeOfDay > ctx.DayEnd {
		return Bad
	}

	if s.TimeOfDay == ctx.DayEnd {
		atHome := s.Activity == model.Home && s.Location.Kind == model.LocResidence && s.Location.Zone == agent.HomeZone
		workConsistent := s.HasWorked == agent.HasWork
		if atHome && workConsistent {
			return End
		}
		return Bad
	}

	if s.Activity == model.Home && s.Location.Kind != model.LocResidence {
		return Bad
	}
	if s.Activity == model.Work {
		if !agent.HasWork {
			return Bad
		}
		if s.Location.Kind != model.LocWorkplace || s.Location.Zone != agent.WorkZone {
			return Bad
		}
	}
	return Good
}
