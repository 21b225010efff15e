package statespace

import (
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
)

// NextState applies decision at timeOfDay to state, producing the
// resulting State per §4.3's transition rules.
func NextState(ctx *config.ModelContext, agent model.Agent, s model.State, d model.Decision, timeOfDay float64) model.State {
	switch d.Kind {
	case model.DecStart:
		next := s
		next.Activity = d.Activity
		next.TimeOfDay = timeOfDay
		next.Duration = min(1, ctx.MaxDuration(d.Activity))
		next.WorkStreak = nextWorkStreak(agent, s, d.Activity)
		next.HasWorked = nextHasWorked(agent, s, d.Activity, next.WorkStreak)
		return next

	case model.DecEnd:
		next := s
		next.Activity = model.Depart
		next.Duration = 0
		next.TimeOfDay = timeOfDay
		next.WorkStreak = 0
		return next

	case model.DecContinue:
		next := s
		next.Duration = min(s.Duration+1, ctx.MaxDuration(s.Activity))
		next.TimeOfDay = timeOfDay
		next.WorkStreak = nextWorkStreak(agent, s, s.Activity)
		next.HasWorked = nextHasWorked(agent, s, s.Activity, next.WorkStreak)
		return next

	case model.DecTravel:
		next := s
		next.Activity = model.Arrive
		next.Location = d.Dest
		next.Duration = 0
		next.TimeOfDay = timeOfDay
		next.WorkStreak = 0
		if d.Dest.Kind == model.LocResidence {
			next.Vehicle = model.NoVehicle
		} else if s.Location.Kind == model.LocResidence {
			next.Vehicle = model.VehicleOf(d.Mode)
		}
		return next
	}
	return s
}

// nextWorkStreak tracks true elapsed consecutive Work timesteps,
// independent of the capped Duration field: Duration saturates at
// ctx.MaxDuration(Work), so once an agent has worked past that cap,
// Duration can no longer distinguish "just hit the cap" from "has worked
// for hours past it" -- exactly the distinction the mandated-duration
// rule needs. resultingActivity is the activity being transitioned into
// (prev.Activity for a Continue, d.Activity for a Start); the streak
// resets to 0 off of Work. Without a mandate the exact count never
// matters (nextHasWorked only asks "is resultingActivity Work" in that
// case), so the streak saturates at 1 to avoid inflating the EV cache
// with distinct rows for every timestep of a long, unmandated work
// spell. With a mandate it saturates at MandatedWorkDuration+1, the
// point past which the predicate can never fire again.
func nextWorkStreak(agent model.Agent, prev model.State, resultingActivity model.Activity) int {
	if resultingActivity != model.Work {
		return 0
	}
	streak := 1
	if prev.Activity == model.Work {
		streak = prev.WorkStreak + 1
	}
	cap := 1
	if agent.MandatedWorkDuration > 0 {
		cap = agent.MandatedWorkDuration + 1
	}
	if streak > cap {
		streak = cap
	}
	return streak
}

// nextHasWorked implements the mandated-duration rule: if the agent has
// a mandated work duration W, has_worked becomes true exactly when
// completing the W-th consecutive timestep of Work, and flips back to
// false if the agent continues working past it ("has_worked exactly
// once for exactly W steps"). Without a mandate, has_worked is sticky
// once set by starting Work. resultingWorkStreak is the true elapsed
// Work streak after this transition (from nextWorkStreak) -- never
// re-derived from the capped Duration field, which would saturate long
// before W for any mandate exceeding the tracked-duration cap.
func nextHasWorked(agent model.Agent, prev model.State, resultingActivity model.Activity, resultingWorkStreak int) bool {
	if agent.MandatedWorkDuration <= 0 {
		return prev.HasWorked || resultingActivity == model.Work
	}
	if resultingActivity != model.Work {
		return prev.HasWorked
	}
	return resultingWorkStreak == agent.MandatedWorkDuration
}
