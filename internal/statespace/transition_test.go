package statespace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
)

func capContext() *config.ModelContext {
	return &config.ModelContext{
		DayStart:         0,
		DayEnd:           60,
		DecisionStepSize: 1,
		MaxTrackedDuration: map[model.Activity]int{
			model.Work: 12,
		},
	}
}

// TestHasWorkedNoMandateIsSticky covers the unmandated case: has_worked
// latches true the moment Work starts and never flips back, regardless
// of how long the agent works or continues afterward.
func TestHasWorkedNoMandateIsSticky(t *testing.T) {
	ctx := capContext()
	agent := model.Agent{ID: 1, HasWork: true, WorkZone: 0}

	s := model.State{Activity: model.Arrive, Location: model.Workplace(0), TimeOfDay: 10}
	s = NextState(ctx, agent, s, model.Start(model.Work), 11)
	assert.True(t, s.HasWorked)

	for i := 0; i < 20; i++ {
		s = NextState(ctx, agent, s, model.Continue(), s.TimeOfDay+1)
		assert.True(t, s.HasWorked, "has_worked must stay sticky past the Duration cap")
	}
}

// TestMandatedWorkDurationBeyondTrackedCap is the S2 scenario: a
// mandated work duration (48) larger than max_tracked_duration(Work)
// (12) must still let has_worked become true after exactly 48
// consecutive Work timesteps, even though Duration itself has long
// since saturated at 12.
func TestMandatedWorkDurationBeyondTrackedCap(t *testing.T) {
	ctx := capContext()
	agent := model.Agent{ID: 1, HasWork: true, WorkZone: 0, MandatedWorkDuration: 48}

	s := model.State{Activity: model.Arrive, Location: model.Workplace(0), TimeOfDay: 0}
	s = NextState(ctx, agent, s, model.Start(model.Work), 1)
	assert.Equal(t, 1, s.WorkStreak)
	assert.False(t, s.HasWorked)

	for i := 2; i <= 48; i++ {
		s = NextState(ctx, agent, s, model.Continue(), float64(i))
		assert.Equal(t, min(i, 12), s.Duration, "Duration caps at max_tracked_duration regardless of true elapsed work time")
		if i < 48 {
			assert.False(t, s.HasWorked, "has_worked must stay false before the mandated duration is reached (step %d)", i)
		}
	}
	assert.True(t, s.HasWorked, "has_worked must become true on the 48th consecutive Work timestep")

	s = NextState(ctx, agent, s, model.Continue(), 49)
	assert.False(t, s.HasWorked, "has_worked must flip back to false once the agent continues past the mandated duration")

	end := NextState(ctx, agent, s, model.End(), 49)
	assert.Equal(t, model.Depart, end.Activity)
}

// TestWorkStreakResetsOffWork confirms the elapsed-work counter does not
// leak into non-Work activities and does not contribute stale state to
// a later Work spell.
func TestWorkStreakResetsOffWork(t *testing.T) {
	ctx := capContext()
	agent := model.Agent{ID: 1, HasWork: true, WorkZone: 0, MandatedWorkDuration: 48}

	s := model.State{Activity: model.Arrive, Location: model.Workplace(0), TimeOfDay: 0}
	s = NextState(ctx, agent, s, model.Start(model.Work), 1)
	for i := 0; i < 5; i++ {
		s = NextState(ctx, agent, s, model.Continue(), s.TimeOfDay+1)
	}
	assert.Equal(t, 6, s.WorkStreak)

	s = NextState(ctx, agent, s, model.Travel(model.Car, model.Residence(0)), s.TimeOfDay+1)
	assert.Equal(t, 0, s.WorkStreak)

	s = NextState(ctx, agent, s, model.Start(model.Home), s.TimeOfDay+1)
	assert.Equal(t, 0, s.WorkStreak)
}
