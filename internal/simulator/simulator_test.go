package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// degenerateSetup mirrors valuefunc's degenerate-agent fixture: one
// zone, no car, no work, so the only feasible path is Continue-until-End
// at Home.
func degenerateSetup() (*config.ModelContext, model.Agent, *world.World) {
	net := &world.NetworkData{NumZones: 1}
	w := world.NewFull(net)

	ps := config.NewParameterSet([]config.Parameter{
		{Name: "rate_continue_Home_c0", Value: 1.0},
	}, nil)

	ctx := &config.ModelContext{
		DayStart:         0,
		DayEnd:           3,
		DecisionStepSize: 1,
		TimestepMinutes:  15,
		NumLatentClasses: 1,
		NoCarModes:       nil,
		Params:           ps,
		Utility:          config.LinearUtility{},
		ClassUtil:        config.LinearUtility{},
	}
	agent := model.Agent{ID: 1, HomeZone: 0, HasWork: false, OwnsVehicle: false}
	return ctx, agent, w
}

// constRNG always returns the same uniform draw; sufficient for a
// single-class, single-path degenerate scenario where the draw value
// never actually discriminates between alternatives.
func constRNG(u float64) func() float64 {
	return func() float64 { return u }
}

func TestSimulateDegenerateAgentStaysHomeAllDay(t *testing.T) {
	ctx, agent, w := degenerateSetup()
	pool := evcache.NewPool()
	engines := NewClassEngines(ctx, agent, w, pool)

	sim := New(ctx, agent, w, engines, constRNG(0.5))
	result := sim.Simulate()

	require.Equal(t, 0, result.LatentClass)
	require.NotEmpty(t, result.Path.Decs)
	for _, d := range result.Path.Decs {
		assert.NotEqual(t, model.DecTravel, d.Kind)
	}

	last := result.Path.Decs[len(result.Path.Decs)-1]
	assert.Equal(t, model.DecContinue, last.Kind)

	lastState := result.Path.States[len(result.Path.States)-1]
	assert.Equal(t, ctx.DayEnd, lastState.TimeOfDay+ctx.DecisionStepSize)
}
