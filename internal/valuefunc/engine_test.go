package valuefunc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// degenerateContext builds a one-zone, car-less, work-less setup in
// which a Depart state never has a feasible Travel option: ModeSet
// resolves to an empty slice, so a decision to End before DayEnd is
// always dominated by -Inf and the only way to reach the terminal
// (0-valued) End state is a straight run of Continues.
func degenerateContext() (*config.ModelContext, model.Agent, *world.World) {
	net := &world.NetworkData{NumZones: 1}
	w := world.NewFull(net)

	ps := config.NewParameterSet([]config.Parameter{
		{Name: "rate_continue_Home_c0", Value: 2.0},
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
	}
	agent := model.Agent{ID: 1, HomeZone: 0, HasWork: false, OwnsVehicle: false}
	return ctx, agent, w
}

func newEngine(ctx *config.ModelContext, agent model.Agent, w *world.World) *Engine {
	pool := evcache.NewPool()
	cache := evcache.New(ctx.DayLength(), w.NumZones(), pool)
	return New(ctx, agent, w, cache, 0)
}

func TestValueAtBadStateIsNegativeInfinity(t *testing.T) {
	ctx, agent, w := degenerateContext()
	e := newEngine(ctx, agent, w)

	s := model.State{Activity: model.Home, Location: model.NonFixed(0), TimeOfDay: 1}
	assert.True(t, math.IsInf(e.Value(s), -1))
}

func TestValueAtEndStateIsZero(t *testing.T) {
	ctx, agent, w := degenerateContext()
	e := newEngine(ctx, agent, w)

	s := model.State{Activity: model.Home, Location: model.Residence(0), TimeOfDay: 3}
	assert.Equal(t, 0.0, e.Value(s))
}

// TestDegenerateAgentStaysHome mirrors the "stay home" scenario: with no
// feasible Travel option ever available, the value of the start state
// collapses to DayLength successive Continue utilities.
func TestDegenerateAgentStaysHome(t *testing.T) {
	ctx, agent, w := degenerateContext()
	e := newEngine(ctx, agent, w)

	start := model.State{Activity: model.Home, Location: model.Residence(0), TimeOfDay: 0, Duration: 0}
	got := e.Value(start)

	require.False(t, math.IsInf(got, 0))
	assert.InDelta(t, 3*2.0, got, 1e-9)
}

func TestValueInterpolatesBetweenIntegerTimesteps(t *testing.T) {
	ctx, agent, w := degenerateContext()
	e := newEngine(ctx, agent, w)

	at1 := e.Value(model.State{Activity: model.Home, Location: model.Residence(0), TimeOfDay: 1})
	at2 := e.Value(model.State{Activity: model.Home, Location: model.Residence(0), TimeOfDay: 2})
	mid := e.Value(model.State{Activity: model.Home, Location: model.Residence(0), TimeOfDay: 1.5})

	assert.InDelta(t, (at1+at2)/2, mid, 1e-9)
}
