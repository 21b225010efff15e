package choiceset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// degenerateSetup builds a one-zone universe with a car-less, work-less
// agent: departOptions resolves to no feasible Travel, so the agent's
// only possible day is Continue-until-End at Home, with no observed
// trips to explain.
func degenerateSetup() (*config.ModelContext, model.Agent, *world.NetworkData) {
	net := &world.NetworkData{NumZones: 1, LogPop: []float64{0}, LogEmp: []float64{0}}

	ps := config.NewParameterSet([]config.Parameter{
		{Name: "rate_continue_Home_c0", Value: 1.0},
	}, nil)

	ctx := &config.ModelContext{
		DayStart:         0,
		DayEnd:           3,
		DecisionStepSize: 1,
		TimestepMinutes:  15,
		NumLatentClasses: 1,
		Params:           ps,
		Utility:          config.LinearUtility{},
		ClassUtil:        config.LinearUtility{},
	}
	agent := model.Agent{ID: 1, HomeZone: 0, HasWork: false, OwnsVehicle: false}
	return ctx, agent, net
}

func constRNG(u float64) func() float64 {
	return func() float64 { return u }
}

func TestFromTripsEmptyTripsStaysHomeAllDay(t *testing.T) {
	ctx, agent, net := degenerateSetup()
	w := world.NewFull(net)

	path, ok := FromTrips(ctx, agent, w, nil)
	require.True(t, ok)
	require.NotEmpty(t, path.Decs)
	for _, d := range path.Decs {
		assert.Equal(t, model.DecContinue, d.Kind)
	}
}

func TestToTripsRoundTripsEmptyObservation(t *testing.T) {
	ctx, agent, net := degenerateSetup()
	w := world.NewFull(net)

	path, ok := FromTrips(ctx, agent, w, nil)
	require.True(t, ok)

	trips := ToTrips(agent, path, 0)
	assert.Empty(t, trips)
}

func TestGenerateDegenerateAgentProducesOneAlternative(t *testing.T) {
	ctx, agent, net := degenerateSetup()

	params := Params{SampleZones: 1, NumAlternatives: 3, RNG: constRNG(0.5)}
	cs, ok := Generate(ctx, agent, net, nil, DefaultZoneUtility(ctx, net), params, nil)
	require.True(t, ok)

	// every candidate (observed-empty plus every simulated alternative)
	// collapses to the identical all-Continue path with no Travel, so
	// deduplication must leave exactly one alternative.
	require.Len(t, cs.Alternatives, 1)
	assert.Empty(t, cs.Alternatives[0].Trips)
}
