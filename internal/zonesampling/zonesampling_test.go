package zonesampling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/world"
)

func fixtureNetwork() *world.NetworkData {
	return &world.NetworkData{
		NumZones: 3,
		LogPop:   []float64{1.0, 2.0, 0.5},
		LogEmp:   []float64{0.5, 1.5, 2.0},
	}
}

func fixtureTrips() []model.Trip {
	return []model.Trip{
		{AgentID: 1, DestZone: 1},
		{AgentID: 2, DestZone: 1},
		{AgentID: 3, DestZone: 2},
		{AgentID: 4, DestZone: 0},
	}
}

func TestFitRejectsEmptyTrips(t *testing.T) {
	_, err := Fit(fixtureNetwork(), nil, Options{})
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InfeasibleObservation))
}

func TestFitRejectsOutOfRangeDestination(t *testing.T) {
	trips := []model.Trip{{AgentID: 1, DestZone: 9}}
	_, err := Fit(fixtureNetwork(), trips, Options{})
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InfeasibleObservation))
}

func TestFitProducesFiniteCoefficients(t *testing.T) {
	res, err := Fit(fixtureNetwork(), fixtureTrips(), Options{Iterations: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Iterations)
	assert.False(t, math.IsNaN(res.LogPopCoefficient))
	assert.False(t, math.IsNaN(res.LogEmpCoefficient))
	assert.False(t, math.IsNaN(res.NegLogLikelihood))
}

func TestFitDefaultsIterationsWhenUnset(t *testing.T) {
	res, err := Fit(fixtureNetwork(), fixtureTrips(), Options{Iterations: 0})
	require.NoError(t, err)
	assert.Equal(t, 500, res.Iterations)
}
