package ioformat

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
)

func TestLoadZonesComputesLogPopAndLogEmp(t *testing.T) {
	csv := "population,employment,parking_rate_per_hour\n1,10,2.5\n0,0,0\n"
	zt, err := LoadZones(strings.NewReader(csv))
	require.NoError(t, err)

	require.Equal(t, 2, zt.NumZones)
	assert.InDelta(t, 0, zt.LogPop[0], 1e-12)
	assert.InDelta(t, math.Log(10), zt.LogEmp[0], 1e-12)
	assert.Equal(t, 0.0, zt.LogPop[1])
	assert.Equal(t, 0.0, zt.LogEmp[1])
	assert.Equal(t, []float64{2.5, 0}, zt.ParkingRatePerHour)
}

func TestLoadZonesReportsMissingColumn(t *testing.T) {
	csv := "population,employment\n1,10\n"
	_, err := LoadZones(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InputFormat))
}

func TestLoadNetworkRejectsWrongRowCount(t *testing.T) {
	csv := networkCSVFixture(2)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	truncated := strings.Join(lines[:len(lines)-1], "\n") + "\n"

	_, err := LoadNetwork(strings.NewReader(truncated), 2)
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InputFormat))
}

func networkCSVFixture(numZones int) string {
	header := "origin,destination,car_tt_peak,car_tt_offpeak,car_wait_peak,car_wait_offpeak,car_access_peak,car_access_offpeak,car_cost_peak,car_cost_offpeak," +
		"transit_tt_peak,transit_tt_offpeak,transit_wait_peak,transit_wait_offpeak,transit_access_peak,transit_access_offpeak,transit_cost_peak,transit_cost_offpeak," +
		"walk_tt,walk_wait,walk_access,walk_cost,bike_tt,bike_wait,bike_access,bike_cost\n"
	var b strings.Builder
	b.WriteString(header)
	for o := 0; o < numZones; o++ {
		for d := 0; d < numZones; d++ {
			b.WriteString(strconv.Itoa(o))
			b.WriteString(",")
			b.WriteString(strconv.Itoa(d))
			for i := 0; i < 24; i++ {
				b.WriteString(",1")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func TestLoadNetworkLoadsSortedFile(t *testing.T) {
	csv := networkCSVFixture(2)
	net, err := LoadNetwork(strings.NewReader(csv), 2)
	require.NoError(t, err)
	require.Equal(t, 2, net.NumZones)
	assert.Equal(t, 1.0, net.TravelTime[model.Car].Peak[0])
	assert.True(t, net.TravelTime[model.Car].HasPeak)
	assert.False(t, net.TravelTime[model.Walk].HasPeak)
}

func TestLoadNetworkRejectsUnsortedRows(t *testing.T) {
	csv := networkCSVFixture(2)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	// swap the (0,0) and (0,1) rows so the file is no longer sorted by
	// (origin, destination).
	lines[1], lines[2] = lines[2], lines[1]
	swapped := strings.Join(lines, "\n") + "\n"

	_, err := LoadNetwork(strings.NewReader(swapped), 2)
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InputFormat))
}

func TestLoadAgentsIgnoresWorkZoneWhenNotWorking(t *testing.T) {
	csv := "id,age,sex,income,has_kids,home_zone,has_work,work_zone,owns_vehicle,has_transit_card,weight,mandated_work_duration\n" +
		"1,30,F,50000,0,0,0,,1,1,1.0,0\n"
	agents, err := LoadAgents(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, 0, agents[0].WorkZone)
	assert.False(t, agents[0].HasWork)
}

func TestLoadAgentsRequiresWorkZoneWhenWorking(t *testing.T) {
	csv := "id,age,sex,income,has_kids,home_zone,has_work,work_zone,owns_vehicle,has_transit_card,weight,mandated_work_duration\n" +
		"1,30,F,50000,0,0,1,2,1,1,1.0,0\n"
	agents, err := LoadAgents(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, 2, agents[0].WorkZone)
}

func TestParametersRoundTrip(t *testing.T) {
	params := []config.Parameter{
		{Name: "beta_tt", Value: -0.05, Estimate: true},
		{Name: "correction", Value: 1, Estimate: false},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteParameters(&buf, params))

	loaded, err := LoadParameters(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, params[0], loaded[0])
	assert.Equal(t, params[1], loaded[1])
}

func TestLoadTripsGroupsByAgent(t *testing.T) {
	csv := "IndID,LatentClass,Activity,Mode,Origin,Destination,DepartureTime\n" +
		"1,0,Work,Car,0,1,08:00\n" +
		"1,0,Home,Car,1,0,17:30\n" +
		"2,1,Work,Transit,0,2,07:45\n"
	byAgent, err := LoadTrips(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, byAgent[1], 2)
	require.Len(t, byAgent[2], 1)
	assert.Equal(t, model.Work, byAgent[1][0].Activity)
	assert.Equal(t, model.Car, byAgent[1][0].Mode)
	assert.InDelta(t, 8*60.0, byAgent[1][0].DepartTime, 1e-9)
	assert.Equal(t, model.Transit, byAgent[2][0].Mode)
}

func TestLoadTripsRejectsUnrecognizedMode(t *testing.T) {
	csv := "IndID,Activity,Mode,Origin,Destination,DepartureTime\n1,Work,Hoverboard,0,1,08:00\n"
	_, err := LoadTrips(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.InputFormat))
}

func TestChoicesetRoundTrip(t *testing.T) {
	sets := []model.Choiceset{
		{
			Agent:        model.Agent{ID: 7},
			SampledZones: []int{0, 1, 2},
			Alternatives: []model.Alternative{
				{
					Correction: 0,
					Trips: []model.Trip{
						{AgentID: 7, Activity: model.Work, Mode: model.Car, OriginZone: 0, DestZone: 1, DepartTime: 480},
					},
				},
				{
					Correction: -0.3,
					Trips: []model.Trip{
						{AgentID: 7, Activity: model.Work, Mode: model.Transit, OriginZone: 0, DestZone: 1, DepartTime: 480},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChoicesets(&buf, sets))

	loaded, err := LoadChoicesets(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(7), loaded[0].Agent.ID)
	assert.Equal(t, []int{0, 1, 2}, loaded[0].SampledZones)
	require.Len(t, loaded[0].Alternatives, 2)
	assert.InDelta(t, -0.3, loaded[0].Alternatives[1].Correction, 1e-9)
	assert.Equal(t, model.Transit, loaded[0].Alternatives[1].Trips[0].Mode)
}

func TestChoicesetRoundTripPreservesEmptyAlternative(t *testing.T) {
	sets := []model.Choiceset{
		{
			Agent:        model.Agent{ID: 1},
			SampledZones: []int{0},
			Alternatives: []model.Alternative{{Correction: -1.1}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteChoicesets(&buf, sets))

	loaded, err := LoadChoicesets(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Alternatives, 1)
	assert.Empty(t, loaded[0].Alternatives[0].Trips)
	assert.InDelta(t, -1.1, loaded[0].Alternatives[0].Correction, 1e-9)
}

func TestSinkRecordFailureIsConcurrencySafe(t *testing.T) {
	var buf bytes.Buffer
	sink := NewChoicesetSink(&buf)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			sink.RecordFailure()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, 8, sink.Failed())
}

func TestSinkWriteChoicesetFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewChoicesetSink(&buf)
	sink.WriteChoiceset(model.Choiceset{Agent: model.Agent{ID: 3}, Alternatives: []model.Alternative{{}}})
	require.NoError(t, sink.Close())

	loaded, err := LoadChoicesets(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(3), loaded[0].Agent.ID)
}
