package ioformat

import (
	"io"
	"strconv"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// LoadTrips reads an observed-trips CSV, one row per trip (§6), sorted
// or groupable by agent id; activity/mode are enum names, departure
// time is "HH:MM". Rows are returned grouped by agent id, in file
// order within each group.
func LoadTrips(r io.Reader) (map[int64][]model.Trip, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	byAgent := make(map[int64][]model.Trip)
	for i, row := range rows {
		trip, err := parseTripRow(row, idx)
		if err != nil {
			return nil, err
		}
		_ = i
		byAgent[trip.AgentID] = append(byAgent[trip.AgentID], trip)
	}
	return byAgent, nil
}

func parseTripRow(row []string, idx map[string]int) (model.Trip, error) {
	var t model.Trip

	agentID, err := readIntColumn(row, idx, "IndID")
	if err != nil {
		return t, err
	}
	activityStr, err := column(row, idx, "Activity")
	if err != nil {
		return t, err
	}
	activity, err := parseActivity(activityStr)
	if err != nil {
		return t, err
	}
	modeStr, err := column(row, idx, "Mode")
	if err != nil {
		return t, err
	}
	mode, err := parseMode(modeStr)
	if err != nil {
		return t, err
	}
	origin, err := readIntColumn(row, idx, "Origin")
	if err != nil {
		return t, err
	}
	dest, err := readIntColumn(row, idx, "Destination")
	if err != nil {
		return t, err
	}
	departStr, err := column(row, idx, "DepartureTime")
	if err != nil {
		return t, err
	}
	depart, err := parseClockMinutes(departStr)
	if err != nil {
		return t, err
	}

	latentClass := 0
	if i, ok := idx["LatentClass"]; ok && i < len(row) && row[i] != "" {
		latentClass, err = strconv.Atoi(row[i])
		if err != nil {
			return t, err
		}
	}

	return model.Trip{
		AgentID:     int64(agentID),
		LatentClass: latentClass,
		Activity:    activity,
		Mode:        mode,
		OriginZone:  origin,
		DestZone:    dest,
		DepartTime:  depart,
	}, nil
}

// simulationHeader is the §6-mandated simulation-output column set.
var simulationHeader = []string{"IndID", "LatentClass", "Activity", "Mode", "Origin", "Destination", "DepartureTime", "TravelTime", "ArrivalTime"}

// WriteSimulationCSV writes trips in the §6 simulation-output layout.
// net supplies the LOS used to derive each trip's travel time (summed
// time+wait+access, per world.World.TravelTimesteps' own combination)
// and arrival time; departTimeMinutes converts a trip's DepartTime
// (timesteps since DayStart) to minutes since midnight.
func WriteSimulationCSV(out io.Writer, net *world.NetworkData, trips []model.Trip, departTimeMinutes func(model.Trip) float64) error {
	writer := newWriter(out)
	if err := writer.Write(simulationHeader); err != nil {
		return err
	}

	full := world.NewFull(net)
	defer full.Close()

	for _, t := range trips {
		departMin := departTimeMinutes(t)
		travelMin := losMinutes(full, t)
		arriveMin := departMin + travelMin

		row := []string{
			strconv.FormatInt(t.AgentID, 10),
			strconv.Itoa(t.LatentClass),
			t.Activity.String(),
			t.Mode.String(),
			strconv.Itoa(t.OriginZone),
			strconv.Itoa(t.DestZone),
			formatClockMinutes(departMin),
			formatFloat(travelMin),
			formatClockMinutes(arriveMin),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// losMinutes sums travel time, wait, and access LOS for a trip's
// mode/OD pair at its departure time, the same combination
// world.World.TravelTimesteps uses to bound feasible travel duration.
func losMinutes(w *world.World, t model.Trip) float64 {
	origin := model.Residence(t.OriginZone)
	dest := model.NonFixed(t.DestZone)
	if t.Activity == model.Home {
		dest = model.Residence(t.DestZone)
	} else if t.Activity == model.Work {
		dest = model.Workplace(t.DestZone)
	}

	total := 0.0
	for _, m := range w.TravelTime(t.Mode, origin, dest, t.DepartTime) {
		total += m.At(0)
	}
	for _, m := range w.TravelWait(t.Mode, origin, dest, t.DepartTime) {
		total += m.At(0)
	}
	for _, m := range w.TravelAccess(t.Mode, origin, dest, t.DepartTime) {
		total += m.At(0)
	}
	return total
}
