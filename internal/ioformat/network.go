package ioformat

import (
	"io"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/world"
)

// peakModes have a real peak/off-peak split; the rest (Walk, Bike) are
// loaded as a single off-peak-only table, matching the domain
// assumption recorded on world.ModeLOS.HasPeak.
var peakModes = map[model.Mode]bool{model.Car: true, model.Transit: true}

// LoadNetwork reads a network CSV sorted by origin then destination
// (§6, §7 "unsorted network" is a fatal InputFormat error), one row per
// OD pair, with "origin"/"destination" columns plus, per mode, either
// "<mode>_tt_peak"/"<mode>_tt_offpeak" (and wait/access/cost) for
// Car/Transit, or "<mode>_tt" (and wait/access/cost) for Walk/Bike.
// numZones must be known ahead of time (from LoadZones) since the file
// itself carries no explicit zone count.
func LoadNetwork(r io.Reader, numZones int) (*world.NetworkData, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	expected := numZones * numZones
	if len(rows) != expected {
		return nil, scaperr.New(scaperr.InputFormat, "network file has %d rows, want %d (%d zones squared)", len(rows), expected, numZones)
	}

	net := &world.NetworkData{
		NumZones:     numZones,
		TravelTime:   make(map[model.Mode]*world.ModeLOS),
		TravelWait:   make(map[model.Mode]*world.ModeLOS),
		TravelAccess: make(map[model.Mode]*world.ModeLOS),
		TravelCost:   make(map[model.Mode]*world.ModeLOS),
	}
	for _, m := range model.AllModes() {
		net.TravelTime[m] = &world.ModeLOS{HasPeak: peakModes[m], Peak: make([]float64, expected), OffPeak: make([]float64, expected)}
		net.TravelWait[m] = &world.ModeLOS{HasPeak: peakModes[m], Peak: make([]float64, expected), OffPeak: make([]float64, expected)}
		net.TravelAccess[m] = &world.ModeLOS{HasPeak: peakModes[m], Peak: make([]float64, expected), OffPeak: make([]float64, expected)}
		net.TravelCost[m] = &world.ModeLOS{HasPeak: peakModes[m], Peak: make([]float64, expected), OffPeak: make([]float64, expected)}
	}

	prevOrigin, prevDest := -1, -1
	for i, row := range rows {
		origin, err := readIntColumn(row, idx, "origin")
		if err != nil {
			return nil, err
		}
		dest, err := readIntColumn(row, idx, "destination")
		if err != nil {
			return nil, err
		}
		if origin < prevOrigin || (origin == prevOrigin && dest < prevDest) {
			return nil, scaperr.New(scaperr.InputFormat, "network file not sorted by (origin, destination) at row %d", i)
		}
		prevOrigin, prevDest = origin, dest

		cell := origin*numZones + dest
		for _, m := range model.AllModes() {
			if err := loadModeCell(row, idx, m, cell, net); err != nil {
				return nil, err
			}
		}
	}
	return net, nil
}

func loadModeCell(row []string, idx map[string]int, m model.Mode, cell int, net *world.NetworkData) error {
	prefix := modeColumnPrefix(m)
	metrics := []struct {
		name  string
		table *world.ModeLOS
	}{
		{"tt", net.TravelTime[m]},
		{"wait", net.TravelWait[m]},
		{"access", net.TravelAccess[m]},
		{"cost", net.TravelCost[m]},
	}

	for _, metric := range metrics {
		table := metric.table
		if peakModes[m] {
			peak, err := readFloatColumn(row, idx, prefix+"_"+metric.name+"_peak")
			if err != nil {
				return err
			}
			offpeak, err := readFloatColumn(row, idx, prefix+"_"+metric.name+"_offpeak")
			if err != nil {
				return err
			}
			table.Peak[cell] = peak
			table.OffPeak[cell] = offpeak
		} else {
			v, err := readFloatColumn(row, idx, prefix+"_"+metric.name)
			if err != nil {
				return err
			}
			table.OffPeak[cell] = v
		}
	}
	return nil
}

func modeColumnPrefix(m model.Mode) string {
	switch m {
	case model.Car:
		return "car"
	case model.Transit:
		return "transit"
	case model.Walk:
		return "walk"
	case model.Bike:
		return "bike"
	default:
		return "unknown"
	}
}

func readIntColumn(row []string, idx map[string]int, name string) (int, error) {
	s, err := column(row, idx, name)
	if err != nil {
		return 0, err
	}
	return parseInt(s)
}
