package ioformat

import (
	"io"
	"math"
)

// ZoneTable is the loaded zones file, per §6 ("one row per zone,
// indexed in file order; columns include population, employment,
// parking rate per hour"). Population/employment are stored as logs
// (LogPop/LogEmp) since that is the only form the land-use utility
// terms consume (world.World.LogPop/LogEmp).
type ZoneTable struct {
	NumZones           int
	LogPop, LogEmp     []float64
	ParkingRatePerHour []float64
}

// LoadZones reads a zones CSV with header columns "population",
// "employment", "parking_rate_per_hour". Row order is the zone index.
func LoadZones(r io.Reader) (ZoneTable, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return ZoneTable{}, err
	}
	idx := headerIndex(header)

	t := ZoneTable{
		NumZones:           len(rows),
		LogPop:             make([]float64, len(rows)),
		LogEmp:             make([]float64, len(rows)),
		ParkingRatePerHour: make([]float64, len(rows)),
	}
	for i, row := range rows {
		pop, err := readFloatColumn(row, idx, "population")
		if err != nil {
			return ZoneTable{}, err
		}
		emp, err := readFloatColumn(row, idx, "employment")
		if err != nil {
			return ZoneTable{}, err
		}
		parking, err := readFloatColumn(row, idx, "parking_rate_per_hour")
		if err != nil {
			return ZoneTable{}, err
		}
		t.LogPop[i] = logOrZero(pop)
		t.LogEmp[i] = logOrZero(emp)
		t.ParkingRatePerHour[i] = parking
	}
	return t, nil
}

func readFloatColumn(row []string, idx map[string]int, name string) (float64, error) {
	s, err := column(row, idx, name)
	if err != nil {
		return 0, err
	}
	return parseFloat(s)
}

// logOrZero is math.Log guarded against a zero-population/employment
// zone, which would otherwise produce -Inf and poison every downstream
// utility term that reads it.
func logOrZero(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log(v)
}
