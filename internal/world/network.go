package world

import "github.com/scaper-sim/scaper/internal/model"

// ModeLOS is the level-of-service tensor for a single mode over the full
// zone universe, flattened origin-major: cell (o, d) is at index
// o*NumZones + d. Peak and OffPeak hold the same layout; HasPeak
// indicates whether the mode's LOS genuinely varies across the peak
// window (Walk/Bike typically do not).
type ModeLOS struct {
	Peak, OffPeak []float64
	HasPeak       bool
}

// NetworkData is the immutable, column-lifetime LOS and land-use tensor
// set loaded once by the InputLoader and shared (never copied) across
// every agent's World.
type NetworkData struct {
	NumZones int

	TravelTime   map[model.Mode]*ModeLOS
	TravelWait   map[model.Mode]*ModeLOS
	TravelAccess map[model.Mode]*ModeLOS
	TravelCost   map[model.Mode]*ModeLOS

	ParkingRatePerHour []float64 // per zone
	LogPop, LogEmp     []float64 // per zone

	Peaks PeakSchedule
}

func (n *NetworkData) at(table *ModeLOS, peak bool, o, d int) float64 {
	idx := o*n.NumZones + d
	if peak {
		return table.Peak[idx]
	}
	return table.OffPeak[idx]
}
