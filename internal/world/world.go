// Package world implements the per-agent World view: LOS queries, land
// use attributes, peak blending, and zone importance sampling.
package world

import (
	"github.com/scaper-sim/scaper/internal/matx"
	"github.com/scaper-sim/scaper/internal/model"
)

// World is a per-agent, read-only snapshot of the shared NetworkData,
// optionally restricted to an importance-sampled subset of zones. A
// World owns a matx.Pool for the gathers its LOS queries rent; callers
// must call Close (or release the rented Mats themselves) once done
// with the agent.
type World struct {
	net         *NetworkData
	zones       []int // global zone ids, in local order
	globalToLoc map[int]int
	sampled     bool
	correction  []float64 // flat numZones x numZones, nil when not sampled
	pool        *matx.Pool
}

// NewFull builds the unsampled World over every zone in net, in file
// order.
func NewFull(net *NetworkData) *World {
	zones := make([]int, net.NumZones)
	idx := make(map[int]int, net.NumZones)
	for i := range zones {
		zones[i] = i
		idx[i] = i
	}
	return &World{net: net, zones: zones, globalToLoc: idx, pool: matx.NewPool(net.NumZones)}
}

// NewFromZones rebuilds a World over exactly the given global zone ids,
// in order -- used to replay a persisted Choiceset's SampledZones during
// estimation, where the correction term is already baked into each
// Alternative and so need not be reconstructed.
func NewFromZones(net *NetworkData, zones []int) *World {
	idx := make(map[int]int, len(zones))
	for i, z := range zones {
		idx[z] = i
	}
	return &World{net: net, zones: zones, globalToLoc: idx, sampled: len(zones) != net.NumZones, pool: matx.NewPool(len(zones))}
}

// NumZones returns the number of zones visible through this World.
func (w *World) NumZones() int { return len(w.zones) }

// Zones returns the global zone ids visible through this World, in
// local order.
func (w *World) Zones() []int { return w.zones }

// IsSampled reports whether this World is restricted to an
// importance-sampled subset of zones.
func (w *World) IsSampled() bool { return w.sampled }

// ZIndex returns the local index of global zone id z, or -1 if z is not
// visible through this World.
func (w *World) ZIndex(z int) int {
	if i, ok := w.globalToLoc[z]; ok {
		return i
	}
	return -1
}

// Pool returns the World's own Mat pool, for use by callers that need to
// rent scratch Mats shaped for this World's zone count.
func (w *World) Pool() *matx.Pool { return w.pool }

// Close releases the World's pool. Call once the agent's computation is
// finished; the World must not be used afterwards.
func (w *World) Close() {
	w.pool = nil
}

func zoneOf(l model.Location) (zone int, all bool) {
	if l.Kind == model.LocNonFixed && l.Zone == model.AllZones {
		return 0, true
	}
	return l.Zone, false
}

// ShapeOf determines the broadcast shape a query over (origin, dest)
// produces. Exported so UtilitySpec implementations can size non-LOS
// terms (ASCs, rates) to match -- though since Scalar broadcasts to any
// shape (matx.AddInto), most such terms can just use Scalar regardless.
func ShapeOf(origin, dest model.Location) matx.Shape {
	return decisionShape(origin, dest)
}

// decisionShape determines the broadcast shape a query over
// (origin, dest) produces.
func decisionShape(origin, dest model.Location) matx.Shape {
	_, oAll := zoneOf(origin)
	_, dAll := zoneOf(dest)
	switch {
	case !oAll && !dAll:
		return matx.Scalar
	case !oAll && dAll:
		return matx.RowVec
	case oAll && !dAll:
		return matx.ColVec
	default:
		return matx.ODMat
	}
}

// losQuery gathers table into a Mat (or two, for peak/off-peak) of the
// shape implied by origin/dest, in this World's local zone order.
func (w *World) losQuery(table *ModeLOS, origin, dest model.Location, timeOfDay float64) []matx.Mat {
	shape := decisionShape(origin, dest)
	oZone, _ := zoneOf(origin)
	dZone, _ := zoneOf(dest)

	gather := func(peak bool) matx.Mat {
		m := w.pool.Rent(shape)
		switch shape {
		case matx.Scalar:
			m.Data[0] = w.net.at(table, peak, w.ZIndexOrGlobal(oZone), w.ZIndexOrGlobal(dZone))
		case matx.RowVec:
			for d := 0; d < len(w.zones); d++ {
				m.Data[d] = w.net.at(table, peak, w.ZIndexOrGlobal(oZone), w.zones[d])
			}
		case matx.ColVec:
			for o := 0; o < len(w.zones); o++ {
				m.Data[o] = w.net.at(table, peak, w.zones[o], w.ZIndexOrGlobal(dZone))
			}
		case matx.ODMat:
			n := len(w.zones)
			for o := 0; o < n; o++ {
				base := o * n
				for d := 0; d < n; d++ {
					m.Data[base+d] = w.net.at(table, peak, w.zones[o], w.zones[d])
				}
			}
		}
		return m
	}

	if !table.HasPeak {
		m := gather(false)
		m.Scale = 1
		return []matx.Mat{m}
	}

	p := w.net.Peaks.ProportionPeak(timeOfDay)
	peakMat := gather(true)
	peakMat.Scale = p
	offMat := gather(false)
	offMat.Scale = 1 - p
	return []matx.Mat{peakMat, offMat}
}

// ZIndexOrGlobal is a convenience used internally by losQuery: the LOS
// tensors are always indexed by *global* zone id (gathers pick rows and
// columns out of the full-universe table), so this is the identity; it
// exists as a named seam so a future gathered-subtable optimization
// (precomputing the sampled sub-matrix once per World instead of once
// per query) has a single call site to change.
func (w *World) ZIndexOrGlobal(globalZone int) int { return globalZone }

// TravelTime returns the LOS sequence for mode m between origin and
// dest at timeOfDay.
func (w *World) TravelTime(m model.Mode, origin, dest model.Location, timeOfDay float64) []matx.Mat {
	return w.losQuery(w.net.TravelTime[m], origin, dest, timeOfDay)
}

// TravelWait returns the wait-time LOS sequence.
func (w *World) TravelWait(m model.Mode, origin, dest model.Location, timeOfDay float64) []matx.Mat {
	return w.losQuery(w.net.TravelWait[m], origin, dest, timeOfDay)
}

// TravelAccess returns the access-time LOS sequence.
func (w *World) TravelAccess(m model.Mode, origin, dest model.Location, timeOfDay float64) []matx.Mat {
	return w.losQuery(w.net.TravelAccess[m], origin, dest, timeOfDay)
}

// TravelCost returns the monetary-cost LOS sequence.
func (w *World) TravelCost(m model.Mode, origin, dest model.Location, timeOfDay float64) []matx.Mat {
	return w.losQuery(w.net.TravelCost[m], origin, dest, timeOfDay)
}

// ParkingRate returns the per-minute parking rate Mat at loc.
func (w *World) ParkingRate(loc model.Location) matx.Mat {
	return w.landUse(w.net.ParkingRatePerHour, loc, 1.0/60.0)
}

// LogPop returns the log-population Mat at loc.
func (w *World) LogPop(loc model.Location) matx.Mat {
	return w.landUse(w.net.LogPop, loc, 1)
}

// LogEmp returns the log-employment Mat at loc.
func (w *World) LogEmp(loc model.Location) matx.Mat {
	return w.landUse(w.net.LogEmp, loc, 1)
}

func (w *World) landUse(table []float64, loc model.Location, scale float64) matx.Mat {
	zone, all := zoneOf(loc)
	if !all {
		m := w.pool.Rent(matx.Scalar)
		m.Data[0] = table[zone]
		m.Scale = scale
		return m
	}
	m := w.pool.Rent(matx.RowVec)
	for d, z := range w.zones {
		m.Data[d] = table[z]
	}
	m.Scale = scale
	return m
}

// TravelTimesteps returns the sorted, inclusive range of integral
// timesteps a Travel by mode m from origin to dest may consume: floor of
// the minimum total LOS (time+wait+access) across peak/off-peak, through
// the ceiling of the maximum, as whole timesteps. Only meaningful for a
// concrete origin and destination (the "exploded" Travel form).
func (w *World) TravelTimesteps(m model.Mode, origin, dest model.Location, stepMinutes float64) []int {
	oZone, _ := zoneOf(origin)
	dZone, _ := zoneOf(dest)

	peakTotal := w.scalarRaw(w.net.TravelTime[m], true, oZone, dZone) +
		w.scalarRaw(w.net.TravelWait[m], true, oZone, dZone) +
		w.scalarRaw(w.net.TravelAccess[m], true, oZone, dZone)
	offTotal := w.scalarRaw(w.net.TravelTime[m], false, oZone, dZone) +
		w.scalarRaw(w.net.TravelWait[m], false, oZone, dZone) +
		w.scalarRaw(w.net.TravelAccess[m], false, oZone, dZone)

	minTotal, maxTotal := peakTotal, offTotal
	if minTotal > maxTotal {
		minTotal, maxTotal = maxTotal, minTotal
	}

	loSteps := int(minTotal / stepMinutes)
	hiSteps := int(maxTotal/stepMinutes + 0.999999999)
	if hiSteps < loSteps {
		hiSteps = loSteps
	}
	out := make([]int, 0, hiSteps-loSteps+1)
	for s := loSteps; s <= hiSteps; s++ {
		out = append(out, s)
	}
	return out
}

// scalarRaw returns the raw (unblended) peak or off-peak LOS value
// between two concrete global zones.
func (w *World) scalarRaw(table *ModeLOS, peak bool, o, d int) float64 {
	return w.net.at(table, peak, o, d)
}
