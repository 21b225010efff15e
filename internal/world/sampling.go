package world

import (
	"math"

	"github.com/scaper-sim/scaper/internal/matx"
	"github.com/scaper-sim/scaper/internal/model"
)

// ZoneUtility scores every zone for the zone-importance MNL; index i is
// the utility of zone i in the full universe.
type ZoneUtility func(zone int) float64

// Sampler draws an importance-sampled zone subset for an agent.
type Sampler struct {
	net *NetworkData
	rng func() float64 // uniform(0,1) source, injected for reproducibility
}

// NewSampler builds a Sampler over net using rng as its uniform(0,1)
// source.
func NewSampler(net *NetworkData, rng func() float64) *Sampler {
	return &Sampler{net: net, rng: rng}
}

// Sample draws n zones (required zones first, the remainder by
// independent sampling with replacement from the MNL probability
// vector induced by utility), and returns the sampled World plus the
// probability vector used (needed by the correction matrix and, for
// estimation, by the zone-sampling likelihood).
//
// Open question (spec.md Design Notes #1): duplicate zones drawn by the
// with-replacement step are kept as-is, not deduplicated -- each draw is
// an independent Monte Carlo sample and the correction formula already
// divides by N * p(zone), so repeated zones simply appear more than
// once in the local zone list with the same correction.
func (s *Sampler) Sample(agent model.Agent, n int, utility ZoneUtility) (*World, []float64) {
	probs := mnlProbabilities(s.net.NumZones, utility)

	required := agent.RequiredZones()
	zones := make([]int, 0, n)
	seen := make(map[int]bool, len(required))
	for _, z := range required {
		if !seen[z] {
			zones = append(zones, z)
			seen[z] = true
		}
	}
	for len(zones) < n {
		zones = append(zones, drawCategorical(probs, s.rng()))
	}

	idx := make(map[int]int, len(zones))
	for i, z := range zones {
		idx[z] = i
	}

	numZ := len(zones)
	correction := make([]float64, numZ*numZ)
	for o := 0; o < numZ; o++ {
		for d := 0; d < numZ; d++ {
			if o == d {
				continue
			}
			p := probs[zones[d]]
			correction[o*numZ+d] = -math.Log(float64(n) * p)
		}
	}

	w := &World{
		net:         s.net,
		zones:       zones,
		globalToLoc: idx,
		sampled:     true,
		correction:  correction,
		pool:        matx.NewPool(numZ),
	}
	return w, probs
}

func mnlProbabilities(numZones int, utility ZoneUtility) []float64 {
	probs := make([]float64, numZones)
	maxU := math.Inf(-1)
	for z := 0; z < numZones; z++ {
		u := utility(z)
		probs[z] = u
		if u > maxU {
			maxU = u
		}
	}
	sum := 0.0
	for z := range probs {
		probs[z] = math.Exp(probs[z] - maxU)
		sum += probs[z]
	}
	for z := range probs {
		probs[z] /= sum
	}
	return probs
}

func drawCategorical(probs []float64, u float64) int {
	cum := 0.0
	for z, p := range probs {
		cum += p
		if u <= cum {
			return z
		}
	}
	return len(probs) - 1
}

// Corrections returns the zone-sampling correction Mat between origin
// and dest, zero on an unsampled World. Its shape follows whichever of
// origin/dest carries a concrete zone, matching every other LOS query.
func (w *World) Corrections(origin, dest model.Location) matx.Mat {
	shape := decisionShape(origin, dest)
	if !w.sampled {
		m := w.pool.Rent(shape)
		return m // zeroed, scale 1 => logical zero
	}

	oZone, _ := zoneOf(origin)
	dZone, _ := zoneOf(dest)
	n := len(w.zones)
	m := w.pool.Rent(shape)
	switch shape {
	case matx.Scalar:
		oi, di := w.globalToLoc[oZone], w.globalToLoc[dZone]
		m.Data[0] = w.correction[oi*n+di]
	case matx.RowVec:
		oi := w.globalToLoc[oZone]
		for d := 0; d < n; d++ {
			m.Data[d] = w.correction[oi*n+d]
		}
	case matx.ColVec:
		di := w.globalToLoc[dZone]
		for o := 0; o < n; o++ {
			m.Data[o] = w.correction[o*n+di]
		}
	case matx.ODMat:
		copy(m.Data, w.correction)
	}
	return m
}
