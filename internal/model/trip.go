package model

// Trip is a single output record: an agent departs origin for destination
// by a mode to start an activity. Travel and arrival times are derived
// from LOS at serialization time, not stored here.
type Trip struct {
	AgentID     int64
	LatentClass int
	Activity    Activity
	Mode        Mode
	OriginZone  int
	DestZone    int
	DepartTime  float64 // timesteps since DayStart; exact, not minute-truncated
}

// DayPath is the ordered sequence of (State, Decision) pairs an agent's
// day is built from, ending in the decision that leads into an End
// state; the End state itself is not recorded.
type DayPath struct {
	Agent  Agent
	States []State
	Decs   []Decision
}

// Terminal returns the last state on the path.
func (p DayPath) Terminal() State {
	return p.States[len(p.States)-1]
}

// TripsEqual reports whether two Trip lists are element-wise equal; used by
// the choice-set generator to deduplicate alternatives.
func TripsEqual(a, b []Trip) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Activity != b[i].Activity || a[i].Mode != b[i].Mode ||
			a[i].OriginZone != b[i].OriginZone || a[i].DestZone != b[i].DestZone ||
			a[i].DepartTime != b[i].DepartTime {
			return false
		}
	}
	return true
}

// Alternative is one day-path in a Choiceset: a trip list plus a real
// sampling-correction term. Two alternatives are equal iff their trip
// lists are element-wise equal.
type Alternative struct {
	Trips      []Trip
	Correction float64
}

// Choiceset is an agent, the sampled zone index array the alternatives
// were built against, and the ordered list of Alternatives with the
// observed alternative at index 0.
type Choiceset struct {
	Agent        Agent
	SampledZones []int
	Alternatives []Alternative
}
