package model

// State is a value type describing a point in an agent's day: what they
// are doing, where, when, for how long, and with what vehicle and work
// history. States are immutable after creation and must only ever be
// constructed by the statespace package's transition functions.
//
// Invariants (enforced by statespace.Classify, not by this type):
//   - DayStart <= TimeOfDay <= DayEnd
//   - Duration <= MaxTrackedDuration(Activity)
//   - Activity == Home  => Location.Kind == LocResidence
//   - Activity == Work  => agent has a workzone AND Location.Kind == LocWorkplace
type State struct {
	Activity  Activity
	Location  Location
	TimeOfDay float64 // timesteps since DayStart; may be fractional
	Duration  int     // timesteps within the current activity, capped at MaxTrackedDuration(Activity)
	Vehicle   Vehicle
	HasWorked bool

	// WorkStreak is consecutive Work timesteps completed so far, tracked
	// independently of Duration (which saturates at MaxTrackedDuration and
	// so cannot, by itself, answer "has the agent worked exactly W steps"
	// once W exceeds that cap). Only meaningful for agents with a
	// MandatedWorkDuration; saturates at MandatedWorkDuration+1 (the point
	// past which the mandate can never fire again) so it cannot blow up
	// the EV cache's row count. Always 0 outside of Work.
	WorkStreak int
}

// CacheKeyState is the EV cache key: everything about a State except
// time and concrete zone. Two states with the same CacheKeyState share
// an EV cache row (indexed further by floor(time), and by zone only
// when the location is NonFixed).
type CacheKeyState struct {
	Activity     Activity
	LocationKind LocationKind
	FixedZone    int // concrete zone for Residence/Workplace, 0 for NonFixed
	Duration     int
	Vehicle      Vehicle
	HasWorked    bool
	WorkStreak   int
}

// CacheKey projects a State down to its CacheKeyState. Residence and
// Workplace carry their concrete zone in the key (there is exactly one
// EV scalar per such state); NonFixed locations do not (their EV is an
// entire row over zones, so the zone is not part of the key).
func (s State) CacheKey() CacheKeyState {
	k := CacheKeyState{
		Activity:     s.Activity,
		LocationKind: s.Location.Kind,
		Duration:     s.Duration,
		Vehicle:      s.Vehicle,
		HasWorked:    s.HasWorked,
		WorkStreak:   s.WorkStreak,
	}
	if s.Location.Kind != LocNonFixed {
		k.FixedZone = s.Location.Zone
	}
	return k
}
