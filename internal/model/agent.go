package model

// Agent is a single simulated individual. Agents are loaded by the
// InputLoader collaborator and are mutated only there; every other
// package treats an Agent as read-only.
type Agent struct {
	ID             int64
	Age            int
	Sex            string
	Income         float64
	HasKids        bool
	HomeZone       int
	WorkZone       int // meaningful only when HasWork is true
	HasWork        bool
	OwnsVehicle    bool // owns a car
	HasTransitCard bool
	Weight         float64

	// MandatedWorkDuration, when > 0, is the exact number of consecutive
	// timesteps the agent must spend working for HasWorked to become
	// true; working on past it flips HasWorked back to false (see
	// statespace's mandated-duration rule). 0 means no mandate (HasWorked
	// is sticky once true).
	MandatedWorkDuration int
}

// StartLocation is the agent's Residence location.
func (a Agent) StartLocation() Location {
	return Residence(a.HomeZone)
}

// RequiredZones returns the zones that must always be included in any
// importance-sampled World built for this agent: home, and work if the
// agent has one.
func (a Agent) RequiredZones() []int {
	if a.HasWork {
		return []int{a.HomeZone, a.WorkZone}
	}
	return []int{a.HomeZone}
}
