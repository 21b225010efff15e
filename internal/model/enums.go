// Package model implements the value types of the simulation's state
// space: modes, vehicles, activities, locations, states, decisions,
// agents, trips, and day-paths.
package model

// Mode is a travel mode. The set is extensible; new modes are appended
// without renumbering existing ones.
type Mode int

const (
	Car Mode = iota
	Transit
	Walk
	Bike
	numModes
)

var modeNames = [...]string{"Car", "Transit", "Walk", "Bike"}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return "UnknownMode"
	}
	return modeNames[m]
}

// AllModes returns every defined Mode in declaration order.
func AllModes() []Mode {
	out := make([]Mode, numModes)
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// Vehicle is the vehicle an agent currently holds, derived from Mode on
// departure from Residence and cleared on arrival at Residence.
type Vehicle int

const (
	NoVehicle Vehicle = iota
	VehicleCar
	VehicleBike
)

func (v Vehicle) String() string {
	switch v {
	case VehicleCar:
		return "Car"
	case VehicleBike:
		return "Bike"
	default:
		return "None"
	}
}

// VehicleOf returns the Vehicle an agent picks up by travelling with m.
func VehicleOf(m Mode) Vehicle {
	switch m {
	case Car:
		return VehicleCar
	case Bike:
		return VehicleBike
	default:
		return NoVehicle
	}
}

// Activity is the activity an agent is engaged in. Depart and Arrive are
// internal phase markers splitting the theoretical "end travel, start"
// joint choice into three successive transitions.
type Activity int

const (
	Depart Activity = iota
	Arrive
	Home
	Work
	Shop
	Other
	numActivities
)

var activityNames = [...]string{"Depart", "Arrive", "Home", "Work", "Shop", "Other"}

func (a Activity) String() string {
	if int(a) < 0 || int(a) >= len(activityNames) {
		return "UnknownActivity"
	}
	return activityNames[a]
}

// DiscretionaryActivities is the configured set of activities that may be
// started while at a NonFixed location. Home and Work are excluded since
// those are only reachable at Residence/Workplace locations.
func DiscretionaryActivities() []Activity {
	return []Activity{Shop, Other}
}

// IsPersisting reports whether a is a "real" activity (as opposed to the
// Depart/Arrive phase markers).
func (a Activity) IsPersisting() bool {
	return a != Depart && a != Arrive
}
