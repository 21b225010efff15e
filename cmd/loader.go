package cmd

import (
	"os"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/ioformat"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runlog"
	"github.com/scaper-sim/scaper/internal/world"
)

// loadNetwork reads the zones and network input files and merges them
// into one world.NetworkData; LoadNetwork alone can't know the zone
// count or land-use columns, both of which only the zones file carries.
func loadNetwork(modelDir string) (*world.NetworkData, error) {
	zonesFile, err := os.Open(inputPath(modelDir, "zones.csv"))
	if err != nil {
		return nil, err
	}
	defer zonesFile.Close()
	zones, err := ioformat.LoadZones(zonesFile)
	if err != nil {
		return nil, err
	}

	networkFile, err := os.Open(inputPath(modelDir, "network.csv"))
	if err != nil {
		return nil, err
	}
	defer networkFile.Close()
	net, err := ioformat.LoadNetwork(networkFile, zones.NumZones)
	if err != nil {
		return nil, err
	}

	net.LogPop = zones.LogPop
	net.LogEmp = zones.LogEmp
	net.ParkingRatePerHour = zones.ParkingRatePerHour
	net.Peaks = defaultPeakSchedule()
	return net, nil
}

// defaultPeakSchedule is the AM/PM rush-hour window assumed when no
// input file carries peak timing (§6's file formats never mention one):
// a 7:00-9:00 AM and 16:00-18:00 PM full-peak window with a one-hour
// cosine-smoothed transition on each side, given in minutes since
// midnight and used as-is; that matches timesteps since midnight under
// buildContext's one-minute TimestepMinutes.
func defaultPeakSchedule() world.PeakSchedule {
	return world.PeakSchedule{
		AM: world.Window{Start: 7 * 60, End: 9 * 60, Buffer: 60},
		PM: world.Window{Start: 16 * 60, End: 18 * 60, Buffer: 60},
	}
}

func loadAgents(modelDir string) ([]model.Agent, error) {
	f, err := os.Open(inputPath(modelDir, "agents.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioformat.LoadAgents(f)
}

func loadObservedTrips(modelDir string) (map[int64][]model.Trip, error) {
	f, err := os.Open(inputPath(modelDir, "trips.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioformat.LoadTrips(f)
}

func loadParameterSet(modelDir string, log *runlog.Logger) (*config.ParameterSet, error) {
	f, err := os.Open(inputPath(modelDir, "parameters.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	params, err := ioformat.LoadParameters(f)
	if err != nil {
		return nil, err
	}
	return config.NewParameterSet(params, log), nil
}

// buildContext assembles a ModelContext from the loaded parameter set,
// per §3/§4.3's fixed timestep geometry: a 1440-timestep day (minute
// granularity) from midnight to midnight, one decision per timestep.
// NoCarModes defaults to every mode (spec.md Design Notes #2: the
// car-ownership gate is a feasibility label, not a mode restriction).
func buildContext(ps *config.ParameterSet, log *runlog.Logger) *config.ModelContext {
	return &config.ModelContext{
		DayStart:         0,
		DayEnd:           1440,
		DecisionStepSize: 1,
		TimestepMinutes:  1,
		NumLatentClasses: ps.NumClasses(),
		NoCarModes:       model.AllModes(),
		Params:           ps,
		Utility:          config.LinearUtility{},
		ClassUtil:        config.LinearUtility{},
		Log:              log,
	}
}

// limitAgents truncates agents to maxAgents (the "-t N" flag), or
// returns it unmodified when maxAgents <= 0 ("process every agent").
func limitAgents(agents []model.Agent, maxAgents int) []model.Agent {
	if maxAgents > 0 && maxAgents < len(agents) {
		return agents[:maxAgents]
	}
	return agents
}
