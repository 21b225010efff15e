package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/scaper-sim/scaper/internal/choiceset"
	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/ioformat"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runner"
	"github.com/scaper-sim/scaper/internal/simulator"
	"github.com/scaper-sim/scaper/internal/valuefunc"
	"github.com/scaper-sim/scaper/internal/world"
)

// sweep is a "min delta max" range, the -tt/-wd flag shape (§6): every
// value from min to max inclusive, stepping by delta. A single flag
// can't carry three positional values in cobra, so each is taken as a
// three-element float list ("min,delta,max").
type sweep struct {
	min, delta, max float64
}

func (s sweep) values() []float64 {
	if s.delta <= 0 {
		return []float64{0}
	}
	var out []float64
	for v := s.min; v <= s.max+1e-9; v += s.delta {
		out = append(out, v)
	}
	if len(out) == 0 {
		out = []float64{0}
	}
	return out
}

func parseSweep(raw []float64) (sweep, error) {
	if len(raw) == 0 {
		return sweep{}, nil
	}
	if len(raw) != 3 {
		return sweep{}, fmt.Errorf("expected exactly 3 values (min,delta,max), got %d", len(raw))
	}
	return sweep{min: raw[0], delta: raw[1], max: raw[2]}, nil
}

type derivFlags struct {
	maxAgents   int
	zoneSample  int
	parallelism int
	tt          []float64
	wd          []float64
	numDeriv    bool
	useSim      bool
	out         string
}

func newDerivCmd() *cobra.Command {
	var f derivFlags
	cmd := &cobra.Command{
		Use:   "deriv",
		Short: "Compute EV and its derivative with respect to travel time and wait time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeriv(f)
		},
	}
	cmd.Flags().IntVarP(&f.maxAgents, "maxAgents", "t", 0, "maximum number of agents (0 = all)")
	cmd.Flags().IntVarP(&f.zoneSample, "zones", "z", 0, "zone sample size per agent (0 = full network)")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "x", 1, "number of worker goroutines")
	cmd.Flags().Float64SliceVar(&f.tt, "tt", nil, "travel-time sweep as min,delta,max (minutes added to every LOS cell)")
	cmd.Flags().Float64SliceVar(&f.wd, "wd", nil, "wait-time sweep as min,delta,max (minutes added to every wait cell)")
	cmd.Flags().BoolVar(&f.numDeriv, "numDeriv", true, "report the central-difference derivative alongside EV (the only derivative this implementation computes)")
	cmd.Flags().BoolVar(&f.useSim, "sim", false, "evaluate EV along one simulated day-path's realized class, instead of the start-state logsum across all classes")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default: a timestamped path under sim/)")
	return cmd
}

// derivRow is one sweep-point's report: the perturbation applied, the
// (weighted-average, across classes) EV at the agent's start state, and
// the central-difference derivative with respect to that perturbation,
// epsilon = the sweep's own delta (neighbouring sweep points).
type derivRow struct {
	AgentID  int64
	Variable string // "tt" or "wd"
	Value    float64
	EV       float64
	Deriv    float64
	HasDeriv bool
}

func runDeriv(f derivFlags) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	ttSweep, err := parseSweep(f.tt)
	if err != nil {
		return fmt.Errorf("--tt: %w", err)
	}
	wdSweep, err := parseSweep(f.wd)
	if err != nil {
		return fmt.Errorf("--wd: %w", err)
	}

	net, err := loadNetwork(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading network")
		return err
	}
	agents, err := loadAgents(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading agents")
		return err
	}
	ps, err := loadParameterSet(flags.modelDir, log)
	if err != nil {
		log.Fatal(err, "loading parameters")
		return err
	}
	ctx := buildContext(ps, log)
	agents = limitAgents(agents, f.maxAgents)

	outPath, err := resolveOutput(f.out, flags.modelDir, "sim")
	if err != nil {
		return err
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	writer := ioformat.NewSweepSink(outFile)
	defer writer.Close()

	pool := runner.New(runner.Options{Parallelism: f.parallelism}, log)
	zoneUtil := choiceset.DefaultZoneUtility(ctx, net)

	newWorker := func() (evPoolWorker, error) {
		return evPoolWorker{evPool: evcache.NewPool(), rng: newRNG(uint64(42))}, nil
	}
	closeWorker := func(evPoolWorker) {}

	task := func(w evPoolWorker, agent model.Agent) ([]derivRow, error) {
		var rows []derivRow
		rows = append(rows, sweepRows(ctx, agent, net, zoneUtil, w, f, "tt", ttSweep, perturbTravelTime)...)
		rows = append(rows, sweepRows(ctx, agent, net, zoneUtil, w, f, "wd", wdSweep, perturbWaitTime)...)
		return rows, nil
	}
	onResult := func(rows []derivRow) {
		for _, r := range rows {
			writer.Write(r.AgentID, r.Variable, r.Value, r.EV, r.Deriv, r.HasDeriv)
		}
	}

	failed, err := runner.Run(pool, agents, newWorker, closeWorker, task, onResult)
	if err != nil {
		log.Fatal(err, "derivative worker setup failed")
		return err
	}
	log.Info("derivative sweep complete", map[string]interface{}{"agents": len(agents), "failed": failed, "out": outPath})
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}

// evPoolWorker is the per-worker-goroutine resource set for deriv: an
// EV cache pool and a uniform(0,1) source, reused across every agent
// the worker processes (§5).
type evPoolWorker struct {
	evPool *evcache.Pool
	rng    func() float64
}

// sweepRows evaluates EV (and its central-difference derivative) at
// every point of s, perturbing net by perturb(net, value) at each
// point.
func sweepRows(ctx *config.ModelContext, agent model.Agent, net *world.NetworkData, zoneUtil world.ZoneUtility, w evPoolWorker, f derivFlags, variable string, s sweep, perturb func(*world.NetworkData, float64) *world.NetworkData) []derivRow {
	values := s.values()
	evs := make([]float64, len(values))
	for i, v := range values {
		evs[i] = evaluateEV(ctx, agent, perturb(net, v), zoneUtil, w, f)
	}

	rows := make([]derivRow, len(values))
	for i, v := range values {
		row := derivRow{AgentID: agent.ID, Variable: variable, Value: v, EV: evs[i]}
		if f.numDeriv && s.delta > 0 && i > 0 && i < len(values)-1 {
			row.Deriv = (evs[i+1] - evs[i-1]) / (2 * s.delta)
			row.HasDeriv = true
		}
		rows[i] = row
	}
	return rows
}

// evaluateEV builds a fresh World/engine set against the (possibly
// perturbed) net and returns either the start-state logsum EV
// (weighted by class-membership probability) or, under --sim, the
// cumulative realized utility of one simulated day-path.
func evaluateEV(ctx *config.ModelContext, agent model.Agent, net *world.NetworkData, zoneUtil world.ZoneUtility, w evPoolWorker, f derivFlags) float64 {
	var ww *world.World
	if f.zoneSample > 0 {
		sampler := world.NewSampler(net, w.rng)
		n := f.zoneSample
		if required := len(agent.RequiredZones()); n < required {
			n = required
		}
		ww, _ = sampler.Sample(agent, n, zoneUtil)
	} else {
		ww = world.NewFull(net)
	}
	defer ww.Close()

	engines := simulator.NewClassEngines(ctx, agent, ww, w.evPool)
	start := model.State{Activity: model.Home, Location: agent.StartLocation(), TimeOfDay: ctx.DayStart}

	if f.useSim {
		sim := simulator.New(ctx, agent, ww, engines, w.rng)
		result := sim.Simulate()
		return pathValue(ctx, agent, ww, engines[result.LatentClass], result.Path)
	}

	probs := simulator.ClassProbabilities(ctx, agent)
	ev := 0.0
	for c, e := range engines {
		v := e.Value(start)
		if math.IsInf(v, -1) {
			continue
		}
		ev += probs[c] * v
	}
	return ev
}

// pathValue sums Phi along a realized day-path's own decisions -- the
// cumulative utility + continuation value actually realized, rather
// than the start state's logsum over every option.
func pathValue(ctx *config.ModelContext, agent model.Agent, w *world.World, e *valuefunc.Engine, path model.DayPath) float64 {
	total := 0.0
	for i, d := range path.Decs {
		total += e.Phi(path.States[i], d)
	}
	return total
}

func perturbTravelTime(net *world.NetworkData, delta float64) *world.NetworkData {
	if delta == 0 {
		return net
	}
	clone := *net
	clone.TravelTime = perturbModeMap(net.TravelTime, delta)
	return &clone
}

func perturbWaitTime(net *world.NetworkData, delta float64) *world.NetworkData {
	if delta == 0 {
		return net
	}
	clone := *net
	clone.TravelWait = perturbModeMap(net.TravelWait, delta)
	return &clone
}

func perturbModeMap(src map[model.Mode]*world.ModeLOS, delta float64) map[model.Mode]*world.ModeLOS {
	out := make(map[model.Mode]*world.ModeLOS, len(src))
	for m, los := range src {
		out[m] = &world.ModeLOS{Peak: addClamped(los.Peak, delta), OffPeak: addClamped(los.OffPeak, delta), HasPeak: los.HasPeak}
	}
	return out
}

func addClamped(vals []float64, delta float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		nv := v + delta
		if nv < 0 {
			nv = 0
		}
		out[i] = nv
	}
	return out
}
