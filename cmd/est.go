package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/cost"
	"github.com/scaper-sim/scaper/internal/initwfn"
	"github.com/scaper-sim/scaper/internal/ioformat"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/optimize"
	"github.com/scaper-sim/scaper/internal/runlog"
	"github.com/scaper-sim/scaper/internal/runner"
	"github.com/scaper-sim/scaper/internal/world"
	"github.com/scaper-sim/scaper/internal/zonesampling"
)

type estFlags struct {
	parallelism int
	restarts    int
	hessian     bool
	out         string
}

func newEstCmd() *cobra.Command {
	var f estFlags
	cmd := &cobra.Command{
		Use:   "est",
		Short: "Fit estimated parameters by maximum likelihood",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEst(f)
		},
	}
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "x", 1, "number of worker goroutines")
	cmd.Flags().IntVarP(&f.restarts, "restarts", "n", 1, "number of restarts; restarts after the first are randomized by uniform(0,2)")
	cmd.Flags().BoolVarP(&f.hessian, "hessian", "H", false, "use the numerical Hessian for standard errors instead of the BFGS estimate")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output parameter file (default: a timestamped path under est/)")
	cmd.AddCommand(newEstZonesamplingCmd())
	return cmd
}

// precomputeWorker carries no per-worker state: each task rebuilds its
// own World from the Choiceset's SampledZones, since Precompute just
// needs zone-indexed LOS lookups and a Mat pool -- the zone-sampling
// correction is already baked into each Alternative.
type precomputeWorker struct{}

func runEst(f estFlags) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	net, err := loadNetwork(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading network")
		return err
	}
	ps, err := loadParameterSet(flags.modelDir, log)
	if err != nil {
		log.Fatal(err, "loading parameters")
		return err
	}
	ctx := buildContext(ps, log)

	choicesetFile, err := os.Open(inputPath(flags.modelDir, "choicesets.csv"))
	if err != nil {
		log.Fatal(err, "loading choicesets")
		return err
	}
	defer choicesetFile.Close()
	sets, err := ioformat.LoadChoicesets(choicesetFile)
	if err != nil {
		log.Fatal(err, "loading choicesets")
		return err
	}
	agents, err := loadAgents(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading agents")
		return err
	}
	byID := make(map[int64]model.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	for i := range sets {
		if a, ok := byID[sets[i].Agent.ID]; ok {
			sets[i].Agent = a
		}
	}

	paramIndex := config.ParamIndex(ps)

	pool := runner.New(runner.Options{Parallelism: f.parallelism}, log)
	newWorker := func() (precomputeWorker, error) { return precomputeWorker{}, nil }
	closeWorker := func(precomputeWorker) {}

	observations := make([]cost.Observation, 0, len(sets))
	task := func(_ precomputeWorker, cs model.Choiceset) (cost.Observation, error) {
		w := world.NewFromZones(net, cs.SampledZones)
		defer w.Close()
		return cost.Precompute(ctx, w, cs, paramIndex), nil
	}
	onResult := func(obs cost.Observation) { observations = append(observations, obs) }

	if _, err := runner.Run(pool, sets, newWorker, closeWorker, task, onResult); err != nil {
		log.Fatal(err, "precompute worker setup failed")
		return err
	}

	if err := cost.ValidateObserved(observations, paramIndex); err != nil {
		log.Fatal(err, "estimation data validation")
		return err
	}
	f64, err := cost.New(observations, paramIndex)
	if err != nil {
		log.Fatal(err, "building cost function")
		return err
	}

	estimated := ps.Estimated()
	x0 := make([]float64, len(estimated))
	for i, name := range estimated {
		x0[i] = ps.Value(name)
	}

	opts := optimize.DefaultOptions()
	opts.NumericalHessian = f.hessian

	rng := newRNG(uint64(0))
	best := optimize.Maximize(f64, x0, opts)
	for r := 1; r < f.restarts; r++ {
		start := make([]float64, len(x0))
		for i := range start {
			start[i] = x0[i] * (2 * rng())
		}
		candidate := optimize.Maximize(f64, start, opts)
		log.Info("estimation restart", map[string]interface{}{"restart": r, "value": candidate.Value, "status": candidate.Status.String()})
		if candidate.Status == optimize.Success && (best.Status != optimize.Success || candidate.Value > best.Value) {
			best = candidate
		}
	}

	for i, name := range estimated {
		ps.Set(name, best.X[i])
	}

	outPath, err := resolveOutput(f.out, flags.modelDir, "est")
	if err != nil {
		return err
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	if err := ioformat.WriteParameters(outFile, parameterTable(ps)); err != nil {
		return err
	}

	log.Info("estimation complete", map[string]interface{}{"status": best.Status.String(), "value": best.Value, "iterations": best.Iterations, "out": outPath})
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}

// parameterTable reassembles the full parameter table, in its original
// order, for re-serialization after estimation installs fitted values.
func parameterTable(ps *config.ParameterSet) []config.Parameter {
	names := ps.Names()
	out := make([]config.Parameter, len(names))
	for i, name := range names {
		p, _ := ps.Get(name)
		out[i] = p
	}
	return out
}

type zsFlags struct {
	restarts   int
	iterations int
	out        string
}

func newEstZonesamplingCmd() *cobra.Command {
	var f zsFlags
	cmd := &cobra.Command{
		Use:   "zonesampling",
		Short: "Fit the zone-importance-sampling coefficients by pooled maximum likelihood",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstZonesampling(f)
		},
	}
	cmd.Flags().IntVarP(&f.restarts, "restarts", "n", 1, "number of restarts; restarts after the first are randomized by uniform(0,2)")
	cmd.Flags().IntVar(&f.iterations, "iterations", 500, "Adam iterations per restart")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output parameter file (default: a timestamped path under est/)")
	return cmd
}

func runEstZonesampling(f zsFlags) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	net, err := loadNetwork(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading network")
		return err
	}
	ps, err := loadParameterSet(flags.modelDir, log)
	if err != nil {
		log.Fatal(err, "loading parameters")
		return err
	}
	observedByAgent, err := loadObservedTrips(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading observed trips")
		return err
	}
	var trips []model.Trip
	for _, ts := range observedByAgent {
		trips = append(trips, ts...)
	}

	best, err := fitZonesamplingRestarts(net, trips, f, log)
	if err != nil {
		log.Fatal(err, "fitting zone-importance-sampling coefficients")
		return err
	}

	ps.Set("zs_logpop", best.LogPopCoefficient)
	ps.Set("zs_logemp", best.LogEmpCoefficient)

	outPath, err := resolveOutput(f.out, flags.modelDir, "est")
	if err != nil {
		return err
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	if err := ioformat.WriteParameters(outFile, parameterTable(ps)); err != nil {
		return err
	}

	log.Info("zone-importance-sampling fit complete", map[string]interface{}{
		"zs_logpop": best.LogPopCoefficient, "zs_logemp": best.LogEmpCoefficient,
		"negLogLikelihood": best.NegLogLikelihood, "out": outPath,
	})
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}

// fitZonesamplingRestarts runs zonesampling.Fit once from the default
// (zero) start and, for every further restart, from a uniform(0,2) draw
// per §6's "-n" restart semantics, keeping the lowest-negative-
// log-likelihood result.
func fitZonesamplingRestarts(net *world.NetworkData, trips []model.Trip, f zsFlags, log *runlog.Logger) (zonesampling.Result, error) {
	best, err := zonesampling.Fit(net, trips, zonesampling.Options{Iterations: f.iterations, Log: log})
	if err != nil {
		return zonesampling.Result{}, err
	}

	for r := 1; r < f.restarts; r++ {
		init, err := initwfn.NewUniform(0, 2)
		if err != nil {
			return zonesampling.Result{}, err
		}
		candidate, err := zonesampling.Fit(net, trips, zonesampling.Options{Iterations: f.iterations, Init: init, Log: log})
		if err != nil {
			return zonesampling.Result{}, err
		}
		log.Info("zone-importance-sampling restart", map[string]interface{}{"restart": r, "negLogLikelihood": candidate.NegLogLikelihood})
		if candidate.NegLogLikelihood < best.NegLogLikelihood {
			best = candidate
		}
	}
	return best, nil
}
