package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scaper-sim/scaper/internal/choiceset"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/ioformat"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runner"
	"github.com/scaper-sim/scaper/internal/simulator"
	"github.com/scaper-sim/scaper/internal/world"
)

type simFlags struct {
	maxAgents   int
	zoneSample  int
	parallelism int
	out         string
}

func newSimCmd() *cobra.Command {
	var f simFlags
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate daypaths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(f)
		},
	}
	cmd.Flags().IntVarP(&f.maxAgents, "maxAgents", "t", 0, "maximum number of agents to simulate (0 = all)")
	cmd.Flags().IntVarP(&f.zoneSample, "zones", "z", 0, "zone sample size per agent (0 = full network)")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "x", 1, "number of worker goroutines")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default: a timestamped path under sim/)")
	return cmd
}

// simWorker is the per-worker-goroutine resource set §5 requires be
// built once per thread rather than once per agent: an EV cache pool and
// (when zone sampling is in effect) a Sampler shared across every agent
// that worker processes.
type simWorker struct {
	net     *world.NetworkData
	evPool  *evcache.Pool
	sampler *world.Sampler
	rng     func() float64
}

func runSim(f simFlags) error {
	log, err := newLogger()
	if err != nil {
		return err
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

	sink := ioformat.NewTripSink(outFile, net, func(t model.Trip) float64 { return t.DepartTime })
	defer sink.Close()

	pool := runner.New(runner.Options{Parallelism: f.parallelism}, log)
	zoneUtil := choiceset.DefaultZoneUtility(ctx, net)

	newWorker := func() (simWorker, error) {
		w := simWorker{net: net, evPool: evcache.NewPool(), rng: newRNG(uint64(time.Now().UnixNano()))}
		if f.zoneSample > 0 {
			w.sampler = world.NewSampler(net, w.rng)
		}
		return w, nil
	}
	closeWorker := func(simWorker) {}

	task := func(w simWorker, agent model.Agent) ([]model.Trip, error) {
		var full *world.World
		if w.sampler != nil {
			n := f.zoneSample
			if required := len(agent.RequiredZones()); n < required {
				n = required
			}
			full, _ = w.sampler.Sample(agent, n, zoneUtil)
		} else {
			full = world.NewFull(net)
		}
		defer full.Close()

		engines := simulator.NewClassEngines(ctx, agent, full, w.evPool)
		sim := simulator.New(ctx, agent, full, engines, w.rng)
		result := sim.Simulate()
		return choiceset.ToTrips(agent, result.Path, result.LatentClass), nil
	}

	onResult := func(trips []model.Trip) {
		if err := sink.WriteTrips(trips); err != nil {
			log.Error(err, "writing simulated trips")
		}
	}

	failed, err := runner.Run(pool, agents, newWorker, closeWorker, task, onResult)
	if err != nil {
		log.Fatal(err, "simulation worker setup failed")
		return err
	}
	log.Info("simulation complete", map[string]interface{}{"agents": len(agents), "failed": failed, "out": outPath})
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}
