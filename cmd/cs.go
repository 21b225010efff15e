package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scaper-sim/scaper/internal/choiceset"
	"github.com/scaper-sim/scaper/internal/ioformat"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runner"
	"github.com/scaper-sim/scaper/internal/world"
)

type csFlags struct {
	maxAgents    int
	zoneSample   int
	parallelism  int
	alternatives int
	out          string
}

func newCsCmd() *cobra.Command {
	var f csFlags
	cmd := &cobra.Command{
		Use:   "cs",
		Short: "Generate choicesets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCs(f)
		},
	}
	cmd.Flags().IntVarP(&f.maxAgents, "maxAgents", "t", 0, "maximum number of agents (0 = all)")
	cmd.Flags().IntVarP(&f.zoneSample, "zones", "z", 0, "zone sample size per agent (0 = full network)")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "x", 1, "number of worker goroutines")
	cmd.Flags().IntVarP(&f.alternatives, "alternatives", "a", 500, "alternatives simulated per agent")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default: a timestamped path under cs/)")
	return cmd
}

// csWorker holds the per-worker-goroutine uniform(0,1) source;
// choiceset.Generate builds its own EV cache pool per agent, so there is
// no pooled resource to share beyond the RNG here.
type csWorker struct {
	rng func() float64
}

func runCs(f csFlags) error {
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
	observed, err := loadObservedTrips(flags.modelDir)
	if err != nil {
		log.Fatal(err, "loading observed trips")
		return err
	}
	ps, err := loadParameterSet(flags.modelDir, log)
	if err != nil {
		log.Fatal(err, "loading parameters")
		return err
	}
	ctx := buildContext(ps, log)
	agents = limitAgents(agents, f.maxAgents)

	outPath, err := resolveOutput(f.out, flags.modelDir, "cs")
	if err != nil {
		return err
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	sink := ioformat.NewChoicesetSink(outFile)
	defer sink.Close()

	pool := runner.New(runner.Options{Parallelism: f.parallelism}, log)
	zoneUtil := choiceset.DefaultZoneUtility(ctx, net)
	zoneSample := f.zoneSample
	if zoneSample <= 0 {
		zoneSample = net.NumZones
	}

	newWorker := func() (csWorker, error) {
		return csWorker{rng: newRNG(uint64(time.Now().UnixNano()))}, nil
	}
	closeWorker := func(csWorker) {}

	task := func(w csWorker, agent model.Agent) (model.Choiceset, error) {
		p := choiceset.Params{SampleZones: zoneSample, NumAlternatives: f.alternatives, RNG: w.rng}
		cs, ok := choiceset.Generate(ctx, agent, net, observed[agent.ID], zoneUtil, p, log)
		if !ok {
			return model.Choiceset{}, fmt.Errorf("agent %d: observed trips do not yield a feasible day-path", agent.ID)
		}
		return cs, nil
	}

	onResult := func(cs model.Choiceset) {
		sink.WriteChoiceset(cs)
	}

	failed, err := runner.Run(pool, agents, newWorker, closeWorker, task, onResult)
	if err != nil {
		log.Fatal(err, "choiceset worker setup failed")
		return err
	}
	log.Info("choiceset generation complete", map[string]interface{}{"agents": len(agents), "failed": failed, "out": outPath})
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}
