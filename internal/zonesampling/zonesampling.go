// Package zonesampling estimates the zs_logpop/zs_logemp coefficients
// of the zone-importance-sampling utility (§4.2) by maximum likelihood:
// every observed trip's destination zone is one multinomial-logit draw
// over the full zone universe, weighted by log population and log
// employment. Observations are pooled into a single per-zone
// destination-count vector and fit with one Gorgonia graph, trained by
// the usual NewTapeMachine/Grad/Solver.Step loop.
package zonesampling

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/scaper-sim/scaper/internal/initwfn"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/runlog"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/solver"
	"github.com/scaper-sim/scaper/internal/world"
)

// Options configures a single Fit run.
type Options struct {
	Solver     *solver.Solver
	Init       *initwfn.InitWFn
	Iterations int
	Log        *runlog.Logger
}

// Result is the fitted zone-importance utility.
type Result struct {
	LogPopCoefficient float64
	LogEmpCoefficient float64
	NegLogLikelihood  float64
	Iterations        int
}

// Fit estimates zs_logpop and zs_logemp against every observed trip's
// destination zone. It returns scaperr.InfeasibleObservation if trips
// contains no observations, and scaperr.NumericalFailure if the
// Gorgonia graph fails to construct or run.
func Fit(net *world.NetworkData, trips []model.Trip, opts Options) (Result, error) {
	if len(trips) == 0 {
		return Result{}, scaperr.New(scaperr.InfeasibleObservation, "zonesampling.Fit: no observed trips to fit against")
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 500
	}

	counts := make([]float64, net.NumZones)
	for _, t := range trips {
		if t.DestZone < 0 || t.DestZone >= net.NumZones {
			return Result{}, scaperr.New(scaperr.InfeasibleObservation, "zonesampling.Fit: trip destination zone %d out of range [0,%d)", t.DestZone, net.NumZones)
		}
		counts[t.DestZone]++
	}

	g := G.NewGraph()

	features := make([]float64, 2*net.NumZones)
	copy(features[:net.NumZones], net.LogPop)
	copy(features[net.NumZones:], net.LogEmp)
	featuresT := G.NewMatrix(g, tensor.Float64,
		G.WithShape(2, net.NumZones),
		G.WithName("zoneFeatures"),
	)
	if err := G.Let(featuresT, tensor.NewDense(tensor.Float64, featuresT.Shape(), tensor.WithBacking(features))); err != nil {
		return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: binding zone features")
	}

	countsT := G.NewMatrix(g, tensor.Float64,
		G.WithShape(1, net.NumZones),
		G.WithName("destinationCounts"),
	)
	if err := G.Let(countsT, tensor.NewDense(tensor.Float64, countsT.Shape(), tensor.WithBacking(counts))); err != nil {
		return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: binding destination counts")
	}

	initFn := G.Zeroes()
	if opts.Init != nil {
		initFn = opts.Init.Fn()
	}
	w := G.NewMatrix(g, tensor.Float64,
		G.WithShape(1, 2),
		G.WithName("zoneImportanceWeights"),
		G.WithInit(initFn),
	)

	u := G.Must(G.Mul(w, featuresT))
	p := G.Must(G.SoftMax(u))
	logp := G.Must(G.Log(p))
	weighted := G.Must(G.HadamardProd(logp, countsT))
	logLik := G.Must(G.Sum(weighted))
	negLogLik := G.Must(G.Neg(logLik))

	if _, err := G.Grad(negLogLik, w); err != nil {
		return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: building gradient graph")
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()

	s := opts.Solver
	if s == nil {
		var err error
		s, err = solver.NewDefaultAdam(0.01, 1)
		if err != nil {
			return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: building default solver")
		}
	}

	var lastLoss float64
	for i := 0; i < opts.Iterations; i++ {
		if err := vm.RunAll(); err != nil {
			return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: running training graph at iteration %d", i)
		}
		if err := s.Step([]G.ValueGrad{w}); err != nil {
			return Result{}, scaperr.Wrap(scaperr.NumericalFailure, err, "zonesampling.Fit: solver step at iteration %d", i)
		}
		lastLoss = negLogLik.Value().Data().(float64)
		vm.Reset()

		if opts.Log != nil && i%50 == 0 {
			opts.Log.Info("zone-importance training step", map[string]interface{}{
				"iteration": i,
				"negLogLik": lastLoss,
			})
		}
	}

	weights := w.Value().Data().([]float64)
	return Result{
		LogPopCoefficient: weights[0],
		LogEmpCoefficient: weights[1],
		NegLogLikelihood:  lastLoss,
		Iterations:        opts.Iterations,
	}, nil
}
