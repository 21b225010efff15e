package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// RMSPropConfig describes a configuration of the RMSProp solver.
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Eta      float64 // only the Gorgonia default of 0.001 is supported
	Rho      float64
	Batch    int
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultRMSProp returns a new RMSProp Solver with default
// hyperparameters.
func NewDefaultRMSProp(stepSize float64, batchSize int) (*Solver, error) {
	return NewRMSProp(stepSize, 1e-8, 0.001, 0.999, batchSize, -1.0)
}

// NewRMSProp returns a new RMSProp Solver.
func NewRMSProp(stepSize, epsilon, eta, rho float64, batchSize int, clip float64) (*Solver, error) {
	if eta != 0.001 {
		return nil, fmt.Errorf("solver.NewRMSProp: only the default value of eta = 0.001 is supported")
	}
	return New(RMSProp, RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Eta:      eta,
		Rho:      rho,
		Batch:    batchSize,
		Clip:     clip,
	})
}

// Create returns a new Gorgonia RMSProp Solver as described by r. Eta is
// not passed through: Gorgonia's RMSProp only supports its own default
// and has no WithEta option.
func (r RMSPropConfig) Create() G.Solver {
	if r.Clip <= 0 {
		return G.NewRMSPropSolver(
			G.WithLearnRate(r.StepSize),
			G.WithEps(r.Epsilon),
			G.WithRho(r.Rho),
			G.WithBatchSize(float64(r.Batch)),
		)
	}
	return G.NewRMSPropSolver(
		G.WithLearnRate(r.StepSize),
		G.WithEps(r.Epsilon),
		G.WithRho(r.Rho),
		G.WithBatchSize(float64(r.Batch)),
		G.WithClip(r.Clip),
	)
}

// ValidType reports whether t is the RMSProp solver type.
func (r RMSPropConfig) ValidType(t Type) bool { return t == RMSProp }
