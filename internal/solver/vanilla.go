package solver

import G "gorgonia.org/gorgonia"

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver.
func NewVanilla(stepSize float64, batchSize int, clip float64) (*Solver, error) {
	return New(Vanilla, VanillaConfig{StepSize: stepSize, Batch: batchSize, Clip: clip})
}

// Create returns a new Gorgonia Vanilla Solver as described by v.
func (v VanillaConfig) Create() G.Solver {
	if v.Clip <= 0 {
		return G.NewVanillaSolver(
			G.WithLearnRate(v.StepSize),
			G.WithBatchSize(float64(v.Batch)),
		)
	}
	return G.NewVanillaSolver(
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
		G.WithClip(v.Clip),
	)
}

// ValidType reports whether t is the Vanilla solver type.
func (v VanillaConfig) ValidType(t Type) bool { return t == Vanilla }
