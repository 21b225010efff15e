package matx

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mat is a broadcast-shaped array with a scale: the logical value is
// Scale * Data. NumZones is the world size the Shape was allocated
// against (0 for Scalar, where it is unused).
type Mat struct {
	Scale    float64
	Shape    Shape
	NumZones int
	Data     []float64
}

// New wraps data (which must already have the right length for shape
// and numZones) into a Mat with the given scale.
func New(shape Shape, numZones int, scale float64, data []float64) Mat {
	return Mat{Scale: scale, Shape: shape, NumZones: numZones, Data: data}
}

// At indexes into the logical (unscaled * scale) value at flat offset i.
func (m Mat) At(i int) float64 {
	return m.Scale * m.Data[i]
}

// ScaleInplace multiplies m's scale by c. The underlying Data is left
// untouched; callers that need the scale folded into Data should call
// Materialize first.
func (m *Mat) ScaleInplace(c float64) {
	m.Scale *= c
}

// Materialize folds Scale into Data in place and resets Scale to 1, so
// later in-place elementwise ops (log/exp) operate on the true values.
func (m *Mat) Materialize() {
	if m.Scale == 1 {
		return
	}
	floats.Scale(m.Scale, m.Data)
	m.Scale = 1
}

// LogInplace takes the elementwise natural log of m's data (after
// folding in Scale). Zero entries become -Inf (math.Log(0) == -Inf,
// which is the correct Bad-state encoding).
func (m *Mat) LogInplace() {
	m.Materialize()
	for i, v := range m.Data {
		m.Data[i] = math.Log(v)
	}
}

// ExpInplace takes the elementwise exp of m's data (after folding in
// Scale).
func (m *Mat) ExpInplace() {
	m.Materialize()
	for i, v := range m.Data {
		m.Data[i] = math.Exp(v)
	}
}

// Sum returns the scaled sum of all cells.
func (m Mat) Sum() float64 {
	return m.Scale * floats.Sum(m.Data)
}

// Zero reports whether every logical cell is exactly zero.
func (m Mat) Zero() bool {
	if m.Scale == 0 {
		return true
	}
	for _, v := range m.Data {
		if v != 0 {
			return false
		}
	}
	return true
}
