package valuefunc

import (
	"math"

	"github.com/scaper-sim/scaper/internal/matx"
)

// addEvUtilityConst folds one interpolated EV value into every cell of
// acc -- the Continue/Start/End/fixed-destination-Travel case, where
// every option cell shares the same continuation state and arrival
// time. This is the "constant uniform time" branch of the interpolation
// kernel described by §4.5.
func addEvUtilityConst(ev []float64, acc *matx.Mat, t float64, offset, dayLength int) {
	acc.Materialize()
	v := interpolate(ev, t, offset, dayLength)
	for i := range acc.Data {
		acc.Data[i] += v
	}
}

// addEvUtilityVector folds a per-destination interpolated EV value into
// acc -- the NonFixed(All) Travel case, where arrival time and the EV
// row offset both vary by destination (timeData/offsets, one entry per
// acc cell). This is the program's hot path: a 4-wide unrolled loop with
// a scalar tail for the remainder.
func addEvUtilityVector(ev []float64, acc *matx.Mat, timeData []float64, offsets []int, dayLength int) {
	acc.Materialize()
	n := len(acc.Data)
	i := 0
	for ; i+4 <= n; i += 4 {
		acc.Data[i] += interpolate(ev, timeData[i], offsets[i], dayLength)
		acc.Data[i+1] += interpolate(ev, timeData[i+1], offsets[i+1], dayLength)
		acc.Data[i+2] += interpolate(ev, timeData[i+2], offsets[i+2], dayLength)
		acc.Data[i+3] += interpolate(ev, timeData[i+3], offsets[i+3], dayLength)
	}
	for ; i < n; i++ {
		acc.Data[i] += interpolate(ev, timeData[i], offsets[i], dayLength)
	}
}

// interpolate is the per-cell body of addEvUtility: t is clamped to
// DayLength (the trailing sentinel slots hold -Inf so reading one past
// DayLength is always safe), then linearly blended between the floor
// and ceil anchors of ev starting at offset. The ceil anchor is not read
// when its weight is exactly zero, so an -Inf sentinel never multiplies
// through as 0 * -Inf = NaN.
func interpolate(ev []float64, t float64, offset, dayLength int) float64 {
	if t > float64(dayLength) {
		t = float64(dayLength)
	}
	fl := math.Floor(t)
	a := t - fl
	idx := offset + int(fl)
	v := (1 - a) * ev[idx]
	if a != 0 {
		v += a * ev[idx+1]
	}
	return v
}
