package world

import "math"

// Window describes one peak period: [Start, End] is the full-peak
// interval (proportion 1), with a cosine-smoothed transition of width
// Buffer on either side.
type Window struct {
	Start, End, Buffer float64
}

// cosSmooth is the not-uniquely-specified-in-source smoothing function,
// chosen as 0.5*(1-cos(pi*x)) over the buffer unit interval: it is
// C1-continuous at x=0 (value 0, slope 0) and x=1 (value 1, slope 0).
func cosSmooth(x float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*x))
}

func (w Window) proportion(t float64) float64 {
	switch {
	case t < w.Start-w.Buffer || t > w.End+w.Buffer:
		return 0
	case t >= w.Start && t <= w.End:
		return 1
	case t < w.Start:
		if w.Buffer == 0 {
			return 0
		}
		return cosSmooth((t - (w.Start - w.Buffer)) / w.Buffer)
	default: // t > w.End
		if w.Buffer == 0 {
			return 0
		}
		return 1 - cosSmooth((t-w.End)/w.Buffer)
	}
}

// PeakSchedule holds the two independent peak windows (AM and PM).
type PeakSchedule struct {
	AM, PM Window
}

// ProportionPeak returns the blended peak proportion in [0,1] at time t,
// continuous everywhere, C1 at every window boundary. The AM and PM
// windows are independent; when (pathologically) both contribute at the
// same t the larger proportion wins, which keeps the result in [0,1].
func (s PeakSchedule) ProportionPeak(t float64) float64 {
	p := s.AM.proportion(t)
	if pm := s.PM.proportion(t); pm > p {
		p = pm
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
