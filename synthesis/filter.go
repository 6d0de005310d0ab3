package synthesis

import "github.com/golang/geo/r3"

// HighPassFilter3D is a one-pole high-pass filter applied independently to each axis with the same
// coefficient. It starts from a zero state.
type HighPassFilter3D struct {
	alpha   float64
	prevIn  r3.Vector
	prevOut r3.Vector
}

// NewHighPassFilter3D returns a filter with the given coefficient. Larger values keep more of the
// high frequency content.
func NewHighPassFilter3D(alpha float64) *HighPassFilter3D {
	return &HighPassFilter3D{alpha: alpha}
}

// Filter returns alpha * (prevOut + in - prevIn) and records in and the result as the new state.
func (f *HighPassFilter3D) Filter(in r3.Vector) r3.Vector {
	out := f.prevOut.Add(in).Sub(f.prevIn).Mul(f.alpha)
	f.prevIn = in
	f.prevOut = out
	return out
}
