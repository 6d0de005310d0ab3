package utils

import "math"

// Clamp limits v to the closed range [lo, hi]. NaN is mapped to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundToUint8 rounds v half away from zero and clamps it into [0, 255].
func RoundToUint8(v float64) uint8 {
	return uint8(Clamp(math.Round(v), 0, math.MaxUint8))
}
