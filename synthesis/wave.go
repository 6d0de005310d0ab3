package synthesis

import (
	"math"
	"time"

	"go.viam.com/haptics/utils"
)

// A WaveEvent is a single shaped pulse. Its intensity follows the positive lobes of a sine raised
// to Sharpness, scaled by Target, and it expires Duration after Start.
type WaveEvent struct {
	Start     time.Time
	Target    uint8
	Frequency float64
	Sharpness float64
	Duration  time.Duration
}

// IntensityAt returns the wave intensity at now. ok is false once the wave has expired. Times
// before Start are treated as Start.
func (w WaveEvent) IntensityAt(now time.Time) (intensity uint8, ok bool) {
	elapsed := now.Sub(w.Start)
	if elapsed > w.Duration {
		return 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	progress := float64(elapsed) / float64(w.Duration)
	raw := math.Sin(progress * 2 * math.Pi * w.Frequency)
	if raw <= 0 {
		return 0, true
	}
	shaped := math.Pow(raw, w.Sharpness)
	return utils.RoundToUint8(shaped * float64(w.Target)), true
}

// Expired reports whether the wave is over at now.
func (w WaveEvent) Expired(now time.Time) bool {
	return now.Sub(w.Start) > w.Duration
}
