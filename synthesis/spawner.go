package synthesis

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"go.viam.com/haptics/utils"
)

// A Spawner turns filtered samples into waves. It remembers the magnitude of the last sample so
// that sudden changes spawn faster and sharper waves.
type Spawner struct {
	cfg           Config
	maxFrequency  float64
	prevMagnitude float64
}

// NewSpawner returns a spawner using the wave parameters of cfg.
func NewSpawner(cfg Config) *Spawner {
	return &Spawner{cfg: cfg, maxFrequency: cfg.EffectiveMaxFrequency()}
}

// TargetIntensity maps a magnitude onto [0, 255], MaxMagnitude and above being 255.
func (s *Spawner) TargetIntensity(magnitude float64) uint8 {
	return utils.RoundToUint8(magnitude / s.cfg.MaxMagnitude * math.MaxUint8)
}

// Spawn returns the wave caused by a filtered sample at now, if any. A sample whose target
// intensity rounds to 0 spawns nothing. The previous magnitude is updated either way.
func (s *Spawner) Spawn(filtered r3.Vector, now time.Time) (WaveEvent, bool) {
	magnitude := filtered.Norm()
	delta := math.Abs(magnitude - s.prevMagnitude)
	s.prevMagnitude = magnitude

	target := s.TargetIntensity(magnitude)
	if target == 0 {
		return WaveEvent{}, false
	}
	return WaveEvent{
		Start:     now,
		Target:    target,
		Frequency: utils.Clamp(s.cfg.BaseFrequency+s.cfg.FrequencySensitivity*delta, s.cfg.BaseFrequency, s.maxFrequency),
		Sharpness: utils.Clamp(s.cfg.BaseSharpness+s.cfg.SharpnessSensitivity*delta, MinSharpness, MaxSharpness),
		Duration:  s.cfg.WaveDuration,
	}, true
}

// Magnitude returns the magnitude of the last sample given to Spawn.
func (s *Spawner) Magnitude() float64 {
	return s.prevMagnitude
}
