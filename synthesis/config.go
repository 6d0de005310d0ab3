// Package synthesis turns acceleration telemetry into haptic motor intensities: a high-pass filter
// feeds a wave spawner, whose waves are merged by a mixer and written to an actuator by an Engine
// on a fixed tick.
package synthesis

import (
	"time"

	"github.com/pkg/errors"
)

// Default tuning, as shipped with the X-Plane plugin.
const (
	DefaultTickInterval         = 20 * time.Millisecond
	DefaultWaveDuration         = 200 * time.Millisecond
	DefaultHighPassAlpha        = 0.9
	DefaultMaxMagnitude         = 1.5
	DefaultMinMotorIntensity    = 3
	DefaultBaseFrequency        = 1.0
	DefaultFrequencySensitivity = 2.0
	DefaultBaseSharpness        = 1.0
	DefaultSharpnessSensitivity = 2.0
	DefaultSampleBuffer         = 16
)

// Sharpness is always clamped into [MinSharpness, MaxSharpness].
const (
	MinSharpness = 1.0
	MaxSharpness = 5.0
)

// Config holds every tunable of the synthesis pipeline. An Engine copies it once when constructed;
// changing a Config afterwards has no effect on a running engine.
type Config struct {
	TickInterval      time.Duration
	WaveDuration      time.Duration
	HighPassAlpha     float64
	MaxMagnitude      float64
	MinMotorIntensity uint8

	BaseFrequency        float64
	FrequencySensitivity float64
	// MaxFrequency caps the frequency of spawned waves. Zero picks the highest frequency at which
	// every positive lobe still spans two ticks, see EffectiveMaxFrequency.
	MaxFrequency float64

	BaseSharpness        float64
	SharpnessSensitivity float64

	// SampleBuffer is the capacity of the telemetry channel. Older samples are dropped when it fills.
	SampleBuffer int
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		TickInterval:         DefaultTickInterval,
		WaveDuration:         DefaultWaveDuration,
		HighPassAlpha:        DefaultHighPassAlpha,
		MaxMagnitude:         DefaultMaxMagnitude,
		MinMotorIntensity:    DefaultMinMotorIntensity,
		BaseFrequency:        DefaultBaseFrequency,
		FrequencySensitivity: DefaultFrequencySensitivity,
		BaseSharpness:        DefaultBaseSharpness,
		SharpnessSensitivity: DefaultSharpnessSensitivity,
		SampleBuffer:         DefaultSampleBuffer,
	}
}

// Validate ensures all parts of the config are valid.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.WaveDuration <= 0 {
		return errors.Errorf("wave duration must be positive, got %s", c.WaveDuration)
	}
	if c.HighPassAlpha < 0 || c.HighPassAlpha > 1 {
		return errors.Errorf("high pass alpha must be within [0, 1], got %v", c.HighPassAlpha)
	}
	if c.MaxMagnitude <= 0 {
		return errors.Errorf("max magnitude must be positive, got %v", c.MaxMagnitude)
	}
	if c.BaseFrequency <= 0 {
		return errors.Errorf("base frequency must be positive, got %v", c.BaseFrequency)
	}
	if c.FrequencySensitivity < 0 {
		return errors.Errorf("frequency sensitivity cannot be negative, got %v", c.FrequencySensitivity)
	}
	if c.MaxFrequency < 0 {
		return errors.Errorf("max frequency cannot be negative, got %v", c.MaxFrequency)
	}
	if c.MaxFrequency != 0 && c.MaxFrequency < c.BaseFrequency {
		return errors.Errorf("max frequency %v is below base frequency %v", c.MaxFrequency, c.BaseFrequency)
	}
	if c.SharpnessSensitivity < 0 {
		return errors.Errorf("sharpness sensitivity cannot be negative, got %v", c.SharpnessSensitivity)
	}
	if c.SampleBuffer <= 0 {
		return errors.Errorf("sample buffer must be positive, got %d", c.SampleBuffer)
	}
	return nil
}

// EffectiveMaxFrequency returns MaxFrequency or, when it is unset, WaveDuration / (4 * TickInterval):
// the frequency whose positive lobes last two ticks. Above it the tick samples a lobe near its
// zero crossings and the pulse can vanish entirely. It never goes below BaseFrequency.
func (c Config) EffectiveMaxFrequency() float64 {
	if c.MaxFrequency > 0 {
		return c.MaxFrequency
	}
	auto := float64(c.WaveDuration) / float64(4*c.TickInterval)
	if auto < c.BaseFrequency {
		return c.BaseFrequency
	}
	return auto
}
