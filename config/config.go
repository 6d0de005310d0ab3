// Package config defines the on-disk configuration of the haptics daemon.
package config

import (
	"fmt"
	"time"

	"go.viam.com/haptics/components/actuator/ursaminor"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/synthesis"
	"go.viam.com/haptics/utils"
)

// Versioning variables which are replaced by LD flags.
var (
	Version     = ""
	GitRevision = ""
)

// Device models.
const (
	ModelURSAMinor = ursaminor.Model
	ModelFake      = "fake"
)

// Telemetry sources.
const (
	SourceXPlane = "xplane"
	SourceReplay = "replay"
)

// Config is the whole daemon configuration.
type Config struct {
	Synthesis Synthesis `json:"synthesis"`
	Device    Device    `json:"device"`
	Telemetry Telemetry `json:"telemetry"`
	Log       Log       `json:"log"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// Synthesis is the JSON form of synthesis.Config. Durations are in milliseconds.
type Synthesis struct {
	TickIntervalMs       int     `json:"tick_interval_ms"`
	WaveDurationMs       int     `json:"wave_duration_ms"`
	HighPassAlpha        float64 `json:"high_pass_alpha"`
	MaxMagnitude         float64 `json:"max_magnitude"`
	MinMotorIntensity    int     `json:"min_motor_intensity"`
	BaseFrequency        float64 `json:"base_frequency"`
	FrequencySensitivity float64 `json:"frequency_sensitivity"`
	MaxFrequency         float64 `json:"max_frequency,omitempty"`
	BaseSharpness        float64 `json:"base_sharpness"`
	SharpnessSensitivity float64 `json:"sharpness_sensitivity"`
	SampleBuffer         int     `json:"sample_buffer"`
}

// Device selects the actuator.
type Device struct {
	Model     string `json:"model"`
	VendorID  int    `json:"vendor_id,omitempty"`
	ProductID int    `json:"product_id,omitempty"`
	// Serial is the serial number reported by the fake model.
	Serial string `json:"serial,omitempty"`
}

// Telemetry selects where g-force samples come from.
type Telemetry struct {
	Source string `json:"source"`
	// Address is the UDP address X-Plane sends its data output to.
	Address string `json:"address,omitempty"`
	// Trace is the CSV file replayed by the replay source.
	Trace    string  `json:"trace,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Absolute bool    `json:"absolute,omitempty"`
	Loop     bool    `json:"loop,omitempty"`
}

// Log configures the daemon logger.
type Log struct {
	Level     string `json:"level"`
	File      string `json:"file,omitempty"`
	MaxSizeMB int    `json:"max_size_mb,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := synthesis.DefaultConfig()
	return &Config{
		Synthesis: FromSynthesisConfig(cfg),
		Device:    Device{Model: ModelURSAMinor},
		Telemetry: Telemetry{Source: SourceXPlane},
		Log:       Log{Level: "info"},
	}
}

// FromSynthesisConfig converts cfg to its JSON form.
func FromSynthesisConfig(cfg synthesis.Config) Synthesis {
	return Synthesis{
		TickIntervalMs:       int(cfg.TickInterval / time.Millisecond),
		WaveDurationMs:       int(cfg.WaveDuration / time.Millisecond),
		HighPassAlpha:        cfg.HighPassAlpha,
		MaxMagnitude:         cfg.MaxMagnitude,
		MinMotorIntensity:    int(cfg.MinMotorIntensity),
		BaseFrequency:        cfg.BaseFrequency,
		FrequencySensitivity: cfg.FrequencySensitivity,
		MaxFrequency:         cfg.MaxFrequency,
		BaseSharpness:        cfg.BaseSharpness,
		SharpnessSensitivity: cfg.SharpnessSensitivity,
		SampleBuffer:         cfg.SampleBuffer,
	}
}

// SynthesisConfig converts s to a synthesis.Config.
func (s Synthesis) SynthesisConfig() synthesis.Config {
	return synthesis.Config{
		TickInterval:         time.Duration(s.TickIntervalMs) * time.Millisecond,
		WaveDuration:         time.Duration(s.WaveDurationMs) * time.Millisecond,
		HighPassAlpha:        s.HighPassAlpha,
		MaxMagnitude:         s.MaxMagnitude,
		MinMotorIntensity:    uint8(s.MinMotorIntensity),
		BaseFrequency:        s.BaseFrequency,
		FrequencySensitivity: s.FrequencySensitivity,
		MaxFrequency:         s.MaxFrequency,
		BaseSharpness:        s.BaseSharpness,
		SharpnessSensitivity: s.SharpnessSensitivity,
		SampleBuffer:         s.SampleBuffer,
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if err := c.Synthesis.Validate("synthesis"); err != nil {
		return err
	}
	if err := c.Device.Validate("device"); err != nil {
		return err
	}
	if err := c.Telemetry.Validate("telemetry"); err != nil {
		return err
	}
	return c.Log.Validate("log")
}

// Validate ensures all parts of the config are valid.
func (s Synthesis) Validate(path string) error {
	if s.MinMotorIntensity < 0 || s.MinMotorIntensity > 255 {
		return utils.NewConfigValidationFieldError(path, "min_motor_intensity", fmt.Sprintf("must be within [0, 255], got %d", s.MinMotorIntensity))
	}
	if err := s.SynthesisConfig().Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (d Device) Validate(path string) error {
	switch d.Model {
	case ModelURSAMinor, ModelFake:
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	default:
		return utils.NewConfigValidationFieldError(path, "model", fmt.Sprintf("unknown model %q", d.Model))
	}
	if (d.VendorID == 0) != (d.ProductID == 0) {
		return utils.NewConfigValidationFieldError(path, "vendor_id", "vendor_id and product_id must be set together")
	}
	if d.VendorID < 0 || d.VendorID > 0xffff || d.ProductID < 0 || d.ProductID > 0xffff {
		return utils.NewConfigValidationFieldError(path, "vendor_id", "usb ids must fit in 16 bits")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (t Telemetry) Validate(path string) error {
	switch t.Source {
	case SourceXPlane:
	case SourceReplay:
		if t.Trace == "" {
			return utils.NewConfigValidationFieldRequiredError(path, "trace")
		}
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "source")
	default:
		return utils.NewConfigValidationFieldError(path, "source", fmt.Sprintf("unknown source %q", t.Source))
	}
	if t.Rate < 0 {
		return utils.NewConfigValidationFieldError(path, "rate", "cannot be negative")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (l Log) Validate(path string) error {
	if _, err := logging.LevelFromString(l.Level); err != nil {
		return utils.NewConfigValidationFieldError(path, "level", err.Error())
	}
	if l.MaxSizeMB < 0 {
		return utils.NewConfigValidationFieldError(path, "max_size_mb", "cannot be negative")
	}
	return nil
}
