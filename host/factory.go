package host

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/components/actuator/fake"
	"go.viam.com/haptics/components/actuator/ursaminor"
	"go.viam.com/haptics/config"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/telemetry"
	"go.viam.com/haptics/usb"
)

// NewOpener returns the opener for the configured device model.
func NewOpener(cfg config.Device, logger logging.Logger) actuator.Opener {
	switch cfg.Model {
	case config.ModelFake:
		return fake.NewActuator(cfg.Serial, logger.Sublogger(actuator.SubtypeName)).Opener()
	case ursaminor.Model:
		id := ursaminor.ID
		if cfg.VendorID != 0 {
			id = usb.Identifier{Vendor: cfg.VendorID, Product: cfg.ProductID}
		}
		return ursaminor.NewOpener(id)
	default:
		return func(ctx context.Context, logger logging.Logger) (actuator.Actuator, error) {
			return nil, actuator.NewDeviceUnavailableError(errors.Errorf("unknown device model %q", cfg.Model))
		}
	}
}

// NewSource returns the configured telemetry source.
func NewSource(cfg config.Telemetry, clk clock.Clock, logger logging.Logger) (telemetry.Source, error) {
	switch cfg.Source {
	case config.SourceXPlane:
		return telemetry.NewXPlaneSource(cfg.Address, logger.Sublogger("xplane")), nil
	case config.SourceReplay:
		samples, err := telemetry.ReadTraceFile(cfg.Trace)
		if err != nil {
			return nil, err
		}
		return &telemetry.ReplaySource{
			Samples:  samples,
			Rate:     cfg.Rate,
			Absolute: cfg.Absolute,
			Loop:     cfg.Loop,
			Clock:    clk,
		}, nil
	default:
		return nil, errors.Errorf("unknown telemetry source %q", cfg.Source)
	}
}
