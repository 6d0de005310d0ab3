// Package actuator defines haptic actuators: motors driven by a single 0-255 intensity, reached
// through fixed-format device reports.
package actuator

import (
	"context"

	"go.viam.com/haptics/logging"
)

// SubtypeName identifies the actuator component in logs and configuration.
const SubtypeName = "actuator"

// An Actuator is an open handle to a haptic device. A handle is not safe for concurrent writers;
// whoever opened it owns it until Close.
//
// WriteIntensity example:
//
//	act, err := opener(ctx, logger)
//	if err != nil {
//		return err
//	}
//	defer act.Close(ctx)
//	// Full strength vibration.
//	err = act.WriteIntensity(ctx, 255)
type Actuator interface {
	// WriteIntensity sets the vibration motor intensity. 0 stops the motor.
	WriteIntensity(ctx context.Context, intensity uint8) error

	// WriteBacklight sets the panel backlight intensity. 0 turns the lights off.
	WriteBacklight(ctx context.Context, intensity uint8) error

	// Restart asks the device to reboot itself.
	Restart(ctx context.Context) error

	// SerialNumber returns the device serial number, if the device reports one.
	SerialNumber(ctx context.Context) (string, bool)

	// Close releases the handle.
	Close(ctx context.Context) error
}

// An Opener acquires a new Actuator handle. Failure to find or open the device is reported with an
// error wrapping ErrDeviceUnavailable.
type Opener func(ctx context.Context, logger logging.Logger) (Actuator, error)
