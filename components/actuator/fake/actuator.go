// Package fake implements a fake haptic actuator that records every report it is sent.
package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/logging"
)

var _ actuator.Actuator = &Actuator{}

// ErrClosed is returned by writes to a closed fake.
var ErrClosed = errors.New("fake actuator is closed")

// An Actuator keeps every report written to it in memory. Writes can be made to fail with
// FailWrites to simulate an unplugged device.
type Actuator struct {
	mu      sync.Mutex
	serial  string
	reports []actuator.Report
	failErr error
	closed  bool
	opens   int
	logger  logging.Logger
}

// NewActuator returns a fake reporting the given serial number. An empty serial means the device
// does not report one.
func NewActuator(serial string, logger logging.Logger) *Actuator {
	return &Actuator{serial: serial, logger: logger}
}

// Opener returns an opener handing out this fake. Every open marks the fake as open again.
func (a *Actuator) Opener() actuator.Opener {
	return func(ctx context.Context, logger logging.Logger) (actuator.Actuator, error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.closed = false
		a.opens++
		return a, nil
	}
}

// UnavailableOpener returns an opener that always fails as if no device were plugged in.
func UnavailableOpener() actuator.Opener {
	return func(ctx context.Context, logger logging.Logger) (actuator.Actuator, error) {
		return nil, actuator.NewDeviceUnavailableError(errors.New("no fake device plugged in"))
	}
}

// FailWrites makes every following write return err. A nil err makes writes succeed again.
func (a *Actuator) FailWrites(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failErr = err
}

func (a *Actuator) write(r actuator.Report) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.failErr != nil {
		return a.failErr
	}
	a.reports = append(a.reports, r)
	if a.logger != nil {
		kind, value := actuator.DecodeReport(r)
		a.logger.Debugw("fake report", "kind", kind.String(), "value", value)
	}
	return nil
}

// WriteIntensity records a vibration report.
func (a *Actuator) WriteIntensity(ctx context.Context, intensity uint8) error {
	return a.write(actuator.VibrationReport(intensity))
}

// WriteBacklight records a backlight report.
func (a *Actuator) WriteBacklight(ctx context.Context, intensity uint8) error {
	return a.write(actuator.BacklightReport(intensity))
}

// Restart records a restart report.
func (a *Actuator) Restart(ctx context.Context) error {
	return a.write(actuator.RestartReport())
}

// SerialNumber returns the configured serial number.
func (a *Actuator) SerialNumber(ctx context.Context) (string, bool) {
	return a.serial, a.serial != ""
}

// Close marks the fake closed. Writes fail until it is opened again.
func (a *Actuator) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Closed reports whether the last handle was closed.
func (a *Actuator) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Opens returns how many times the fake was opened through Opener.
func (a *Actuator) Opens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens
}

// Reports returns a copy of every recorded report.
func (a *Actuator) Reports() []actuator.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]actuator.Report(nil), a.reports...)
}

// Values returns the payloads of every recorded report of the given kind, in order.
func (a *Actuator) Values(kind actuator.ReportKind) []uint8 {
	values := []uint8{}
	for _, r := range a.Reports() {
		if k, v := actuator.DecodeReport(r); k == kind {
			values = append(values, v)
		}
	}
	return values
}

// Intensities is Values(actuator.KindVibration).
func (a *Actuator) Intensities() []uint8 {
	return a.Values(actuator.KindVibration)
}

// Reset forgets all recorded reports.
func (a *Actuator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = nil
}
