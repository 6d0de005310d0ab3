// Package ursaminor implements the haptic actuator of the WINWING URSA MINOR joystick. Reports go
// through hidapi, or straight to the hidraw node on linux builds without cgo.
package ursaminor

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/haptics/components/actuator"
	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/usb"
	"go.viam.com/haptics/utils"
)

// Model is the name this actuator is configured by.
const Model = "ursaminor"

// ID is the USB identifier of the URSA MINOR.
var ID = usb.Identifier{Vendor: 0x4098, Product: 0xbc27}

// OpenFile opens a device path found by usb.Search for writing. Tests replace it.
var OpenFile = openPath

// serialReader is implemented by handles that can ask the device for its serial number.
type serialReader interface {
	GetSerialNbr() (string, error)
}

// NewOpener returns an opener for the first HID device matching id.
func NewOpener(id usb.Identifier) actuator.Opener {
	return func(ctx context.Context, logger logging.Logger) (actuator.Actuator, error) {
		desc, file, err := openDevice(ctx, id)
		if err != nil {
			return nil, err
		}
		logger.Debugw("opened haptic device", "path", desc.Path, "name", desc.Name, "id", id.String())
		return &hidActuator{id: id, desc: desc, file: file, logger: logger}, nil
	}
}

func openDevice(ctx context.Context, id usb.Identifier) (usb.Description, io.WriteCloser, error) {
	found := usb.Search(usb.SearchFilter{ID: id})
	if len(found) == 0 {
		return usb.Description{}, nil, actuator.NewDeviceUnavailableError(errors.Errorf("no hid device with id %s", id))
	}
	desc := found[0]
	file, err := OpenFile(desc.Path)
	if err != nil {
		return usb.Description{}, nil, actuator.NewDeviceUnavailableError(errors.Wrapf(err, "opening %s", desc.Path))
	}
	guard := utils.NewGuard(func() {
		//nolint:errcheck,gosec
		file.Close()
	})
	defer guard.OnFail()
	if err := ctx.Err(); err != nil {
		return usb.Description{}, nil, err
	}
	if desc.Serial == "" {
		if sr, ok := file.(serialReader); ok {
			if serial, err := sr.GetSerialNbr(); err == nil {
				desc.Serial = serial
			}
		}
	}
	guard.Success()
	return desc, file, nil
}

type hidActuator struct {
	mu     sync.Mutex
	id     usb.Identifier
	desc   usb.Description
	file   io.WriteCloser
	closed bool
	logger logging.Logger
}

// write sends one report. After a failed write the file is dropped and the next write reopens it,
// so a replugged device comes back on its own.
func (a *hidActuator) write(ctx context.Context, r actuator.Report) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("haptic device handle is closed")
	}
	if a.file == nil {
		desc, file, err := openDevice(ctx, a.id)
		if err != nil {
			return err
		}
		a.logger.Infow("reopened haptic device", "path", desc.Path)
		a.desc = desc
		a.file = file
	}
	n, err := a.file.Write(r[:])
	if err == nil && n != actuator.ReportSize {
		err = actuator.NewShortWriteError(n, actuator.ReportSize)
	}
	if err != nil {
		//nolint:errcheck,gosec
		a.file.Close()
		a.file = nil
		return errors.Wrapf(err, "writing report to %s", a.desc.Path)
	}
	return nil
}

func (a *hidActuator) WriteIntensity(ctx context.Context, intensity uint8) error {
	return a.write(ctx, actuator.VibrationReport(intensity))
}

func (a *hidActuator) WriteBacklight(ctx context.Context, intensity uint8) error {
	return a.write(ctx, actuator.BacklightReport(intensity))
}

func (a *hidActuator) Restart(ctx context.Context) error {
	return a.write(ctx, actuator.RestartReport())
}

func (a *hidActuator) SerialNumber(ctx context.Context) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.desc.Serial, a.desc.Serial != ""
}

func (a *hidActuator) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return errors.Wrapf(err, "closing %s", a.desc.Path)
}
