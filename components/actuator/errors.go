package actuator

import "github.com/pkg/errors"

// ErrDeviceUnavailable is wrapped by every error returned when a device cannot be found or opened.
var ErrDeviceUnavailable = errors.New("haptic device unavailable")

// NewDeviceUnavailableError wraps the cause of a failed open so that callers can match it with
// errors.Is(err, ErrDeviceUnavailable).
func NewDeviceUnavailableError(cause error) error {
	if cause == nil {
		return ErrDeviceUnavailable
	}
	return &deviceUnavailableError{cause: cause}
}

type deviceUnavailableError struct {
	cause error
}

func (e *deviceUnavailableError) Error() string {
	return ErrDeviceUnavailable.Error() + ": " + e.cause.Error()
}

func (e *deviceUnavailableError) Unwrap() error {
	return e.cause
}

func (e *deviceUnavailableError) Is(target error) bool {
	return target == ErrDeviceUnavailable
}

// NewShortWriteError returns an error for a report that was only partially written.
func NewShortWriteError(written, expected int) error {
	return errors.Errorf("short write to haptic device: %d of %d bytes", written, expected)
}
