package utils

import (
	"github.com/pkg/errors"
)

// NewConfigValidationError returns a config validation error occurring at a given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns a config validation error for a field missing at a
// given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// NewConfigValidationFieldError returns a config validation error for a field with a bad value at a
// given path.
func NewConfigValidationFieldError(path, field, problem string) error {
	return NewConfigValidationError(path, errors.Errorf("%q %s", field, problem))
}
