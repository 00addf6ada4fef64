package core

import (
	"fmt"

	"github.com/juju/errors"
)

// Error kinds shared by every package. Test for them with errors.Is.
const (
	// InvalidConfiguration marks bad split proportions, schemas or stratification setups.
	InvalidConfiguration = errors.ConstError("invalid configuration")
	// FieldNotFound marks a missing label or feature column.
	FieldNotFound = errors.ConstError("field not found")
	// LengthMismatch marks misaligned vectors or matrices.
	LengthMismatch = errors.ConstError("length mismatch")
)

// Invalidf returns an InvalidConfiguration error with a formatted message.
func Invalidf(format string, args ...any) error {
	return typed(InvalidConfiguration, format, args...)
}

// NotFoundf returns a FieldNotFound error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return typed(FieldNotFound, format, args...)
}

// Mismatchf returns a LengthMismatch error with a formatted message.
func Mismatchf(format string, args ...any) error {
	return typed(LengthMismatch, format, args...)
}

func typed(kind errors.ConstError, format string, args ...any) error {
	return errors.WithType(errors.New(fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...))), kind)
}
