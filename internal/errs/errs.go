package errs

import (
	"errors"
	"fmt"
)

// #region sentinels

var (
	// ErrInvalidInput marks range violations, empty identifiers and NaN signals.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResourceExceeded marks a consume request above a pool's cap.
	ErrResourceExceeded = errors.New("resource exceeded")
	// ErrPersistence marks a failed snapshot write or rename.
	ErrPersistence = errors.New("persistence error")
	// ErrStateCorruption marks a structurally invalid snapshot on load.
	ErrStateCorruption = errors.New("state corruption")
)

// #endregion sentinels

// #region field-error

// FieldError names the offending field for one of the sentinel kinds.
type FieldError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// Invalid builds an ErrInvalidInput error for field.
func Invalid(field, format string, args ...any) error {
	return &FieldError{Kind: ErrInvalidInput, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Exceeded builds an ErrResourceExceeded error for field.
func Exceeded(field, format string, args ...any) error {
	return &FieldError{Kind: ErrResourceExceeded, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Corrupt builds an ErrStateCorruption error for field.
func Corrupt(field, format string, args ...any) error {
	return &FieldError{Kind: ErrStateCorruption, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure as ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// #endregion field-error

// #region checks

// Unit rejects NaN and values outside [0, 1].
func Unit(field string, v float64) error {
	return Range(field, v, 0, 1)
}

// Signed rejects NaN and values outside [-1, 1].
func Signed(field string, v float64) error {
	return Range(field, v, -1, 1)
}

// Range rejects NaN and values outside [lo, hi].
func Range(field string, v, lo, hi float64) error {
	if v != v {
		return Invalid(field, "NaN")
	}
	if v < lo || v > hi {
		return Invalid(field, "%v outside [%v, %v]", v, lo, hi)
	}
	return nil
}

// #endregion checks

// #region restore-checks

// CorruptRange rejects NaN and values outside [lo, hi] as ErrStateCorruption.
func CorruptRange(field string, v, lo, hi float64) error {
	if v != v || v < lo || v > hi {
		return Corrupt(field, "%v outside [%v, %v]", v, lo, hi)
	}
	return nil
}

// #endregion restore-checks
