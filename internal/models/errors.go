package models

import (
	"errors"
	"fmt"
)

// ErrUnknownMetric is returned when a metric tag is not one of the
// defined AlphaMetric constants.
var ErrUnknownMetric = errors.New("unknown alpha metric")

// ValidationError reports a malformed OptionContract or SimulationConfig
// field. The zero-tolerance policy is deliberate: bad input is rejected at
// construction, never clamped into something plausible.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ArithmeticError reports an arithmetic degeneracy discovered mid-calculation,
// such as a zero theta in an SAS-family metric or a zero-gamma hedge
// instrument. Op names the calculation that failed.
type ArithmeticError struct {
	Op     string
	Reason string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsArithmeticError reports whether err is (or wraps) an ArithmeticError.
func IsArithmeticError(err error) bool {
	var ae *ArithmeticError
	return errors.As(err, &ae)
}
