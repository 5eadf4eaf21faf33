package fes

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports a malformed parameter set. It is raised when a model
	// or a parameter is set up, never from Derivative.
	ErrConfig = errors.New("fes: invalid model configuration")

	ErrUnknownVariant = errors.New("fes: unknown model variant")
	ErrUnknownParam   = errors.New("fes: unknown parameter")

	// ErrMissingMagnitude reports a pulse-width or pulse-intensity model fed
	// with a frequency-only stimulation history.
	ErrMissingMagnitude = errors.New("fes: stimulation events carry no magnitude")

	// ErrNonFinite reports NaN or Inf in a state, time or control input.
	ErrNonFinite = errors.New("fes: non-finite input")

	// ErrTimeConstant reports a non-positive time constant met during evaluation.
	ErrTimeConstant = errors.New("fes: non-positive time constant")

	ErrDimension = errors.New("fes: state dimension mismatch")
)

// EvalError carries the context of a failed derivative evaluation.
type EvalError struct {
	Variant Variant
	Time    float64
	Err     error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s at t=%g: %v", e.Variant, e.Time, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
