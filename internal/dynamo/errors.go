package dynamo

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState      = errors.New("dynamo: state has NaN or Inf components")
	ErrUnstable          = errors.New("dynamo: integration diverged")
	ErrStepTooSmall      = errors.New("dynamo: adaptive step underflow")
	ErrDimensionMismatch = errors.New("dynamo: state size does not match the system")
)

// IntervalError reports a failure while integrating the node interval that
// starts at Node. State is the last good state, taken at Time.
type IntervalError struct {
	Node  int
	Time  float64
	State State
	Err   error
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("node %d (t=%.4f s): %v", e.Node, e.Time, e.Err)
}

func (e *IntervalError) Unwrap() error { return e.Err }
