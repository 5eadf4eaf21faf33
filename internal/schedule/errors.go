package schedule

import "errors"

var (
	ErrHorizon          = errors.New("schedule: horizon must be positive")
	ErrOutOfHorizon     = errors.New("schedule: stimulation time outside [0, horizon]")
	ErrUnordered        = errors.New("schedule: stimulation times must be strictly increasing")
	ErrDenominatorBound = errors.New("schedule: stimulation time needs a denominator above the configured bound")
	ErrNodeOverflow     = errors.New("schedule: node count does not fit the node limit")
	ErrParse            = errors.New("schedule: cannot parse time")
)
