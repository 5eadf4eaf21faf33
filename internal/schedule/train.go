package schedule

import (
	"fmt"
	"math/big"
)

// ErrFrequency reports a non-positive stimulation frequency.
var ErrFrequency = fmt.Errorf("%w: frequency must be positive", ErrParse)

// EvenTrain returns the stimulation times k/freq that fall before the horizon,
// starting at 0. Both arguments are exact, so the train lands on a grid of
// horizon*freq nodes when that product is an integer.
func EvenTrain(freq, horizon *big.Rat) ([]*big.Rat, error) {
	if freq.Sign() <= 0 {
		return nil, ErrFrequency
	}
	if horizon.Sign() <= 0 {
		return nil, ErrHorizon
	}
	period := new(big.Rat).Inv(freq)
	var out []*big.Rat
	for t := new(big.Rat); t.Cmp(horizon) < 0; t = new(big.Rat).Add(t, period) {
		out = append(out, t)
	}
	return out, nil
}

// FormatTimes renders exact times as fractions, or integers when whole.
func FormatTimes(ts []*big.Rat) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.RatString()
	}
	return out
}
