// Package schedule discretizes a stimulation train onto a uniform time grid.
//
// The node count is the least common multiple of the reduced denominators of
// stim_i / horizon, computed in exact rational arithmetic, so every stimulation
// instant is a grid node. Inputs given as float64 go through a
// bounded-denominator conversion first; inputs given as strings or *big.Rat are
// used as is and rejected when their denominator exceeds the bound.
//
// Node counts at or above [HighNodeCount] are legal but expensive downstream;
// they are reported through [Plan.Warnings] and the scheduler's logger.
package schedule
