// Package dynamo provides core primitives for continuous-time dynamical systems.
//
// The package defines the interfaces shared by the muscle models, the
// integrators and the grid simulator:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [Controller]: per-node auxiliary input supplier
//   - [Metric] and [Observer]: simulation hooks
//
// # Errors
//
// Derivative evaluations return errors instead of propagating NaN. Integrators
// stop at the first failing evaluation and surface it unchanged, so callers can
// match sentinel errors with errors.Is.
package dynamo
