// Package fes models the force response of electrically stimulated muscle.
//
// The family is closed: Ding 2003 (frequency), Ding 2007 (pulse width) and
// Hmed 2018 (pulse intensity), each with or without the Ding fatigue states.
// Every variant is a concrete type behind [Model], picked once by [New].
//
// Activation follows
//
//	dCn/dt = Cn_sum/tauc - Cn/tauc
//	Cn_sum = sum_i R_i exp(-(t - t_i)/tauc) lambda_i 1[t_i <= t]
//
// where Cn_sum is either summed over the stimulation history (exact mode) or
// read from the caller's control input ([Approximated] mode). The indicator
// is applied in exact mode only; it keeps a dense window from counting pulses
// scheduled after t and has not been validated as a physiological law.
//
// Force follows
//
//	dF/dt = [A Cn/(Km+Cn) - F/(Tau1 + Tau2 Cn/(Km+Cn))] * fl * fv
//
// with fl and fv the force-length and force-velocity multipliers.
//
// Models hold no evaluation state. The stimulation history travels with each
// call in a [Drive], so one model can be evaluated concurrently as long as
// its [ParameterSet] is not being updated.
package fes
