package metrics

import (
	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
)

// Standard returns fresh instances of the metrics that apply to m.
func Standard(m fes.Model) []dynamo.Metric {
	out := []dynamo.Metric{NewPeakForce(), NewForceTimeIntegral()}
	if m.Variant().Fatigue {
		out = append(out, NewFatigueRatio(m.RestState()[fes.A]))
	}
	if m.Approximated() {
		out = append(out, NewCnSumEffort())
	}
	return out
}
