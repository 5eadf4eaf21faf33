package sim

import (
	"log/slog"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
)

// LogObserver logs the force trace every Every nodes at debug level.
type LogObserver struct {
	Logger *slog.Logger
	Every  int
	Muscle string

	n int
}

func (o *LogObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	every := o.Every
	if every < 1 {
		every = 1
	}
	if o.n%every == 0 && len(x) > fes.F {
		o.Logger.Debug("node",
			slog.String("muscle", o.Muscle),
			slog.Float64("t", t),
			slog.Float64("cn", x[fes.Cn]),
			slog.Float64("force", x[fes.F]))
	}
	o.n++
}

// Recorder keeps every observed force sample, e.g. for live plotting.
type Recorder struct {
	Times  []float64
	Forces []float64
}

func (r *Recorder) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) <= fes.F {
		return
	}
	r.Times = append(r.Times, t)
	r.Forces = append(r.Forces, x[fes.F])
}
