package integrators

import (
	"testing"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/stim"
)

// benchSystem is a 33 Hz fatiguing Ding 2003 muscle over its first second.
func benchSystem(b *testing.B, truncation int) (dynamo.System, dynamo.State) {
	b.Helper()
	times := make([]float64, 33)
	for i := range times {
		times[i] = float64(i) * 0.03
	}
	h, err := stim.FromTimes(times)
	if err != nil {
		b.Fatal(err)
	}
	m, err := fes.New(fes.Ding2003Fatigue, fes.WithTruncation(truncation))
	if err != nil {
		b.Fatal(err)
	}
	return fes.Bind(m, fes.Drive{History: h}), m.RestState()
}

func benchStep(b *testing.B, integ dynamo.Integrator, truncation int) {
	dyn, x0 := benchSystem(b, truncation)
	x := x0.Clone()
	t := 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var err error
		if x, err = integ.Step(dyn, x, nil, t, 0.001); err != nil {
			b.Fatal(err)
		}
		t += 0.001
		if t > 1 {
			x, t = x0.Clone(), 0
		}
	}
}

func BenchmarkEuler(b *testing.B) { benchStep(b, NewEuler(), 0) }
func BenchmarkRK4(b *testing.B)   { benchStep(b, NewRK4(), 0) }
func BenchmarkRK45(b *testing.B)  { benchStep(b, NewRK45(), 0) }

func BenchmarkRK4_Truncated5(b *testing.B) { benchStep(b, NewRK4(), 5) }
