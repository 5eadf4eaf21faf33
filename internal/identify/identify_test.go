package identify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/integrators"
	"github.com/san-kum/fessim/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func rk4() dynamo.Integrator { return integrators.NewRK4() }

func TestRecordingValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  Recording
		want error
	}{
		{"ok", Recording{StimTimes: []float64{0, 0.1}, Times: []float64{0, 1}, Forces: []float64{0, 2}}, nil},
		{"length mismatch", Recording{Times: []float64{0, 1}, Forces: []float64{0}}, ErrRecording},
		{"single sample", Recording{Times: []float64{0}, Forces: []float64{0}}, ErrNoSamples},
		{"times not increasing", Recording{Times: []float64{0, 1, 1}, Forces: []float64{0, 1, 2}}, ErrRecording},
		{"stims not increasing", Recording{StimTimes: []float64{0.2, 0.1}, Times: []float64{0, 1}, Forces: []float64{0, 1}}, ErrRecording},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecordingFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.yaml")
	rec := &Recording{StimTimes: []float64{0, 0.5}, Times: []float64{0, 0.5, 1}, Forces: []float64{0, 10, 4}}
	if err := WriteRecording(path, rec); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRecording(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration() != 1 || got.Forces[1] != 10 || len(got.StimTimes) != 2 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestRebase(t *testing.T) {
	rec := &Recording{StimTimes: []float64{1, 1.5}, Times: []float64{1, 2, 3}, Forces: []float64{0, 5, 1}}
	rb := rec.Rebase()
	if rb.StimTimes[0] != 0 || rb.StimTimes[1] != 0.5 {
		t.Errorf("stims = %v", rb.StimTimes)
	}
	if rb.Times[2] != 2 {
		t.Errorf("times = %v", rb.Times)
	}
	if rec.Times[0] != 1 {
		t.Error("Rebase modified its receiver")
	}
}

func TestConcat(t *testing.T) {
	a := &Recording{StimTimes: []float64{0, 0.1}, Times: []float64{0, 0.5, 1}, Forces: []float64{0, 1, 2}}
	b := &Recording{StimTimes: []float64{2, 2.1, 2.2}, Times: []float64{2, 3}, Forces: []float64{3, 4}}
	c := &Recording{StimTimes: []float64{0}, Times: []float64{0, 1}, Forces: []float64{5, 6}}

	out, starts := Concat(a, b, c)
	if len(starts) != 2 || starts[0] != 2 || starts[1] != 5 {
		t.Errorf("starts = %v", starts)
	}
	wantStims := []float64{0, 0.1, 1, 1.1, 1.2, 2}
	for i, w := range wantStims {
		if math.Abs(out.StimTimes[i]-w) > 1e-12 {
			t.Errorf("stim %d = %g, want %g", i, out.StimTimes[i], w)
		}
	}
	// seam samples of b and c coincide with the previous last sample
	wantTimes := []float64{0, 0.5, 1, 2, 3}
	wantForces := []float64{0, 1, 2, 4, 6}
	if len(out.Times) != len(wantTimes) || len(out.Forces) != len(wantForces) {
		t.Fatalf("times = %v, forces = %v", out.Times, out.Forces)
	}
	for i, w := range wantTimes {
		if math.Abs(out.Times[i]-w) > 1e-12 {
			t.Errorf("time %d = %g, want %g", i, out.Times[i], w)
		}
		if out.Forces[i] != wantForces[i] {
			t.Errorf("force %d = %g, want %g", i, out.Forces[i], wantForces[i])
		}
	}
	if err := out.Validate(); err != nil {
		t.Errorf("joined recording: %v", err)
	}
}

func TestConcatFeedsProblem(t *testing.T) {
	rec := func() *Recording {
		return &Recording{
			StimTimes: []float64{0, 0.05},
			Times:     []float64{0, 0.1, 0.2},
			Forces:    []float64{0, 40, 20},
		}
	}
	joined, starts := Concat(rec(), rec())
	if len(starts) != 1 || starts[0] != 2 {
		t.Errorf("starts = %v", starts)
	}

	pr, err := NewProblem(fes.Ding2003, joined, nil, rk4, WithLogger(quiet))
	if err != nil {
		t.Fatalf("NewProblem on joined recordings: %v", err)
	}
	if len(pr.Target) != pr.Plan.Nodes+1 {
		t.Errorf("target has %d samples for %d nodes", len(pr.Target), pr.Plan.Nodes)
	}
	if got := pr.History.Len(); got != 4 {
		t.Errorf("history has %d events, want 4", got)
	}
}

func TestForceAtNodes(t *testing.T) {
	times := []float64{0.1, 0.5, 0.9}
	forces := []float64{1, 5, 3}

	got, err := ForceAtNodes(times, forces, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	// nodes at 0, 0.25, 0.5, 0.75, 1 with the ends held
	want := []float64{1, 2.5, 5, 3.75, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("node %d = %g, want %g", i, got[i], want[i])
		}
	}

	if _, err := ForceAtNodes([]float64{0}, []float64{1}, 4, 1); !errors.Is(err, ErrNoSamples) {
		t.Errorf("single sample: got %v", err)
	}
}

func TestTrackingCost(t *testing.T) {
	c, err := TrackingCost([]float64{1, 2, 3}, []float64{1, 0, 6})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c-13) > 1e-12 {
		t.Errorf("cost = %g, want 13", c)
	}
	if _, err := TrackingCost([]float64{1}, []float64{1, 2}); !errors.Is(err, ErrRecording) {
		t.Errorf("length mismatch: got %v", err)
	}
}

func TestGridSearch(t *testing.T) {
	bowl := func(_ context.Context, p map[string]float64) (float64, error) {
		return (p["x"]-1)*(p["x"]-1) + (p["y"]+2)*(p["y"]+2), nil
	}
	g := NewGridSearch([]string{"x", "y"}, [][]float64{Linspace(-3, 3, 7), Linspace(-4, 0, 5)}).WithLimit(3)
	if g.Size() != 35 {
		t.Fatalf("size = %d", g.Size())
	}
	res, err := g.Search(context.Background(), bowl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["x"] != 1 || res.Params["y"] != -2 || res.Cost != 0 {
		t.Errorf("best = %v (%g)", res.Params, res.Cost)
	}
	if res.Evaluated != 35 || res.Failed != 0 {
		t.Errorf("evaluated %d failed %d", res.Evaluated, res.Failed)
	}
}

func TestGridSearchTiesPreferEarliest(t *testing.T) {
	flat := func(context.Context, map[string]float64) (float64, error) { return 1, nil }
	res, err := NewGridSearch([]string{"x"}, [][]float64{{3, 1, 2}}).Search(context.Background(), flat)
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["x"] != 3 {
		t.Errorf("tie went to x=%g", res.Params["x"])
	}
}

func TestGridSearchFailures(t *testing.T) {
	errBad := errors.New("bad")
	picky := func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] < 0 {
			return 0, errBad
		}
		if p["x"] == 0 {
			return math.NaN(), nil
		}
		return p["x"], nil
	}
	res, err := NewGridSearch([]string{"x"}, [][]float64{{-1, 0, 2, 5}}).Search(context.Background(), picky)
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["x"] != 2 || res.Failed != 2 {
		t.Errorf("best %v failed %d", res.Params, res.Failed)
	}

	allBad := func(context.Context, map[string]float64) (float64, error) { return 0, errBad }
	if _, err := NewGridSearch([]string{"x"}, [][]float64{{1, 2}}).Search(context.Background(), allBad); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("all failing: got %v", err)
	}

	if _, err := NewGridSearch([]string{"x", "y"}, [][]float64{{1}}).Search(context.Background(), allBad); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obj := func(context.Context, map[string]float64) (float64, error) { return 0, nil }
	if _, err := NewGridSearch([]string{"x"}, [][]float64{{1, 2}}).Search(ctx, obj); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func synthetic(t *testing.T, aRest float64) *Recording {
	t.Helper()
	ps := fes.Defaults(fes.Ding2003)
	if err := ps.SetARest(aRest); err != nil {
		t.Fatal(err)
	}
	m, err := fes.New(fes.Ding2003, fes.WithParameters(ps))
	if err != nil {
		t.Fatal(err)
	}
	stims := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	pr, err := NewProblem(fes.Ding2003, &Recording{StimTimes: stims, Times: []float64{0, 1}, Forces: []float64{0, 0}}, nil, rk4, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	res, err := sim.New(m, rk4(), sim.WithLogger(quiet)).Run(context.Background(), pr.Plan, pr.History, nil, sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return &Recording{StimTimes: stims, Times: res.Times, Forces: res.Force()}
}

func TestProblemRecoversARest(t *testing.T) {
	rec := synthetic(t, 3000)
	pr, err := NewProblem(fes.Ding2003, rec, nil, rk4, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	if len(pr.Target) != pr.Plan.Nodes+1 {
		t.Fatalf("target has %d samples for %d nodes", len(pr.Target), pr.Plan.Nodes)
	}

	res, err := pr.Identify(context.Background(), []string{"a_rest"}, [][]float64{Linspace(2000, 4000, 5)}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["a_rest"] != 3000 {
		t.Errorf("a_rest = %g, want 3000", res.Params["a_rest"])
	}
	if res.Cost > 1e-6 {
		t.Errorf("cost at the true value = %g", res.Cost)
	}
}

func TestProblemRejectsFixedParams(t *testing.T) {
	rec := synthetic(t, 3009)
	pr, err := NewProblem(fes.Ding2003, rec, nil, rk4, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	_, err = pr.Identify(context.Background(), []string{"tauc"}, [][]float64{{0.02}}, 1)
	if !errors.Is(err, fes.ErrUnknownParam) {
		t.Errorf("got %v, want ErrUnknownParam", err)
	}
}

func TestProblemNeedsMagnitudes(t *testing.T) {
	rec := &Recording{StimTimes: []float64{0, 0.5}, Times: []float64{0, 1}, Forces: []float64{0, 1}}
	if _, err := NewProblem(fes.Ding2007, rec, []float64{0.0003}, rk4, WithLogger(quiet)); err == nil {
		t.Error("expected error for magnitude count mismatch")
	}
}
