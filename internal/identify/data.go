package identify

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gopkg.in/yaml.v3"
)

var (
	ErrRecording = errors.New("identify: invalid recording")
	ErrNoSamples = errors.New("identify: need at least two force samples")
)

// Recording is a measured force trace with the stimulation times that
// produced it, in seconds.
type Recording struct {
	StimTimes []float64 `yaml:"stim_time"`
	Times     []float64 `yaml:"time"`
	Forces    []float64 `yaml:"force"`
}

func ReadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Recording
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rec, nil
}

func WriteRecording(path string, rec *Recording) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (r *Recording) Validate() error {
	if len(r.Times) != len(r.Forces) {
		return fmt.Errorf("%w: %d times for %d forces", ErrRecording, len(r.Times), len(r.Forces))
	}
	if len(r.Times) < 2 {
		return ErrNoSamples
	}
	for i := 1; i < len(r.Times); i++ {
		if r.Times[i] <= r.Times[i-1] {
			return fmt.Errorf("%w: sample times not increasing at %d", ErrRecording, i)
		}
	}
	for i := 1; i < len(r.StimTimes); i++ {
		if r.StimTimes[i] <= r.StimTimes[i-1] {
			return fmt.Errorf("%w: stimulation times not increasing at %d", ErrRecording, i)
		}
	}
	return nil
}

// Duration is the time of the last sample.
func (r *Recording) Duration() float64 { return r.Times[len(r.Times)-1] }

// Rebase shifts the recording so that its first stimulation is at t = 0.
func (r *Recording) Rebase() *Recording {
	out := &Recording{
		StimTimes: append([]float64(nil), r.StimTimes...),
		Times:     append([]float64(nil), r.Times...),
		Forces:    append([]float64(nil), r.Forces...),
	}
	if len(r.StimTimes) == 0 || r.StimTimes[0] == 0 {
		return out
	}
	shift := -r.StimTimes[0]
	floats.AddConst(shift, out.StimTimes)
	floats.AddConst(shift, out.Times)
	return out
}

// Concat rebases each recording and chains them in time, each one starting
// where the previous one's samples end. A sample landing on the seam or
// before it is dropped, so the joined sample times stay strictly increasing;
// the earlier recording keeps the seam sample. It also returns, for every
// recording after the first, the index of its first stimulation in the
// joined train.
func Concat(recs ...*Recording) (*Recording, []int) {
	out := &Recording{}
	var starts []int
	for i, r := range recs {
		rb := r.Rebase()
		skip := 0
		if i > 0 && len(out.Times) > 0 {
			offset := out.Times[len(out.Times)-1]
			starts = append(starts, len(out.StimTimes))
			floats.AddConst(offset, rb.StimTimes)
			floats.AddConst(offset, rb.Times)
			for skip < len(rb.Times) && rb.Times[skip] <= offset {
				skip++
			}
		}
		out.StimTimes = append(out.StimTimes, rb.StimTimes...)
		out.Times = append(out.Times, rb.Times[skip:]...)
		out.Forces = append(out.Forces, rb.Forces[skip:]...)
	}
	return out, starts
}

// ForceAtNodes samples the force at the nodes+1 evenly spaced node times over
// [0, finalTime] by linear interpolation, holding the end values outside the
// recorded range.
func ForceAtNodes(times, forces []float64, nodes int, finalTime float64) ([]float64, error) {
	if len(times) < 2 {
		return nil, ErrNoSamples
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(times, forces); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecording, err)
	}
	nodeTimes := make([]float64, nodes+1)
	floats.Span(nodeTimes, 0, finalTime)

	out := make([]float64, len(nodeTimes))
	for i, t := range nodeTimes {
		switch {
		case t <= times[0]:
			out[i] = forces[0]
		case t >= times[len(times)-1]:
			out[i] = forces[len(forces)-1]
		default:
			out[i] = pl.Predict(t)
		}
	}
	return out, nil
}

// TrackingCost is the sum of squared differences between two equally long
// force series.
func TrackingCost(simulated, target []float64) (float64, error) {
	if len(simulated) != len(target) {
		return 0, fmt.Errorf("%w: %d simulated samples for %d targets", ErrRecording, len(simulated), len(target))
	}
	d := floats.Distance(simulated, target, 2)
	return d * d, nil
}
