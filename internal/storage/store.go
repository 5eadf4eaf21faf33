package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fessim/internal/sim"
)

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrAmbiguous = errors.New("storage: run id prefix is ambiguous")
	ErrEmpty     = errors.New("storage: nothing to save")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo is what the caller knows about a run besides its results.
type RunInfo struct {
	Label      string
	Horizon    string
	Integrator string
	Substeps   int
	Adaptive   bool

	// Config is stored alongside as config.yaml when set.
	Config any
}

type MuscleMetadata struct {
	Name         string             `json:"name"`
	Model        string             `json:"model"`
	Approximated bool               `json:"approximated,omitempty"`
	Truncation   int                `json:"truncation,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

type RunMetadata struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Timestamp  time.Time        `json:"timestamp"`
	Horizon    string           `json:"horizon"`
	Nodes      int              `json:"nodes"`
	Integrator string           `json:"integrator"`
	Substeps   int              `json:"substeps"`
	Adaptive   bool             `json:"adaptive,omitempty"`
	Muscles    []MuscleMetadata `json:"muscles"`
	Columns    []string         `json:"columns"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Save writes one run. Results must share their node times, which holds for
// every result produced from the same plan.
func (s *Store) Save(info RunInfo, results []*sim.Result) (string, error) {
	if len(results) == 0 {
		return "", ErrEmpty
	}
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Label:      info.Label,
		Timestamp:  time.Now(),
		Horizon:    info.Horizon,
		Nodes:      results[0].Nodes,
		Integrator: info.Integrator,
		Substeps:   info.Substeps,
		Adaptive:   info.Adaptive,
		Columns:    columns(results),
		Warnings:   results[0].Warnings,
	}
	for _, r := range results {
		meta.Muscles = append(meta.Muscles, MuscleMetadata{
			Name:         r.Muscle,
			Model:        r.Variant,
			Approximated: r.Approximated,
			Truncation:   r.Truncation,
			Metrics:      r.Metrics,
		})
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if info.Config != nil {
		data, err := yaml.Marshal(info.Config)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(runDir, "config.yaml"), data, 0644); err != nil {
			return "", err
		}
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), meta.Columns, results); err != nil {
		return "", err
	}
	return runID, nil
}

func columns(results []*sim.Result) []string {
	cols := []string{"time"}
	for _, r := range results {
		cols = append(cols, r.StateNames...)
	}
	for _, r := range results {
		if hasControl(r) {
			name := "cn_sum"
			if r.Muscle != "" {
				name += "_" + r.Muscle
			}
			cols = append(cols, name)
		}
	}
	return cols
}

func hasControl(r *sim.Result) bool {
	for _, u := range r.Controls {
		if len(u) > 0 {
			return true
		}
	}
	return false
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, header []string, results []*sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	first := results[0]
	for i := range first.Times {
		row := []string{format(first.Times[i])}
		for _, r := range results {
			for _, v := range r.States[i] {
				row = append(row, format(v))
			}
		}
		for _, r := range results {
			if !hasControl(r) {
				continue
			}
			// no control is applied after the last node
			if i < len(r.Controls) && len(r.Controls[i]) > 0 {
				row = append(row, format(r.Controls[i][0]))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, most recent first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Resolve expands a unique prefix of a run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if _, err := uuid.Parse(prefix); err == nil {
		return prefix, nil
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", err
	}
	var match string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q", ErrAmbiguous, prefix)
		}
		match = e.Name()
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Trace is a stored trajectory, one row per grid node.
type Trace struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns the named series, or nil. Missing values read as NaN.
func (t *Trace) Column(name string) []float64 {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			out[i] = row[j]
		}
		return out
	}
	return nil
}

func (s *Store) LoadStates(runID string) (*Trace, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, id, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Trace{}, nil
	}

	tr := &Trace{
		Columns: records[0],
		Times:   make([]float64, 0, len(records)-1),
		Rows:    make([][]float64, 0, len(records)-1),
	}

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
		}

		row := make([]float64, len(tr.Columns))
		for j := range row {
			row[j] = nan
			if j < len(record) && record[j] != "" {
				if v, err := strconv.ParseFloat(record[j], 64); err == nil {
					row[j] = v
				}
			}
		}
		tr.Times = append(tr.Times, t)
		tr.Rows = append(tr.Rows, row)
	}

	return tr, nil
}
