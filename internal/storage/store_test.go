package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/sim"
)

func sampleResults() []*sim.Result {
	return []*sim.Result{
		{
			Variant:    "ding2003",
			Muscle:     "biceps",
			StateNames: []string{"Cn_biceps", "F_biceps"},
			Times:      []float64{0, 0.5, 1},
			States:     []dynamo.State{{0, 0}, {0.4, 80}, {0.1, 30}},
			Controls:   []dynamo.Control{nil, nil},
			Metrics:    map[string]float64{"peak_force": 80},
			Nodes:      2,
		},
		{
			Variant:      "hmed2018",
			Muscle:       "triceps",
			StateNames:   []string{"Cn_triceps", "F_triceps"},
			Approximated: true,
			Times:        []float64{0, 0.5, 1},
			States:       []dynamo.State{{0, 0}, {0.2, 40}, {0.05, 10}},
			Controls:     []dynamo.Control{{0.9}, {0.3}},
			Metrics:      map[string]float64{"peak_force": 40, "mean_cn_sum": 0.6},
			Nodes:        2,
			Warnings:     []string{"example warning"},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	info := RunInfo{Label: "arm", Horizon: "1", Integrator: "rk4", Substeps: 10, Config: map[string]string{"horizon": "1"}}
	runID, err := st.Save(info, sampleResults())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID[:8])
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Label != "arm" || meta.Nodes != 2 || meta.Substeps != 10 {
		t.Errorf("metadata %+v", meta)
	}
	if len(meta.Muscles) != 2 || !meta.Muscles[1].Approximated || meta.Muscles[0].Metrics["peak_force"] != 80 {
		t.Errorf("muscles %+v", meta.Muscles)
	}
	want := []string{"time", "Cn_biceps", "F_biceps", "Cn_triceps", "F_triceps", "cn_sum_triceps"}
	if len(meta.Columns) != len(want) {
		t.Fatalf("columns %v", meta.Columns)
	}
	for i := range want {
		if meta.Columns[i] != want[i] {
			t.Errorf("column %d = %s, want %s", i, meta.Columns[i], want[i])
		}
	}

	tr, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	if len(tr.Rows) != 3 || len(tr.Times) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tr.Rows))
	}
	if f := tr.Column("F_triceps"); f[1] != 40 {
		t.Errorf("F_triceps = %v", f)
	}
	cn := tr.Column("cn_sum_triceps")
	if cn[0] != 0.9 || !math.IsNaN(cn[2]) {
		t.Errorf("cn_sum = %v", cn)
	}
	if tr.Column("missing") != nil {
		t.Error("expected nil for unknown column")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunInfo{Label: "run"}, sampleResults()[:1]); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not sorted newest first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunInfo{Config: map[string]int{"substeps": 4}}, sampleResults())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "states.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreErrors(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Save(RunInfo{}, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty save: %v", err)
	}
	if _, err := st.Load("deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown prefix: %v", err)
	}
	if _, err := st.LoadStates("00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: %v", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := st.Save(RunInfo{}, sampleResults()[:1]); err != nil {
			t.Fatal(err)
		}
	}
	// 20 random ids cannot all start with distinct hex digits
	ambiguous := false
	for _, c := range "0123456789abcdef" {
		if _, err := st.Resolve(string(c)); errors.Is(err, ErrAmbiguous) {
			ambiguous = true
		}
	}
	if !ambiguous {
		t.Error("expected an ambiguous one-character prefix")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(RunInfo{Label: "arm", Horizon: "1", Integrator: "rk4"}, sampleResults())
	if err != nil {
		t.Fatal(err)
	}
	meta, _ := st.Load(runID)
	tr, _ := st.LoadStates(runID)

	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, tr); err != nil {
		t.Fatal(err)
	}

	var back struct {
		Label   string                        `json:"label"`
		Times   []float64                     `json:"times"`
		Series  map[string][]*float64         `json:"series"`
		Metrics map[string]map[string]float64 `json:"metrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.Label != "arm" || len(back.Times) != 3 {
		t.Errorf("export %+v", back)
	}
	if cn := back.Series["cn_sum_triceps"]; cn[2] != nil || *cn[1] != 0.3 {
		t.Errorf("cn_sum series %v", cn)
	}
	if back.Metrics["triceps"]["mean_cn_sum"] != 0.6 {
		t.Errorf("metrics %v", back.Metrics)
	}
}
