package storage

import (
	"encoding/json"
	"io"
	"math"
)

var nan = math.NaN()

type ExportData struct {
	ID         string                        `json:"id"`
	Label      string                        `json:"label"`
	Horizon    string                        `json:"horizon"`
	Integrator string                        `json:"integrator"`
	Substeps   int                           `json:"substeps"`
	Nodes      int                           `json:"nodes"`
	Times      []float64                     `json:"times"`
	Series     map[string][]*float64         `json:"series"`
	Metrics    map[string]map[string]float64 `json:"metrics"`
	Warnings   []string                      `json:"warnings,omitempty"`
}

// Export builds the JSON document for a stored run. Missing samples become
// null.
func Export(meta *RunMetadata, tr *Trace) *ExportData {
	data := &ExportData{
		ID:         meta.ID,
		Label:      meta.Label,
		Horizon:    meta.Horizon,
		Integrator: meta.Integrator,
		Substeps:   meta.Substeps,
		Nodes:      meta.Nodes,
		Times:      tr.Times,
		Series:     make(map[string][]*float64),
		Metrics:    make(map[string]map[string]float64),
		Warnings:   meta.Warnings,
	}
	for _, m := range meta.Muscles {
		data.Metrics[m.Name] = m.Metrics
	}
	for _, c := range tr.Columns[1:] {
		col := tr.Column(c)
		out := make([]*float64, len(col))
		for i := range col {
			if !math.IsNaN(col[i]) {
				out[i] = &col[i]
			}
		}
		data.Series[c] = out
	}
	return data
}

func ExportJSON(w io.Writer, meta *RunMetadata, tr *Trace) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Export(meta, tr))
}
