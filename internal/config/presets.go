package config

import "sort"

// Presets holds ready-made runs per model family.
var Presets = map[string]map[string]*Config{
	"ding2003": {
		"10hz": {
			Horizon: "1", Frequency: "10", Integrator: "rk4", Substeps: 10,
			Muscles: []MuscleConfig{{Model: "ding2003"}},
		},
		"irregular": {
			Horizon: "0.5", Stimulation: []string{"0", "0.013", "0.05", "0.051", "0.3"}, Integrator: "rk4", Substeps: 4,
			Muscles: []MuscleConfig{{Model: "ding2003"}},
		},
		"thirds": {
			Horizon: "1", Stimulation: []string{"0", "1/3", "2/3"}, Integrator: "rk4", Substeps: 100,
			Muscles: []MuscleConfig{{Model: "ding2003"}},
		},
		"fatigue": {
			Horizon: "10", Frequency: "33", Integrator: "rk4", Substeps: 5,
			Muscles: []MuscleConfig{{Model: "ding2003_fatigue"}},
		},
		"approximated": {
			Horizon: "1", Frequency: "10", Integrator: "rk4", Substeps: 10,
			Muscles: []MuscleConfig{{Model: "ding2003", Approximated: true}},
		},
		"truncated": {
			Horizon: "1", Frequency: "50", Integrator: "rk4", Substeps: 5,
			Muscles: []MuscleConfig{{Model: "ding2003", Truncation: 10}},
		},
	},
	"ding2007": {
		"ramp": {
			Horizon: "0.5", Frequency: "20", Integrator: "rk4", Substeps: 10,
			Muscles: []MuscleConfig{{
				Model:      "ding2007",
				Magnitudes: []float64{0.00015, 0.0002, 0.00025, 0.0003, 0.00035, 0.0004, 0.00045, 0.0005, 0.00055, 0.0006},
			}},
		},
		"fatigue": {
			Horizon: "5", Frequency: "25", Integrator: "rk4", Substeps: 5,
			Muscles: []MuscleConfig{{Model: "ding2007_fatigue", Magnitude: 0.0004}},
		},
	},
	"hmed2018": {
		"ramp": {
			Horizon: "0.5", Frequency: "20", Integrator: "rk4", Substeps: 10,
			Muscles: []MuscleConfig{{
				Model:      "hmed2018",
				Magnitudes: []float64{65, 70, 75, 80, 85, 90, 95, 100, 105, 110},
			}},
		},
		"fatigue": {
			Horizon: "5", Frequency: "20", Integrator: "rk4", Substeps: 5,
			Muscles: []MuscleConfig{{Model: "hmed2018_fatigue", Magnitude: 90}},
		},
	},
	"multi": {
		"arm": {
			Horizon: "1", Frequency: "20", Integrator: "rk4", Substeps: 10,
			Muscles: []MuscleConfig{
				{Name: "BIClong", Model: "ding2007_fatigue", Magnitude: 0.0005},
				{Name: "TRIlong", Model: "ding2007_fatigue", Magnitude: 0.0002},
			},
		},
	},
}

// GetPreset returns a copy of the preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Families lists the preset groups.
func Families() []string {
	out := make([]string, 0, len(Presets))
	for k := range Presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
