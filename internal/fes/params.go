package fes

import (
	"fmt"
	"math"
	"sort"
)

// Param names one physiological constant.
type Param int

const (
	Tauc Param = iota
	R0KmRelationship
	ARest
	Tau1Rest
	Tau2
	KmRest
	AlphaA
	AlphaTau1
	AlphaKm
	TauFat
	AScale
	PD0
	PDT
	AR
	BS
	IS
	CR
	numParams
)

type bound int

const (
	anyFinite bound = iota
	nonNegative
	positive
)

type paramSpec struct {
	name  string
	bound bound
}

var paramSpecs = [numParams]paramSpec{
	Tauc:             {"tauc", positive},
	R0KmRelationship: {"r0_km_relationship", anyFinite},
	ARest:            {"a_rest", positive},
	Tau1Rest:         {"tau1_rest", positive},
	Tau2:             {"tau2", positive},
	KmRest:           {"km_rest", positive},
	AlphaA:           {"alpha_a", anyFinite},
	AlphaTau1:        {"alpha_tau1", anyFinite},
	AlphaKm:          {"alpha_km", anyFinite},
	TauFat:           {"tau_fat", positive},
	AScale:           {"a_scale", positive},
	PD0:              {"pd0", nonNegative},
	PDT:              {"pdt", positive},
	AR:               {"ar", positive},
	BS:               {"bs", positive},
	IS:               {"is", nonNegative},
	CR:               {"cr", anyFinite},
}

func (p Param) String() string {
	if p < 0 || p >= numParams {
		return fmt.Sprintf("param(%d)", int(p))
	}
	return paramSpecs[p].name
}

// ParseParam maps a parameter name back to its identifier.
func ParseParam(name string) (Param, error) {
	for i, s := range paramSpecs {
		if s.name == name {
			return Param(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}

// Published defaults, seconds throughout.
// Ding et al. 2003, J Electromyogr Kinesiol 13(6); Ding et al. 2007, Muscle
// Nerve 36(2); Hmed et al. 2018 for the intensity efficacy curve.
var defaults = [numParams]float64{
	Tauc:             0.020,
	R0KmRelationship: 1.04,
	ARest:            3009,
	Tau1Rest:         0.050957,
	Tau2:             0.060,
	KmRest:           0.103,
	AlphaA:           -4.0e-6,
	AlphaTau1:        2.1e-4,
	AlphaKm:          1.9e-7,
	TauFat:           127,
	AScale:           4920,
	PD0:              0.000131405,
	PDT:              0.000194138,
	AR:               0.586,
	BS:               0.026,
	IS:               63.1,
	CR:               0.833,
}

// ding 2007 refits the shared constants for the width model.
var ding2007Overrides = map[Param]float64{
	Tauc:     0.011,
	Tau1Rest: 0.060601,
	Tau2:     0.001,
	KmRest:   0.137,
}

var (
	restParams      = []Param{Tauc, R0KmRelationship, ARest, Tau1Rest, Tau2, KmRest}
	fatigueParams   = []Param{AlphaA, AlphaTau1, AlphaKm, TauFat}
	widthParams     = []Param{Tauc, R0KmRelationship, AScale, PD0, PDT, Tau1Rest, Tau2, KmRest}
	intensityParams = []Param{AR, BS, IS, CR}
)

func variantParams(v Variant) []Param {
	var out []Param
	switch v.Kind {
	case PulseWidth:
		out = append(out, widthParams...)
	case PulseIntensity:
		out = append(out, restParams...)
		out = append(out, intensityParams...)
	default:
		out = append(out, restParams...)
	}
	if v.Fatigue {
		out = append(out, fatigueParams...)
	}
	return out
}

// identifiable constants, in the order identification routines expose them.
func variantIdentifiable(v Variant) []Param {
	var out []Param
	switch v.Kind {
	case PulseWidth:
		out = []Param{AScale, PD0, PDT, Tau1Rest, KmRest, Tau2}
	case PulseIntensity:
		out = []Param{ARest, Tau1Rest, KmRest, Tau2, AR, BS, IS, CR}
	default:
		out = []Param{ARest, Tau1Rest, KmRest, Tau2}
	}
	if v.Fatigue {
		out = append(out, fatigueParams...)
	}
	return out
}

// ParameterSet holds the named constants of one model instance.
//
// Values change only through the setters. A ParameterSet has a single writer:
// callers must not update it while a derivative that reads it is being
// evaluated.
type ParameterSet struct {
	variant Variant
	values  [numParams]float64
	used    [numParams]bool
}

// Defaults returns the published constants for v.
func Defaults(v Variant) *ParameterSet {
	p := &ParameterSet{variant: v, values: defaults}
	if v.Kind == PulseWidth {
		for id, val := range ding2007Overrides {
			p.values[id] = val
		}
	}
	for _, id := range variantParams(v) {
		p.used[id] = true
	}
	return p
}

func (p *ParameterSet) Variant() Variant { return p.variant }

func (p *ParameterSet) Clone() *ParameterSet {
	c := *p
	return &c
}

// Get returns the value of id. Constants that the variant does not use read
// as their package default.
func (p *ParameterSet) Get(id Param) float64 { return p.values[id] }

// Uses reports whether the variant reads id.
func (p *ParameterSet) Uses(id Param) bool {
	return id >= 0 && id < numParams && p.used[id]
}

// Set validates and stores one constant.
func (p *ParameterSet) Set(id Param, v float64) error {
	if !p.Uses(id) {
		return fmt.Errorf("%w: %s is not a %s constant", ErrUnknownParam, id, p.variant)
	}
	if err := checkBound(id, v); err != nil {
		return err
	}
	p.values[id] = v
	return nil
}

func checkBound(id Param, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s = %v is not finite", ErrConfig, id, v)
	}
	switch paramSpecs[id].bound {
	case positive:
		if v <= 0 {
			return fmt.Errorf("%w: %s = %v must be positive", ErrConfig, id, v)
		}
	case nonNegative:
		if v < 0 {
			return fmt.Errorf("%w: %s = %v must be non-negative", ErrConfig, id, v)
		}
	}
	return nil
}

// Validate checks every constant the variant uses.
func (p *ParameterSet) Validate() error {
	for _, id := range variantParams(p.variant) {
		if err := checkBound(id, p.values[id]); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the constants used by the variant.
func (p *ParameterSet) Names() []string {
	ids := variantParams(p.variant)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Identifiable lists the constants identification routines may adjust.
func (p *ParameterSet) Identifiable() []string {
	ids := variantIdentifiable(p.variant)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (p *ParameterSet) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for _, id := range variantParams(p.variant) {
		out[id.String()] = p.values[id]
	}
	return out
}

func (p *ParameterSet) SetParam(name string, value float64) error {
	id, err := ParseParam(name)
	if err != nil {
		return err
	}
	return p.Set(id, value)
}

// Apply sets several constants by name, in sorted name order, stopping at
// the first error.
func (p *ParameterSet) Apply(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := p.SetParam(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML serializes the constants the variant uses.
func (p *ParameterSet) MarshalYAML() (interface{}, error) {
	return p.GetParams(), nil
}

func (p *ParameterSet) SetTauc(v float64) error             { return p.Set(Tauc, v) }
func (p *ParameterSet) SetR0KmRelationship(v float64) error { return p.Set(R0KmRelationship, v) }
func (p *ParameterSet) SetARest(v float64) error            { return p.Set(ARest, v) }
func (p *ParameterSet) SetTau1Rest(v float64) error         { return p.Set(Tau1Rest, v) }
func (p *ParameterSet) SetTau2(v float64) error             { return p.Set(Tau2, v) }
func (p *ParameterSet) SetKmRest(v float64) error           { return p.Set(KmRest, v) }
func (p *ParameterSet) SetAlphaA(v float64) error           { return p.Set(AlphaA, v) }
func (p *ParameterSet) SetAlphaTau1(v float64) error        { return p.Set(AlphaTau1, v) }
func (p *ParameterSet) SetAlphaKm(v float64) error          { return p.Set(AlphaKm, v) }
func (p *ParameterSet) SetTauFat(v float64) error           { return p.Set(TauFat, v) }
func (p *ParameterSet) SetAScale(v float64) error           { return p.Set(AScale, v) }
func (p *ParameterSet) SetPD0(v float64) error              { return p.Set(PD0, v) }
func (p *ParameterSet) SetPDT(v float64) error              { return p.Set(PDT, v) }
func (p *ParameterSet) SetAR(v float64) error               { return p.Set(AR, v) }
func (p *ParameterSet) SetBS(v float64) error               { return p.Set(BS, v) }
func (p *ParameterSet) SetIS(v float64) error               { return p.Set(IS, v) }
func (p *ParameterSet) SetCR(v float64) error               { return p.Set(CR, v) }
