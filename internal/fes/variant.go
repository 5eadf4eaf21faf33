package fes

import (
	"fmt"
	"strings"
)

// Kind is the stimulation encoding a model responds to.
type Kind int

const (
	Frequency Kind = iota
	PulseWidth
	PulseIntensity
)

func (k Kind) String() string {
	switch k {
	case Frequency:
		return "frequency"
	case PulseWidth:
		return "pulse_width"
	case PulseIntensity:
		return "pulse_intensity"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Variant identifies one member of the closed model family.
type Variant struct {
	Kind    Kind
	Fatigue bool
}

var (
	Ding2003        = Variant{Kind: Frequency}
	Ding2003Fatigue = Variant{Kind: Frequency, Fatigue: true}
	Ding2007        = Variant{Kind: PulseWidth}
	Ding2007Fatigue = Variant{Kind: PulseWidth, Fatigue: true}
	Hmed2018        = Variant{Kind: PulseIntensity}
	Hmed2018Fatigue = Variant{Kind: PulseIntensity, Fatigue: true}
)

// Variants lists the whole family in a stable order.
func Variants() []Variant {
	return []Variant{Ding2003, Ding2003Fatigue, Ding2007, Ding2007Fatigue, Hmed2018, Hmed2018Fatigue}
}

func (v Variant) String() string {
	var base string
	switch v.Kind {
	case Frequency:
		base = "ding2003"
	case PulseWidth:
		base = "ding2007"
	case PulseIntensity:
		base = "hmed2018"
	default:
		return v.Kind.String()
	}
	if v.Fatigue {
		return base + "_fatigue"
	}
	return base
}

// NeedsMagnitude reports whether stimulation events must carry a width or an
// intensity for this variant.
func (v Variant) NeedsMagnitude() bool { return v.Kind != Frequency }

// ParseVariant accepts the names produced by Variant.String.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, v := range Variants() {
		if v.String() == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}
