package domain

import "math"

// Trait score bounds. Every score the system stores lies in [TraitMin, TraitMax].
const (
	TraitMin = 0.0
	TraitMax = 5.0
)

// Trait names as they appear in JSON payloads and scorer responses.
const (
	TraitExtroversion = "extroversion"
	TraitOpenness     = "openness"
	TraitSpontaneity  = "spontaneity"
	TraitEnergyLevel  = "energy_level"
)

// TraitNames lists the tracked dimensions in the order Vector reports them.
var TraitNames = []string{TraitExtroversion, TraitOpenness, TraitSpontaneity, TraitEnergyLevel}

// Traits holds a user's personality scores. The zero value is a valid,
// all-zero score set, which is what a user gets when scoring yields nothing.
type Traits struct {
	Extroversion float64 `json:"extroversion"`
	Openness     float64 `json:"openness"`
	Spontaneity  float64 `json:"spontaneity"`
	EnergyLevel  float64 `json:"energy_level"`
}

// Vector returns the scores in TraitNames order.
func (t Traits) Vector() []float64 {
	return []float64{t.Extroversion, t.Openness, t.Spontaneity, t.EnergyLevel}
}

// TraitsFromMap builds Traits from a name-to-score mapping.
// Names that are absent, NaN, or infinite default to 0; values are clamped
// into [TraitMin, TraitMax].
func TraitsFromMap(m map[string]float64) Traits {
	get := func(name string) float64 {
		v, ok := m[name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return ClampTrait(v)
	}
	return Traits{
		Extroversion: get(TraitExtroversion),
		Openness:     get(TraitOpenness),
		Spontaneity:  get(TraitSpontaneity),
		EnergyLevel:  get(TraitEnergyLevel),
	}
}

// ClampTrait bounds v to [TraitMin, TraitMax].
func ClampTrait(v float64) float64 {
	return math.Max(TraitMin, math.Min(TraitMax, v))
}
