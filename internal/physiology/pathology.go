package physiology

import "math"

// Pathology tags a lung condition used by the scenarios.
type Pathology string

const (
	Normal         Pathology = "normal"
	ARDS           Pathology = "ards"
	COPD           Pathology = "copd"
	Asthma         Pathology = "asthma"
	Pneumothorax   Pathology = "pneumothorax"
	WeaningFailure Pathology = "weaning_failure"
)

// Pathologies lists every tag the simulator understands.
var Pathologies = []Pathology{Normal, ARDS, COPD, Asthma, Pneumothorax, WeaningFailure}

// Mechanics is the respiratory-system triple the waveforms are built from.
//
// Compliance is mL/cmH2O, Resistance cmH2O·s/L, TimeConstant seconds.
type Mechanics struct {
	Compliance   float64 `json:"compliance"`
	Resistance   float64 `json:"resistance"`
	TimeConstant float64 `json:"timeConstant"`
}

// adult values; time constant = R*C/1000 in every row
var mechanicsTable = map[Pathology]Mechanics{
	Normal:       {Compliance: 50, Resistance: 10, TimeConstant: 0.5},
	ARDS:         {Compliance: 25, Resistance: 12, TimeConstant: 0.3},
	COPD:         {Compliance: 60, Resistance: 25, TimeConstant: 1.5},
	Asthma:       {Compliance: 45, Resistance: 30, TimeConstant: 1.35},
	Pneumothorax: {Compliance: 20, Resistance: 15, TimeConstant: 0.3},
}

// Known reports whether p has its own entry or is a recognised alias.
func (p Pathology) Known() bool {
	if p == WeaningFailure {
		return true
	}
	_, ok := mechanicsTable[p]
	return ok
}

// Lookup returns the mechanics for a pathology and patient.
//
// Unknown tags and weaning_failure use the normal entry. Pediatric classes
// get compliance scaled by min(weight/70, 1) * 0.8; resistance and time
// constant are left alone.
func Lookup(p Pathology, patient Patient) Mechanics {
	m, ok := mechanicsTable[p]
	if !ok {
		m = mechanicsTable[Normal]
	}
	if patient.Class.Pediatric() {
		m.Compliance *= PediatricScale(patient.WeightKg) * 0.8
	}
	return m
}

// PediatricScale is min(weight/70, 1), floored at zero for bad input.
func PediatricScale(weightKg float64) float64 {
	if math.IsNaN(weightKg) || weightKg <= 0 {
		return 0
	}
	return math.Min(weightKg/70, 1)
}
