package physiology

import "math"

const (
	maleIBWFloor   = 50.0
	femaleIBWFloor = 45.5
	cmPerInch      = 2.54
)

// IdealBodyWeight is the ARDSnet ideal body weight in kg.
//
// Heights at or below 60 in (152.4 cm) return the floor constant: 50 kg for
// men, 45.5 kg for women. Any gender other than male uses the female formula.
func IdealBodyWeight(heightCm float64, g Gender) float64 {
	inches := heightCm / cmPerInch
	if g == Male {
		return math.Max(maleIBWFloor, maleIBWFloor+2.3*(inches-60))
	}
	return math.Max(femaleIBWFloor, femaleIBWFloor+2.3*(inches-60))
}

// Bounds are the lung-protective tidal volume limits in mL.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Bounds) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// ReferenceWeight is IBW for adults and actual weight for children.
func ReferenceWeight(p Patient) float64 {
	if p.Class.Pediatric() {
		return p.WeightKg
	}
	return IdealBodyWeight(p.HeightCm, p.Gender)
}

// TidalVolumeBounds returns 4-8 mL/kg IBW for adults and the class's
// mL/kg band of actual weight for pediatric patients.
func TidalVolumeBounds(p Patient) Bounds {
	if !p.Class.Pediatric() {
		ibw := IdealBodyWeight(p.HeightCm, p.Gender)
		return Bounds{Min: math.Round(ibw * 4), Max: math.Round(ibw * 8)}
	}
	perKg := CategoryFor(p.Class).TVPerKg
	return Bounds{
		Min: math.Round(p.WeightKg * perKg.Min),
		Max: math.Round(p.WeightKg * perKg.Max),
	}
}

// TargetTidalVolume is the 6 mL/kg reference the assessments are written
// against (IBW for adults, actual weight otherwise).
func TargetTidalVolume(p Patient) float64 {
	return math.Round(ReferenceWeight(p) * 6)
}
