package waveform

import (
	"math"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

const (
	plateauOffset      = 2.0
	autoPEEPTailLength = 5
	autoPEEPTailFlow   = 2.0
)

// Metrics are the numbers shown next to the curves.
type Metrics struct {
	TidalVolume       float64           `json:"tidalVolume"`
	MinuteVentilation float64           `json:"minuteVentilation"`
	Plateau           float64           `json:"plateau"`
	DrivingPressure   float64           `json:"drivingPressure"`
	PeakFlow          float64           `json:"peakFlow"`
	EffectiveRR       float64           `json:"effectiveRR"`
	AutoPEEPLevel     float64           `json:"autoPEEPLevel"`
	AutoPEEPSuspected bool              `json:"autoPEEPSuspected"`
	IdealBodyWeight   float64           `json:"idealBodyWeight,omitempty"`
	Bounds            physiology.Bounds `json:"bounds"`
}

// ComputeMetrics derives the display metrics for r. Auto-PEEP is suspected
// when the last five samples of expiration all carry more than 2 L/min.
// The phase of r is ignored.
func ComputeMetrics(r Request) Metrics {
	c := newCycle(r)
	tv := math.Round(targetVolume(r, c))
	m := Metrics{
		TidalVolume:       tv,
		MinuteVentilation: math.Round(tv*c.rr/1000*100) / 100,
		Plateau:           r.Settings.PIP - plateauOffset,
		DrivingPressure:   r.Settings.PIP - r.Settings.PEEP,
		PeakFlow:          peakFlow(r, c),
		EffectiveRR:       c.rr,
		AutoPEEPLevel:     c.autoPEEP,
		AutoPEEPSuspected: flowTailAboveZero(flowCycle(c, r)),
		Bounds:            physiology.TidalVolumeBounds(r.Patient),
	}
	if !r.Patient.Class.Pediatric() {
		m.IdealBodyWeight = physiology.IdealBodyWeight(r.Patient.HeightCm, r.Patient.Gender)
	}
	return m
}

func flowTailAboveZero(flow []float64) bool {
	n := len(flow)
	if n < autoPEEPTailLength {
		return false
	}
	for i := n - autoPEEPTailLength; i < n; i++ {
		if math.Abs(flow[i]) <= autoPEEPTailFlow {
			return false
		}
	}
	return true
}
