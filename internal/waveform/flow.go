package waveform

import (
	"math"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

// peak inspiratory flow in L/min before any scaling
var basePeakFlow = map[physiology.Pathology]float64{
	physiology.Normal:       30,
	physiology.ARDS:         20,
	physiology.COPD:         25,
	physiology.Asthma:       25,
	physiology.Pneumothorax: 20,
}

const (
	trappedFlowFraction = 0.1
	flowSnap            = 0.5
)

// PeakFlow is the inspiratory peak flow in L/min for a request.
func PeakFlow(r Request) float64 {
	c := newCycle(r)
	return peakFlow(r, c)
}

func peakFlow(r Request, c cycle) float64 {
	peak, ok := basePeakFlow[r.Pathology]
	if !ok {
		peak = basePeakFlow[physiology.Normal]
	}
	if r.Patient.Class.Pediatric() {
		peak *= physiology.PediatricScale(r.Patient.WeightKg)
	}
	if normal := physiology.Lookup(physiology.Normal, r.Patient); normal.Compliance > 0 {
		peak *= c.mech.Compliance / normal.Compliance
	}
	// shorter inspiration needs more flow to deliver the same volume
	if c.ie < 1 {
		peak *= 1 + (1 - c.ie)
	}
	return peak
}

// flowCycle is flow in L/min; expiratory flow is negative.
func flowCycle(c cycle, r Request) []float64 {
	out := make([]float64, Length)
	peak := peakFlow(r, c)
	trapped := c.trapping()
	residual := 0.0
	if trapped {
		residual = trappedFlowFraction * peak
	}

	for i := range out {
		x := float64(i)
		switch {
		case x < c.insp && r.Settings.Mode.pressureTargeted():
			out[i] = peak * (1 - 0.5*x/c.insp)
		case x < c.insp:
			out[i] = peak
		default:
			v := -(residual + (peak-residual)*c.expDecay(x))
			if !trapped && math.Abs(v) < flowSnap {
				v = 0
			}
			out[i] = v
		}
	}
	return out
}
