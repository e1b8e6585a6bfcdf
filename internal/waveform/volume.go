package waveform

import (
	"math"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

// MaxVolume caps every volume sample so the renderer never sees runaway values.
const MaxVolume = 1000.0

// TargetTidalVolume is compliance x driving pressure clamped to the
// patient's lung-protective bounds, in mL.
func TargetTidalVolume(r Request) float64 {
	return targetVolume(r, newCycle(r))
}

func targetVolume(r Request, c cycle) float64 {
	driving := math.Max(0, r.Settings.PIP-r.Settings.PEEP)
	return physiology.TidalVolumeBounds(r.Patient).Clamp(c.mech.Compliance * driving)
}

// volumeCycle is lung volume above FRC in mL.
func volumeCycle(c cycle, r Request) []float64 {
	out := make([]float64, Length)
	target := targetVolume(r, c)
	trapped := c.mech.Compliance * c.autoPEEP
	pressure := r.Settings.Mode.pressureTargeted()

	rise := func(x float64) float64 {
		if !pressure {
			if c.insp <= 0 {
				return 1
			}
			return x / c.insp
		}
		t := c.period * x / Length
		return 1 - math.Exp(-t/c.tau)
	}
	endInsp := trapped + (target-trapped)*rise(c.insp)

	for i := range out {
		x := float64(i)
		var v float64
		if x < c.insp {
			v = trapped + (target-trapped)*rise(x)
		} else {
			v = trapped + (endInsp-trapped)*c.expDecay(x)
		}
		out[i] = math.Max(0, math.Min(MaxVolume, v))
	}
	return out
}
