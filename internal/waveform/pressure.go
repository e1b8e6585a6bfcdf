package waveform

// pressureCycle is airway pressure in cmH2O over one unshifted breath.
func pressureCycle(c cycle, s Settings) []float64 {
	out := make([]float64, Length)
	riseSteps := c.insp * clamp01(s.RiseTime)
	baseline := s.PEEP + c.autoPEEP

	for i := range out {
		x := float64(i)
		switch {
		case x < c.insp && s.Mode.pressureTargeted():
			if x < riseSteps {
				out[i] = s.PEEP + (s.PIP-s.PEEP)*(x/riseSteps)
			} else {
				out[i] = s.PIP
			}
		case x < c.insp:
			out[i] = s.PEEP + (s.PIP-s.PEEP)*(x/c.insp)
		case c.autoPEEP > 0:
			// incomplete exhalation: decay toward PEEP + auto-PEEP
			out[i] = baseline + (s.PIP-baseline)*c.expDecay(x)
		default:
			out[i] = s.PEEP
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
