package waveform

const (
	capnoRiseFraction    = 0.15
	capnoPlateauFraction = 0.7
)

// capnographyCycle is end-tidal CO2 in mmHg. It only depends on timing:
// zero while inspiring, then rise, alveolar plateau and washout.
func capnographyCycle(c cycle, etco2Max float64) []float64 {
	out := make([]float64, Length)
	rise := c.exp * capnoRiseFraction
	plateau := c.exp * capnoPlateauFraction
	fall := c.exp - rise - plateau

	for i := range out {
		x := float64(i)
		if x < c.insp {
			continue
		}
		e := x - c.insp
		switch {
		case e < rise:
			out[i] = etco2Max * (e / rise)
		case e < rise+plateau:
			out[i] = etco2Max
		case e < rise+plateau+fall:
			out[i] = etco2Max * (1 - (e-rise-plateau)/fall)
		}
	}
	return out
}
