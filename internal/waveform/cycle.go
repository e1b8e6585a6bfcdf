package waveform

import (
	"math"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

const (
	weaningStepThreshold = 30
	weaningRR            = 28.0

	minTimeConstant = 0.01
	maxIERatio      = 1e6
)

// cycle holds the timing shared by every curve of one breath.
type cycle struct {
	rr         float64 // effective breaths/min
	ie         float64
	insp       float64 // inspiratory samples
	exp        float64 // expiratory samples
	period     float64 // seconds per breath
	expSeconds float64
	tau        float64
	mech       physiology.Mechanics
	autoPEEP   float64 // cmH2O
}

// EffectiveRR applies the weaning-failure override: once the learner has
// watched 30 steps the patient tires and the rate jumps to 28.
func EffectiveRR(rr float64, p physiology.Pathology, breathStep int) float64 {
	if p == physiology.WeaningFailure && breathStep >= weaningStepThreshold {
		return weaningRR
	}
	if math.IsNaN(rr) || rr <= 0 {
		return 1
	}
	return rr
}

func newCycle(r Request) cycle {
	c := cycle{
		rr:   EffectiveRR(r.Settings.RespiratoryRate, r.Pathology, r.BreathStep),
		ie:   sanitizeIE(r.Settings.IERatio),
		mech: physiology.Lookup(r.Pathology, r.Patient),
	}
	c.insp = Length * c.ie / (1 + c.ie)
	c.exp = Length - c.insp
	c.period = 60 / c.rr
	c.expSeconds = c.period * c.exp / Length
	c.tau = c.mech.TimeConstant
	if math.IsNaN(c.tau) || c.tau < minTimeConstant {
		c.tau = minTimeConstant
	}
	c.autoPEEP = AutoPEEPLevel(c.ie, c.expSeconds, c.tau)
	return c
}

func sanitizeIE(ie float64) float64 {
	switch {
	case math.IsNaN(ie) || ie < 0:
		return 0
	case ie > maxIERatio:
		return maxIERatio
	}
	return ie
}

// AutoPEEPLevel estimates the residual pressure left by incomplete
// exhalation: up to 3 cmH2O for an inverted I:E ratio (below 0.5) plus up
// to 2 cmH2O when expiration is shorter than three time constants.
func AutoPEEPLevel(ie, expSeconds, tau float64) float64 {
	level := 0.0
	if ie < 0.5 {
		level += math.Min(3, 6*(0.5-ie))
	}
	if trap := 3 * tau; expSeconds < trap {
		level += math.Min(2, 2*(1-expSeconds/trap))
	}
	return level
}

// trapping reports whether expiration cannot empty the lung: less than
// three time constants (95 % emptying) or an inverted ratio.
func (c cycle) trapping() bool {
	return c.expSeconds < 3*c.tau || c.ie < 0.5
}

// expDecay is exp(-k) for the fraction f of expiration already elapsed,
// where k counts elapsed time constants.
func (c cycle) expDecay(x float64) float64 {
	if c.exp <= 0 {
		return 1
	}
	f := (x - c.insp) / c.exp
	return math.Exp(-f * c.expSeconds / c.tau)
}
