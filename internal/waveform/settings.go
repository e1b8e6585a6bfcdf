package waveform

import "github.com/Nicholas-Amsler/lung-iq/internal/physiology"

// Length is the number of samples in one breath cycle.
const Length = 100

// Kind selects which curve Generate produces.
type Kind string

const (
	Pressure    Kind = "pressure"
	Flow        Kind = "flow"
	Volume      Kind = "volume"
	Capnography Kind = "capnography"
)

// Kinds is the order frames carry the curves in.
var Kinds = []Kind{Pressure, Flow, Volume, Capnography}

// Mode is the ventilation mode.
type Mode string

const (
	ModeVolume   Mode = "volume"
	ModePressure Mode = "pressure"
	ModeSupport  Mode = "support"
)

// pressureTargeted is true for pressure control and pressure support.
// Anything else, including an empty mode, is treated as volume control.
func (m Mode) pressureTargeted() bool {
	return m == ModePressure || m == ModeSupport
}

// Settings are the ventilator controls.
//
// IERatio is inspiratory over expiratory time as one number (0.5 is 1:2).
// RiseTime is the fraction of inspiration spent ramping to PIP.
// PIP > PEEP is expected but not enforced.
type Settings struct {
	PEEP            float64 `json:"peep" yaml:"peep"`
	PIP             float64 `json:"pip" yaml:"pip"`
	RespiratoryRate float64 `json:"rr" yaml:"rr"`
	IERatio         float64 `json:"ieRatio" yaml:"ie_ratio"`
	RiseTime        float64 `json:"riseTime" yaml:"rise_time"`
	Mode            Mode    `json:"mode" yaml:"mode"`
}

// DefaultSettings mirrors the controls the simulator opens with.
func DefaultSettings() Settings {
	return Settings{PEEP: 5, PIP: 30, RespiratoryRate: 12, IERatio: 1, RiseTime: 0.3, Mode: ModeVolume}
}

// DefaultEtCO2 is the capnography plateau used when a request leaves it zero.
const DefaultEtCO2 = 40.0

// Request is the full argument tuple of one generator call. It is
// comparable, so it doubles as the memoization key.
type Request struct {
	Kind       Kind                 `json:"kind"`
	Settings   Settings             `json:"settings"`
	Patient    physiology.Patient   `json:"patient"`
	Pathology  physiology.Pathology `json:"pathology"`
	Phase      int                  `json:"phase"`
	BreathStep int                  `json:"breathStep"`
	EtCO2Max   float64              `json:"etco2Max"`
}

// WithKind returns a copy of r for another curve.
func (r Request) WithKind(k Kind) Request {
	r.Kind = k
	return r
}
