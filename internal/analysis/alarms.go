package analysis

import (
	"fmt"
	"time"

	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

type Severity string

const (
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

type AlarmKind string

const (
	AutoPEEP     AlarmKind = "auto_peep"
	HighPressure AlarmKind = "high_pressure"
	LowPressure  AlarmKind = "low_pressure"
)

// Alarm is one entry of the alarm log.
type Alarm struct {
	Time     time.Time `json:"time"`
	Kind     AlarmKind `json:"kind"`
	Message  string    `json:"alarm"`
	Severity Severity  `json:"severity"`
	Value    float64   `json:"value,omitempty"`
}

// Default limits in cmH2O.
const (
	DefaultHighPressureLimit = 35.0
	DefaultLowPressureLimit  = 5.0
)

// Limits are the pressure alarm thresholds.
type Limits struct {
	High float64 `json:"high" yaml:"high"`
	Low  float64 `json:"low" yaml:"low"`
}

func DefaultLimits() Limits {
	return Limits{High: DefaultHighPressureLimit, Low: DefaultLowPressureLimit}
}

// AlarmDetector raises an alarm on the rising edge of each condition, so a
// condition that persists across frames is logged once.
type AlarmDetector struct {
	limits Limits

	autoPEEP bool
	high     bool
	low      bool
}

func NewAlarmDetector(l Limits) *AlarmDetector {
	return &AlarmDetector{limits: l}
}

func (d *AlarmDetector) Limits() Limits { return d.limits }

// SetLimits changes the thresholds; edge state is kept.
func (d *AlarmDetector) SetLimits(l Limits) { d.limits = l }

// Reset forgets edge state, e.g. after a scenario is loaded.
func (d *AlarmDetector) Reset() {
	d.autoPEEP, d.high, d.low = false, false, false
}

// Process returns the alarms that became active with frame f.
func (d *AlarmDetector) Process(f waveform.Frame, ts time.Time) []Alarm {
	var out []Alarm

	auto := f.Metrics.AutoPEEPSuspected
	if auto && !d.autoPEEP {
		out = append(out, Alarm{
			Time:     ts,
			Kind:     AutoPEEP,
			Message:  "Auto-PEEP suspected: Expiratory flow not returning to zero",
			Severity: Warning,
			Value:    f.Metrics.AutoPEEPLevel,
		})
	}
	d.autoPEEP = auto

	peak := f.Pressure.Max()
	high := len(f.Pressure.Values) > 0 && peak > d.limits.High
	if high && !d.high {
		out = append(out, Alarm{
			Time:     ts,
			Kind:     HighPressure,
			Message:  fmt.Sprintf("High Pressure Alarm: %.1f cmH₂O (Limit: %g)", peak, d.limits.High),
			Severity: Critical,
			Value:    peak,
		})
	}
	d.high = high

	trough := f.Pressure.Min()
	low := len(f.Pressure.Values) > 0 && trough < d.limits.Low
	if low && !d.low {
		out = append(out, Alarm{
			Time:     ts,
			Kind:     LowPressure,
			Message:  fmt.Sprintf("Low Pressure Alarm: %.1f cmH₂O (Limit: %g)", trough, d.limits.Low),
			Severity: Critical,
			Value:    trough,
		})
	}
	d.low = low

	return out
}
