package analysis

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// AlarmPublisher receives alarms as they are raised.
type AlarmPublisher interface {
	PublishAlarms(alarms []Alarm) error
}

// Monitor joins the wave and metrics streams for an AlarmDetector. Curves
// and metrics travel separately, so each frame is judged against the most
// recent metrics seen.
type Monitor struct {
	mu      sync.Mutex
	det     *AlarmDetector
	metrics waveform.Metrics
	pub     AlarmPublisher
	log     *zap.Logger
}

func NewMonitor(l Limits, pub AlarmPublisher, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{det: NewAlarmDetector(l), pub: pub, log: log}
}

func (m *Monitor) ObserveMetrics(mt waveform.Metrics) {
	m.mu.Lock()
	m.metrics = mt
	m.mu.Unlock()
}

// ObserveFrame runs the detector and publishes any new alarms.
func (m *Monitor) ObserveFrame(f waveform.Frame, ts time.Time) []Alarm {
	m.mu.Lock()
	f.Metrics = m.metrics
	alarms := m.det.Process(f, ts)
	m.mu.Unlock()

	if len(alarms) == 0 {
		return nil
	}
	for _, a := range alarms {
		m.log.Info("alarm raised",
			zap.String("kind", string(a.Kind)),
			zap.String("severity", string(a.Severity)),
			zap.Float64("value", a.Value),
			zap.Int("step", f.Step),
		)
	}
	if m.pub != nil {
		if err := m.pub.PublishAlarms(alarms); err != nil {
			m.log.Warn("publish alarms failed", zap.Error(err))
		}
	}
	return alarms
}

// Reset forgets edge state and the cached metrics.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.det.Reset()
	m.metrics = waveform.Metrics{}
	m.mu.Unlock()
}

func (m *Monitor) SetLimits(l Limits) {
	m.mu.Lock()
	m.det.SetLimits(l)
	m.mu.Unlock()
}
