package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

func frameFor(peep, pip float64, p physiology.Pathology) waveform.Frame {
	return waveform.NewGenerator(0).Frame(waveform.Request{
		Settings:  waveform.Settings{PEEP: peep, PIP: pip, RespiratoryRate: 12, IERatio: 1, RiseTime: 0.3, Mode: waveform.ModePressure},
		Patient:   physiology.DefaultPatient(),
		Pathology: p,
	})
}

func TestAlarmDetector_QuietWithinLimits(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	assert.Empty(t, d.Process(frameFor(5, 25, physiology.Normal), time.Now()))
}

func TestAlarmDetector_HighPressureOnRisingEdge(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	alarms := d.Process(frameFor(5, 40, physiology.Normal), ts)
	require.Len(t, alarms, 1)
	assert.Equal(t, HighPressure, alarms[0].Kind)
	assert.Equal(t, Critical, alarms[0].Severity)
	assert.Equal(t, "High Pressure Alarm: 40.0 cmH₂O (Limit: 35)", alarms[0].Message)
	assert.Equal(t, ts, alarms[0].Time)

	assert.Empty(t, d.Process(frameFor(5, 40, physiology.Normal), ts), "still high, no new alarm")
	assert.Empty(t, d.Process(frameFor(5, 25, physiology.Normal), ts))
	assert.Len(t, d.Process(frameFor(5, 40, physiology.Normal), ts), 1, "re-armed after clearing")
}

func TestAlarmDetector_LowPressure(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	alarms := d.Process(frameFor(0, 25, physiology.Normal), time.Now())
	require.Len(t, alarms, 1)
	assert.Equal(t, LowPressure, alarms[0].Kind)
	assert.Equal(t, "Low Pressure Alarm: 0.0 cmH₂O (Limit: 5)", alarms[0].Message)
}

func TestAlarmDetector_AutoPEEP(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	alarms := d.Process(frameFor(5, 20, physiology.COPD), time.Now())
	require.Len(t, alarms, 1)
	assert.Equal(t, AutoPEEP, alarms[0].Kind)
	assert.Equal(t, Warning, alarms[0].Severity)
	assert.Greater(t, alarms[0].Value, 0.0)

	d.Reset()
	assert.Len(t, d.Process(frameFor(5, 20, physiology.COPD), time.Now()), 1)
}

func TestAlarmDetector_SetLimits(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	d.SetLimits(Limits{High: 20, Low: 2})
	assert.Equal(t, Limits{High: 20, Low: 2}, d.Limits())

	alarms := d.Process(frameFor(5, 25, physiology.Normal), time.Now())
	require.Len(t, alarms, 1)
	assert.Equal(t, HighPressure, alarms[0].Kind)
}

func TestAlarmDetector_EmptyFrame(t *testing.T) {
	d := NewAlarmDetector(DefaultLimits())
	assert.Empty(t, d.Process(waveform.Frame{}, time.Now()))
}

func TestLog_KeepsMostRecent(t *testing.T) {
	l := NewLog(2)
	assert.Empty(t, l.Entries())

	l.Append(Alarm{Kind: AutoPEEP}, Alarm{Kind: HighPressure})
	l.Append(Alarm{Kind: LowPressure})

	got := l.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, HighPressure, got[0].Kind)
	assert.Equal(t, LowPressure, got[1].Kind)

	l.Clear()
	assert.Empty(t, l.Entries())
}

type alarmSink struct{ got []Alarm }

func (s *alarmSink) PublishAlarms(a []Alarm) error {
	s.got = append(s.got, a...)
	return nil
}

func TestMonitor_UsesLatestMetrics(t *testing.T) {
	sink := &alarmSink{}
	m := NewMonitor(DefaultLimits(), sink, nil)

	f := frameFor(5, 20, physiology.COPD)
	metrics := f.Metrics
	require.True(t, metrics.AutoPEEPSuspected)

	// curves alone carry no metrics
	f.Metrics = waveform.Metrics{}
	assert.Empty(t, m.ObserveFrame(f, time.Now()))

	m.ObserveMetrics(metrics)
	got := m.ObserveFrame(f, time.Now())
	require.Len(t, got, 1)
	assert.Equal(t, AutoPEEP, got[0].Kind)
	assert.Equal(t, got, sink.got)

	m.Reset()
	m.ObserveMetrics(metrics)
	assert.Len(t, m.ObserveFrame(f, time.Now()), 1)
}
