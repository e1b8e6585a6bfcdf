package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestState_TickWraps(t *testing.T) {
	s := NewState(0)
	assert.Equal(t, waveform.DefaultEtCO2, s.Snapshot().EtCO2Max)

	for i := 0; i < 100; i++ {
		s.Tick()
	}
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Phase)
	assert.Equal(t, 100, snap.BreathStep)

	s.mu.Lock()
	s.snap.BreathStep = stepModulus - 1
	s.mu.Unlock()
	assert.Equal(t, 0, s.Tick().BreathStep)
}

func TestState_PauseFreezesCounters(t *testing.T) {
	s := NewState(40)
	s.Tick()
	s.SetRunning(false)
	before := s.Snapshot()
	after := s.Tick()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.BreathStep, after.BreathStep)
}

func TestState_ApplyClass(t *testing.T) {
	s := NewState(40)
	st := waveform.DefaultSettings()
	st.PEEP, st.PIP = 15, 40
	s.SetSettings(st)

	s.ApplyClass(physiology.Infant)
	snap := s.Snapshot()
	assert.Equal(t, physiology.Infant, snap.Patient.Class)
	assert.Equal(t, 8.0, snap.Patient.WeightKg)
	assert.Equal(t, 30.0, snap.Settings.RespiratoryRate)
	assert.Equal(t, 12.0, snap.Settings.PEEP)
	assert.Equal(t, 30.0, snap.Settings.PIP)
}

func TestState_LoadScenario(t *testing.T) {
	cat := scenario.Default()
	s := NewState(40)
	for i := 0; i < 7; i++ {
		s.Tick()
	}

	reset, err := s.Apply(Command{Op: OpScenario, ScenarioID: "ards-recognition"}, cat)
	require.NoError(t, err)
	assert.True(t, reset)

	snap := s.Snapshot()
	assert.Equal(t, physiology.ARDS, snap.Pathology)
	assert.Equal(t, 8.0, snap.Settings.PEEP)
	assert.Equal(t, 172.0, snap.Patient.HeightCm)
	assert.Equal(t, "ards-recognition", snap.ScenarioID)
	assert.Zero(t, snap.Phase)
	assert.Zero(t, snap.BreathStep)
}

func TestState_ApplyCommands(t *testing.T) {
	s := NewState(40)
	st := waveform.Settings{PEEP: 10, PIP: 25, RespiratoryRate: 20, IERatio: 0.5, RiseTime: 0.2, Mode: waveform.ModePressure}

	for _, cmd := range []Command{
		{Op: OpSettings, Settings: &st},
		{Op: OpPathology, Pathology: physiology.COPD},
		{Op: OpEtCO2, EtCO2: 55},
		{Op: OpPause},
	} {
		_, err := s.Apply(cmd, nil)
		require.NoError(t, err, cmd.Op)
	}
	snap := s.Snapshot()
	assert.Equal(t, st, snap.Settings)
	assert.Equal(t, physiology.COPD, snap.Pathology)
	assert.Equal(t, 55.0, snap.EtCO2Max)
	assert.False(t, snap.Running)

	_, err := s.Apply(Command{Op: OpResume}, nil)
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Running)
}

func TestState_ApplyRejects(t *testing.T) {
	s := NewState(40)
	for _, cmd := range []Command{
		{Op: "explode"},
		{Op: OpSettings},
		{Op: OpPatient},
		{Op: OpClass},
		{Op: OpPathology, Pathology: "fibrosis"},
		{Op: OpScenario, ScenarioID: "x"},
	} {
		_, err := s.Apply(cmd, scenario.Default())
		assert.Error(t, err, cmd.Op)
	}
}

type recorder struct {
	mu     sync.Mutex
	frames []waveform.Frame
	fail   bool
}

func (r *recorder) PublishFrame(f waveform.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if r.fail {
		return errors.New("bus down")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestRunner_PublishesUntilCancelled(t *testing.T) {
	for _, fail := range []bool{false, true} {
		rec := &recorder{fail: fail}
		r := NewRunner(NewState(40), waveform.NewGenerator(16), rec, time.Millisecond, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		require.Eventually(t, func() bool { return rec.count() >= 3 }, 2*time.Second, time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		rec.mu.Lock()
		first := rec.frames[0]
		rec.mu.Unlock()
		assert.Equal(t, 1, first.Phase)
		assert.Equal(t, 1, first.Step)
		assert.Len(t, first.Pressure.Values, waveform.Length)
	}
}
