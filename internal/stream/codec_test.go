package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

func TestFrameCodec(t *testing.T) {
	f := waveform.NewGenerator(0).Frame(waveform.Request{
		Settings:   waveform.DefaultSettings(),
		Patient:    physiology.DefaultPatient(),
		Pathology:  physiology.COPD,
		Phase:      17,
		BreathStep: 123456,
	})

	data := EncodeFrame(f)
	require.Len(t, data, FrameSize)
	assert.Equal(t, 8+4*100*4, FrameSize)

	got, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, 123456, got.Step)
	assert.Equal(t, 17, got.Phase)

	want := f.Curves()
	for k, w := range got.Curves() {
		assert.Equal(t, waveform.Kinds[k], w.Kind)
		require.Len(t, w.Values, waveform.Length)
		for i, v := range w.Values {
			assert.InDelta(t, want[k].Values[i], v, 1e-3, "%s[%d]", w.Kind, i)
		}
	}
	assert.Zero(t, got.Metrics)
}

func TestDecodeFrame_Short(t *testing.T) {
	_, err := DecodeFrame(make([]byte, FrameSize-1))
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestEncodeFrame_PadsMissingCurves(t *testing.T) {
	data := EncodeFrame(waveform.Frame{Flow: waveform.Waveform{Values: []float64{1.5}}})
	got, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Flow.Values[0])
	assert.Equal(t, 0.0, got.Flow.Values[1])
	assert.Equal(t, 0.0, got.Pressure.Values[0])
}

func TestDefaultSubjects(t *testing.T) {
	s := DefaultSubjects()
	assert.Equal(t, "vent.wave", s.Wave)
	assert.Equal(t, "vent.control", s.Control)
}
