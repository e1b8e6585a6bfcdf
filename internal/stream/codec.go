package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// ErrShortFrame is returned for payloads smaller than a full frame.
var ErrShortFrame = errors.New("stream: short frame")

const headerSize = 8

// FrameSize is the encoded size of one frame: step and phase as uint32,
// then every curve as Length little-endian float32 samples.
var FrameSize = headerSize + len(waveform.Kinds)*waveform.Length*4

// EncodeFrame packs the curves of f in waveform.Kinds order. Curves shorter
// than waveform.Length are zero padded. Metrics are not included.
func EncodeFrame(f waveform.Frame) []byte {
	out := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(out[0:], uint32(f.Step))
	binary.LittleEndian.PutUint32(out[4:], uint32(f.Phase))

	off := headerSize
	for _, w := range f.Curves() {
		for i := 0; i < waveform.Length; i++ {
			var v float32
			if i < len(w.Values) {
				v = float32(w.Values[i])
			}
			binary.LittleEndian.PutUint32(out[off+i*4:], math.Float32bits(v))
		}
		off += waveform.Length * 4
	}
	return out
}

// DecodeFrame is the inverse of EncodeFrame; metrics are left zero.
func DecodeFrame(data []byte) (waveform.Frame, error) {
	if len(data) < FrameSize {
		return waveform.Frame{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortFrame, len(data), FrameSize)
	}
	f := waveform.Frame{
		Step:  int(binary.LittleEndian.Uint32(data[0:])),
		Phase: int(binary.LittleEndian.Uint32(data[4:])),
	}
	curves := make([]waveform.Waveform, len(waveform.Kinds))
	off := headerSize
	for k, kind := range waveform.Kinds {
		vals := make([]float64, waveform.Length)
		for i := range vals {
			bits := binary.LittleEndian.Uint32(data[off+i*4:])
			vals[i] = float64(math.Float32frombits(bits))
		}
		curves[k] = waveform.Waveform{Kind: kind, Values: vals}
		off += waveform.Length * 4
	}
	f.Pressure, f.Flow, f.Volume, f.Capnography = curves[0], curves[1], curves[2], curves[3]
	return f, nil
}
