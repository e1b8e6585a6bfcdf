package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// Publisher receives every computed frame.
type Publisher interface {
	PublishFrame(f waveform.Frame) error
}

// Runner ticks the state and publishes a frame per tick.
type Runner struct {
	state *State
	gen   *waveform.Generator
	pub   Publisher
	tick  time.Duration
	log   *zap.Logger
}

func NewRunner(state *State, gen *waveform.Generator, pub Publisher, tick time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{state: state, gen: gen, pub: pub, tick: tick, log: log}
}

// Run blocks until ctx is cancelled. Publish failures are logged and the
// loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopping", zap.Int("publish_failures", failures))
			return nil
		case <-ticker.C:
			snap := r.state.Tick()
			if err := r.pub.PublishFrame(r.gen.Frame(snap.Request())); err != nil {
				failures++
				r.log.Warn("publish frame failed", zap.Error(err), zap.Int("step", snap.BreathStep))
			}
		}
	}
}
