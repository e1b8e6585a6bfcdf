package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/session"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// Subjects names the NATS subjects the processes talk on.
type Subjects struct {
	Wave    string `yaml:"wave"`
	Metrics string `yaml:"metrics"`
	Alarms  string `yaml:"alarms"`
	Control string `yaml:"control"`
}

func DefaultSubjects() Subjects {
	return Subjects{
		Wave:    "vent.wave",
		Metrics: "vent.metrics",
		Alarms:  "vent.alarms",
		Control: "vent.control",
	}
}

func Connect(url, name string, log *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Bus publishes simulator traffic on one connection.
type Bus struct {
	nc       *nats.Conn
	subjects Subjects
}

func NewBus(nc *nats.Conn, s Subjects) *Bus {
	return &Bus{nc: nc, subjects: s}
}

func (b *Bus) Subjects() Subjects { return b.subjects }

// PublishFrame sends the curves as a binary frame and the metrics as JSON.
func (b *Bus) PublishFrame(f waveform.Frame) error {
	if err := b.nc.Publish(b.subjects.Wave, EncodeFrame(f)); err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	return b.PublishJSON(b.subjects.Metrics, f.Metrics)
}

func (b *Bus) PublishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishCommand sends a control command to the producer.
func (b *Bus) PublishCommand(cmd session.Command) error {
	return b.PublishJSON(b.subjects.Control, cmd)
}

// PublishAlarms sends each alarm as its own message.
func (b *Bus) PublishAlarms(alarms []analysis.Alarm) error {
	for _, a := range alarms {
		if err := b.PublishJSON(b.subjects.Alarms, a); err != nil {
			return err
		}
	}
	return nil
}

// SubscribeJSON decodes every message on subject into a fresh T.
// Messages that fail to decode are logged and dropped.
func SubscribeJSON[T any](nc *nats.Conn, subject string, log *zap.Logger, fn func(T)) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			log.Warn("dropping undecodable message", zap.String("subject", subject), zap.Error(err))
			return
		}
		fn(v)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}
