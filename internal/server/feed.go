package server

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/stream"
)

// envelope tags JSON pushed to browsers so they can tell metrics from alarms.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Attach relays simulator traffic from NATS to the websocket hub: wave
// frames pass through as binary, metrics and alarms as tagged JSON.
// Alarms are also kept in the server's alarm log.
func (s *Server) Attach(nc *nats.Conn, subjects stream.Subjects) ([]*nats.Subscription, error) {
	var subs []*nats.Subscription
	unwind := func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}

	wave, err := nc.Subscribe(subjects.Wave, func(msg *nats.Msg) {
		s.Hub.BroadcastBinary(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	subs = append(subs, wave)

	metrics, err := nc.Subscribe(subjects.Metrics, func(msg *nats.Msg) {
		s.relay("metrics", msg.Data)
	})
	if err != nil {
		unwind()
		return nil, err
	}
	subs = append(subs, metrics)

	alarms, err := stream.SubscribeJSON(nc, subjects.Alarms, s.Log, func(a analysis.Alarm) {
		s.Alarms.Append(a)
		b, err := json.Marshal(a)
		if err != nil {
			return
		}
		s.relay("alarm", b)
	})
	if err != nil {
		unwind()
		return nil, err
	}
	subs = append(subs, alarms)

	s.Log.Info("relaying simulator traffic",
		zap.String("wave", subjects.Wave),
		zap.String("metrics", subjects.Metrics),
		zap.String("alarms", subjects.Alarms),
	)
	return subs, nil
}

func (s *Server) relay(kind string, data []byte) {
	b, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		s.Log.Warn("relay encode failed", zap.String("type", kind), zap.Error(err))
		return
	}
	s.Hub.BroadcastText(b)
}
