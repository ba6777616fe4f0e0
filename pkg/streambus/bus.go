// Package streambus mirrors live generation events onto a pub/sub
// transport so dashboard clients can watch a session over websocket while
// the HTTP response streams elsewhere. The default transport is an
// in-process Watermill GoChannel; Redis Streams can be enabled for
// multi-process deployments.
package streambus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
)

// TopicForSession computes the event topic for one session.
func TopicForSession(sessionID string) string { return "chat:" + sessionID }

// Bus publishes envelopes per session and hands out per-watcher
// subscriptions.
type Bus interface {
	Publish(sessionID string, e chat.Envelope) error
	// Subscribe returns the message channel for a session plus a release
	// func the watcher must call when done.
	Subscribe(ctx context.Context, sessionID string) (<-chan *message.Message, func(), error)
	Close() error
}

type wireEnvelope struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// EncodeEnvelope serializes an envelope for the bus.
func EncodeEnvelope(e chat.Envelope) ([]byte, error) {
	return json.Marshal(wireEnvelope{Event: string(e.Type), Data: e.Data})
}

// DecodeEnvelope parses a bus payload back into an envelope.
func DecodeEnvelope(payload []byte) (chat.Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(payload, &w); err != nil {
		return chat.Envelope{}, errors.Wrap(err, "decode bus envelope")
	}
	return chat.Envelope{Type: chat.EventType(w.Event), Data: w.Data}, nil
}

// New builds the bus selected by the settings.
func New(s config.StreamBusSettings) (Bus, error) {
	if s.RedisEnabled {
		return newRedisBus(s)
	}
	return newGoChannelBus(), nil
}

type goChannelBus struct {
	ch *gochannel.GoChannel
}

func newGoChannelBus() *goChannelBus {
	return &goChannelBus{
		ch: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, NewWatermillLogger(log.Logger)),
	}
}

func (b *goChannelBus) Publish(sessionID string, e chat.Envelope) error {
	payload, err := EncodeEnvelope(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.ch.Publish(TopicForSession(sessionID), msg)
}

func (b *goChannelBus) Subscribe(ctx context.Context, sessionID string) (<-chan *message.Message, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	ch, err := b.ch.Subscribe(subCtx, TopicForSession(sessionID))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

func (b *goChannelBus) Close() error { return b.ch.Close() }
