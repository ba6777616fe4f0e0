package streambus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
)

func TestEnvelopeCodecRoundtrip(t *testing.T) {
	payload, err := EncodeEnvelope(chat.NewChunk("hi"))
	require.NoError(t, err)

	e, err := DecodeEnvelope(payload)
	require.NoError(t, err)
	require.Equal(t, chat.EventChunk, e.Type)
	require.Equal(t, "hi", e.ChunkContent())
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	require.Error(t, err)
}

func TestGoChannelBusDeliversPerSession(t *testing.T) {
	bus, err := New(config.StreamBusSettings{})
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, release, err := bus.Subscribe(ctx, "sess-1")
	require.NoError(t, err)
	defer release()

	other, otherRelease, err := bus.Subscribe(ctx, "sess-2")
	require.NoError(t, err)
	defer otherRelease()

	require.NoError(t, bus.Publish("sess-1", chat.NewChunk("only for sess-1")))

	select {
	case msg := <-ch:
		e, err := DecodeEnvelope(msg.Payload)
		require.NoError(t, err)
		require.Equal(t, "only for sess-1", e.ChunkContent())
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("subscriber never received the envelope")
	}

	select {
	case msg := <-other:
		t.Fatalf("sess-2 watcher received foreign message: %s", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
