package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionBridgeLifecycle(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.Equal(t, "sess-1", b.SessionID())
	require.NoError(t, b.Start())
	require.Error(t, b.Start())

	b.Stop()
	b.Stop() // idempotent
	require.Error(t, b.Start())
}

func TestSessionBridgeEmitNext(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.NoError(t, b.Start())

	b.Emit(NewChunk("Hello "))
	b.Emit(NewChunk("world"))

	ctx := context.Background()
	e, err := b.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, EventChunk, e.Type)
	require.Equal(t, "Hello ", e.ChunkContent())

	e, err = b.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "world", e.ChunkContent())
}

func TestSessionBridgeNextSuspendsUntilEmit(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.NoError(t, b.Start())

	got := make(chan Envelope, 1)
	go func() {
		e, err := b.Next(context.Background())
		if err == nil {
			got <- e
		}
	}()

	time.Sleep(20 * time.Millisecond)
	b.Emit(NewChunk("late"))

	select {
	case e := <-got:
		require.Equal(t, "late", e.ChunkContent())
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up on Emit")
	}
}

func TestSessionBridgeEmitAfterStopIsDropped(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.NoError(t, b.Start())
	b.Stop()

	// The producer may keep running briefly after a cancellation request;
	// its emits must vanish without error.
	b.Emit(NewChunk("ghost"))
	require.Equal(t, 0, b.Pending())

	_, err := b.Next(context.Background())
	require.ErrorIs(t, err, ErrBridgeClosed)
}

func TestSessionBridgeNextHonorsContext(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.NoError(t, b.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionBridgeOrderingUnderConcurrentConsumer(t *testing.T) {
	b := NewSessionBridge("sess-1")
	require.NoError(t, b.Start())

	done := make(chan []string, 1)
	go func() {
		var seen []string
		for {
			e, err := b.Next(context.Background())
			if err != nil {
				return
			}
			if e.Type == EventChunk {
				seen = append(seen, e.ChunkContent())
			}
			if e.IsTerminal() {
				done <- seen
				return
			}
		}
	}()

	want := []string{"a", "b", "c", "d", "e"}
	for _, s := range want {
		b.Emit(NewChunk(s))
	}
	b.Emit(NewStreamEnd("sess-1", nil))

	select {
	case seen := <-done:
		require.Equal(t, want, seen)
	case <-time.After(time.Second):
		t.Fatal("consumer never saw terminal envelope")
	}
}

func TestSessionBridgeMirrorObservesAcceptedEmits(t *testing.T) {
	b := NewSessionBridge("sess-1")
	var mirrored []EventType
	b.SetMirror(func(e Envelope) { mirrored = append(mirrored, e.Type) })
	require.NoError(t, b.Start())

	b.Emit(NewChunk("x"))
	b.Emit(NewStreamEnd("sess-1", nil))
	b.Stop()
	b.Emit(NewChunk("dropped"))

	require.Equal(t, []EventType{EventChunk, EventStreamEnd}, mirrored)
}
