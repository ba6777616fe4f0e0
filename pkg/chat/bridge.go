package chat

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrBridgeClosed is returned by Next once the bridge is stopped and its
// sink has been drained.
var ErrBridgeClosed = errors.New("bridge is closed")

type bridgeState int

const (
	bridgeCreated bridgeState = iota
	bridgeRunning
	bridgeClosed
)

// Sink is the producer-facing surface of a bridge. The engine only ever
// appends envelopes; lifecycle is owned by the orchestration layer.
type Sink interface {
	Emit(Envelope)
}

// SessionBridge adapts one asynchronously produced stream of envelopes to a
// single consumer. The sink is an unbounded FIFO: Emit never blocks the
// producer on a slow consumer, since one generation's total event volume is
// bounded by the response length.
type SessionBridge struct {
	sessionID string

	mu     sync.Mutex
	queue  []Envelope
	state  bridgeState
	notify chan struct{}
	done   chan struct{}

	// mirror, when set, observes every accepted envelope. Used to feed the
	// stream bus without a second reader on the sink.
	mirror func(Envelope)
}

// NewSessionBridge returns a bridge in state created with an empty sink.
func NewSessionBridge(sessionID string) *SessionBridge {
	return &SessionBridge{
		sessionID: sessionID,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

func (b *SessionBridge) SessionID() string { return b.sessionID }

// SetMirror installs an observer for accepted envelopes. Must be called
// before Start.
func (b *SessionBridge) SetMirror(fn func(Envelope)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mirror = fn
}

// Start transitions the bridge from created to running.
func (b *SessionBridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case bridgeRunning:
		return errors.New("bridge already started")
	case bridgeClosed:
		return errors.New("bridge is closed")
	}
	b.state = bridgeRunning
	return nil
}

// Emit appends an envelope to the sink. Emits after Stop are dropped
// silently: the producer is an external engine that may continue briefly
// after a cancellation request, and it must never observe an error here.
func (b *SessionBridge) Emit(e Envelope) {
	b.mu.Lock()
	if b.state == bridgeClosed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, e)
	mirror := b.mirror
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	if mirror != nil {
		mirror(e)
	}
}

// Next returns the oldest queued envelope, suspending until one is
// available. It is the single-reader suspension point of the bridge:
// delivery is FIFO and never holds any lock while waiting.
func (b *SessionBridge) Next(ctx context.Context) (Envelope, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			e := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return e, nil
		}
		closed := b.state == bridgeClosed
		b.mu.Unlock()
		if closed {
			return Envelope{}, ErrBridgeClosed
		}

		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-b.notify:
		case <-b.done:
		}
	}
}

// Stop transitions the bridge to closed. It is idempotent, and once it
// returns no further envelopes are accepted.
func (b *SessionBridge) Stop() {
	b.mu.Lock()
	if b.state == bridgeClosed {
		b.mu.Unlock()
		return
	}
	b.state = bridgeClosed
	b.mu.Unlock()
	close(b.done)
}

// Pending reports the number of queued, unconsumed envelopes.
func (b *SessionBridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
