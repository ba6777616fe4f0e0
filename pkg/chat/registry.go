package chat

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// CancelSignal is a set-once flag with wait-until-set semantics.
// Cancellation is cooperative: setting the signal does not terminate the
// producer, it only becomes observable at the producer's next checkpoint.
type CancelSignal struct {
	once sync.Once
	ch   chan struct{}
}

func NewCancelSignal() *CancelSignal {
	return &CancelSignal{ch: make(chan struct{})}
}

// Set flips the signal. Safe to call more than once.
func (s *CancelSignal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns a channel closed once the signal is set.
func (s *CancelSignal) Done() <-chan struct{} { return s.ch }

func (s *CancelSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// StreamRegistry maps session ids to the cancellation signal of their
// currently running bridge. It is the single piece of mutable shared state
// in the streaming core; every access is a short critical section and no
// operation awaits a generation.
type StreamRegistry struct {
	mu      sync.Mutex
	streams map[string]*CancelSignal
}

func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{streams: map[string]*CancelSignal{}}
}

// Register inserts an entry for the session and returns its signal.
// Session ids are fresh per generation; re-registering a live id is an
// orchestration bug and is logged, with the newer signal replacing the old.
func (r *StreamRegistry) Register(sessionID string) *CancelSignal {
	sig := NewCancelSignal()
	r.mu.Lock()
	if _, ok := r.streams[sessionID]; ok {
		log.Warn().Str("component", "chat").Str("session_id", sessionID).Msg("session id registered twice")
	}
	r.streams[sessionID] = sig
	r.mu.Unlock()
	return sig
}

// Cancel sets the signal for the session if an entry exists. The boolean
// distinguishes "found and signalled" from "not found" at the HTTP
// boundary.
func (r *StreamRegistry) Cancel(sessionID string) bool {
	r.mu.Lock()
	sig, ok := r.streams[sessionID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	sig.Set()
	return true
}

// Unregister removes the entry unconditionally. Safe to call for ids that
// were never registered or have already been removed.
func (r *StreamRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	delete(r.streams, sessionID)
	r.mu.Unlock()
}

// Len reports the number of live entries.
func (r *StreamRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
