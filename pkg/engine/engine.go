// Package engine defines the generation-engine boundary of the backend and
// the catalog of available backends. Engines append envelopes to a bridge
// sink and never touch its lifecycle.
package engine

import (
	"context"

	"github.com/wombatlabs/wombat/pkg/chat"
)

// Request describes one generation.
type Request struct {
	SessionID string
	Prompt    string
	Model     string
	System    string
	MaxTokens int
}

// Engine produces one generation's output into the sink. Implementations
// must emit zero or more chunk envelopes in generation order, observe ctx
// between chunks, and always emit exactly one terminal envelope
// (stream_end or error) before returning, even when cancelled
// mid-generation. The returned error is for logging; the wire-visible
// outcome is the terminal envelope.
type Engine interface {
	Name() string
	Generate(ctx context.Context, req Request, sink chat.Sink) error
}
