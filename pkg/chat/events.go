package chat

import "encoding/json"

// EventType tags one unit of streamed generation output.
type EventType string

const (
	EventStreamStart EventType = "stream_start"
	EventChunk       EventType = "chunk"
	EventStreamEnd   EventType = "stream_end"
	EventError       EventType = "error"
)

// Envelope is the atomic unit of streamed information. Envelopes are
// transient values consumed exactly once by a single reader.
type Envelope struct {
	Type EventType
	Data map[string]any
}

// IsTerminal reports whether the envelope ends a generation. Exactly one
// terminal envelope is emitted per generation and nothing follows it.
func (e Envelope) IsTerminal() bool {
	return e.Type == EventStreamEnd || e.Type == EventError
}

// PayloadJSON encodes the payload as a single-line JSON document. SSE
// framing relies on the payload never containing a raw newline.
func (e Envelope) PayloadJSON() ([]byte, error) {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(data)
}

// NewStreamStart announces a generation. The session id is assigned by the
// orchestration layer before the engine starts.
func NewStreamStart(sessionID string) Envelope {
	return Envelope{Type: EventStreamStart, Data: map[string]any{"session_id": sessionID}}
}

// NewChunk carries one incremental text fragment. Fragments are
// order-significant and concatenated in emission order.
func NewChunk(content string) Envelope {
	return Envelope{Type: EventChunk, Data: map[string]any{"content": content}}
}

// NewStreamEnd is the normal terminal envelope. Usage is opaque accounting
// metadata (token counts and the like) surfaced to the caller as-is.
func NewStreamEnd(sessionID string, usage map[string]any) Envelope {
	if usage == nil {
		usage = map[string]any{}
	}
	return Envelope{Type: EventStreamEnd, Data: map[string]any{"session_id": sessionID, "usage": usage}}
}

// NewErrorEvent is the failure terminal envelope.
func NewErrorEvent(message string) Envelope {
	return Envelope{Type: EventError, Data: map[string]any{"message": message}}
}

// ChunkContent extracts the text fragment of a chunk envelope.
func (e Envelope) ChunkContent() string {
	if e.Type != EventChunk || e.Data == nil {
		return ""
	}
	s, _ := e.Data["content"].(string)
	return s
}
