package chat

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a cancel or lookup references a
// session id with no registry entry. This is an expected outcome (the
// generation may simply have finished), not a defect.
var ErrSessionNotFound = errors.New("session not found")

// StartError means the engine could not begin a generation. The bridge
// never reaches running and nothing was registered.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("generation start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// GenerationError means the engine emitted a terminal error envelope. The
// message is the engine's own; the core never retries.
type GenerationError struct {
	SessionID string
	Message   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Message)
}
