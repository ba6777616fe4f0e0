package chat

import (
	"context"
	"strings"
)

// AggregatedResponse is the folded form of a full event sequence, for
// callers that do not want incremental delivery.
type AggregatedResponse struct {
	Content   string         `json:"content"`
	SessionID string         `json:"session_id"`
	Usage     map[string]any `json:"usage,omitempty"`
}

// Aggregate reads the bridge to its terminal envelope and folds the chunks
// into one response. It suspends while the sink is empty and relays
// nothing anywhere. A terminal error envelope yields a *GenerationError,
// never a partial success disguised as a complete one.
func Aggregate(ctx context.Context, bridge *SessionBridge) (AggregatedResponse, error) {
	var content strings.Builder
	for {
		e, err := bridge.Next(ctx)
		if err != nil {
			return AggregatedResponse{}, err
		}
		switch e.Type {
		case EventChunk:
			content.WriteString(e.ChunkContent())
		case EventStreamEnd:
			resp := AggregatedResponse{
				Content:   content.String(),
				SessionID: bridge.SessionID(),
				Usage:     map[string]any{},
			}
			if sid, ok := e.Data["session_id"].(string); ok && sid != "" {
				resp.SessionID = sid
			}
			if usage, ok := e.Data["usage"].(map[string]any); ok {
				resp.Usage = usage
			}
			return resp, nil
		case EventError:
			msg, _ := e.Data["message"].(string)
			return AggregatedResponse{}, &GenerationError{
				SessionID: bridge.SessionID(),
				Message:   msg,
			}
		}
	}
}
