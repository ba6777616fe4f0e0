// Package loopback provides a deterministic local backend used for
// development and tests. It echoes the prompt back word by word so the
// full streaming path can be exercised without provider credentials.
package loopback

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/engine"
)

type Engine struct {
	// Delay between chunks; zero in tests.
	ChunkDelay time.Duration
}

var _ engine.Engine = &Engine{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "loopback" }

func (e *Engine) Generate(ctx context.Context, req engine.Request, sink chat.Sink) error {
	words := strings.Fields(req.Prompt)
	var emitted strings.Builder
	for i, w := range words {
		select {
		case <-ctx.Done():
			log.Debug().Str("component", "engine").
				Str("session_id", req.SessionID).
				Msg("loopback generation cancelled")
			sink.Emit(chat.NewStreamEnd(req.SessionID, e.usage(req.Prompt, emitted.String())))
			return nil
		default:
		}
		chunk := w
		if i < len(words)-1 {
			chunk += " "
		}
		emitted.WriteString(chunk)
		sink.Emit(chat.NewChunk(chunk))
		if e.ChunkDelay > 0 {
			time.Sleep(e.ChunkDelay)
		}
	}
	sink.Emit(chat.NewStreamEnd(req.SessionID, e.usage(req.Prompt, emitted.String())))
	return nil
}

func (e *Engine) usage(prompt, output string) map[string]any {
	in := engine.CountTokens(prompt)
	out := engine.CountTokens(output)
	return map[string]any{
		"input_tokens":  in,
		"output_tokens": out,
		"total_tokens":  in + out,
	}
}
