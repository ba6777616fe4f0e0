// Package anthropic adapts the Anthropic Messages streaming API to the
// generation-engine boundary.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/engine"
)

const defaultModel = "claude-sonnet-4-20250514"

type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
}

type Engine struct {
	client sdk.Client
	opts   Options
}

var _ engine.Engine = &Engine{}

func New(opts Options) *Engine {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	return &Engine{client: sdk.NewClient(clientOpts...), opts: opts}
}

func (e *Engine) Name() string { return "anthropic" }

// Generate streams text deltas as chunk envelopes. Cancellation is
// observed through ctx: the SDK stream aborts on context cancellation and
// the terminal envelope carries whatever usage was reported so far.
func (e *Engine) Generate(ctx context.Context, req engine.Request, sink chat.Sink) error {
	model := req.Model
	if model == "" {
		model = e.opts.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = e.opts.MaxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	usage := map[string]any{}
	stream := e.client.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case sdk.MessageStartEvent:
			usage["input_tokens"] = int(ev.Message.Usage.InputTokens)
		case sdk.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(sdk.TextDelta); ok && delta.Text != "" {
				sink.Emit(chat.NewChunk(delta.Text))
			}
		case sdk.MessageDeltaEvent:
			usage["output_tokens"] = int(ev.Usage.OutputTokens)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).
			Str("component", "engine").
			Str("session_id", req.SessionID).
			Msg("anthropic stream failed")
		sink.Emit(chat.NewErrorEvent(err.Error()))
		return err
	}
	// Either the stream completed or the caller cancelled; both end in a
	// normal terminal envelope with the usage collected so far.
	sink.Emit(chat.NewStreamEnd(req.SessionID, usage))
	return nil
}
