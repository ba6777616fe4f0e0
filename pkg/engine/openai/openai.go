// Package openai adapts the OpenAI Chat Completions streaming API to the
// generation-engine boundary.
package openai

import (
	"context"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/engine"
)

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
		opts.Model = sdk.ChatModelGPT4oMini
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

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Generate(ctx context.Context, req engine.Request, sink chat.Sink) error {
	model := req.Model
	if model == "" {
		model = e.opts.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = e.opts.MaxTokens
	}
	messages := []sdk.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}
	messages = append(messages, sdk.UserMessage(req.Prompt))

	params := sdk.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: sdk.Int(int64(maxTokens)),
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: sdk.Bool(true),
		},
	}

	usage := map[string]any{}
	stream := e.client.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		ck := stream.Current()
		for _, choice := range ck.Choices {
			if choice.Delta.Content != "" {
				sink.Emit(chat.NewChunk(choice.Delta.Content))
			}
		}
		if ck.Usage.TotalTokens > 0 {
			usage["input_tokens"] = int(ck.Usage.PromptTokens)
			usage["output_tokens"] = int(ck.Usage.CompletionTokens)
			usage["total_tokens"] = int(ck.Usage.TotalTokens)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).
			Str("component", "engine").
			Str("session_id", req.SessionID).
			Msg("openai stream failed")
		sink.Emit(chat.NewErrorEvent(err.Error()))
		return err
	}
	sink.Emit(chat.NewStreamEnd(req.SessionID, usage))
	return nil
}
