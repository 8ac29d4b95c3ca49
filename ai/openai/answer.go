package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/searchgate/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// AnswerGenerator implements ai.AnswerGenerator using OpenAI-compatible
// chat APIs with token streaming.
type AnswerGenerator struct {
	client llms.Model
	logger *slog.Logger
}

// newAnswerGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerGenerator(config *ai.Config) (*AnswerGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &AnswerGenerator{
		client: client,
		logger: slog.Default().With("component", "openai-answer"),
	}, nil
}

// NewAnswerGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.AnswerGenerator interface to enforce abstraction.
func NewAnswerGenerator(config *ai.Config) (ai.AnswerGenerator, error) {
	return newAnswerGenerator(config)
}

// StreamAnswer generates an answer grounded in the context snippets,
// invoking onChunk for each streamed text increment.
func (g *AnswerGenerator) StreamAnswer(ctx context.Context, query string, contexts []string, onChunk func(chunk string) error) error {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnswerPrompt(contexts)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	g.logger.Debug("streaming answer", "contexts", len(contexts))

	_, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.3),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return onChunk(string(chunk))
		}),
	)
	if err != nil {
		g.logger.Error("failed to stream answer", "err", err)
		return err
	}

	return nil
}
