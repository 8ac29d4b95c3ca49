package rag

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/poiesic/searchgate/ai"
	"github.com/poiesic/searchgate/backend"
	"github.com/poiesic/searchgate/core"
	"github.com/poiesic/searchgate/storage"
)

// errConsumerStopped signals that the sequence consumer stopped pulling;
// it never escapes Search.
var errConsumerStopped = errors.New("consumer stopped")

// Backend implements the staged retrieval-and-generation pipeline:
// embed the query, retrieve similar documents, stream the grounded answer,
// then propose related questions.
type Backend struct {
	documents      storage.DocumentRepository
	embedder       ai.Embedder
	generator      ai.AnswerGenerator
	related        ai.RelatedQuestionGenerator
	minSimilarity  float32
	maxContexts    int
	relatedEnabled bool
	logger         *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the retrieval similarity threshold.
// Default is 0.60.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(b *Backend) error {
		b.minSimilarity = minSimilarity
		return nil
	}
}

// WithMaxContexts sets the maximum number of retrieved context documents.
// Default is 8.
func WithMaxContexts(maxContexts int) Option {
	return func(b *Backend) error {
		if maxContexts < 1 {
			maxContexts = 1
		}
		b.maxContexts = maxContexts
		return nil
	}
}

// WithRelatedQuestions enables or disables related-question generation
// process-wide. Default is enabled; a per-query opt-out still applies when
// enabled. Immutable after construction.
func WithRelatedQuestions(enabled bool) Option {
	return func(b *Backend) error {
		b.relatedEnabled = enabled
		return nil
	}
}

// New creates a retrieval-and-generation backend.
func New(documents storage.DocumentRepository, provider ai.Provider, opts ...Option) (*Backend, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	b := &Backend{
		documents:      documents,
		embedder:       provider.Embedder(),
		generator:      provider.AnswerGenerator(),
		related:        provider.RelatedQuestionGenerator(),
		minSimilarity:  0.60,
		maxContexts:    8,
		relatedEnabled: true,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Search produces the staged sequence for one query.
//
// Stage order: Contexts once, AnswerChunk per streamed token batch,
// RelatedQuestions once (when enabled both process-wide and per query).
// Errors before the first yield surface immediately; later errors end the
// sequence after whatever was already consumed.
func (b *Backend) Search(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error] {
	return func(yield func(core.StagedResult, error) bool) {
		vector, err := b.embedder.EmbedText(ctx, query)
		if err != nil {
			b.logger.Error("error generating embedding for query", "query", query, "err", err)
			yield(nil, err)
			return
		}

		hits, err := b.documents.FindSimilar(ctx, vector, b.minSimilarity, b.maxContexts)
		if err != nil {
			b.logger.Error("error querying for similar documents", "err", err)
			yield(nil, err)
			return
		}

		snippets := make([]core.Snippet, 0, len(hits))
		texts := make([]string, 0, len(hits))
		for _, hit := range hits {
			snippets = append(snippets, core.Snippet{
				Name:    hit.Document.Title,
				URL:     hit.Document.URL,
				Snippet: hit.Document.Contents,
			})
			texts = append(texts, hit.Document.Contents)
		}

		if !yield(core.Contexts{Payload: snippets}, nil) {
			return
		}

		if len(hits) == 0 {
			// Nothing to ground an answer on. Emit an empty chunk so the
			// consumer can surface its empty-result notice.
			b.logger.Debug("no contexts retrieved", "query", query)
			if !yield(core.AnswerChunk{Text: ""}, nil) {
				return
			}
		} else {
			err = b.generator.StreamAnswer(ctx, query, texts, func(chunk string) error {
				if !yield(core.AnswerChunk{Text: chunk}, nil) {
					return errConsumerStopped
				}
				return nil
			})
			if errors.Is(err, errConsumerStopped) {
				return
			}
			if err != nil {
				b.logger.Error("error streaming answer", "err", err)
				yield(nil, err)
				return
			}
		}

		if !generateRelated || !b.relatedEnabled {
			return
		}

		questions, err := b.related.GenerateRelated(ctx, query, texts)
		if err != nil {
			b.logger.Error("error generating related questions", "err", err)
			yield(nil, err)
			return
		}

		yield(core.RelatedQuestions{Payload: questions}, nil)
	}
}
