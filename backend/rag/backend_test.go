package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searchgate/ai/mock"
	"github.com/poiesic/searchgate/core"
	"github.com/poiesic/searchgate/storage"
	"github.com/poiesic/searchgate/storage/badger"
)

func newTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()

	docRepo, _, store, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return docRepo
}

func seedDocuments(t *testing.T, provider *mock.MockProvider, docRepo storage.DocumentRepository, contents ...string) {
	t.Helper()

	now := time.Now().UTC()
	docs := make([]*core.Document, len(contents))
	for i, text := range contents {
		vector, err := provider.Embedder().EmbedText(context.Background(), text)
		require.NoError(t, err)
		docs[i] = &core.Document{
			Title:      fmt.Sprintf("doc %d", i),
			URL:        fmt.Sprintf("https://example.com/%d", i),
			Contents:   text,
			Vector:     vector,
			InsertedAt: now,
			UpdatedAt:  now,
		}
	}
	_, err := docRepo.AddDocuments(context.Background(), docs...)
	require.NoError(t, err)
}

func collect(t *testing.T, b *Backend, query string, generateRelated bool) ([]core.StagedResult, []error) {
	t.Helper()

	var results []core.StagedResult
	var errs []error
	for result, err := range b.Search(context.Background(), query, generateRelated) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errs
}

func TestNew(t *testing.T) {
	provider := mock.NewMockProvider()
	docRepo := newTestRepo(t)

	t.Run("requires document repository", func(t *testing.T) {
		_, err := New(nil, provider)
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := New(docRepo, nil)
		assert.ErrorIs(t, err, ErrProviderRequired)
	})

	t.Run("applies options", func(t *testing.T) {
		b, err := New(docRepo, provider,
			WithMinSimilarity(0.25),
			WithMaxContexts(3),
			WithRelatedQuestions(false),
		)
		require.NoError(t, err)
		assert.Equal(t, float32(0.25), b.minSimilarity)
		assert.Equal(t, 3, b.maxContexts)
		assert.False(t, b.relatedEnabled)
	})
}

func TestSearchStageOrder(t *testing.T) {
	provider := mock.NewMockProvider()
	docRepo := newTestRepo(t)
	seedDocuments(t, provider, docRepo,
		"Breath of the Wild released in March 2017.",
		"Tears of the Kingdom released in May 2023.",
	)

	b, err := New(docRepo, provider, WithMinSimilarity(-1))
	require.NoError(t, err)

	results, errs := collect(t, b, "when did breath of the wild release", true)
	require.Empty(t, errs)
	require.GreaterOrEqual(t, len(results), 3)

	contexts, ok := results[0].(core.Contexts)
	require.True(t, ok, "first stage must be contexts, got %T", results[0])
	snippets, ok := contexts.Payload.([]core.Snippet)
	require.True(t, ok)
	assert.Len(t, snippets, 2)
	for _, s := range snippets {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.URL)
		assert.NotEmpty(t, s.Snippet)
	}

	for _, result := range results[1 : len(results)-1] {
		_, ok := result.(core.AnswerChunk)
		assert.True(t, ok, "middle stages must be answer chunks, got %T", result)
	}

	related, ok := results[len(results)-1].(core.RelatedQuestions)
	require.True(t, ok, "last stage must be related questions, got %T", results[len(results)-1])
	questions, ok := related.Payload.([]string)
	require.True(t, ok)
	assert.NotEmpty(t, questions)
}

func TestSearchRelatedOptOut(t *testing.T) {
	t.Run("per query", func(t *testing.T) {
		provider := mock.NewMockProvider()
		docRepo := newTestRepo(t)
		seedDocuments(t, provider, docRepo, "some document")

		b, err := New(docRepo, provider, WithMinSimilarity(-1))
		require.NoError(t, err)

		results, errs := collect(t, b, "a question", false)
		require.Empty(t, errs)
		assert.NotEmpty(t, results)
		for _, result := range results {
			_, isRelated := result.(core.RelatedQuestions)
			assert.False(t, isRelated)
		}
	})

	t.Run("process wide overrides per query", func(t *testing.T) {
		provider := mock.NewMockProvider()
		docRepo := newTestRepo(t)
		seedDocuments(t, provider, docRepo, "some document")

		b, err := New(docRepo, provider, WithMinSimilarity(-1), WithRelatedQuestions(false))
		require.NoError(t, err)

		results, errs := collect(t, b, "a question", true)
		require.Empty(t, errs)
		assert.NotEmpty(t, results)
		for _, result := range results {
			_, isRelated := result.(core.RelatedQuestions)
			assert.False(t, isRelated)
		}
	})
}

func TestSearchEmptyRetrieval(t *testing.T) {
	provider := mock.NewMockProvider()
	docRepo := newTestRepo(t)

	b, err := New(docRepo, provider)
	require.NoError(t, err)

	results, errs := collect(t, b, "anything at all", false)
	require.Empty(t, errs)
	require.Len(t, results, 2)

	contexts, ok := results[0].(core.Contexts)
	require.True(t, ok)
	snippets, ok := contexts.Payload.([]core.Snippet)
	require.True(t, ok)
	assert.Empty(t, snippets)

	chunk, ok := results[1].(core.AnswerChunk)
	require.True(t, ok)
	assert.Empty(t, chunk.Text)
}

func TestSearchErrors(t *testing.T) {
	t.Run("embedding failure surfaces before any stage", func(t *testing.T) {
		provider := mock.NewMockProvider()
		docRepo := newTestRepo(t)

		wantErr := errors.New("embedder down")
		provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, wantErr
		}

		b, err := New(docRepo, provider)
		require.NoError(t, err)

		results, errs := collect(t, b, "a question", true)
		assert.Empty(t, results)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], wantErr)
	})

	t.Run("answer failure surfaces after contexts", func(t *testing.T) {
		provider := mock.NewMockProvider()
		docRepo := newTestRepo(t)
		seedDocuments(t, provider, docRepo, "some document")

		wantErr := errors.New("model down")
		provider.GetMockAnswerGenerator().StreamAnswerFunc = func(ctx context.Context, query string, contexts []string, onChunk func(chunk string) error) error {
			return wantErr
		}

		b, err := New(docRepo, provider, WithMinSimilarity(-1))
		require.NoError(t, err)

		results, errs := collect(t, b, "a question", true)
		require.Len(t, results, 1)
		_, ok := results[0].(core.Contexts)
		assert.True(t, ok)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], wantErr)
	})
}

func TestSearchConsumerStops(t *testing.T) {
	provider := mock.NewMockProvider()
	docRepo := newTestRepo(t)
	seedDocuments(t, provider, docRepo, "some document")

	relatedCalled := false
	provider.GetMockRelatedQuestionGenerator().GenerateRelatedFunc = func(ctx context.Context, query string, contexts []string) ([]string, error) {
		relatedCalled = true
		return nil, nil
	}

	b, err := New(docRepo, provider, WithMinSimilarity(-1))
	require.NoError(t, err)

	for result, err := range b.Search(context.Background(), "a question", true) {
		require.NoError(t, err)
		if _, ok := result.(core.AnswerChunk); ok {
			break
		}
	}

	assert.False(t, relatedCalled, "stopping mid-stream must not trigger later stages")
}
