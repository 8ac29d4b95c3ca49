package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searchgate/backend/mock"
	"github.com/poiesic/searchgate/core"
)

func drain(s *Stream) []core.StagedResult {
	var results []core.StagedResult
	for result := range s.Results() {
		results = append(results, result)
	}
	return results
}

func TestNewPool(t *testing.T) {
	t.Run("requires backend", func(t *testing.T) {
		_, err := NewPool(nil)
		assert.ErrorIs(t, err, ErrBackendRequired)
	})

	t.Run("defaults", func(t *testing.T) {
		pool, err := NewPool(mock.NewMockBackend())
		require.NoError(t, err)
		defer pool.Release()
		assert.Equal(t, DefaultCapacity, pool.Capacity())
	})

	t.Run("applies options", func(t *testing.T) {
		pool, err := NewPool(mock.NewMockBackend(), WithCapacity(4), WithBufferSize(0))
		require.NoError(t, err)
		defer pool.Release()
		assert.Equal(t, 4, pool.Capacity())
		assert.Equal(t, 0, pool.bufferSize)
	})

	t.Run("clamps capacity", func(t *testing.T) {
		pool, err := NewPool(mock.NewMockBackend(), WithCapacity(-5))
		require.NoError(t, err)
		defer pool.Release()
		assert.Equal(t, 1, pool.Capacity())
	})
}

func TestDispatchPreservesOrder(t *testing.T) {
	mb := mock.NewMockBackend(mock.Results(
		core.Contexts{Payload: []core.Snippet{{Name: "a"}}},
		core.AnswerChunk{Text: "first "},
		core.AnswerChunk{Text: "second"},
		core.RelatedQuestions{Payload: []string{"q1"}},
	)...)

	pool, err := NewPool(mb)
	require.NoError(t, err)
	defer pool.Release()

	stream, err := pool.Dispatch(context.Background(), core.Query{
		Text:                 "a question",
		CorrelationID:        "test-1",
		WantRelatedQuestions: true,
	})
	require.NoError(t, err)

	results := drain(stream)
	require.NoError(t, stream.Err())
	require.Len(t, results, 4)

	_, ok := results[0].(core.Contexts)
	assert.True(t, ok)
	assert.Equal(t, core.AnswerChunk{Text: "first "}, results[1])
	assert.Equal(t, core.AnswerChunk{Text: "second"}, results[2])
	_, ok = results[3].(core.RelatedQuestions)
	assert.True(t, ok)
}

func TestDispatchSurfacesBackendError(t *testing.T) {
	wantErr := errors.New("retrieval down")
	mb := mock.NewMockBackend(
		mock.Step{Result: core.Contexts{Payload: []core.Snippet{}}},
		mock.Step{Err: wantErr},
	)

	pool, err := NewPool(mb)
	require.NoError(t, err)
	defer pool.Release()

	stream, err := pool.Dispatch(context.Background(), core.Query{Text: "a question"})
	require.NoError(t, err)

	results := drain(stream)
	assert.Len(t, results, 1)
	assert.ErrorIs(t, stream.Err(), wantErr)
}

func TestStreamClose(t *testing.T) {
	steps := make([]mock.Step, 100)
	for i := range steps {
		steps[i] = mock.Step{Result: core.AnswerChunk{Text: fmt.Sprintf("chunk %d", i)}}
	}
	mb := mock.NewMockBackend(steps...)

	pool, err := NewPool(mb, WithBufferSize(0))
	require.NoError(t, err)
	defer pool.Release()

	stream, err := pool.Dispatch(context.Background(), core.Query{Text: "a question"})
	require.NoError(t, err)

	<-stream.Results()
	stream.Close()
	stream.Close() // idempotent

	// The worker must notice and exit, freeing its slot for the next query.
	require.Eventually(t, func() bool {
		return pool.Running() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatchConcurrencyLimit(t *testing.T) {
	const capacity = 16

	started := make(chan string, capacity+1)
	block := make(chan struct{})
	mb := mock.NewMockBackend(mock.Results(core.AnswerChunk{Text: "done"})...)
	mb.OnStart = func(query string) { started <- query }
	mb.Block = block

	pool, err := NewPool(mb, WithCapacity(capacity))
	require.NoError(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < capacity+1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stream, err := pool.Dispatch(context.Background(), core.Query{
				Text:          fmt.Sprintf("query %d", i),
				CorrelationID: fmt.Sprintf("cid-%d", i),
			})
			if !assert.NoError(t, err) {
				return
			}
			drain(stream)
		}(i)
	}

	// All workers fill up.
	for i := 0; i < capacity; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d queries started", i, capacity)
		}
	}

	// The extra query must wait for a free worker.
	select {
	case query := <-started:
		t.Fatalf("query %q started beyond pool capacity", query)
	case <-time.After(100 * time.Millisecond):
	}

	// Finish one query; the waiting one gets its slot.
	block <- struct{}{}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("waiting query never started after a worker freed up")
	}

	close(block)
	wg.Wait()
}
