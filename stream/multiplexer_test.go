package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searchgate/core"
)

// flushRecorder counts flushes to verify frames go out as produced.
type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() {
	f.flushes++
}

// failingWriter fails after n successful writes.
type failingWriter struct {
	n   int
	err error
}

func (w *failingWriter) Write(b []byte) (int, error) {
	if w.n <= 0 {
		return 0, w.err
	}
	w.n--
	return len(b), nil
}

func emitAll(t *testing.T, m *Multiplexer, results ...core.StagedResult) {
	t.Helper()
	for _, result := range results {
		require.NoError(t, m.Emit(result))
	}
}

func TestEmitFullSequence(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiplexer(&buf)

	snippets := []core.Snippet{
		{Name: "doc", URL: "https://example.com", Snippet: "some text"},
	}
	emitAll(t, m,
		core.Contexts{Payload: snippets},
		core.AnswerChunk{Text: "a1"},
		core.AnswerChunk{Text: "a2"},
		core.RelatedQuestions{Payload: []string{"q1", "q2"}},
	)

	wantContexts, err := json.Marshal(snippets)
	require.NoError(t, err)
	wantRelated, err := json.Marshal([]string{"q1", "q2"})
	require.NoError(t, err)

	want := string(wantContexts) + DelimiterLLMResponse + "a1" + "a2" +
		DelimiterRelatedQuestions + string(wantRelated)
	assert.Equal(t, want, buf.String())
}

func TestEmitDisclaimer(t *testing.T) {
	t.Run("first answer empty", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewMultiplexer(&buf)

		emitAll(t, m, core.AnswerChunk{Text: ""})
		assert.True(t, strings.HasPrefix(buf.String(), EmptyAnswerDisclaimer))
		assert.Equal(t, EmptyAnswerDisclaimer, buf.String())
	})

	t.Run("later text follows disclaimer", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewMultiplexer(&buf)

		emitAll(t, m, core.AnswerChunk{Text: ""}, core.AnswerChunk{Text: "unassisted answer"})
		assert.Equal(t, EmptyAnswerDisclaimer+"unassisted answer", buf.String())
	})

	t.Run("no disclaimer when first answer has text", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewMultiplexer(&buf)

		emitAll(t, m, core.AnswerChunk{Text: "a1"}, core.AnswerChunk{Text: ""})
		assert.Equal(t, "a1", buf.String())
	})
}

func TestEmitRelatedSerializationFallback(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiplexer(&buf)

	// Channels are not JSON-serializable.
	emitAll(t, m, core.RelatedQuestions{Payload: make(chan int)})
	assert.Equal(t, DelimiterRelatedQuestions+"[]", buf.String())
}

func TestEmitAnswerVerbatim(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiplexer(&buf)

	// No escaping, even of protocol-looking bytes inside a chunk.
	emitAll(t, m, core.AnswerChunk{Text: `"quoted" & <tagged> text`})
	assert.Equal(t, `"quoted" & <tagged> text`, buf.String())
}

func TestEmitWriteError(t *testing.T) {
	wantErr := errors.New("peer went away")
	m := NewMultiplexer(&failingWriter{n: 1, err: wantErr})

	require.NoError(t, m.Emit(core.AnswerChunk{Text: "a1"}))
	assert.ErrorIs(t, m.Emit(core.AnswerChunk{Text: "a2"}), wantErr)
}

func TestEmitFlushesPerFrame(t *testing.T) {
	rec := &flushRecorder{}
	m := NewMultiplexer(rec)

	emitAll(t, m,
		core.AnswerChunk{Text: "a1"},
		core.AnswerChunk{Text: "a2"},
		core.AnswerChunk{Text: "a3"},
	)
	assert.Equal(t, 3, rec.flushes)
}

func TestPipe(t *testing.T) {
	t.Run("truncated after contexts", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewMultiplexer(&buf)

		results := make(chan core.StagedResult, 1)
		results <- core.Contexts{Payload: []core.Snippet{}}
		close(results) // producer failed before any answer chunk

		require.NoError(t, m.Pipe(results))

		want := "[]" + DelimiterLLMResponse
		assert.Equal(t, want, buf.String())
		assert.NotContains(t, buf.String(), DelimiterRelatedQuestions)
	})

	t.Run("stops on transport error", func(t *testing.T) {
		wantErr := errors.New("peer went away")
		m := NewMultiplexer(&failingWriter{n: 0, err: wantErr})

		results := make(chan core.StagedResult, 2)
		results <- core.AnswerChunk{Text: "a1"}
		results <- core.AnswerChunk{Text: "a2"}
		close(results)

		assert.ErrorIs(t, m.Pipe(results), wantErr)
	})
}
