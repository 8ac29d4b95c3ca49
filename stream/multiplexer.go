// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package stream

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/searchgate/core"
)

// Wire literals. Clients parse the response body by exact substring match on
// these, so they are part of the protocol and must never change.
const (
	// DelimiterLLMResponse separates the contexts frame from the answer bytes.
	DelimiterLLMResponse = "\n\n__LLM_RESPONSE__\n\n"

	// DelimiterRelatedQuestions separates the answer bytes from the
	// related-questions frame.
	DelimiterRelatedQuestions = "\n\n__RELATED_QUESTIONS__\n\n"

	// EmptyAnswerDisclaimer prefixes the answer when retrieval came back
	// empty.
	EmptyAnswerDisclaimer = "(The search engine returned nothing for this query. Please take the answer with a grain of salt.)\n\n"

	// emptyArray substitutes a related-questions payload that failed to
	// serialize.
	emptyArray = "[]"
)

// Multiplexer turns a staged-result sequence into the delimited byte
// protocol, one item at a time, flushing after every frame.
//
// It is single-use and not safe for concurrent use; each request gets its
// own.
type Multiplexer struct {
	w          io.Writer
	flusher    http.Flusher
	logger     *slog.Logger
	answerSeen bool
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Multiplexer) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewMultiplexer creates a multiplexer writing to w. When w also implements
// http.Flusher, every emitted frame is flushed to the transport immediately.
func NewMultiplexer(w io.Writer, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		w:      w,
		logger: slog.Default(),
	}
	if flusher, ok := w.(http.Flusher); ok {
		m.flusher = flusher
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Emit writes the frame(s) for one staged result. A write error is the
// transport failing (usually a client disconnect) and is terminal for the
// stream.
func (m *Multiplexer) Emit(result core.StagedResult) error {
	switch r := result.(type) {
	case core.Contexts:
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return err
		}
		if err := m.write(payload); err != nil {
			return err
		}
		return m.write([]byte(DelimiterLLMResponse))

	case core.AnswerChunk:
		if !m.answerSeen {
			m.answerSeen = true
			if r.Text == "" {
				if err := m.write([]byte(EmptyAnswerDisclaimer)); err != nil {
					return err
				}
			}
		}
		return m.write([]byte(r.Text))

	case core.RelatedQuestions:
		if err := m.write([]byte(DelimiterRelatedQuestions)); err != nil {
			return err
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			// Recover locally rather than killing a stream that already
			// carried a full answer.
			m.logger.Warn("error serializing related questions", "err", err)
			payload = []byte(emptyArray)
		}
		return m.write(payload)

	default:
		return ErrUnknownStage
	}
}

// Pipe consumes the whole sequence, emitting each item as it arrives.
// Returns on sequence end or on the first transport error.
func (m *Multiplexer) Pipe(results <-chan core.StagedResult) error {
	for result := range results {
		if err := m.Emit(result); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multiplexer) write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := m.w.Write(b); err != nil {
		return err
	}
	if m.flusher != nil {
		m.flusher.Flush()
	}
	return nil
}
