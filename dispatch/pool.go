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


package dispatch

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/searchgate/backend"
	"github.com/poiesic/searchgate/core"
)

// DefaultCapacity is the default number of concurrently executing queries.
const DefaultCapacity = 16

// Pool runs backend searches on a bounded set of workers.
//
// At most capacity queries execute at once. Further Dispatch calls block in
// FIFO order until a worker frees up; the waiting set itself is unbounded, so
// admission control (if any) belongs to the caller.
type Pool struct {
	backend    backend.Backend
	workers    *ants.Pool
	capacity   int
	bufferSize int
	logger     *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool) error

// WithCapacity sets the number of concurrently executing queries.
// Default is DefaultCapacity, with a minimum of 1.
func WithCapacity(capacity int) Option {
	return func(p *Pool) error {
		if capacity < 1 {
			capacity = 1
		}
		p.capacity = capacity
		return nil
	}
}

// WithBufferSize sets the per-query result channel buffer.
// Default is 8. Zero means fully synchronous handoff.
func WithBufferSize(size int) Option {
	return func(p *Pool) error {
		if size < 0 {
			size = 0
		}
		p.bufferSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPool creates a dispatch pool over the given backend.
func NewPool(b backend.Backend, opts ...Option) (*Pool, error) {
	if b == nil {
		return nil, ErrBackendRequired
	}

	p := &Pool{
		backend:    b,
		capacity:   DefaultCapacity,
		bufferSize: 8,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	workers, err := ants.NewPool(p.capacity)
	if err != nil {
		return nil, err
	}
	p.workers = workers

	return p, nil
}

// Dispatch hands a query to a worker and returns the stream its staged
// results will arrive on. Blocks while all workers are busy.
//
// The worker runs the query to completion regardless of the caller's
// context; closing the stream discards remaining results without
// interrupting the backend call.
func (p *Pool) Dispatch(ctx context.Context, query core.Query) (*Stream, error) {
	stream := newStream(p.bufferSize)

	err := p.workers.Submit(func() {
		defer close(stream.results)

		for result, err := range p.backend.Search(ctx, query.Text, query.WantRelatedQuestions) {
			if err != nil {
				p.logger.Error("backend search failed",
					"correlation_id", query.CorrelationID, "err", err)
				stream.setErr(err)
				return
			}

			select {
			case stream.results <- result:
			case <-stream.done:
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return stream, nil
}

// Capacity returns the configured worker count.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Running returns the number of currently executing queries.
func (p *Pool) Running() int {
	return p.workers.Running()
}

// Release shuts the pool down.
// The pool should not be used after calling Release.
func (p *Pool) Release() {
	p.workers.Release()
}
