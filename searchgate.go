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


package searchgate

import (
	"log/slog"

	"github.com/poiesic/searchgate/ai"
	"github.com/poiesic/searchgate/ai/openai"
	"github.com/poiesic/searchgate/backend/rag"
	"github.com/poiesic/searchgate/dispatch"
	"github.com/poiesic/searchgate/server"
	"github.com/poiesic/searchgate/storage"
	"github.com/poiesic/searchgate/storage/badger"
)

// Engine owns the full query pipeline: document store, AI provider,
// retrieval backend, and dispatch pool. The HTTP server is created on top
// of it.
type Engine struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	queryRepo storage.QueryRepository
	provider  ai.Provider
	pool      *dispatch.Pool
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig    *ai.Config
	poolSize    int
	relatedFlag bool
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithPoolSize sets the dispatch pool capacity.
// Default is dispatch.DefaultCapacity.
func WithPoolSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithRelatedQuestions enables or disables related-question generation
// process-wide. Default is enabled.
func WithRelatedQuestions(enabled bool) EngineOption {
	return func(o *engineOptions) {
		o.relatedFlag = enabled
	}
}

// NewEngine opens the document store at filePath and wires the pipeline.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:    ai.DefaultConfig(),
		poolSize:    dispatch.DefaultCapacity,
		relatedFlag: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	queryRepo, err := badger.NewQueryRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		queryRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	searchBackend, err := rag.New(docRepo, provider,
		rag.WithRelatedQuestions(options.relatedFlag))
	if err != nil {
		provider.Close()
		queryRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	pool, err := dispatch.NewPool(searchBackend,
		dispatch.WithCapacity(options.poolSize))
	if err != nil {
		provider.Close()
		queryRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		docRepo:   docRepo,
		queryRepo: queryRepo,
		provider:  provider,
		pool:      pool,
		logger:    slog.Default(),
	}, nil
}

// NewServer creates the HTTP gateway over this engine's dispatch pool,
// with query logging enabled.
func (e *Engine) NewServer(opts ...server.Option) (*server.Server, error) {
	opts = append([]server.Option{server.WithQueryRepository(e.queryRepo)}, opts...)
	return server.NewServer(e.pool, opts...)
}

// DocumentRepository exposes the document store, mainly for ingestion tools.
func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.docRepo
}

// QueryRepository exposes the query log.
func (e *Engine) QueryRepository() storage.QueryRepository {
	return e.queryRepo
}

// Provider exposes the AI provider, mainly for ingestion tools.
func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// Close releases the pool and closes the provider and storage.
// The engine should not be used after calling Close.
func (e *Engine) Close() error {
	e.pool.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.queryRepo.Close(); err != nil {
		e.logger.Error("error closing query repository", "err", err)
		return err
	}
	if err := e.docRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
