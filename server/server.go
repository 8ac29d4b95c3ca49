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


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/searchgate/dispatch"
	"github.com/poiesic/searchgate/storage"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8080"

// Server is the HTTP gateway: it accepts query requests, hands them to the
// dispatch pool, and streams staged results back to the client.
type Server struct {
	pool       *dispatch.Pool
	queries    storage.QueryRepository
	httpServer *http.Server
	addr       string
	uiDir      string
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen address.
// Default is DefaultAddr.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		if addr != "" {
			s.addr = addr
		}
		return nil
	}
}

// WithUIDir mounts a static UI bundle under /ui/ and redirects the root
// path to its entry document. Empty disables the mount.
func WithUIDir(dir string) Option {
	return func(s *Server) error {
		s.uiDir = dir
		return nil
	}
}

// WithQueryRepository enables best-effort query logging. A logging failure
// never fails the request.
func WithQueryRepository(queries storage.QueryRepository) Option {
	return func(s *Server) error {
		s.queries = queries
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates the gateway server over the given dispatch pool.
func NewServer(pool *dispatch.Pool, opts ...Option) (*Server, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	s := &Server{
		pool:   pool,
		addr:   DefaultAddr,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
		// No WriteTimeout: responses stream for as long as the model talks.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return s, nil
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)

	if s.uiDir != "" {
		mux.Handle("GET /ui/", http.StripPrefix("/ui/", http.FileServer(http.Dir(s.uiDir))))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/ui/index.html", http.StatusFound)
		})
	}

	return s.logRequests(mux)
}

// ListenAndServe serves until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("gateway listening", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight responses
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
