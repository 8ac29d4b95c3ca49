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
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/searchgate/core"
	"github.com/poiesic/searchgate/stream"
)

// queryRequest is the inbound request schema.
type queryRequest struct {
	Query                    string `json:"query"`
	SearchUUID               string `json:"search_uuid"`
	GenerateRelatedQuestions *bool  `json:"generate_related_questions"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	correlationID := req.SearchUUID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	generateRelated := true
	if req.GenerateRelatedQuestions != nil {
		generateRelated = *req.GenerateRelatedQuestions
	}

	query := core.NewQuery(req.Query, correlationID, generateRelated)
	s.logger.Info("query received",
		"correlation_id", query.CorrelationID,
		"query", query.Text,
		"related_questions", query.WantRelatedQuestions)

	// Off the request path: a slow log write must not delay the first byte.
	go s.recordQuery(r.Context(), query)

	// The worker runs to completion even if the client goes away; its
	// output is simply discarded.
	ctx := context.WithoutCancel(r.Context())
	results, err := s.pool.Dispatch(ctx, query)
	if err != nil {
		s.logger.Error("error dispatching query",
			"correlation_id", query.CorrelationID, "err", err)
		http.Error(w, "query dispatch failed", http.StatusInternalServerError)
		return
	}
	defer results.Close()

	// Hold the status line until the backend produces its first result, so
	// a failure before any output byte still gets a clean 500.
	first, ok := <-results.Results()
	if !ok {
		if err := results.Err(); err != nil {
			s.logger.Error("backend failed before first result",
				"correlation_id", query.CorrelationID, "err", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	mux := stream.NewMultiplexer(w, stream.WithLogger(s.logger))
	if err := mux.Emit(first); err != nil {
		s.logger.Debug("client stopped reading",
			"correlation_id", query.CorrelationID, "err", err)
		return
	}
	if err := mux.Pipe(results.Results()); err != nil {
		s.logger.Debug("client stopped reading",
			"correlation_id", query.CorrelationID, "err", err)
		return
	}

	// A mid-stream backend failure cannot be turned into an error response
	// once bytes are committed; the body just ends early.
	if err := results.Err(); err != nil {
		s.logger.Error("backend failed mid-stream",
			"correlation_id", query.CorrelationID, "err", err)
	}
}

// recordQuery persists the query for offline analysis. Best effort only.
func (s *Server) recordQuery(ctx context.Context, query core.Query) {
	if s.queries == nil {
		return
	}

	record := &core.QueryRecord{
		CorrelationID: query.CorrelationID,
		Query:         query.Text,
		ReceivedAt:    time.Now().UTC(),
	}
	if _, err := s.queries.RecordQuery(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warn("error recording query",
			"correlation_id", query.CorrelationID, "err", err)
	}
}
