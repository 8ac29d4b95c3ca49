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


package core

import (
	"fmt"
	"strings"
	"time"
)

// DefaultQuery is substituted when a request carries an empty or absent
// query field. Availability fallback, not an error.
const DefaultQuery = "When was breath of the wild first released?"

// Instruction marker substrings stripped from every inbound query before it
// reaches the backend.
const (
	instOpenMarker  = "[INST]"
	instCloseMarker = "[/INST]"
)

// SanitizeQuery removes every literal occurrence of the [INST] and [/INST]
// marker substrings from the query, preserving all other characters and
// their relative order. Matching is exact and case-sensitive, in a single
// left-to-right pass. Basic protection against prompt injection into the
// backend.
func SanitizeQuery(query string) string {
	query = strings.ReplaceAll(query, instOpenMarker, "")
	return strings.ReplaceAll(query, instCloseMarker, "")
}

// NewQuery builds a Query from raw request fields, applying the default
// query fallback and marker sanitization.
func NewQuery(text, correlationID string, wantRelated bool) Query {
	if text == "" {
		text = DefaultQuery
	}
	return Query{
		Text:                 SanitizeQuery(text),
		CorrelationID:        correlationID,
		WantRelatedQuestions: wantRelated,
	}
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the seeder embeds it)
//   - ID (0 is valid before content hashing)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	return nil
}

// ValidateQueryRecord validates a QueryRecord according to domain rules.
//
// Validation rules:
//   - Query must not be empty
//   - CorrelationID must not be empty
//   - ReceivedAt must not be in the future
func ValidateQueryRecord(record *QueryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidQueryRecord)
	}

	if record.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrEmptyQuery)
	}

	if record.CorrelationID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrEmptyCorrelationID)
	}

	if !IsValidTimestamp(record.ReceivedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
