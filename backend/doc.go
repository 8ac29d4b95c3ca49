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


// Package backend defines the contract between the gateway and the
// retrieval-and-generation pipeline.
//
// The gateway only knows this contract: a query in, a lazy ordered sequence
// of staged results out. The backend/rag sub-package provides the production
// pipeline (vector retrieval + streamed LLM answer + related questions);
// backend/mock provides scripted sequences for tests.
package backend
