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


// Package openai provides ai service implementations backed by
// OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM).
//
// Answer generation streams tokens via the chat completion API; related
// questions use JSON mode with fence stripping and repair for models that
// wrap or slightly malform their JSON output.
package openai
