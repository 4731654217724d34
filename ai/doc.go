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

// Package ai provides abstractions for the AI services used by kbsearch.
//
// Two capabilities are modelled:
//
//   - Embedder: turns text into fixed-length vectors for semantic ranking
//   - Answerer: generates a short answer to a question from retrieved context
//
// AIProvider aggregates both for initialization and lifecycle management.
//
// # Failure Semantics
//
// Upstream providers are unreliable. ResilientEmbedder wraps any Embedder
// with text normalization, a per-call timeout, retry with exponential
// backoff, and strict response validation. On any failure it returns a
// zero vector of the configured dimension and logs a WARN event with
// degraded=true; it never returns an error. Search treats an all-zero query
// vector as a signal to fall back to lexical ranking.
//
// Answer generation failures are handled by the caller, which substitutes
// FallbackAnswer.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo clients for OpenAI-compatible APIs (Ollama, vLLM, OpenAI)
//   - ai/mock: deterministic test doubles
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder, err := ai.NewResilientEmbedderFromConfig(provider.Embedder(), cfg)
//	vector, _ := embedder.EmbedText(ctx, "how do I connect")
package ai
