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

// Package search answers knowledge base queries.
//
// A Searcher ranks published articles either by embedding similarity against
// an index.Index or, when vectors are unavailable, with the lexical scorer.
// The chosen path is reported in SearchResponse.Mode:
//
//   - vector: the query embedding was ranked against the index
//   - lexical: lexical ranking was configured or the index was empty
//   - lexical-degraded: the query embedding failed
//
// Candidates are filtered by the category, tag and slug request filters,
// deduplicated per article by Assemble and paginated. When an answerer is
// configured every hit on the page gets a generated answer; failed answers
// are replaced with ai.FallbackAnswer rather than failing the search. Every
// search is appended to the search log, and a failure to do so is logged and
// otherwise ignored.
package search
