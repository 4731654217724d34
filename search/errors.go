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

package search

import "errors"

var (
	// ErrArticleRepositoryRequired is returned when an article repository is not provided.
	ErrArticleRepositoryRequired = errors.New("article repository required")

	// ErrSearchLogRequired is returned when a search log repository is not provided.
	ErrSearchLogRequired = errors.New("search log repository required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidPageSize is returned when page size options are out of range.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidCandidateMultiplier is returned when the candidate multiplier is not positive.
	ErrInvalidCandidateMultiplier = errors.New("candidate multiplier must be positive")

	// ErrInvalidAnswerWorkers is returned when the answer pool size is not positive.
	ErrInvalidAnswerWorkers = errors.New("answer workers must be positive")

	// ErrUnknownStrategy is returned for an unrecognised ranking strategy.
	ErrUnknownStrategy = errors.New("unknown search strategy")
)
