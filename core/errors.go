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

import "errors"

// Retrieval error taxonomy
var (
	// ErrUpstreamDegraded indicates an embedding or answer-generation call failed
	// and a fallback value was substituted. It never aborts a request.
	ErrUpstreamDegraded = errors.New("upstream degraded")

	// ErrEmptyCorpus indicates there are no documents or index entries.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidInput indicates malformed caller input such as negative
	// pagination or a dimension-mismatched vector.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the document store failed.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Domain validation errors
var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrInvalidFeedback indicates a Feedback failed validation.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRating indicates a rating outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrMissingArticleID indicates feedback without an article reference.
	ErrMissingArticleID = errors.New("article id is required")
)
