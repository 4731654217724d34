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

// ValidateArticle validates an Article according to domain rules.
// Validation rules:
//   - Title must not be blank
//   - Content must not be blank
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Slug (derived from the title when empty)
//   - ID (0 is valid until the store assigns one)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if strings.TrimSpace(article.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if strings.TrimSpace(article.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyContent)
	}

	if !IsValidTimestamp(article.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateFeedback validates a Feedback according to domain rules.
func ValidateFeedback(feedback *Feedback) error {
	if feedback == nil {
		return fmt.Errorf("%w: feedback is nil", ErrInvalidFeedback)
	}

	if feedback.ArticleId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrMissingArticleID)
	}

	if feedback.Rating < 1 || feedback.Rating > 5 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidFeedback, ErrInvalidRating, feedback.Rating)
	}

	return nil
}

// ValidatePagination rejects negative page numbers and sizes.
// Zero values are accepted and mean "use the default".
func ValidatePagination(page, pageSize int) error {
	if page < 0 {
		return fmt.Errorf("%w: page must not be negative, got %d", ErrInvalidInput, page)
	}
	if pageSize < 0 {
		return fmt.Errorf("%w: page size must not be negative, got %d", ErrInvalidInput, pageSize)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
