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

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MaxSuggestions caps the number of words Suggest returns.
const MaxSuggestions = 5

// Suggest returns up to MaxSuggestions distinct lowercase words from published
// article titles that start with partial, sorted alphabetically.
// A blank partial yields an empty list.
func (s *Searcher) Suggest(ctx context.Context, partial string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "search.Suggest")
	defer span.End()

	prefix := strings.ToLower(strings.TrimSpace(partial))
	if prefix == "" {
		return []string{}, nil
	}

	articles, err := s.publishedArticles(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, article := range articles {
		for _, word := range strings.Fields(strings.ToLower(article.Title)) {
			if strings.HasPrefix(word, prefix) {
				seen[word] = struct{}{}
			}
		}
	}

	words := make([]string, 0, len(seen))
	for word := range seen {
		words = append(words, word)
	}
	sort.Strings(words)
	if len(words) > MaxSuggestions {
		words = words[:MaxSuggestions]
	}

	span.SetAttributes(attribute.Int("suggest.count", len(words)))
	return words, nil
}
