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

// Package lexical implements a deterministic term-frequency scorer used when
// vector ranking is unavailable or disabled.
//
// The query is lowercased and split on whitespace. For every term the score
// adds TitleWeight times the number of non-overlapping occurrences of the
// term in the lowercased title, plus ContentWeight times its occurrences in
// the lowercased content. Terms match as substrings, so "connect" also counts
// inside "reconnecting".
package lexical

import (
	"sort"
	"strings"

	"github.com/poiesic/kbsearch/core"
)

const (
	// TitleWeight multiplies title occurrences.
	TitleWeight = 3
	// ContentWeight multiplies content occurrences.
	ContentWeight = 1
)

// Scored pairs an article with its lexical score.
type Scored struct {
	Article *core.Article
	Score   float64
}

// Terms lowercases query and splits it on whitespace.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Score returns the lexical score of article for query.
func Score(query string, article *core.Article) float64 {
	return scoreTerms(Terms(query), strings.ToLower(article.Title), strings.ToLower(article.Content))
}

func scoreTerms(terms []string, title, content string) float64 {
	var score int
	for _, term := range terms {
		score += TitleWeight*strings.Count(title, term) + ContentWeight*strings.Count(content, term)
	}
	return float64(score)
}

// Rank scores every article, drops zero scores and orders the rest by
// descending score. Equal scores are ordered by ascending article ID.
func Rank(query string, articles []*core.Article) []Scored {
	terms := Terms(query)
	results := []Scored{}
	if len(terms) == 0 {
		return results
	}

	for _, article := range articles {
		score := scoreTerms(terms, strings.ToLower(article.Title), strings.ToLower(article.Content))
		if score > 0 {
			results = append(results, Scored{Article: article, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Article.Id < results[j].Article.Id
	})
	return results
}
