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

package api

import (
	"time"

	"github.com/poiesic/kbsearch/core"
)

type searchRequest struct {
	Query    string            `json:"query"`
	Filters  map[string]string `json:"filters,omitempty"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"page_size,omitempty"`
}

type searchResult struct {
	ID       core.ID  `json:"id"`
	ChunkSeq int      `json:"chunk_seq"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Answer   string   `json:"answer,omitempty"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Score    float64  `json:"score"`
}

type searchResponse struct {
	Results  []searchResult `json:"results"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Mode     string         `json:"mode"`
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

type articleResponse struct {
	ID        core.ID   `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type feedbackResponse struct {
	ID        core.ID   `json:"id"`
	ArticleID core.ID   `json:"article_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Documents    int    `json:"documents"`
	IndexEntries int    `json:"index_entries"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toSearchResponse(resp *core.SearchResponse) searchResponse {
	out := searchResponse{
		Results:  make([]searchResult, 0, len(resp.Results)),
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Mode:     string(resp.Mode),
	}
	for _, hit := range resp.Results {
		tags := hit.Tags
		if tags == nil {
			tags = []string{}
		}
		out.Results = append(out.Results, searchResult{
			ID:       hit.DocumentId,
			ChunkSeq: hit.ChunkSeq,
			Title:    hit.Title,
			Content:  hit.Content,
			Answer:   hit.Answer,
			Category: hit.Category,
			Tags:     tags,
			Score:    hit.Score,
		})
	}
	return out
}

func toArticleResponse(article *core.Article) articleResponse {
	tags := article.Tags
	if tags == nil {
		tags = []string{}
	}
	return articleResponse{
		ID:        article.Id,
		Title:     article.Title,
		Slug:      article.Slug,
		Content:   article.Content,
		Category:  article.Category,
		Tags:      tags,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}
