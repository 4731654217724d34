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

package storage

import (
	"context"

	"github.com/poiesic/kbsearch/core"
)

// ArticleRepository stores knowledge-base articles and their tag associations.
type ArticleRepository interface {
	// AddArticles adds one or more articles to storage.
	// Generates new IDs from a sequence and sets CreatedAt/UpdatedAt when zero.
	// Returns ErrDuplicateKey if an article's slug is already taken.
	AddArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error)

	// UpdateArticles updates existing articles.
	// Updates the UpdatedAt timestamp automatically and maintains the tag index.
	// Returns ErrNotFound if any article doesn't exist.
	UpdateArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error)

	// DeleteArticles removes articles by their IDs together with their tag index
	// entries. Returns ErrNotFound if any article doesn't exist.
	DeleteArticles(ctx context.Context, ids ...core.ID) error

	// GetArticle retrieves a single article by ID.
	// Returns ErrNotFound if the article doesn't exist.
	GetArticle(ctx context.Context, id core.ID) (*core.Article, error)

	// GetArticleBySlug retrieves a single article by slug.
	// Returns ErrNotFound if no article has the slug.
	GetArticleBySlug(ctx context.Context, slug string) (*core.Article, error)

	// ListArticles returns every article ordered by ID.
	ListArticles(ctx context.Context) ([]*core.Article, error)

	// GetArticleIDsByTag returns the IDs of articles carrying the tag.
	// Tags are matched case-insensitively.
	GetArticleIDsByTag(ctx context.Context, tag string) ([]core.ID, error)
}

// ChunkRepository stores derived chunks and their embedding vectors.
type ChunkRepository interface {
	// ReplaceChunks atomically replaces every chunk of an article.
	ReplaceChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error

	// DeleteChunks removes every chunk of an article. Missing chunks are not an error.
	DeleteChunks(ctx context.Context, documentID core.ID) error

	// GetChunks returns an article's chunks ordered by Seq.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// ListChunks returns all chunks ordered by (DocumentId, Seq).
	ListChunks(ctx context.Context) ([]*core.Chunk, error)

	// UpdateChunkVectors overwrites the vectors of existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error
}

// SearchLogRepository is the append-only search audit log.
type SearchLogRepository interface {
	// AppendSearchLog appends an entry, assigning its ID and Timestamp when zero.
	// Entries from one writer keep their submission order.
	AppendSearchLog(ctx context.Context, entry *core.SearchLogEntry) error

	// RecentSearchLogs returns up to limit entries, most recent first.
	RecentSearchLogs(ctx context.Context, limit int) ([]*core.SearchLogEntry, error)
}

// FeedbackRepository stores reader ratings.
type FeedbackRepository interface {
	// AddFeedback stores a rating. Returns ErrNotFound if the article doesn't exist.
	AddFeedback(ctx context.Context, feedback *core.Feedback) (*core.Feedback, error)

	// ListFeedback returns all ratings for an article, oldest first.
	ListFeedback(ctx context.Context, articleID core.ID) ([]*core.Feedback, error)
}

// Store aggregates every repository behind one backend.
type Store interface {
	ArticleRepository
	ChunkRepository
	SearchLogRepository
	FeedbackRepository

	// Close closes the storage backend and releases resources.
	Close() error
}
