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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/chunker"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/storage"
)

// Pipeline orchestrates article ingestion and index maintenance.
type Pipeline struct {
	articles storage.ArticleRepository
	chunks   storage.ChunkRepository
	index    *index.Index
	embedder ai.Embedder
	splitter *chunker.Splitter
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithSplitter sets the chunk splitter.
// Default is a splitter with chunker.DefaultChunkSize and chunker.DefaultChunkOverlap.
func WithSplitter(splitter *chunker.Splitter) Option {
	return func(p *Pipeline) error {
		if splitter != nil {
			p.splitter = splitter
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
// The index dimension must match the embedder's.
func NewPipeline(
	articles storage.ArticleRepository,
	chunks storage.ChunkRepository,
	idx *index.Index,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if articles == nil {
		return nil, ErrArticleRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if embedder.Dimension() != idx.Dimension() {
		return nil, fmt.Errorf("%w: embedder dimension %d, index dimension %d",
			ai.ErrDimensionMismatch, embedder.Dimension(), idx.Dimension())
	}

	splitter, err := chunker.NewSplitter()
	if err != nil {
		return nil, err
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		articles: articles,
		chunks:   chunks,
		index:    idx,
		embedder: embedder,
		splitter: splitter,
		pool:     pool,
		logger:   slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest stores articles and indexes the published ones.
//
// An article whose slug already exists replaces the stored one and keeps its
// ID. Every article is validated before anything is written. Chunking and
// embedding run on the worker pool; Ingest returns once all of them finish.
// Unpublished articles are stored but removed from the index.
func (p *Pipeline) Ingest(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	for _, article := range articles {
		if err := core.ValidateArticle(article); err != nil {
			return nil, err
		}
		if article.Slug == "" {
			article.Slug = core.Slugify(article.Title)
		}
	}

	stored := make([]*core.Article, 0, len(articles))
	for _, article := range articles {
		saved, err := p.save(ctx, article)
		if err != nil {
			return stored, err
		}
		stored = append(stored, saved)
	}

	// The same slug may appear twice in one batch; the last version wins
	latest := make(map[core.ID]*core.Article, len(stored))
	for _, article := range stored {
		latest[article.Id] = article
	}

	var published []*core.Article
	for _, article := range stored {
		if latest[article.Id] != article {
			continue
		}
		delete(latest, article.Id)
		if article.Published {
			published = append(published, article)
			continue
		}
		if err := p.unindex(ctx, article.Id); err != nil {
			return stored, err
		}
	}

	_, err := p.forEach(published, func(article *core.Article) ([]*core.Chunk, error) {
		chunks, err := p.chunkAndEmbed(ctx, article)
		if err != nil {
			return nil, err
		}
		if err := p.chunks.ReplaceChunks(ctx, article.Id, chunks...); err != nil {
			return nil, err
		}
		if err := p.index.ReplaceDocument(article.Id, indexEntries(chunks, p.index.Dimension())); err != nil {
			return nil, err
		}
		return chunks, nil
	})
	if err != nil {
		return stored, err
	}

	p.logger.Info("ingested articles", "articles", len(stored), "published", len(published))
	return stored, nil
}

// Remove deletes articles together with their chunks and index entries.
func (p *Pipeline) Remove(ctx context.Context, ids ...core.ID) error {
	for _, id := range ids {
		if err := p.unindex(ctx, id); err != nil {
			return err
		}
	}
	return p.articles.DeleteArticles(ctx, ids...)
}

// LoadIndex builds the index from stored chunks and returns the number of
// entries. Chunks whose vector has the wrong dimension are skipped.
func (p *Pipeline) LoadIndex(ctx context.Context) (int, error) {
	chunks, err := p.chunks.ListChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	entries := indexEntries(chunks, p.index.Dimension())
	if skipped := len(chunks) - len(entries); skipped > 0 {
		p.logger.Warn("skipping chunks with mismatched vector dimension", "skipped", skipped)
	}

	if err := p.index.Build(entries); err != nil {
		return 0, err
	}
	p.logger.Info("loaded vector index", "entries", len(entries))
	return len(entries), nil
}

// Rebuild re-chunks and re-embeds every published article, then swaps in a
// fresh index. Queries keep using the previous index until the swap.
func (p *Pipeline) Rebuild(ctx context.Context) (int, error) {
	all, err := p.articles.ListArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	var published []*core.Article
	for _, article := range all {
		if article.Published {
			published = append(published, article)
			continue
		}
		if err := p.chunks.DeleteChunks(ctx, article.Id); err != nil {
			return 0, err
		}
	}

	results, err := p.forEach(published, func(article *core.Article) ([]*core.Chunk, error) {
		chunks, err := p.chunkAndEmbed(ctx, article)
		if err != nil {
			return nil, err
		}
		return chunks, p.chunks.ReplaceChunks(ctx, article.Id, chunks...)
	})
	if err != nil {
		return 0, err
	}

	var entries []index.Entry
	for _, chunks := range results {
		entries = append(entries, indexEntries(chunks, p.index.Dimension())...)
	}
	if err := p.index.Build(entries); err != nil {
		return 0, err
	}

	p.logger.Info("rebuilt vector index", "articles", len(published), "entries", len(entries))
	return len(entries), nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// save adds the article, or updates the stored article with the same slug.
func (p *Pipeline) save(ctx context.Context, article *core.Article) (*core.Article, error) {
	existing, err := p.articles.GetArticleBySlug(ctx, article.Slug)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		article.Id = 0
		added, err := p.articles.AddArticles(ctx, article)
		if err != nil {
			return nil, err
		}
		return added[0], nil
	case err != nil:
		return nil, err
	}

	article.Id = existing.Id
	if article.CreatedAt.IsZero() {
		article.CreatedAt = existing.CreatedAt
	}
	updated, err := p.articles.UpdateArticles(ctx, article)
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

func (p *Pipeline) unindex(ctx context.Context, id core.ID) error {
	if err := p.chunks.DeleteChunks(ctx, id); err != nil {
		return err
	}
	p.index.RemoveDocument(id)
	return nil
}

// chunkAndEmbed splits an article and attaches an embedding to every chunk.
func (p *Pipeline) chunkAndEmbed(ctx context.Context, article *core.Article) ([]*core.Chunk, error) {
	chunks := p.splitter.Chunk(article)
	if len(chunks) == 0 {
		return chunks, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	p.logger.Debug("generating embeddings for chunks", "article", article.Id, "chunks", len(texts))
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(chunks), len(vectors))
	}

	for i := range vectors {
		chunks[i].Vector = vectors[i]
	}
	return chunks, nil
}

// forEach runs fn for every article on the pool and waits for all of them.
// Results are returned in article order.
func (p *Pipeline) forEach(articles []*core.Article, fn func(*core.Article) ([]*core.Chunk, error)) ([][]*core.Chunk, error) {
	results := make([][]*core.Chunk, len(articles))
	errs := make([]error, len(articles))

	var wg sync.WaitGroup
	for i, article := range articles {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = fn(article)
			if errs[i] != nil {
				p.logger.Error("error processing article", "article", article.Id, "slug", article.Slug, "err", errs[i])
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// indexEntries converts chunks to index entries, dropping chunks whose vector
// has the wrong dimension. Zero vectors from a degraded embedder stay in and
// score 0, so their document ranks below every healthy match.
func indexEntries(chunks []*core.Chunk, dim int) []index.Entry {
	entries := make([]index.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != dim {
			continue
		}
		entries = append(entries, index.EntryFromChunk(chunk))
	}
	return entries
}
