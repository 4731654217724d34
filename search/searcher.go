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
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/lexical"
	"github.com/poiesic/kbsearch/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize            = 10
	DefaultMaxPageSize         = 100
	DefaultCandidateMultiplier = 3
	DefaultAnswerTimeout       = 30 * time.Second
	DefaultAnswerWorkers       = 4

	tracerName = "github.com/poiesic/kbsearch/search"
)

// Strategy selects how queries are ranked.
type Strategy string

const (
	// StrategyVector ranks by embedding similarity and falls back to the
	// lexical scorer when the index is empty or the query embedding fails.
	StrategyVector Strategy = "vector"
	// StrategyLexical always uses the lexical scorer.
	StrategyLexical Strategy = "lexical"
)

// ParseStrategy converts a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyVector, "":
		return StrategyVector, nil
	case StrategyLexical:
		return StrategyLexical, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Searcher answers knowledge base queries.
// It is safe for concurrent use.
type Searcher struct {
	articles            storage.ArticleRepository
	searchLog           storage.SearchLogRepository
	index               *index.Index
	embedder            ai.Embedder
	answerer            ai.Answerer
	strategy            Strategy
	pageSize            int
	maxPageSize         int
	candidateMultiplier int
	answerTimeout       time.Duration
	answerWorkers       int
	answerPool          *ants.Pool
	monitor             SearchMonitor
	tracer              trace.Tracer
	logger              *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithAnswerer enables per-hit answer generation.
// Without an answerer hits carry no answer.
func WithAnswerer(answerer ai.Answerer) Option {
	return func(s *Searcher) error {
		s.answerer = answerer
		return nil
	}
}

// WithStrategy sets the ranking strategy.
// Default is StrategyVector.
func WithStrategy(strategy Strategy) Option {
	return func(s *Searcher) error {
		parsed, err := ParseStrategy(string(strategy))
		if err != nil {
			return err
		}
		s.strategy = parsed
		return nil
	}
}

// WithPageSize sets the default and maximum page sizes.
// Defaults are DefaultPageSize and DefaultMaxPageSize.
func WithPageSize(pageSize, maxPageSize int) Option {
	return func(s *Searcher) error {
		if pageSize < 1 || maxPageSize < pageSize {
			return fmt.Errorf("%w: default %d, max %d", ErrInvalidPageSize, pageSize, maxPageSize)
		}
		s.pageSize = pageSize
		s.maxPageSize = maxPageSize
		return nil
	}
}

// WithCandidateMultiplier sets how many candidates per requested result the
// vector path retrieves before deduplication.
// Default is DefaultCandidateMultiplier.
func WithCandidateMultiplier(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return ErrInvalidCandidateMultiplier
		}
		s.candidateMultiplier = n
		return nil
	}
}

// WithAnswerTimeout bounds each answer generation call.
// Default is DefaultAnswerTimeout.
func WithAnswerTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d > 0 {
			s.answerTimeout = d
		}
		return nil
	}
}

// WithAnswerWorkers sets the size of the answer generation pool.
// Default is DefaultAnswerWorkers.
func WithAnswerWorkers(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return ErrInvalidAnswerWorkers
		}
		s.answerWorkers = n
		return nil
	}
}

// WithMonitor sets the monitor used when a search does not supply its own.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer.
// Default is the global tracer provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Searcher) error {
		if tracer != nil {
			s.tracer = tracer
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
// The embedder should not fail hard; wrap network embedders in
// ai.ResilientEmbedder so failures degrade to the lexical path.
func NewSearcher(
	articles storage.ArticleRepository,
	searchLog storage.SearchLogRepository,
	idx *index.Index,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if articles == nil {
		return nil, ErrArticleRepositoryRequired
	}
	if searchLog == nil {
		return nil, ErrSearchLogRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		articles:            articles,
		searchLog:           searchLog,
		index:               idx,
		embedder:            embedder,
		strategy:            StrategyVector,
		pageSize:            DefaultPageSize,
		maxPageSize:         DefaultMaxPageSize,
		candidateMultiplier: DefaultCandidateMultiplier,
		answerTimeout:       DefaultAnswerTimeout,
		answerWorkers:       DefaultAnswerWorkers,
		monitor:             &noopMonitor{},
		tracer:              otel.Tracer(tracerName),
		logger:              slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.answerer != nil {
		pool, err := ants.NewPool(s.answerWorkers)
		if err != nil {
			return nil, err
		}
		s.answerPool = pool
	}

	return s, nil
}

// Close releases the answer pool.
func (s *Searcher) Close() {
	if s.answerPool != nil {
		s.answerPool.Release()
	}
}

// Search ranks the knowledge base against req.
func (s *Searcher) Search(ctx context.Context, req core.SearchRequest) (*core.SearchResponse, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor is Search with a per-call monitor.
// A nil monitor uses the one configured with WithMonitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req core.SearchRequest, monitor SearchMonitor) (*core.SearchResponse, error) {
	if monitor == nil {
		monitor = s.monitor
	}

	ctx, span := s.tracer.Start(ctx, "search.Search")
	defer span.End()

	resp, err := s.search(ctx, req, monitor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("search.mode", string(resp.Mode)),
		attribute.Int("search.total", resp.Total),
		attribute.Int("search.page", resp.Page),
	)
	return resp, nil
}

func (s *Searcher) search(ctx context.Context, req core.SearchRequest, monitor SearchMonitor) (*core.SearchResponse, error) {
	started := time.Now()

	if err := core.ValidatePagination(req.Page, req.PageSize); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", core.ErrInvalidInput)
	}
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = s.pageSize
	}
	pageSize = min(pageSize, s.maxPageSize)
	filter := ParseFilter(req.Filters)

	monitor.Start(query)

	candidates, mode, err := s.candidates(ctx, query, page, pageSize, filter)
	if err != nil {
		return nil, err
	}
	monitor.PathChosen(mode)
	monitor.AfterFiltering(len(candidates))

	results, total := Assemble(candidates, page, pageSize)
	s.answer(ctx, query, results, monitor)

	resp := &core.SearchResponse{
		Results:  results,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Mode:     mode,
	}

	entry := &core.SearchLogEntry{Query: query, ResultsCount: total}
	if err := s.searchLog.AppendSearchLog(ctx, entry); err != nil {
		s.logger.Warn("error appending search log", "query", query, "err", err)
		monitor.SearchLogFailed(err)
	}

	s.logger.Debug("search complete", "query", query, "mode", mode, "total", total, "page", page)
	monitor.Finish(resp, time.Since(started))
	return resp, nil
}

// candidates picks the ranking path and returns filtered hits in rank order.
func (s *Searcher) candidates(ctx context.Context, query string, page, pageSize int, filter Filter) ([]core.SearchHit, core.SearchMode, error) {
	if s.strategy == StrategyLexical {
		hits, err := s.lexicalCandidates(ctx, query, filter)
		return hits, core.SearchModeLexical, err
	}

	hits, err := s.vectorCandidates(ctx, query, page, pageSize, filter)
	switch {
	case err == nil:
		return hits, core.SearchModeVector, nil
	case errors.Is(err, core.ErrEmptyCorpus):
		s.logger.Debug("vector index is empty, using lexical ranking")
		hits, err = s.lexicalCandidates(ctx, query, filter)
		return hits, core.SearchModeLexical, err
	case errors.Is(err, core.ErrUpstreamDegraded):
		s.logger.Warn("query embedding unavailable, using lexical ranking", "degraded", true, "err", err)
		hits, err = s.lexicalCandidates(ctx, query, filter)
		return hits, core.SearchModeLexicalDegraded, err
	default:
		return nil, "", err
	}
}

func (s *Searcher) vectorCandidates(ctx context.Context, query string, page, pageSize int, filter Filter) ([]core.SearchHit, error) {
	size := s.index.Len()
	if size == 0 {
		return nil, core.ErrEmptyCorpus
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamDegraded, err)
	}
	if ai.IsZeroVector(vector) {
		return nil, fmt.Errorf("%w: zero query embedding", core.ErrUpstreamDegraded)
	}

	matches, err := s.index.Query(vector, candidateCount(page, pageSize, s.candidateMultiplier, size))
	if err != nil {
		return nil, err
	}

	articles := make(map[core.ID]*core.Article)
	hits := make([]core.SearchHit, 0, len(matches))
	for _, match := range matches {
		article, seen := articles[match.DocumentID]
		if !seen {
			article, err = s.articles.GetArticle(ctx, match.DocumentID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
			}
			// A nil entry marks an article deleted since indexing
			articles[match.DocumentID] = article
		}
		if article == nil || !article.Published || !filter.Match(article) {
			continue
		}
		hits = append(hits, core.SearchHit{
			DocumentId: article.Id,
			ChunkSeq:   match.Seq,
			Title:      article.Title,
			Category:   article.Category,
			Tags:       article.Tags,
			Content:    match.Text,
			Score:      match.Score,
		})
	}
	return hits, nil
}

func (s *Searcher) lexicalCandidates(ctx context.Context, query string, filter Filter) ([]core.SearchHit, error) {
	articles, err := s.publishedArticles(ctx)
	if err != nil {
		return nil, err
	}

	eligible := articles[:0]
	for _, article := range articles {
		if filter.Match(article) {
			eligible = append(eligible, article)
		}
	}

	ranked := lexical.Rank(query, eligible)
	hits := make([]core.SearchHit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, core.SearchHit{
			DocumentId: r.Article.Id,
			Title:      r.Article.Title,
			Category:   r.Article.Category,
			Tags:       r.Article.Tags,
			Content:    r.Article.Content,
			Score:      r.Score,
		})
	}
	return hits, nil
}

func (s *Searcher) publishedArticles(ctx context.Context) ([]*core.Article, error) {
	all, err := s.articles.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	published := make([]*core.Article, 0, len(all))
	for _, article := range all {
		if article.Published {
			published = append(published, article)
		}
	}
	return published, nil
}

// answer fills in Answer for every hit, substituting ai.FallbackAnswer on failure.
func (s *Searcher) answer(ctx context.Context, query string, hits []core.SearchHit, monitor SearchMonitor) {
	if s.answerer == nil || len(hits) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i := range hits {
		hit := &hits[i]
		wg.Add(1)
		err := s.answerPool.Submit(func() {
			defer wg.Done()
			hit.Answer = s.answerOne(ctx, query, hit, monitor)
		})
		if err != nil {
			wg.Done()
			s.fallback(hit, err, monitor)
		}
	}
	wg.Wait()
}

func (s *Searcher) answerOne(ctx context.Context, query string, hit *core.SearchHit, monitor SearchMonitor) string {
	callCtx, cancel := context.WithTimeout(ctx, s.answerTimeout)
	defer cancel()

	answer, err := s.answerer.Answer(callCtx, query, hit.Content)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		s.fallback(hit, err, monitor)
		return ai.FallbackAnswer
	}
	return answer
}

func (s *Searcher) fallback(hit *core.SearchHit, err error, monitor SearchMonitor) {
	hit.Answer = ai.FallbackAnswer
	s.logger.Warn("answer generation failed", "degraded", true, "document", hit.DocumentId,
		"err", fmt.Errorf("%w: %w", core.ErrUpstreamDegraded, err))
	monitor.AnswerFallback(err)
}

// candidateCount returns page*pageSize*multiplier clamped to [pageSize, limit].
// The window grows with page, which makes the vector path's Total a lower bound.
func candidateCount(page, pageSize, multiplier, limit int) int {
	if page > math.MaxInt/pageSize/multiplier {
		return limit
	}
	n := max(page*pageSize*multiplier, pageSize)
	return min(n, limit)
}
