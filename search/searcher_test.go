package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/mock"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/storage"
	"github.com/poiesic/kbsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addArticles(t *testing.T, store storage.Store, articles ...*core.Article) []*core.Article {
	t.Helper()
	added, err := store.AddArticles(context.Background(), articles...)
	require.NoError(t, err)
	return added
}

func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedderWithDimension(len(vector))
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func emptyIndex(t *testing.T, dim int) *index.Index {
	t.Helper()
	idx, err := index.New(dim)
	require.NoError(t, err)
	return idx
}

type failingArticles struct {
	storage.ArticleRepository
	err error
}

func (f *failingArticles) ListArticles(context.Context) ([]*core.Article, error) {
	return nil, f.err
}

func (f *failingArticles) GetArticle(context.Context, core.ID) (*core.Article, error) {
	return nil, f.err
}

type failingSearchLog struct {
	storage.SearchLogRepository
}

func (failingSearchLog) AppendSearchLog(context.Context, *core.SearchLogEntry) error {
	return errors.New("disk full")
}

type recordingMonitor struct {
	mu        sync.Mutex
	modes     []core.SearchMode
	fallbacks int
	logErrors int
	finished  int
}

func (m *recordingMonitor) Start(string) {}

func (m *recordingMonitor) PathChosen(mode core.SearchMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, mode)
}

func (m *recordingMonitor) AfterFiltering(int) {}

func (m *recordingMonitor) AnswerFallback(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *recordingMonitor) SearchLogFailed(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logErrors++
}

func (m *recordingMonitor) Finish(*core.SearchResponse, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished++
}

func vpnCorpus() []*core.Article {
	return []*core.Article{
		{Title: "VPN Setup", Content: "connect vpn now", Category: "Getting Started", Tags: []string{"setup", "windows"}, Published: true},
		{Title: "Billing", Content: "vpn refund policy vpn", Category: "Billing", Tags: []string{"payments"}, Published: true},
		{Title: "Router Guide", Content: "configure the router", Category: "Getting Started", Tags: []string{"setup"}, Published: true},
	}
}

func TestNewSearcher(t *testing.T) {
	store := newTestStore(t)
	idx := emptyIndex(t, 2)
	embedder := mock.NewMockEmbedderWithDimension(2)

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store, store, idx, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		searcher.Close()
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store, store, idx, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with answerer creates pool", func(t *testing.T) {
		searcher, err := NewSearcher(store, store, idx, embedder, WithAnswerer(mock.NewMockAnswerer()))
		require.NoError(t, err)
		require.NotNil(t, searcher.answerPool)
		searcher.Close()
	})

	t.Run("nil article repository", func(t *testing.T) {
		_, err := NewSearcher(nil, store, idx, embedder)
		assert.Equal(t, ErrArticleRepositoryRequired, err)
	})

	t.Run("nil search log", func(t *testing.T) {
		_, err := NewSearcher(store, nil, idx, embedder)
		assert.Equal(t, ErrSearchLogRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(store, store, nil, embedder)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(store, store, idx, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(store, store, idx, embedder, WithPageSize(0, 10))
		assert.ErrorIs(t, err, ErrInvalidPageSize)

		_, err = NewSearcher(store, store, idx, embedder, WithPageSize(20, 10))
		assert.ErrorIs(t, err, ErrInvalidPageSize)

		_, err = NewSearcher(store, store, idx, embedder, WithCandidateMultiplier(0))
		assert.ErrorIs(t, err, ErrInvalidCandidateMultiplier)

		_, err = NewSearcher(store, store, idx, embedder, WithAnswerWorkers(0))
		assert.ErrorIs(t, err, ErrInvalidAnswerWorkers)

		_, err = NewSearcher(store, store, idx, embedder, WithStrategy("hybrid"))
		assert.ErrorIs(t, err, ErrUnknownStrategy)
	})
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyVector, false},
		{"vector", StrategyVector, false},
		{" Lexical ", StrategyLexical, false},
		{"bm25", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_Lexical(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2),
		WithStrategy(StrategyLexical))
	require.NoError(t, err)

	resp, err := searcher.Search(ctx, core.SearchRequest{Query: "vpn"})
	require.NoError(t, err)

	assert.Equal(t, core.SearchModeLexical, resp.Mode)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, DefaultPageSize, resp.PageSize)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, added[0].Id, resp.Results[0].DocumentId)
	assert.Equal(t, 4.0, resp.Results[0].Score)
	assert.Equal(t, added[1].Id, resp.Results[1].DocumentId)
	assert.Equal(t, 2.0, resp.Results[1].Score)
	assert.Equal(t, "connect vpn now", resp.Results[0].Content)
	assert.Empty(t, resp.Results[0].Answer)

	logs, err := store.RecentSearchLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "vpn", logs[0].Query)
	assert.Equal(t, 2, logs[0].ResultsCount)
}

func TestSearch_NoMatchesStillLogged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	addArticles(t, store, vpnCorpus()...)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
	require.NoError(t, err)

	resp, err := searcher.Search(ctx, core.SearchRequest{Query: "kubernetes"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, 0, resp.Total)

	logs, err := store.RecentSearchLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 0, logs[0].ResultsCount)
}

func TestSearch_EmptyIndexUsesLexical(t *testing.T) {
	store := newTestStore(t)
	addArticles(t, store, vpnCorpus()...)
	embedder := mock.NewMockEmbedderWithDimension(2)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), embedder)
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
	require.NoError(t, err)
	assert.Equal(t, core.SearchModeLexical, resp.Mode)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestSearch_Vector(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	idx := emptyIndex(t, 2)
	require.NoError(t, idx.Build([]index.Entry{
		{ChunkID: 1, DocumentID: added[0].Id, Seq: 0, Text: "connect vpn", Vector: []float32{1, 0}},
		{ChunkID: 2, DocumentID: added[0].Id, Seq: 1, Text: "vpn now", Vector: []float32{0.6, 0.8}},
		{ChunkID: 3, DocumentID: added[1].Id, Seq: 0, Text: "vpn refund", Vector: []float32{0.8, 0.6}},
		{ChunkID: 4, DocumentID: added[2].Id, Seq: 0, Text: "router", Vector: []float32{0, 1}},
	}))

	searcher, err := NewSearcher(store, store, idx, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	resp, err := searcher.Search(ctx, core.SearchRequest{Query: "how do I connect"})
	require.NoError(t, err)

	assert.Equal(t, core.SearchModeVector, resp.Mode)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Results, 3)

	first := resp.Results[0]
	assert.Equal(t, added[0].Id, first.DocumentId)
	assert.Equal(t, 0, first.ChunkSeq)
	assert.Equal(t, "connect vpn", first.Content)
	assert.Equal(t, "VPN Setup", first.Title)
	assert.Equal(t, "Getting Started", first.Category)
	assert.Equal(t, []string{"setup", "windows"}, first.Tags)
	assert.InDelta(t, 1.0, first.Score, 1e-6)

	assert.Equal(t, added[1].Id, resp.Results[1].DocumentId)
	assert.InDelta(t, 0.8, resp.Results[1].Score, 1e-6)
	assert.Equal(t, added[2].Id, resp.Results[2].DocumentId)
}

func TestSearch_VectorSkipsDeletedAndUnpublished(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	corpus := vpnCorpus()
	corpus[1].Published = false
	added := addArticles(t, store, corpus...)
	require.NoError(t, store.DeleteArticles(ctx, added[2].Id))

	idx := emptyIndex(t, 2)
	require.NoError(t, idx.Build([]index.Entry{
		{ChunkID: 1, DocumentID: added[0].Id, Text: "connect vpn", Vector: []float32{0.5, 0.5}},
		{ChunkID: 3, DocumentID: added[1].Id, Text: "vpn refund", Vector: []float32{1, 0}},
		{ChunkID: 4, DocumentID: added[2].Id, Text: "router", Vector: []float32{1, 0.1}},
	}))

	searcher, err := NewSearcher(store, store, idx, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	resp, err := searcher.Search(ctx, core.SearchRequest{Query: "vpn"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, added[0].Id, resp.Results[0].DocumentId)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	idx := emptyIndex(t, 3)
	require.NoError(t, idx.Build([]index.Entry{
		{ChunkID: 1, DocumentID: added[0].Id, Vector: []float32{1, 0, 0}},
	}))

	searcher, err := NewSearcher(store, store, idx, fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSearch_DegradedEmbedding(t *testing.T) {
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	idx := emptyIndex(t, 2)
	require.NoError(t, idx.Build([]index.Entry{
		{ChunkID: 1, DocumentID: added[2].Id, Text: "router", Vector: []float32{1, 0}},
	}))

	failing := mock.NewMockEmbedderWithDimension(2)
	failing.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	t.Run("resilient embedder returns zero vector", func(t *testing.T) {
		var degraded []string
		resilient, err := ai.NewResilientEmbedder(failing, 2,
			ai.WithRetryPolicy(1, time.Millisecond),
			ai.WithObserver(func(component string, _ error) { degraded = append(degraded, component) }))
		require.NoError(t, err)

		searcher, err := NewSearcher(store, store, idx, resilient)
		require.NoError(t, err)

		resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
		require.NoError(t, err)
		assert.Equal(t, core.SearchModeLexicalDegraded, resp.Mode)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, added[0].Id, resp.Results[0].DocumentId)
		assert.Equal(t, []string{"embedder"}, degraded)
	})

	t.Run("embedder error", func(t *testing.T) {
		searcher, err := NewSearcher(store, store, idx, failing)
		require.NoError(t, err)

		resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
		require.NoError(t, err)
		assert.Equal(t, core.SearchModeLexicalDegraded, resp.Mode)
		assert.Equal(t, 2, resp.Total)
	})
}

func TestSearch_Pagination(t *testing.T) {
	store := newTestStore(t)
	var corpus []*core.Article
	for i := range 5 {
		corpus = append(corpus, &core.Article{
			Title:     "Article " + string(rune('A'+i)),
			Content:   strings.Repeat("vpn ", 5-i),
			Published: true,
		})
	}
	added := addArticles(t, store, corpus...)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2),
		WithStrategy(StrategyLexical), WithPageSize(2, 3))
	require.NoError(t, err)

	tests := []struct {
		name     string
		page     int
		pageSize int
		wantIDs  []core.ID
		wantSize int
	}{
		{"defaults", 0, 0, []core.ID{added[0].Id, added[1].Id}, 2},
		{"second page", 2, 2, []core.ID{added[2].Id, added[3].Id}, 2},
		{"last partial page", 3, 2, []core.ID{added[4].Id}, 2},
		{"page past the end", 10, 2, []core.ID{}, 2},
		{"page size capped", 1, 50, []core.ID{added[0].Id, added[1].Id, added[2].Id}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := searcher.Search(context.Background(), core.SearchRequest{
				Query: "vpn", Page: tt.page, PageSize: tt.pageSize,
			})
			require.NoError(t, err)
			assert.Equal(t, 5, resp.Total)
			assert.Equal(t, tt.wantSize, resp.PageSize)

			ids := []core.ID{}
			for _, hit := range resp.Results {
				ids = append(ids, hit.DocumentId)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	store := newTestStore(t)
	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  core.SearchRequest
	}{
		{"negative page", core.SearchRequest{Query: "vpn", Page: -1}},
		{"negative page size", core.SearchRequest{Query: "vpn", PageSize: -5}},
		{"blank query", core.SearchRequest{Query: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searcher.Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}

	logs, err := store.RecentSearchLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSearch_Filters(t *testing.T) {
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters map[string]string
		query   string
		wantIDs []core.ID
	}{
		{"category", map[string]string{"category": "billing"}, "vpn", []core.ID{added[1].Id}},
		{"tag", map[string]string{"tag": "SETUP"}, "vpn router", []core.ID{added[0].Id, added[2].Id}},
		{"category and tag", map[string]string{"category": "Getting Started", "tag": "windows"}, "vpn router", []core.ID{added[0].Id}},
		{"slug", map[string]string{"slug": "billing"}, "vpn", []core.ID{added[1].Id}},
		{"unknown key ignored", map[string]string{"author": "nobody"}, "vpn", []core.ID{added[0].Id, added[1].Id}},
		{"no match", map[string]string{"category": "Billing", "tag": "setup"}, "vpn", []core.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: tt.query, Filters: tt.filters})
			require.NoError(t, err)
			ids := []core.ID{}
			for _, hit := range resp.Results {
				ids = append(ids, hit.DocumentId)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Total)
		})
	}
}

func TestSearch_StoreUnavailable(t *testing.T) {
	store := newTestStore(t)
	broken := &failingArticles{ArticleRepository: store, err: storage.ErrStorageClosed}

	t.Run("lexical path", func(t *testing.T) {
		searcher, err := NewSearcher(broken, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
		assert.ErrorIs(t, err, core.ErrStoreUnavailable)
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})

	t.Run("vector path", func(t *testing.T) {
		idx := emptyIndex(t, 2)
		require.NoError(t, idx.Build([]index.Entry{{ChunkID: 1, DocumentID: 1, Vector: []float32{1, 0}}}))

		searcher, err := NewSearcher(broken, store, idx, fixedEmbedder([]float32{1, 0}))
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
		assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	})
}

func TestSearch_SearchLogFailureIgnored(t *testing.T) {
	store := newTestStore(t)
	addArticles(t, store, vpnCorpus()...)
	monitor := &recordingMonitor{}

	searcher, err := NewSearcher(store, failingSearchLog{}, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2),
		WithLogger(slog.Default()), WithMonitor(monitor))
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, monitor.logErrors)
	assert.Equal(t, 1, monitor.finished)
	assert.Equal(t, []core.SearchMode{core.SearchModeLexical}, monitor.modes)
}

func TestSearch_Answers(t *testing.T) {
	store := newTestStore(t)
	added := addArticles(t, store, vpnCorpus()...)

	answerer := mock.NewMockAnswerer()
	answerer.AnswerFunc = func(_ context.Context, question, contextText string) (string, error) {
		if strings.Contains(contextText, "refund") {
			return "", errors.New("model overloaded")
		}
		return "use the client: " + question, nil
	}

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2),
		WithAnswerer(answerer), WithAnswerWorkers(2))
	require.NoError(t, err)
	defer searcher.Close()

	monitor := &recordingMonitor{}
	resp, err := searcher.SearchWithMonitor(context.Background(), core.SearchRequest{Query: "vpn"}, monitor)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, added[0].Id, resp.Results[0].DocumentId)
	assert.Equal(t, "use the client: vpn", resp.Results[0].Answer)
	assert.Equal(t, ai.FallbackAnswer, resp.Results[1].Answer)
	assert.Equal(t, 1, monitor.fallbacks)
	assert.Equal(t, 2, answerer.CallCount())
}

func TestSearch_AnswerTimeout(t *testing.T) {
	store := newTestStore(t)
	addArticles(t, store, vpnCorpus()...)

	answerer := mock.NewMockAnswerer()
	answerer.AnswerFunc = func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2),
		WithAnswerer(answerer), WithAnswerTimeout(5*time.Millisecond))
	require.NoError(t, err)
	defer searcher.Close()

	resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, hit := range resp.Results {
		assert.Equal(t, ai.FallbackAnswer, hit.Answer)
	}
}

func TestSuggest(t *testing.T) {
	store := newTestStore(t)
	addArticles(t, store,
		&core.Article{Title: "VPN Setup", Content: "x", Published: true},
		&core.Article{Title: "Setting up Split Tunneling", Content: "x", Published: true},
		&core.Article{Title: "Server selection", Content: "x", Published: true},
		&core.Article{Title: "Secure Servers", Content: "x", Published: true},
		&core.Article{Title: "Session limits", Content: "x", Published: true},
		&core.Article{Title: "Secret drafts", Content: "x", Published: false},
	)

	searcher, err := NewSearcher(store, store, emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
	require.NoError(t, err)

	tests := []struct {
		name    string
		partial string
		want    []string
	}{
		{"prefix", "set", []string{"setting", "setup"}},
		{"case insensitive and capped", "SE", []string{"secure", "selection", "server", "servers", "session"}},
		{"blank", "  ", []string{}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := searcher.Suggest(context.Background(), tt.partial)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		broken, err := NewSearcher(&failingArticles{ArticleRepository: store, err: errors.New("io")}, store,
			emptyIndex(t, 2), mock.NewMockEmbedderWithDimension(2))
		require.NoError(t, err)
		_, err = broken.Suggest(context.Background(), "vpn")
		assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	})
}

func TestSearch_VectorTotalCountsCandidateWindow(t *testing.T) {
	store := newTestStore(t)
	corpus := make([]*core.Article, 0, 5)
	for i := range 5 {
		corpus = append(corpus, &core.Article{
			Title:     "Article " + string(rune('A'+i)),
			Content:   "vpn",
			Published: true,
		})
	}
	added := addArticles(t, store, corpus...)

	idx := emptyIndex(t, 2)
	entries := make([]index.Entry, 0, len(added))
	for i, article := range added {
		entries = append(entries, index.Entry{
			ChunkID:    core.ID(i + 1),
			DocumentID: article.Id,
			Text:       article.Content,
			Vector:     []float32{1, float32(i) * 0.2},
		})
	}
	require.NoError(t, idx.Build(entries))

	searcher, err := NewSearcher(store, store, idx, fixedEmbedder([]float32{1, 0}),
		WithCandidateMultiplier(1), WithPageSize(2, 10))
	require.NoError(t, err)

	tests := []struct {
		name      string
		page      int
		wantTotal int
		wantFirst core.ID
	}{
		{"first page sees two candidates", 1, 2, added[0].Id},
		{"second page sees four candidates", 2, 4, added[2].Id},
		{"window covering the index is exact", 3, 5, added[4].Id},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := searcher.Search(context.Background(), core.SearchRequest{Query: "vpn", Page: tt.page})
			require.NoError(t, err)
			assert.Equal(t, core.SearchModeVector, resp.Mode)
			assert.Equal(t, tt.wantTotal, resp.Total)
			require.NotEmpty(t, resp.Results)
			assert.Equal(t, tt.wantFirst, resp.Results[0].DocumentId)
			assert.GreaterOrEqual(t, resp.Total, (tt.page-1)*2+len(resp.Results))
		})
	}
}
