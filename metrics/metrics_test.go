package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMonitor(t *testing.T) {
	m := New()

	m.Start("vpn")
	m.PathChosen(core.SearchModeVector)
	m.PathChosen(core.SearchModeLexicalDegraded)
	m.PathChosen(core.SearchModeLexicalDegraded)
	m.AfterFiltering(3)
	m.AnswerFallback(errors.New("timeout"))
	m.SearchLogFailed(errors.New("disk full"))
	m.Finish(&core.SearchResponse{Mode: core.SearchModeVector, Total: 3}, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchesTotal.WithLabelValues("vector")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.searchesTotal.WithLabelValues("lexical-degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answerFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.degradedTotal.WithLabelValues("answerer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchLogFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.searchDuration))
}

func TestObserveDegraded(t *testing.T) {
	m := New()
	var observer ai.DegradedObserver = m.ObserveDegraded

	observer("embedder", errors.New("refused"))
	observer("embedder", errors.New("refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.degradedTotal.WithLabelValues("embedder")))
}

func TestTrackIndex(t *testing.T) {
	m := New()
	idx, err := index.New(2)
	require.NoError(t, err)
	m.TrackIndex(idx)

	require.NoError(t, idx.Build([]index.Entry{
		{ChunkID: 1, DocumentID: 1, Vector: []float32{1, 0}},
		{ChunkID: 2, DocumentID: 2, Vector: []float32{0, 1}},
	}))

	expected := `
# HELP kbsearch_index_entries Number of chunk vectors in the live index
# TYPE kbsearch_index_entries gauge
kbsearch_index_entries 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kbsearch_index_entries"))
}

func TestHandler(t *testing.T) {
	m := New()
	m.PathChosen(core.SearchModeLexical)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kbsearch_searches_total{mode="lexical"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
