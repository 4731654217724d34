package index

import (
	"sync"
	"testing"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(doc core.ID, seq int, v ...float32) Entry {
	return Entry{ChunkID: core.ID(uint64(doc)*100 + uint64(seq)), DocumentID: doc, Seq: seq, Vector: v}
}

func docs(matches []Match) []core.ID {
	out := make([]core.ID, len(matches))
	for i, m := range matches {
		out[i] = m.DocumentID
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = New(3, WithMetric(Metric(42)))
	assert.ErrorIs(t, err, ErrUnknownMetric)

	idx, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, idx.Metric())
	assert.Equal(t, 3, idx.Dimension())
	assert.Zero(t, idx.Len())
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	matches, err := idx.Query([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestQuery_CosineOrdering(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{
		entry(1, 0, 0, 1),
		entry(2, 0, 1, 0),
		entry(3, 0, 1, 1),
		entry(4, 0, -1, 0),
	}))

	matches, err := idx.Query([]float32{2, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []core.ID{2, 3, 1}, docs(matches))
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.InDelta(t, 0.70710678, matches[1].Score, 1e-6)
	assert.InDelta(t, 0.0, matches[2].Score, 1e-9)
}

func TestQuery_DotMetric(t *testing.T) {
	idx, err := New(2, WithMetric(MetricDot))
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{
		entry(1, 0, 1, 0),
		entry(2, 0, 3, 0),
	}))

	matches, err := idx.Query([]float32{2, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{2, 1}, docs(matches))
	assert.Equal(t, 6.0, matches[0].Score)
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	var entries []Entry
	for i := 1; i <= 20; i++ {
		entries = append(entries, entry(core.ID(i), 0, 1, 0))
	}
	require.NoError(t, idx.Build(entries))

	matches, err := idx.Query([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1, 2, 3, 4, 5}, docs(matches))
}

func TestQuery_KBounds(t *testing.T) {
	idx, err := New(1)
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{entry(1, 0, 1), entry(2, 0, 2)}))

	matches, err := idx.Query([]float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = idx.Query([]float32{1}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestQuery_ZeroVectorScoresZero(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{entry(1, 0, 1, 0), entry(2, 0, 0, 0)}))

	matches, err := idx.Query([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Zero(t, m.Score)
	}
}

func TestDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	_, err = idx.Query([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, idx.Build([]Entry{entry(1, 0, 1, 0, 0)}))
	err = idx.Build([]Entry{entry(2, 0, 1, 0)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, 1, idx.Len(), "failed build keeps previous snapshot")

	err = idx.ReplaceDocument(2, []Entry{entry(2, 0, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestBuild_CopiesVectors(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	v := []float32{1, 0}
	require.NoError(t, idx.Build([]Entry{{DocumentID: 1, Vector: v}}))
	v[0], v[1] = 0, 1

	matches, err := idx.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestReplaceAndRemoveDocument(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{
		entry(1, 0, 1, 0),
		entry(1, 1, 1, 0),
		entry(2, 0, 0, 1),
	}))

	require.NoError(t, idx.ReplaceDocument(1, []Entry{entry(1, 0, 0, 1)}))
	assert.Equal(t, 2, idx.Len())

	matches, err := idx.Query([]float32{0, 1}, 2)
	require.NoError(t, err)
	// Replaced entries move behind existing ones on ties
	assert.Equal(t, []core.ID{2, 1}, docs(matches))

	err = idx.ReplaceDocument(1, []Entry{entry(3, 0, 0, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	idx.RemoveDocument(2)
	assert.Equal(t, 1, idx.Len())
	idx.RemoveDocument(99)
	assert.Equal(t, 1, idx.Len())
}

func TestConcurrentQueryDuringRebuild(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	build := func(n int) []Entry {
		entries := make([]Entry, n)
		for i := range entries {
			entries[i] = entry(core.ID(i+1), 0, 1, float32(i))
		}
		return entries
	}
	require.NoError(t, idx.Build(build(10)))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				matches, err := idx.Query([]float32{1, 0}, 5)
				if err != nil {
					t.Error(err)
					return
				}
				// Either snapshot size is fine, a torn read is not
				if n := len(matches); n != 5 {
					t.Errorf("unexpected match count %d", n)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, idx.Build(build(10+i%3)))
	}
	wg.Wait()
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("DOT")
	require.NoError(t, err)
	assert.Equal(t, MetricDot, m)
	assert.Equal(t, "dot", m.String())

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	_, err = ParseMetric("euclid")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestEntryFromChunk(t *testing.T) {
	chunk := &core.Chunk{Id: 11, DocumentId: 3, Seq: 2, Text: "connect vpn now", Vector: []float32{1, 0}}
	idx, err := New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Build([]Entry{EntryFromChunk(chunk)}))

	matches, err := idx.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, Match{ChunkID: 11, DocumentID: 3, Seq: 2, Text: "connect vpn now", Score: 1}, matches[0])
}
