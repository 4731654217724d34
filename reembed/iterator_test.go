package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
	"github.com/poiesic/kbsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedChunks stores n single-chunk articles.
func seedChunks(t *testing.T, store storage.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := range n {
		added, err := store.AddArticles(ctx, &core.Article{
			Title:     fmt.Sprintf("Article %d", i),
			Content:   fmt.Sprintf("content %d", i),
			Published: true,
		})
		require.NoError(t, err)
		require.NoError(t, store.ReplaceChunks(ctx, added[0].Id, &core.Chunk{
			Seq:    0,
			Text:   fmt.Sprintf("content %d", i),
			Vector: []float32{1, 0, 0},
		}))
	}
}

func TestChunkIterator_Batches(t *testing.T) {
	store := setupTestStore(t)
	seedChunks(t, store, 7)

	iterator := NewChunkIterator(store, 3)

	var sizes []int
	seen := 0
	err := iterator.ForEach(context.Background(), func(batch []*core.Chunk) error {
		sizes = append(sizes, len(batch))
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, 7, seen)
}

func TestChunkIterator_Empty(t *testing.T) {
	store := setupTestStore(t)

	called := false
	err := NewChunkIterator(store, 10).ForEach(context.Background(), func([]*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	iterator := NewChunkIterator(nil, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)

	iterator = NewChunkIterator(nil, -4)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	store := setupTestStore(t)
	seedChunks(t, store, 5)

	boom := errors.New("boom")
	calls := 0
	err := NewChunkIterator(store, 2).ForEach(context.Background(), func([]*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCancelled(t *testing.T) {
	store := setupTestStore(t)
	seedChunks(t, store, 5)

	ctx, cancel := context.WithCancel(context.Background())

	t.Run("before start", func(t *testing.T) {
		cancelled, stop := context.WithCancel(context.Background())
		stop()
		err := NewChunkIterator(store, 2).ForEach(cancelled, func([]*core.Chunk) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("between batches", func(t *testing.T) {
		calls := 0
		err := NewChunkIterator(store, 2).ForEach(ctx, func([]*core.Chunk) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
