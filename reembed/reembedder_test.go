package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder(t *testing.T) {
	store := setupTestStore(t)
	embedder := mock.NewMockEmbedderWithDimension(3)

	t.Run("defaults", func(t *testing.T) {
		reembedder, err := NewReembedder(store, embedder, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultBatchSize, reembedder.iterator.batchSize)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewReembedder(nil, embedder, nil, nil)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewReembedder(store, nil, nil, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("invalid retries", func(t *testing.T) {
		_, err := NewReembedder(store, embedder, &Config{MaxRetries: 0}, nil)
		assert.ErrorIs(t, err, ai.ErrInvalidMaxAttempts)
	})
}

func TestReembedder_Run(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seedChunks(t, store, 10)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedderWithDimension(3)

	reembedder, err := NewReembedder(store, embedder, testConfig(), &buf)
	require.NoError(t, err)

	n, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 4, embedder.CallCount(), "10 chunks in batches of 3")

	updated, err := store.ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 10)
	for _, chunk := range updated {
		assert.Equal(t, ai.NormalizeVector(mock.GenerateDeterministicVector(chunk.Text, 3)), chunk.Vector)

		var magnitude float32
		for _, v := range chunk.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
	}

	output := buf.String()
	assert.Contains(t, output, "Starting re-embedding of 10 chunks")
	assert.Contains(t, output, "10/10")
	assert.Contains(t, output, "Re-embedding complete")
}

func TestReembedder_EmptyStore(t *testing.T) {
	store := setupTestStore(t)

	var buf bytes.Buffer
	reembedder, err := NewReembedder(store, mock.NewMockEmbedderWithDimension(3), DefaultConfig(), &buf)
	require.NoError(t, err)

	n, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, buf.String(), "0 chunks")
}

func TestReembedder_StopsOnFailedBatch(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seedChunks(t, store, 7)

	batches := 0
	embedder := mock.NewMockEmbedderWithDimension(3)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		batches++
		if batches == 2 {
			return nil, errors.New("quota exceeded")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 1, 0}
		}
		return vectors, nil
	}

	config := testConfig()
	config.MaxRetries = 1
	reembedder, err := NewReembedder(store, embedder, config, nil)
	require.NoError(t, err)

	n, err := reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 3, n)

	chunks, err := store.ListChunks(ctx)
	require.NoError(t, err)
	changed := 0
	for _, chunk := range chunks {
		if chunk.Vector[1] == 1 {
			changed++
		}
	}
	assert.Equal(t, 3, changed)
}

func TestReembedder_ContextCancelled(t *testing.T) {
	store := setupTestStore(t)
	seedChunks(t, store, 4)

	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedderWithDimension(3)
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		cancel()
		return [][]float32{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}}[:len(texts)], nil
	}

	reembedder, err := NewReembedder(store, embedder, testConfig(), nil)
	require.NoError(t, err)

	_, err = reembedder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
