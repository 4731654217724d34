package ai

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder lets each test script the provider response.
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	fn    func(call int, texts []string) ([][]float32, error)
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vs, err := s.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.texts = append(s.texts, texts...)
	s.mu.Unlock()
	return s.fn(call, texts)
}

func (s *stubEmbedder) Dimension() int { return 3 }

func constant(v []float32) func(int, []string) ([][]float32, error) {
	return func(_ int, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}

func TestNewResilientEmbedder_Validation(t *testing.T) {
	_, err := NewResilientEmbedder(nil, 3)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewResilientEmbedder(&stubEmbedder{}, 0)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = NewResilientEmbedder(&stubEmbedder{}, 3, WithRetryPolicy(0, 0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestResilientEmbedder_Success(t *testing.T) {
	stub := &stubEmbedder{fn: constant([]float32{0.1, 0.2, 0.3})}
	r, err := NewResilientEmbedder(stub, 3)
	require.NoError(t, err)

	v, err := r.EmbedText(context.Background(), "  how do I\nconnect  ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
	assert.Equal(t, []string{"how do I connect"}, stub.texts)
	assert.Equal(t, 3, r.Dimension())
}

func TestResilientEmbedder_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int, []string) ([][]float32, error)
	}{
		{"provider error", func(int, []string) ([][]float32, error) { return nil, errors.New("connection refused") }},
		{"wrong dimension", constant([]float32{1, 2})},
		{"non-finite value", constant([]float32{1, float32(math.NaN()), 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var observed []error
			r, err := NewResilientEmbedder(&stubEmbedder{fn: tt.fn}, 3,
				WithObserver(func(component string, err error) {
					assert.Equal(t, "embedder", component)
					observed = append(observed, err)
				}))
			require.NoError(t, err)

			v, err := r.EmbedText(context.Background(), "query")
			require.NoError(t, err)
			assert.Equal(t, []float32{0, 0, 0}, v)
			require.Len(t, observed, 1)
			assert.ErrorIs(t, observed[0], core.ErrUpstreamDegraded)
		})
	}
}

func TestResilientEmbedder_RetriesBeforeFallback(t *testing.T) {
	stub := &stubEmbedder{fn: func(call int, texts []string) ([][]float32, error) {
		if call < 3 {
			return nil, errors.New("temporary")
		}
		return constant([]float32{1, 0, 0})(call, texts)
	}}
	r, err := NewResilientEmbedder(stub, 3, WithRetryPolicy(3, time.Millisecond))
	require.NoError(t, err)

	v, err := r.EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
	assert.Equal(t, 3, stub.calls)
}

func TestResilientEmbedder_Timeout(t *testing.T) {
	stub := &stubEmbedder{fn: func(int, []string) ([][]float32, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, context.DeadlineExceeded
	}}
	r, err := NewResilientEmbedder(stub, 3, WithTimeout(10*time.Millisecond), WithRetryPolicy(5, 20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	v, err := r.EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.True(t, IsZeroVector(v))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestResilientEmbedder_CanceledContext(t *testing.T) {
	stub := &stubEmbedder{fn: constant([]float32{1, 0, 0})}
	r, err := NewResilientEmbedder(stub, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := r.EmbedText(ctx, "query")
	require.NoError(t, err)
	assert.True(t, IsZeroVector(v))
	assert.Zero(t, stub.calls)
}

func TestResilientEmbedder_EmbedTexts(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		r, err := NewResilientEmbedder(&stubEmbedder{fn: constant([]float32{1, 0, 0})}, 3)
		require.NoError(t, err)

		vs, err := r.EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vs)
	})

	t.Run("malformed entry replaced", func(t *testing.T) {
		stub := &stubEmbedder{fn: func(int, []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}, {1}}, nil
		}}
		r, err := NewResilientEmbedder(stub, 3)
		require.NoError(t, err)

		vs, err := r.EmbedTexts(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 0, 0}, {0, 0, 0}}, vs)
	})

	t.Run("batch failure", func(t *testing.T) {
		stub := &stubEmbedder{fn: func(int, []string) ([][]float32, error) {
			return nil, errors.New("boom")
		}}
		r, err := NewResilientEmbedder(stub, 3)
		require.NoError(t, err)

		vs, err := r.EmbedTexts(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{0, 0, 0}, {0, 0, 0}}, vs)
	})
}

func TestNewResilientEmbedderFromConfig(t *testing.T) {
	cfg := NewConfig(WithDimension(3), WithRetry(2, time.Millisecond))
	stub := &stubEmbedder{fn: func(int, []string) ([][]float32, error) { return nil, errors.New("down") }}

	r, err := NewResilientEmbedderFromConfig(stub, cfg)
	require.NoError(t, err)

	v, err := r.EmbedText(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, v, 3)
	assert.Equal(t, 2, stub.calls)
}

func TestResilientEmbedder_MalformedVectorNotRetried(t *testing.T) {
	stub := &stubEmbedder{fn: constant([]float32{1, 2})}
	r, err := NewResilientEmbedder(stub, 3, WithRetryPolicy(4, time.Millisecond))
	require.NoError(t, err)

	v, err := r.EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.True(t, IsZeroVector(v))
	assert.Equal(t, 1, stub.calls)
}
