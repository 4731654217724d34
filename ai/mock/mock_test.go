package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedderWithDimension(8)
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "vpn")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "vpn")
	require.NoError(t, err)
	c, err := m.EmbedText(ctx, "billing")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 8)
	assert.Equal(t, 8, m.Dimension())
	assert.Equal(t, 3, m.CallCount())

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockEmbedder_Overrides(t *testing.T) {
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("bad")
		}
		return []float32{1}, nil
	}

	vs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {1}}, vs)

	_, err = m.EmbedTexts(context.Background(), []string{"a", "bad"})
	assert.Error(t, err)

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Nil(t, m.EmbedTextFunc)
}

func TestMockAnswerer(t *testing.T) {
	m := NewMockAnswerer()

	answer, err := m.Answer(context.Background(), "how", "ctx")
	require.NoError(t, err)
	assert.Equal(t, "answer: how", answer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Answer(ctx, "how", "ctx")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	defer p.Close()

	mp := p.(*MockProvider)
	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	assert.Same(t, mp.GetMockAnswerer(), p.Answerer())
}
