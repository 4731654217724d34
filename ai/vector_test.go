package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{"unit vector unchanged", []float32{1, 0, 0}, []float32{1, 0, 0}},
		{"scales to unit length", []float32{3, 4}, []float32{0.6, 0.8}},
		{"zero vector stays zero", []float32{0, 0}, []float32{0, 0}},
		{"empty", []float32{}, []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVector(tt.input)
			assert.InDeltaSlice(t, tt.expected, got, 1e-6)
		})
	}
}

func TestValidateVector(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	assert.NoError(t, ValidateVector([]float32{1, 2, 3}, 3))
	assert.ErrorIs(t, ValidateVector([]float32{1, 2}, 3), ErrDimensionMismatch)
	assert.ErrorIs(t, ValidateVector(nil, 3), ErrDimensionMismatch)
	assert.ErrorIs(t, ValidateVector([]float32{1, nan, 3}, 3), ErrNonFiniteVector)
	assert.ErrorIs(t, ValidateVector([]float32{inf, 0, 0}, 3), ErrNonFiniteVector)
}

func TestIsZeroVector(t *testing.T) {
	assert.True(t, IsZeroVector([]float32{0, 0, 0}))
	assert.True(t, IsZeroVector(nil))
	assert.False(t, IsZeroVector([]float32{0, 1e-9, 0}))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "how do I  connect", NormalizeText("  how do I\n\nconnect\n"))
	assert.Equal(t, "a b", NormalizeText("a\r\nb"))
}
