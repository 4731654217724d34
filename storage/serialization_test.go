package storage

import (
	"testing"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalArticle(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name    string
		article *core.Article
	}{
		{
			name: "full article",
			article: &core.Article{
				Id:        7,
				Title:     "VPN Setup",
				Slug:      "vpn-setup",
				Content:   "# VPN Setup\n\nconnect vpn now",
				Category:  "Getting Started",
				Tags:      []string{"setup", "windows"},
				Published: true,
				CreatedAt: now,
				UpdatedAt: now.Add(time.Minute),
			},
		},
		{
			name: "minimal article keeps zero timestamps",
			article: &core.Article{
				Title:   "Billing",
				Content: "vpn refund policy vpn",
			},
		},
		{
			name: "unicode content",
			article: &core.Article{
				Id:      3,
				Title:   "Überwachung",
				Content: "日本語のテキスト 🚀",
				Tags:    []string{"i18n"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalArticle(tt.article)
			decoded, err := UnmarshalArticle(data)
			require.NoError(t, err)
			assert.Equal(t, tt.article, decoded)
		})
	}
}

func TestUnmarshalArticle_Truncated(t *testing.T) {
	data := MarshalArticle(&core.Article{Id: 1, Title: "VPN Setup", Content: "connect vpn now"})

	_, err := UnmarshalArticle(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ChunkID(7, 2, "connect vpn now"),
		DocumentId: 7,
		Seq:        2,
		Text:       "connect vpn now",
		Overlap:    200,
		Title:      "VPN Setup",
		Category:   "Getting Started",
		Tags:       []string{"setup"},
		Vector:     []float32{0.25, -1.5, 0, 3.75},
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestMarshalUnmarshalChunk_NoVector(t *testing.T) {
	chunk := &core.Chunk{Id: 1, DocumentId: 1, Text: "x"}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Nil(t, decoded.Vector)
	assert.Equal(t, "x", decoded.Text)
}

func TestMarshalUnmarshalFeedback(t *testing.T) {
	feedback := &core.Feedback{
		Id:        9,
		ArticleId: 7,
		Rating:    4,
		Comment:   "helpful",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalFeedback(MarshalFeedback(feedback))
	require.NoError(t, err)
	assert.Equal(t, feedback, decoded)
}

func TestMarshalUnmarshalSearchLogEntry(t *testing.T) {
	entry := &core.SearchLogEntry{
		Id:           12,
		Query:        "how do I connect",
		ResultsCount: 3,
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalSearchLogEntry(MarshalSearchLogEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}
