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

package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/kbsearch/core"
)

const (
	// DefaultChunkSize is the default maximum number of runes per chunk.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default number of runes shared by consecutive chunks.
	DefaultChunkOverlap = 200
)

// Segment is one piece of split text.
type Segment struct {
	Text    string
	Start   int // Rune offset of Text within the input
	Overlap int // Runes shared with the previous segment
}

// Splitter breaks text into overlapping segments. It holds no state between
// calls and is safe for concurrent use.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter) error

// WithChunkSize sets the maximum runes per chunk.
func WithChunkSize(size int) Option {
	return func(s *Splitter) error {
		s.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the runes shared between consecutive chunks.
func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) error {
		s.overlap = overlap
		return nil
	}
}

// NewSplitter creates a splitter. It fails with core.ErrInvalidInput when the
// size is not positive, the overlap is negative, or overlap >= size.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidInput, s.chunkSize)
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", core.ErrInvalidInput, s.chunkSize, s.overlap)
	}
	return s, nil
}

// ChunkSize returns the configured maximum runes per chunk.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns the chunk texts of text. Empty input yields an empty slice.
func (s *Splitter) Split(text string) []string {
	segments := s.Segments(text)
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = seg.Text
	}
	return out
}

// Segments splits text and reports each segment's position and overlap.
func (s *Splitter) Segments(text string) []Segment {
	// byteAt maps rune offsets to byte offsets so segments slice the
	// original string rather than re-encoding runes.
	runes := make([]rune, 0, len(text))
	byteAt := make([]int, 0, len(text)+1)
	for i, r := range text {
		runes = append(runes, r)
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))

	n := len(runes)
	segments := []Segment{}
	if n == 0 {
		return segments
	}

	start, prevEnd := 0, 0
	for {
		end := start + s.chunkSize
		if end >= n {
			end = n
		} else {
			end = s.breakPoint(runes, start, end)
		}

		overlap := 0
		if len(segments) > 0 {
			overlap = prevEnd - start
		}
		segments = append(segments, Segment{
			Text:    text[byteAt[start]:byteAt[end]],
			Start:   start,
			Overlap: overlap,
		})

		if end == n {
			return segments
		}
		prevEnd = end
		start = end - s.overlap
	}
}

// breakPoint picks the chunk end in (start+overlap, limit]. The lower bound
// guarantees the next chunk starts after this one.
func (s *Splitter) breakPoint(runes []rune, start, limit int) int {
	floor := start + s.overlap + 1

	// Paragraph: end just after "\n\n"
	for p := limit; p >= floor && p >= 2; p-- {
		if runes[p-1] == '\n' && runes[p-2] == '\n' {
			return p
		}
	}
	// Line: end just after "\n"
	for p := limit; p >= floor && p >= 1; p-- {
		if runes[p-1] == '\n' {
			return p
		}
	}
	return limit
}

// Chunk splits an article's content into chunks carrying the article's
// metadata. Vectors are left empty.
func (s *Splitter) Chunk(article *core.Article) []*core.Chunk {
	segments := s.Segments(article.Content)
	chunks := make([]*core.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(article.Id, i, seg.Text),
			DocumentId: article.Id,
			Seq:        i,
			Text:       seg.Text,
			Overlap:    seg.Overlap,
			Title:      article.Title,
			Category:   article.Category,
			Tags:       append([]string(nil), article.Tags...),
		}
	}
	return chunks
}

// Reconstruct reverses Segments: the first segment followed by every later
// segment minus its overlap prefix.
func Reconstruct(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		text := seg.Text
		if i > 0 {
			text = skipRunes(text, seg.Overlap)
		}
		b.WriteString(text)
	}
	return b.String()
}

func skipRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}
