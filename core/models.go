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

package core

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Articles, log entries and feedback get IDs from store sequences;
// chunks get content-derived IDs.
type ID uint64

// String renders the ID in base 10.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a base 10 ID.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Article is a knowledge-base document. It is owned by the store;
// chunks and vectors are derived from it.
type Article struct {
	Id        ID
	Title     string
	Slug      string
	Content   string // Raw markdown
	Category  string
	Tags      []string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTag reports whether the article carries the tag (case-insensitive).
func (a *Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Chunk is a bounded text segment derived from exactly one article.
// Title, Category and Tags are copied from the article for metadata filtering.
type Chunk struct {
	Id         ID
	DocumentId ID
	Seq        int    // Position within the article, starting at 0
	Text       string // Exact substring of the article content
	Overlap    int    // Runes shared with the previous chunk
	Title      string
	Category   string
	Tags       []string
	Vector     []float32 // Embedding vector (populated at index time)
}

// ChunkID computes the content-derived ID of a chunk.
func ChunkID(documentID ID, seq int, text string) ID {
	return IDFromContent(documentID.String() + ":" + strconv.Itoa(seq) + ":" + text)
}

// Feedback is a reader rating attached to an article.
type Feedback struct {
	Id        ID
	ArticleId ID
	Rating    int // 1-5
	Comment   string
	CreatedAt time.Time
}

// SearchLogEntry is an append-only audit record, one per executed search.
type SearchLogEntry struct {
	Id           ID
	Query        string
	ResultsCount int
	Timestamp    time.Time
}

// SearchHit is an ephemeral ranked result.
type SearchHit struct {
	DocumentId ID
	ChunkSeq   int
	Title      string
	Category   string
	Tags       []string
	Content    string
	Answer     string
	Score      float64
}

// SearchRequest is the input to a search.
// Page is 1-indexed; zero values select defaults.
type SearchRequest struct {
	Query    string
	Filters  map[string]string
	Page     int
	PageSize int
}

// SearchMode records which ranking path served a search.
type SearchMode string

const (
	// SearchModeVector means the query was ranked against the vector index.
	SearchModeVector SearchMode = "vector"
	// SearchModeLexical means the lexical scorer was used by configuration or
	// because the index was empty.
	SearchModeLexical SearchMode = "lexical"
	// SearchModeLexicalDegraded means the query embedding failed and the
	// lexical scorer was used instead.
	SearchModeLexicalDegraded SearchMode = "lexical-degraded"
)

// SearchResponse is a single page of search results.
//
// On the lexical paths Total is the exact number of matching documents. On
// the vector path it counts the distinct documents among the candidates
// retrieved for this page, so it is a lower bound that can grow on later
// pages. It is exact once the candidate window covers the whole index.
type SearchResponse struct {
	Results  []SearchHit
	Total    int // Distinct documents matched before pagination
	Page     int
	PageSize int
	Mode     SearchMode
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// Slugify converts a title into a URL-friendly slug.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
