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

package index

import (
	"container/heap"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/poiesic/kbsearch/core"
)

// Entry is one indexed chunk vector.
type Entry struct {
	ChunkID    core.ID
	DocumentID core.ID
	Seq        int
	Text       string
	Vector     []float32
}

// Match is a query result.
type Match struct {
	ChunkID    core.ID
	DocumentID core.ID
	Seq        int
	Text       string
	Score      float64
}

// EntryFromChunk builds an index entry from a stored chunk.
func EntryFromChunk(chunk *core.Chunk) Entry {
	return Entry{
		ChunkID:    chunk.Id,
		DocumentID: chunk.DocumentId,
		Seq:        chunk.Seq,
		Text:       chunk.Text,
		Vector:     chunk.Vector,
	}
}

// snapshot is immutable once published.
type snapshot struct {
	entries []Entry
	norms   []float64
}

// Index is a copy-on-write vector index safe for concurrent use.
type Index struct {
	dim    int
	metric Metric
	mu     sync.Mutex // serializes writers
	snap   atomic.Pointer[snapshot]
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index) error

// WithMetric sets the similarity metric.
func WithMetric(metric Metric) Option {
	return func(idx *Index) error {
		if metric != MetricCosine && metric != MetricDot {
			return fmt.Errorf("%w: %d", ErrUnknownMetric, int(metric))
		}
		idx.metric = metric
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		idx.logger = logger.With("component", "index")
		return nil
	}
}

// New creates an empty index for vectors of length dim.
func New(dim int, opts ...Option) (*Index, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	idx := &Index{
		dim:    dim,
		metric: MetricCosine,
		logger: slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.snap.Store(&snapshot{})
	return idx, nil
}

// Dimension returns the vector length accepted by the index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Metric returns the similarity metric.
func (idx *Index) Metric() Metric {
	return idx.metric
}

// Len returns the number of entries in the current snapshot.
func (idx *Index) Len() int {
	return len(idx.snap.Load().entries)
}

// Build replaces the whole index. On error the previous snapshot stays live.
func (idx *Index) Build(entries []Entry) error {
	next, err := idx.newSnapshot(entries, len(entries))
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.snap.Store(next)
	idx.mu.Unlock()

	idx.logger.Debug("index built", "entries", len(next.entries))
	return nil
}

// ReplaceDocument swaps every entry of documentID for entries. New entries
// are placed after all existing entries.
func (idx *Index) ReplaceDocument(documentID core.ID, entries []Entry) error {
	for i := range entries {
		if entries[i].DocumentID != documentID {
			return fmt.Errorf("%w: entry %d belongs to document %s, not %s",
				core.ErrInvalidInput, i, entries[i].DocumentID, documentID)
		}
	}
	added, err := idx.newSnapshot(entries, len(entries))
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := &snapshot{
		entries: make([]Entry, 0, len(cur.entries)+len(added.entries)),
		norms:   make([]float64, 0, len(cur.entries)+len(added.entries)),
	}
	for i, e := range cur.entries {
		if e.DocumentID == documentID {
			continue
		}
		next.entries = append(next.entries, e)
		next.norms = append(next.norms, cur.norms[i])
	}
	next.entries = append(next.entries, added.entries...)
	next.norms = append(next.norms, added.norms...)
	idx.snap.Store(next)
	return nil
}

// RemoveDocument drops every entry of documentID.
func (idx *Index) RemoveDocument(documentID core.ID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := &snapshot{}
	for i, e := range cur.entries {
		if e.DocumentID == documentID {
			continue
		}
		next.entries = append(next.entries, e)
		next.norms = append(next.norms, cur.norms[i])
	}
	idx.snap.Store(next)
}

// Query returns at most k entries most similar to vector, best first.
// An empty index or k <= 0 yields an empty result.
func (idx *Index) Query(vector []float32, k int) ([]Match, error) {
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", core.ErrInvalidInput, len(vector), idx.dim)
	}

	snap := idx.snap.Load()
	if k <= 0 || len(snap.entries) == 0 {
		return []Match{}, nil
	}

	qNorm := norm(vector)
	h := &matchHeap{}
	for i, e := range snap.entries {
		c := candidate{pos: i, score: idx.metric.score(vector, qNorm, e.Vector, snap.norms[i])}
		if h.Len() < k {
			heap.Push(h, c)
		} else if c.better((*h)[0]) {
			(*h)[0] = c
			heap.Fix(h, 0)
		}
	}

	candidates := []candidate(*h)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].better(candidates[j])
	})

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		e := snap.entries[c.pos]
		matches[i] = Match{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Seq:        e.Seq,
			Text:       e.Text,
			Score:      c.score,
		}
	}
	return matches, nil
}

// newSnapshot validates and copies entries.
func (idx *Index) newSnapshot(entries []Entry, capacity int) (*snapshot, error) {
	s := &snapshot{
		entries: make([]Entry, 0, capacity),
		norms:   make([]float64, 0, capacity),
	}
	for i, e := range entries {
		if len(e.Vector) != idx.dim {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, index dimension %d",
				core.ErrInvalidInput, i, len(e.Vector), idx.dim)
		}
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries = append(s.entries, e)
		s.norms = append(s.norms, norm(e.Vector))
	}
	return s, nil
}

type candidate struct {
	pos   int
	score float64
}

// better orders by higher score, then earlier insertion.
func (c candidate) better(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	return c.pos < o.pos
}

// matchHeap is a min-heap whose root is the worst retained candidate.
type matchHeap []candidate

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return h[j].better(h[i]) }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
