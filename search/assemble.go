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

package search

import (
	"sort"

	"github.com/poiesic/kbsearch/core"
)

// Assemble dedupes candidates by document, orders them and cuts the requested page.
//
// Each document keeps its highest-scoring candidate; the first one wins among
// equal scores. Results are sorted by descending score with ties kept in
// candidate order. page is 1-indexed and a page past the end is empty.
// The second return value is the number of distinct documents.
func Assemble(candidates []core.SearchHit, page, pageSize int) ([]core.SearchHit, int) {
	type ranked struct {
		hit   core.SearchHit
		order int
	}

	byDoc := make(map[core.ID]int, len(candidates))
	deduped := make([]ranked, 0, len(candidates))
	for i, hit := range candidates {
		pos, seen := byDoc[hit.DocumentId]
		if !seen {
			byDoc[hit.DocumentId] = len(deduped)
			deduped = append(deduped, ranked{hit: hit, order: i})
			continue
		}
		if hit.Score > deduped[pos].hit.Score {
			deduped[pos] = ranked{hit: hit, order: i}
		}
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].hit.Score != deduped[j].hit.Score {
			return deduped[i].hit.Score > deduped[j].hit.Score
		}
		return deduped[i].order < deduped[j].order
	})

	total := len(deduped)
	if page < 1 || pageSize < 1 {
		return []core.SearchHit{}, total
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []core.SearchHit{}, total
	}
	end := min(start+pageSize, total)

	results := make([]core.SearchHit, 0, end-start)
	for _, r := range deduped[start:end] {
		results = append(results, r.hit)
	}
	return results, total
}
