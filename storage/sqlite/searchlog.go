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

package sqlite

import (
	"context"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

// AppendSearchLog appends an entry to the search log.
func (s *Store) AppendSearchLog(ctx context.Context, entry *core.SearchLogEntry) error {
	entry.Timestamp = core.StoredTime(entry.Timestamp)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = core.Now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO search_logs (query, results_count, timestamp) VALUES (?, ?, ?)",
		entry.Query, entry.ResultsCount, encodeTime(entry.Timestamp))
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.Id = core.ID(id)
	return nil
}

// RecentSearchLogs returns up to limit entries, most recent first.
func (s *Store) RecentSearchLogs(ctx context.Context, limit int) ([]*core.SearchLogEntry, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, query, results_count, timestamp FROM search_logs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	results := make([]*core.SearchLogEntry, 0, limit)
	for rows.Next() {
		var (
			entry  core.SearchLogEntry
			id, ts int64
		)
		if err := rows.Scan(&id, &entry.Query, &entry.ResultsCount, &ts); err != nil {
			return nil, err
		}
		entry.Id = core.ID(id)
		entry.Timestamp = decodeTime(ts)
		results = append(results, &entry)
	}
	return results, rows.Err()
}
