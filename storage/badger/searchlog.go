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

package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

// AppendSearchLog appends an entry to the search log.
// IDs come from a sequence so key order matches submission order.
func (s *Store) AppendSearchLog(ctx context.Context, entry *core.SearchLogEntry) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(s.logSeq)
		if err != nil {
			return err
		}
		entry.Id = id
		entry.Timestamp = core.StoredTime(entry.Timestamp)
		if entry.Timestamp.IsZero() {
			entry.Timestamp = core.Now()
		}
		if err := tx.Set(makeSearchLogKey(entry.Id), storage.MarshalSearchLogEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RecentSearchLogs returns up to limit entries, most recent first.
func (s *Store) RecentSearchLogs(ctx context.Context, limit int) ([]*core.SearchLogEntry, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	results := make([]*core.SearchLogEntry, 0, limit)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(searchLogPrefix), true, func(_, val []byte) (bool, error) {
			entry, err := storage.UnmarshalSearchLogEntry(val)
			if err != nil {
				return false, err
			}
			results = append(results, entry)
			return len(results) < limit, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}
