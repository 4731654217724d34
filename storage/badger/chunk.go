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
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

// ReplaceChunks atomically replaces every chunk of an article.
func (s *Store) ReplaceChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunkPrefix(tx, documentID); err != nil {
			return err
		}
		for _, chunk := range chunks {
			chunk.DocumentId = documentID
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(documentID, chunk.Seq, chunk.Text)
			}
			if err := tx.Set(makeChunkKey(documentID, chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteChunks removes every chunk of an article.
func (s *Store) DeleteChunks(ctx context.Context, documentID core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunkPrefix(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetChunks returns an article's chunks ordered by Seq.
func (s *Store) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	return s.scanChunks(ctx, makePartialChunkKey(documentID))
}

// ListChunks returns all chunks ordered by (DocumentId, Seq).
func (s *Store) ListChunks(ctx context.Context) ([]*core.Chunk, error) {
	return s.scanChunks(ctx, []byte(chunkPrefix))
}

// UpdateChunkVectors overwrites the vectors of existing chunks.
func (s *Store) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.DocumentId, chunk.Seq)
			item, err := tx.Get(key)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}

			var stored *core.Chunk
			err = item.Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			stored.Vector = chunk.Vector
			if err := tx.Set(key, storage.MarshalChunk(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (s *Store) scanChunks(ctx context.Context, prefix []byte) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, prefix, false, func(_, val []byte) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return false, err
			}
			results = append(results, chunk)
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// deleteChunkPrefix removes all chunk keys of one article inside tx.
func deleteChunkPrefix(tx *badger.Txn, documentID core.ID) error {
	prefix := makePartialChunkKey(documentID)
	var keys [][]byte
	err := iteratePrefix(tx, prefix, false, func(key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return true, nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
