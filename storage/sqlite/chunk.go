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
	"database/sql"
	"fmt"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

const chunkColumns = "id, document_id, seq, text, overlap, title, category, tags, embedding"

// ReplaceChunks atomically replaces every chunk of an article.
func (s *Store) ReplaceChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", int64(documentID)); err != nil {
			return err
		}
		for _, chunk := range chunks {
			chunk.DocumentId = documentID
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(documentID, chunk.Seq, chunk.Text)
			}
			tags, err := encodeTags(chunk.Tags)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO chunks (document_id, seq, id, text, overlap, title, category, tags, embedding)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				int64(documentID), chunk.Seq, int64(chunk.Id), chunk.Text, chunk.Overlap,
				chunk.Title, chunk.Category, tags, float32SliceToBytes(chunk.Vector))
			if err != nil {
				return fmt.Errorf("inserting chunk: %w", err)
			}
		}
		return nil
	})
	return translateError(err)
}

// DeleteChunks removes every chunk of an article.
func (s *Store) DeleteChunks(ctx context.Context, documentID core.ID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", int64(documentID))
	return translateError(err)
}

// GetChunks returns an article's chunks ordered by Seq.
func (s *Store) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	return s.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY seq", int64(documentID))
}

// ListChunks returns all chunks ordered by (DocumentId, Seq).
func (s *Store) ListChunks(ctx context.Context) ([]*core.Chunk, error) {
	return s.queryChunks(ctx, "SELECT "+chunkColumns+" FROM chunks ORDER BY document_id, seq")
}

// UpdateChunkVectors overwrites the vectors of existing chunks.
func (s *Store) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range chunks {
			res, err := tx.ExecContext(ctx,
				"UPDATE chunks SET embedding = ? WHERE document_id = ? AND seq = ?",
				float32SliceToBytes(chunk.Vector), int64(chunk.DocumentId), chunk.Seq)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return storage.ErrNotFound
			}
		}
		return nil
	})
	return translateError(err)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]*core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var results []*core.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}

func scanChunk(rows *sql.Rows) (*core.Chunk, error) {
	var (
		chunk         core.Chunk
		id, docID     int64
		tags          string
		embeddingBlob []byte
	)
	err := rows.Scan(&id, &docID, &chunk.Seq, &chunk.Text, &chunk.Overlap,
		&chunk.Title, &chunk.Category, &tags, &embeddingBlob)
	if err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Id = core.ID(id)
	chunk.DocumentId = core.ID(docID)
	chunk.Vector = bytesToFloat32Slice(embeddingBlob)
	if chunk.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	return &chunk, nil
}
