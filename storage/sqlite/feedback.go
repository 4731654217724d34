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

	"github.com/poiesic/kbsearch/core"
)

// AddFeedback stores a rating against an existing article.
func (s *Store) AddFeedback(ctx context.Context, feedback *core.Feedback) (*core.Feedback, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM articles WHERE id = ?", int64(feedback.ArticleId)).Scan(&exists)
		if err != nil {
			return err
		}

		feedback.CreatedAt = core.StoredTime(feedback.CreatedAt)
		if feedback.CreatedAt.IsZero() {
			feedback.CreatedAt = core.Now()
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO feedback (article_id, rating, comment, created_at) VALUES (?, ?, ?, ?)",
			int64(feedback.ArticleId), feedback.Rating, feedback.Comment, encodeTime(feedback.CreatedAt))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		feedback.Id = core.ID(id)
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return feedback, nil
}

// ListFeedback returns all ratings for an article, oldest first.
func (s *Store) ListFeedback(ctx context.Context, articleID core.ID) ([]*core.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, article_id, rating, comment, created_at FROM feedback WHERE article_id = ? ORDER BY id",
		int64(articleID))
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var results []*core.Feedback
	for rows.Next() {
		var (
			fb               core.Feedback
			id, art, created int64
		)
		if err := rows.Scan(&id, &art, &fb.Rating, &fb.Comment, &created); err != nil {
			return nil, err
		}
		fb.Id = core.ID(id)
		fb.ArticleId = core.ID(art)
		fb.CreatedAt = decodeTime(created)
		results = append(results, &fb)
	}
	return results, rows.Err()
}
