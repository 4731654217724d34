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
	"strings"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

const articleColumns = "id, title, slug, content, category, tags, published, created_at, updated_at"

// AddArticles adds one or more articles to storage.
func (s *Store) AddArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, article := range articles {
			if article.Slug == "" {
				article.Slug = core.Slugify(article.Title)
			}
			if taken, err := slugTaken(ctx, tx, article.Slug, 0); err != nil {
				return err
			} else if taken {
				return storage.ErrDuplicateKey
			}

			now := core.Now()
			article.CreatedAt = core.StoredTime(article.CreatedAt)
			if article.CreatedAt.IsZero() {
				article.CreatedAt = now
			}
			article.UpdatedAt = now

			tags, err := encodeTags(article.Tags)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO articles (title, slug, content, category, tags, published, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				article.Title, article.Slug, article.Content, article.Category, tags,
				article.Published, encodeTime(article.CreatedAt), encodeTime(article.UpdatedAt))
			if err != nil {
				return fmt.Errorf("inserting article: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			article.Id = core.ID(id)

			if err := writeTags(ctx, tx, article); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return articles, nil
}

// UpdateArticles updates existing articles.
func (s *Store) UpdateArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, article := range articles {
			old, err := scanArticle(tx.QueryRowContext(ctx,
				"SELECT "+articleColumns+" FROM articles WHERE id = ?", int64(article.Id)))
			if err != nil {
				return err
			}

			if article.Slug == "" {
				article.Slug = old.Slug
			}
			if taken, err := slugTaken(ctx, tx, article.Slug, article.Id); err != nil {
				return err
			} else if taken {
				return storage.ErrDuplicateKey
			}
			article.CreatedAt = core.StoredTime(article.CreatedAt)
			if article.CreatedAt.IsZero() {
				article.CreatedAt = old.CreatedAt
			}
			article.UpdatedAt = core.Now()

			tags, err := encodeTags(article.Tags)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE articles SET title = ?, slug = ?, content = ?, category = ?, tags = ?,
					published = ?, created_at = ?, updated_at = ?
				WHERE id = ?`,
				article.Title, article.Slug, article.Content, article.Category, tags,
				article.Published, encodeTime(article.CreatedAt), encodeTime(article.UpdatedAt),
				int64(article.Id))
			if err != nil {
				return fmt.Errorf("updating article: %w", err)
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = ?", int64(article.Id)); err != nil {
				return err
			}
			if err := writeTags(ctx, tx, article); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return articles, nil
}

// DeleteArticles removes articles by their IDs. Tag rows cascade.
func (s *Store) DeleteArticles(ctx context.Context, ids ...core.ID) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", int64(id))
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

// GetArticle retrieves a single article by ID.
func (s *Store) GetArticle(ctx context.Context, id core.ID) (*core.Article, error) {
	article, err := scanArticle(s.db.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE id = ?", int64(id)))
	return article, translateError(err)
}

// GetArticleBySlug retrieves a single article by slug.
func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (*core.Article, error) {
	article, err := scanArticle(s.db.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE slug = ?", slug))
	return article, translateError(err)
}

// ListArticles returns every article ordered by ID.
func (s *Store) ListArticles(ctx context.Context) ([]*core.Article, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+articleColumns+" FROM articles ORDER BY id")
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var results []*core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, article)
	}
	return results, rows.Err()
}

// GetArticleIDsByTag returns the IDs of articles carrying the tag.
func (s *Store) GetArticleIDsByTag(ctx context.Context, tag string) ([]core.ID, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT article_id FROM article_tags WHERE tag = ? ORDER BY article_id", strings.ToLower(tag))
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var ids []core.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.ID(id))
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var (
		article          core.Article
		id               int64
		tags             string
		created, updated int64
	)
	err := row.Scan(&id, &article.Title, &article.Slug, &article.Content, &article.Category,
		&tags, &article.Published, &created, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	article.Id = core.ID(id)
	article.CreatedAt = decodeTime(created)
	article.UpdatedAt = decodeTime(updated)
	if article.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	return &article, nil
}

// slugTaken reports whether an article other than self owns the slug.
func slugTaken(ctx context.Context, tx *sql.Tx, slug string, self core.ID) (bool, error) {
	var owner int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM articles WHERE slug = ?", slug).Scan(&owner)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return core.ID(owner) != self, nil
}

func writeTags(ctx context.Context, tx *sql.Tx, article *core.Article) error {
	for _, tag := range article.Tags {
		if tag == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO article_tags (article_id, tag) VALUES (?, ?)",
			int64(article.Id), strings.ToLower(tag))
		if err != nil {
			return fmt.Errorf("indexing tag: %w", err)
		}
	}
	return nil
}
