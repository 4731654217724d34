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
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

// AddArticles adds one or more articles to storage.
func (s *Store) AddArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, article := range articles {
			if article.Slug == "" {
				article.Slug = core.Slugify(article.Title)
			}
			taken, err := s.slugOwner(tx, article.Slug)
			if err != nil {
				return err
			}
			if taken != 0 {
				return storage.ErrDuplicateKey
			}

			id, err := nextID(s.articleSeq)
			if err != nil {
				return err
			}
			article.Id = id

			now := core.Now()
			article.CreatedAt = core.StoredTime(article.CreatedAt)
			if article.CreatedAt.IsZero() {
				article.CreatedAt = now
			}
			article.UpdatedAt = now

			// Store primary record
			if err := tx.Set(makeArticleKey(article.Id), storage.MarshalArticle(article)); err != nil {
				return err
			}

			// Update slug index
			if err := tx.Set(makeSlugKey(article.Slug), storage.MarshalID(article.Id)); err != nil {
				return err
			}

			// Update tag index
			if err := s.updateTagIndex(tx, article); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return articles, nil
}

// UpdateArticles updates existing articles.
func (s *Store) UpdateArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, article := range articles {
			key := makeArticleKey(article.Id)

			// Read old article to detect index changes
			old, err := s.readArticle(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if article.Slug == "" {
				article.Slug = old.Slug
			}
			if article.Slug != old.Slug {
				owner, err := s.slugOwner(tx, article.Slug)
				if err != nil {
					return err
				}
				if owner != 0 && owner != article.Id {
					return storage.ErrDuplicateKey
				}
				if err := tx.Delete(makeSlugKey(old.Slug)); err != nil {
					return err
				}
				if err := tx.Set(makeSlugKey(article.Slug), storage.MarshalID(article.Id)); err != nil {
					return err
				}
			}

			article.CreatedAt = core.StoredTime(article.CreatedAt)
			if article.CreatedAt.IsZero() {
				article.CreatedAt = old.CreatedAt
			}
			article.UpdatedAt = core.Now()

			if err := tx.Set(key, storage.MarshalArticle(article)); err != nil {
				return err
			}

			if err := s.deleteTagIndex(tx, old); err != nil {
				return err
			}
			if err := s.updateTagIndex(tx, article); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return articles, nil
}

// DeleteArticles removes articles by their IDs.
// Chunks and feedback are left to their own repositories.
func (s *Store) DeleteArticles(ctx context.Context, ids ...core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeArticleKey(id)

			article, err := s.readArticle(tx, key)
			if err != nil {
				return err
			}
			if article == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeSlugKey(article.Slug)); err != nil {
				return err
			}
			if err := s.deleteTagIndex(tx, article); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetArticle retrieves a single article by ID.
func (s *Store) GetArticle(ctx context.Context, id core.ID) (*core.Article, error) {
	var result *core.Article
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = s.readArticle(tx, makeArticleKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetArticleBySlug retrieves a single article by slug.
func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (*core.Article, error) {
	var result *core.Article
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		id, err := s.slugOwner(tx, slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return storage.ErrNotFound
		}
		result, err = s.readArticle(tx, makeArticleKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListArticles returns every article ordered by ID.
func (s *Store) ListArticles(ctx context.Context) ([]*core.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.Article
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(articlePrefix), false, func(_, val []byte) (bool, error) {
			article, err := storage.UnmarshalArticle(val)
			if err != nil {
				return false, err
			}
			results = append(results, article)
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetArticleIDsByTag returns the IDs of articles carrying the tag.
func (s *Store) GetArticleIDsByTag(ctx context.Context, tag string) ([]core.ID, error) {
	var ids []core.ID
	prefix := makePartialTagKey(tag)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, prefix, false, func(key, _ []byte) (bool, error) {
			if len(key) != len(prefix)+8 {
				return true, nil
			}
			ids = append(ids, core.ID(binary.BigEndian.Uint64(key[len(prefix):])))
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// readArticle returns nil, nil when the key is absent.
func (s *Store) readArticle(tx *badger.Txn, key []byte) (*core.Article, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var article *core.Article
	err = item.Value(func(val []byte) error {
		var err error
		article, err = storage.UnmarshalArticle(val)
		return err
	})
	return article, err
}

// slugOwner returns the ID holding a slug, or 0 when the slug is free.
func (s *Store) slugOwner(tx *badger.Txn, slug string) (core.ID, error) {
	item, err := tx.Get(makeSlugKey(slug))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err
}

func (s *Store) updateTagIndex(tx *badger.Txn, article *core.Article) error {
	for _, tag := range article.Tags {
		if tag == "" {
			continue
		}
		if err := tx.Set(makeTagKey(tag, article.Id), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) deleteTagIndex(tx *badger.Txn, article *core.Article) error {
	for _, tag := range article.Tags {
		if tag == "" {
			continue
		}
		if err := tx.Delete(makeTagKey(tag, article.Id)); err != nil {
			return err
		}
	}
	return nil
}
