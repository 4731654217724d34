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

// AddFeedback stores a rating against an existing article.
func (s *Store) AddFeedback(ctx context.Context, feedback *core.Feedback) (*core.Feedback, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		article, err := s.readArticle(tx, makeArticleKey(feedback.ArticleId))
		if err != nil {
			return err
		}
		if article == nil {
			return storage.ErrNotFound
		}

		id, err := nextID(s.feedbackSeq)
		if err != nil {
			return err
		}
		feedback.Id = id
		feedback.CreatedAt = core.StoredTime(feedback.CreatedAt)
		if feedback.CreatedAt.IsZero() {
			feedback.CreatedAt = core.Now()
		}

		if err := tx.Set(makeFeedbackKey(feedback.ArticleId, feedback.Id), storage.MarshalFeedback(feedback)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

// ListFeedback returns all ratings for an article, oldest first.
func (s *Store) ListFeedback(ctx context.Context, articleID core.ID) ([]*core.Feedback, error) {
	var results []*core.Feedback
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, makePartialFeedbackKey(articleID), false, func(_, val []byte) (bool, error) {
			feedback, err := storage.UnmarshalFeedback(val)
			if err != nil {
				return false, err
			}
			results = append(results, feedback)
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}
