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
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbsearch/storage"
)

// Store implements storage.Store on top of a Backend.
// Article, search log and feedback IDs come from BadgerDB sequences.
type Store struct {
	backend     *Backend
	ownsBackend bool
	articleSeq  *badger.Sequence
	logSeq      *badger.Sequence
	feedbackSeq *badger.Sequence
	logger      *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// NewStore opens (or creates) a BadgerDB store in the given directory.
//
// Returns storage.Store interface to keep callers backend-agnostic.
func NewStore(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	store, err := newStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	store.ownsBackend = true
	return store, nil
}

// NewStoreWithBackend creates a store over an already opened backend.
// The caller remains responsible for closing the backend.
func NewStoreWithBackend(backend *Backend) (*Store, error) {
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	articleSeq, err := backend.GetSequence(articleIDSeq)
	if err != nil {
		return nil, err
	}
	logSeq, err := backend.GetSequence(searchLogIDSeq)
	if err != nil {
		articleSeq.Release()
		return nil, err
	}
	feedbackSeq, err := backend.GetSequence(feedbackIDSeq)
	if err != nil {
		logSeq.Release()
		articleSeq.Release()
		return nil, err
	}

	return &Store{
		backend:     backend,
		articleSeq:  articleSeq,
		logSeq:      logSeq,
		feedbackSeq: feedbackSeq,
		logger:      slog.Default().With("component", "badger-store"),
	}, nil
}

// Close releases the ID sequences and, when the store opened its own
// backend, closes the database.
func (s *Store) Close() error {
	errs := []error{
		s.feedbackSeq.Release(),
		s.logSeq.Release(),
		s.articleSeq.Release(),
	}
	if s.ownsBackend {
		errs = append(errs, s.backend.Close())
	}
	return errors.Join(errs...)
}
