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

// Package storage provides the storage abstraction layer for kbsearch.
//
// This package defines repository interfaces that decouple the document store
// from retrieval logic. Two backends implement them:
//
//   - storage/badger: embedded BadgerDB store with MUS-encoded records
//   - storage/sqlite: pure-Go SQLite store with embedded migrations
//
// # Repositories
//
//   - ArticleRepository: articles, slug lookup and the tag association
//   - ChunkRepository: derived chunks and their embedding vectors
//   - SearchLogRepository: append-only search audit log
//   - FeedbackRepository: reader ratings
//   - Store: all of the above behind one backend
//
// Retrieval code treats the store as a read-mostly collaborator: it lists and
// reads articles and appends search log entries. Chunks are cached artifacts
// regenerated wholesale by the ingestion pipeline.
//
// # Usage
//
//	store, err := badger.NewStore("/var/lib/kbsearch")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
