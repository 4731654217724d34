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

// Package index provides an in-memory brute-force vector index over chunk
// embeddings.
//
// Readers never block: every mutation (Build, ReplaceDocument,
// RemoveDocument) assembles a new immutable snapshot and publishes it with
// an atomic pointer swap, so a concurrent Query sees either the old or the
// new contents and never a mix. Writers are serialized by a mutex.
//
// Query returns at most k matches in decreasing score order. Equal scores
// keep insertion order.
package index
