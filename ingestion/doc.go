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

// Package ingestion loads articles into the store and keeps the vector index
// in step with them.
//
// The Pipeline type manages the ingestion workflow for articles, including:
//   - Validating articles and storing or updating them by slug
//   - Splitting published articles into chunks and embedding them
//   - Replacing each article's stored chunks and index entries
//
// Chunking and embedding run concurrently on a worker pool. Ingest waits for
// every article before returning so a subsequent search sees the new content.
//
// ParseMarkdown and LoadDirectory turn markdown files into articles. Two
// metadata styles are understood: a YAML front matter block, or a leading
// "# Title" heading followed by "## Category:" and "## Tags:" lines.
package ingestion
