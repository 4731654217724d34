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

// Package api exposes the knowledge base over HTTP.
//
// Routes:
//
//	POST /search                   ranked, paginated search
//	GET  /suggest?q=               title word completions
//	GET  /articles/{id}            a published article
//	POST /articles/{id}/feedback   store a 1-5 rating
//	GET  /health                   document and index counts
//	GET  /metrics                  Prometheus exposition
//
// Every response carries an X-Request-ID header. Requests beyond the
// configured rate receive 429.
package api
