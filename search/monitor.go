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

package search

import (
	"time"

	"github.com/poiesic/kbsearch/core"
)

// SearchMonitor observes the stages of a search.
// Implementations must be safe for concurrent use when shared between requests.
type SearchMonitor interface {
	Start(query string)
	PathChosen(mode core.SearchMode)
	AfterFiltering(count int)
	AnswerFallback(err error)
	SearchLogFailed(err error)
	Finish(resp *core.SearchResponse, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) PathChosen(_ core.SearchMode)                   {}
func (n *noopMonitor) AfterFiltering(_ int)                           {}
func (n *noopMonitor) AnswerFallback(_ error)                         {}
func (n *noopMonitor) SearchLogFailed(_ error)                        {}
func (n *noopMonitor) Finish(_ *core.SearchResponse, _ time.Duration) {}
