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
	"strings"

	"github.com/poiesic/kbsearch/core"
)

// Recognised filter keys.
const (
	FilterCategory = "category"
	FilterTag      = "tag"
	FilterSlug     = "slug"
)

// Filter restricts results by article metadata.
// Empty fields match everything.
type Filter struct {
	Category string
	Tag      string
	Slug     string
}

// ParseFilter reads the recognised keys from a request filter map.
// Keys are matched case-insensitively and unknown keys are ignored.
func ParseFilter(filters map[string]string) Filter {
	var f Filter
	for key, value := range filters {
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case FilterCategory:
			f.Category = value
		case FilterTag:
			f.Tag = value
		case FilterSlug:
			f.Slug = value
		}
	}
	return f
}

// IsEmpty reports whether the filter matches every article.
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Tag == "" && f.Slug == ""
}

// Match reports whether the article satisfies every set field.
func (f Filter) Match(article *core.Article) bool {
	if article == nil {
		return false
	}
	if f.Category != "" && !strings.EqualFold(article.Category, f.Category) {
		return false
	}
	if f.Tag != "" && !article.HasTag(f.Tag) {
		return false
	}
	if f.Slug != "" && !strings.EqualFold(article.Slug, f.Slug) {
		return false
	}
	return true
}
