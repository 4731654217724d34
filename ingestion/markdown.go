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

package ingestion

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/kbsearch/core"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCategory is assigned to articles that declare no category.
	DefaultCategory = "Uncategorized"

	categoryPrefix = "## Category:"
	tagsPrefix     = "## Tags:"
	frontMatterSep = "---"
)

// frontMatter is the YAML metadata block at the top of a markdown file.
type frontMatter struct {
	Title     string   `yaml:"title"`
	Slug      string   `yaml:"slug"`
	Category  string   `yaml:"category"`
	Tags      []string `yaml:"tags"`
	Published *bool    `yaml:"published"`
}

// ParseMarkdown builds an article from a markdown document.
//
// A document starting with a "---" line carries YAML front matter with
// title, slug, category, tags and published keys. Otherwise the title is the
// first "# " heading and "## Category:" and "## Tags:" lines supply metadata;
// those lines are removed from the content. Without a title the file name is
// title-cased. Articles are published unless front matter says otherwise.
func ParseMarkdown(name string, data []byte) (*core.Article, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var meta frontMatter
	block, body, ok, err := splitFrontMatter(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if ok {
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return nil, fmt.Errorf("%s: front matter: %w", name, err)
		}
	}

	var content []string
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, categoryPrefix):
			if meta.Category == "" {
				meta.Category = strings.TrimSpace(strings.TrimPrefix(line, categoryPrefix))
			}
		case strings.HasPrefix(line, tagsPrefix):
			if len(meta.Tags) == 0 {
				meta.Tags = strings.Split(strings.TrimPrefix(line, tagsPrefix), ",")
			}
		default:
			if meta.Title == "" && strings.HasPrefix(line, "# ") {
				meta.Title = strings.TrimSpace(strings.TrimLeft(line, "# "))
			}
			content = append(content, line)
		}
	}

	if meta.Title == "" {
		meta.Title = titleFromFilename(name)
	}
	if meta.Category == "" {
		meta.Category = DefaultCategory
	}

	article := &core.Article{
		Title:     meta.Title,
		Slug:      meta.Slug,
		Content:   strings.TrimSpace(strings.Join(content, "\n")),
		Category:  meta.Category,
		Tags:      cleanTags(meta.Tags),
		Published: meta.Published == nil || *meta.Published,
	}
	if article.Slug == "" {
		article.Slug = core.Slugify(article.Title)
	}
	return article, nil
}

// LoadDirectory parses every .md file below dir.
func LoadDirectory(dir string) ([]*core.Article, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS parses every .md file in fsys in lexical path order.
func LoadFS(fsys fs.FS) ([]*core.Article, error) {
	var articles []*core.Article
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		article, err := ParseMarkdown(p, data)
		if err != nil {
			return err
		}
		articles = append(articles, article)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// splitFrontMatter separates a leading "---" delimited block from the body.
func splitFrontMatter(text string) (block, body string, ok bool, err error) {
	first, rest, _ := strings.Cut(text, "\n")
	if strings.TrimSpace(first) != frontMatterSep {
		return "", text, false, nil
	}

	var buf bytes.Buffer
	for rest != "" {
		line, after, found := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == frontMatterSep {
			return buf.String(), after, true, nil
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if !found {
			break
		}
		rest = after
	}
	return "", "", false, ErrNoFrontMatterEnd
}

// titleFromFilename turns "vpn-setup.md" into "Vpn Setup".
func titleFromFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	words := strings.Split(strings.ReplaceAll(base, "-", " "), " ")
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
