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

// Package config loads kbsearch settings from YAML or TOML files, .env files
// and KBSEARCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/chunker"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/search"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

var (
	// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr                string  `yaml:"addr" toml:"addr"`
	RateLimit           float64 `yaml:"rate_limit" toml:"rate_limit"` // Requests per second; 0 disables limiting
	RateBurst           int     `yaml:"rate_burst" toml:"rate_burst"`
	ShutdownTimeoutSecs int     `yaml:"shutdown_timeout_secs" toml:"shutdown_timeout_secs"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
}

// AIConfig configures the embedding and answer services.
type AIConfig struct {
	Provider          string `yaml:"provider" toml:"provider"`
	EmbeddingHost     string `yaml:"embedding_host" toml:"embedding_host"`
	AnswerHost        string `yaml:"answer_host" toml:"answer_host"`
	EmbeddingModel    string `yaml:"embedding_model" toml:"embedding_model"`
	AnswerModel       string `yaml:"answer_model" toml:"answer_model"`
	Token             string `yaml:"token" toml:"token"`
	Dimension         int    `yaml:"dimension" toml:"dimension"`
	EmbedTimeoutSecs  int    `yaml:"embed_timeout_secs" toml:"embed_timeout_secs"`
	AnswerTimeoutSecs int    `yaml:"answer_timeout_secs" toml:"answer_timeout_secs"`
	MaxAttempts       int    `yaml:"max_attempts" toml:"max_attempts"`
	RetryDelayMillis  int    `yaml:"retry_delay_millis" toml:"retry_delay_millis"`
	Answers           bool   `yaml:"answers" toml:"answers"`
}

// ChunkerConfig configures article splitting.
type ChunkerConfig struct {
	Size    int `yaml:"size" toml:"size"`
	Overlap int `yaml:"overlap" toml:"overlap"`
}

// SearchConfig configures ranking and pagination.
type SearchConfig struct {
	Strategy            string `yaml:"strategy" toml:"strategy"`
	Metric              string `yaml:"metric" toml:"metric"`
	PageSize            int    `yaml:"page_size" toml:"page_size"`
	MaxPageSize         int    `yaml:"max_page_size" toml:"max_page_size"`
	CandidateMultiplier int    `yaml:"candidate_multiplier" toml:"candidate_multiplier"`
	AnswerWorkers       int    `yaml:"answer_workers" toml:"answer_workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	AI      AIConfig      `yaml:"ai" toml:"ai"`
	Chunker ChunkerConfig `yaml:"chunker" toml:"chunker"`
	Search  SearchConfig  `yaml:"search" toml:"search"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	aiDefaults := ai.DefaultConfig()
	return &AppConfig{
		Server: ServerConfig{
			Addr:                ":8080",
			RateLimit:           20,
			RateBurst:           40,
			ShutdownTimeoutSecs: 10,
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    "kbsearch-data",
		},
		AI: AIConfig{
			Provider:          ProviderOpenAI,
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			AnswerHost:        aiDefaults.AnswerHost,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			AnswerModel:       aiDefaults.AnswerModel,
			Token:             aiDefaults.Token,
			Dimension:         aiDefaults.Dimension,
			EmbedTimeoutSecs:  int(aiDefaults.EmbedTimeout / time.Second),
			AnswerTimeoutSecs: int(aiDefaults.AnswerTimeout / time.Second),
			MaxAttempts:       aiDefaults.MaxAttempts,
			RetryDelayMillis:  int(aiDefaults.RetryDelay / time.Millisecond),
			Answers:           true,
		},
		Chunker: ChunkerConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultChunkOverlap,
		},
		Search: SearchConfig{
			Strategy:            string(search.StrategyVector),
			Metric:              index.MetricCosine.String(),
			PageSize:            search.DefaultPageSize,
			MaxPageSize:         search.DefaultMaxPageSize,
			CandidateMultiplier: search.DefaultCandidateMultiplier,
			AnswerWorkers:       search.DefaultAnswerWorkers,
		},
	}
}

// Load reads a config file over the defaults. The format follows the file
// extension: .yaml and .yml are YAML, .toml is TOML. An empty path returns
// the defaults. Keys missing from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension,
// creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		data, err = toml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are named, without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q", BackendBadger, BackendSQLite, c.Storage.Backend))
	}
	switch c.AI.Provider {
	case ProviderOpenAI:
		if err := c.AIConfig().Validate(); err != nil {
			errs = append(errs, err)
		}
	case ProviderMock:
		if c.AI.Dimension <= 0 {
			errs = append(errs, errors.New("ai.dimension must be greater than 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be %q or %q, got %q", ProviderOpenAI, ProviderMock, c.AI.Provider))
	}
	if _, err := chunker.NewSplitter(c.ChunkerOptions()...); err != nil {
		errs = append(errs, err)
	}
	if _, err := search.ParseStrategy(c.Search.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := index.ParseMetric(c.Search.Metric); err != nil {
		errs = append(errs, err)
	}
	if c.Search.PageSize < 1 || c.Search.MaxPageSize < c.Search.PageSize {
		errs = append(errs, fmt.Errorf("%w: page_size %d, max_page_size %d", search.ErrInvalidPageSize, c.Search.PageSize, c.Search.MaxPageSize))
	}
	if c.Search.CandidateMultiplier < 1 {
		errs = append(errs, search.ErrInvalidCandidateMultiplier)
	}
	if c.Search.AnswerWorkers < 1 {
		errs = append(errs, search.ErrInvalidAnswerWorkers)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the AI section to an ai.Config.
func (c *AppConfig) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithAnswerHost(c.AI.AnswerHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithAnswerModel(c.AI.AnswerModel),
		ai.WithToken(c.AI.Token),
		ai.WithDimension(c.AI.Dimension),
		ai.WithEmbedTimeout(time.Duration(c.AI.EmbedTimeoutSecs)*time.Second),
		ai.WithAnswerTimeout(time.Duration(c.AI.AnswerTimeoutSecs)*time.Second),
		ai.WithRetry(c.AI.MaxAttempts, time.Duration(c.AI.RetryDelayMillis)*time.Millisecond),
	)
}

// ChunkerOptions converts the chunker section to splitter options.
func (c *AppConfig) ChunkerOptions() []chunker.Option {
	return []chunker.Option{
		chunker.WithChunkSize(c.Chunker.Size),
		chunker.WithChunkOverlap(c.Chunker.Overlap),
	}
}

// IndexOptions converts the search metric to index options.
// The metric must already be valid.
func (c *AppConfig) IndexOptions() []index.Option {
	metric, err := index.ParseMetric(c.Search.Metric)
	if err != nil {
		return nil
	}
	return []index.Option{index.WithMetric(metric)}
}

// SearchOptions converts the search section to searcher options.
// The answerer is not included; callers add search.WithAnswerer when
// AI.Answers is set.
func (c *AppConfig) SearchOptions() []search.Option {
	strategy, err := search.ParseStrategy(c.Search.Strategy)
	if err != nil {
		strategy = search.StrategyVector
	}
	return []search.Option{
		search.WithStrategy(strategy),
		search.WithPageSize(c.Search.PageSize, c.Search.MaxPageSize),
		search.WithCandidateMultiplier(c.Search.CandidateMultiplier),
		search.WithAnswerWorkers(c.Search.AnswerWorkers),
		search.WithAnswerTimeout(time.Duration(c.AI.AnswerTimeoutSecs) * time.Second),
	}
}

// ShutdownTimeout returns the graceful shutdown window.
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSecs) * time.Second
}
