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

// Package kbsearch wires storage, embeddings, the vector index and metrics
// into a ready-to-use knowledge base search service.
package kbsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/mock"
	"github.com/poiesic/kbsearch/ai/openai"
	"github.com/poiesic/kbsearch/chunker"
	"github.com/poiesic/kbsearch/config"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/ingestion"
	"github.com/poiesic/kbsearch/metrics"
	"github.com/poiesic/kbsearch/reembed"
	"github.com/poiesic/kbsearch/search"
	"github.com/poiesic/kbsearch/storage"
	"github.com/poiesic/kbsearch/storage/badger"
	"github.com/poiesic/kbsearch/storage/sqlite"
)

// Service owns the store, the AI provider, the in-memory vector index and
// the metrics registry shared by pipelines and searchers.
type Service struct {
	config   *config.AppConfig
	store    storage.Store
	provider ai.AIProvider
	embedder ai.Embedder
	index    *index.Index
	metrics  *metrics.Metrics
	base     *slog.Logger
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	store    storage.Store
	logger   *slog.Logger
}

// WithProvider replaces the provider selected by the configuration.
// The service closes it on Close.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithStore replaces the store selected by the configuration.
// The service closes it on Close.
func WithStore(store storage.Store) ServiceOption {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Open builds a service from cfg and loads the vector index from the stored
// chunks. A nil cfg uses config.Default.
func Open(ctx context.Context, cfg *config.AppConfig, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store := options.store
	if store == nil {
		var err error
		store, err = openStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openProvider(cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	svc := &Service{
		config:   cfg,
		store:    store,
		provider: provider,
		metrics:  metrics.New(),
		base:     options.logger,
		logger:   options.logger.With("component", "service"),
	}

	embedder, err := ai.NewResilientEmbedderFromConfig(provider.Embedder(), cfg.AIConfig(),
		ai.WithObserver(svc.metrics.ObserveDegraded),
		ai.WithLogger(options.logger),
	)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.embedder = embedder

	idx, err := index.New(embedder.Dimension(), append(cfg.IndexOptions(), index.WithLogger(options.logger))...)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.index = idx
	svc.metrics.TrackIndex(idx)

	count, err := svc.LoadIndex(ctx)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.logger.Info("service ready",
		"backend", cfg.Storage.Backend,
		"provider", cfg.AI.Provider,
		"dimension", idx.Dimension(),
		"indexed", count)

	return svc, nil
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		if cfg.Path == "" {
			return badger.NewMemoryStore()
		}
		return badger.NewStore(cfg.Path)
	case config.BackendSQLite:
		return sqlite.NewStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

func openProvider(cfg *config.AppConfig) (ai.AIProvider, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return openai.NewProvider(cfg.AIConfig())
	case config.ProviderMock:
		return mock.NewMockProviderWithServices(
			mock.NewMockEmbedderWithDimension(cfg.AI.Dimension),
			mock.NewMockAnswerer(),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown ai provider %q", config.ErrInvalidConfig, cfg.AI.Provider)
	}
}

// Close closes the provider and then the store.
func (s *Service) Close() error {
	var errs []error
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the configuration the service was opened with.
func (s *Service) Config() *config.AppConfig {
	return s.config
}

// Store returns the underlying store.
func (s *Service) Store() storage.Store {
	return s.store
}

// Index returns the shared vector index.
func (s *Service) Index() *index.Index {
	return s.index
}

// Metrics returns the service metrics.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Embedder returns the resilient embedder used for ingestion and queries.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}

// NewPipeline creates an ingestion pipeline over the service store and index.
// The configured splitter is applied before opts.
func (s *Service) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	splitter, err := chunker.NewSplitter(s.config.ChunkerOptions()...)
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithSplitter(splitter),
		ingestion.WithLogger(s.base),
	}
	return ingestion.NewPipeline(s.store, s.store, s.index, s.embedder, append(base, opts...)...)
}

// NewSearcher creates a searcher reporting to the service metrics. The
// provider's answerer is attached when answers are enabled. Configured
// options are applied before opts.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := append(s.config.SearchOptions(),
		search.WithMonitor(s.metrics),
		search.WithLogger(s.base),
	)
	if s.config.AI.Answers {
		base = append(base, search.WithAnswerer(s.provider.Answerer()))
	}
	return search.NewSearcher(s.store, s.store, s.index, s.embedder, append(base, opts...)...)
}

// NewReembedder creates a reembedder over the raw provider embedder, so that
// provider failures abort the run instead of storing zero vectors.
func (s *Service) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.store, s.provider.Embedder(), cfg, progress)
}

// LoadIndex rebuilds the in-memory index from stored chunk vectors.
func (s *Service) LoadIndex(ctx context.Context) (int, error) {
	pipeline, err := ingestion.NewPipeline(s.store, s.store, s.index, s.embedder, ingestion.WithPoolSize(1), ingestion.WithLogger(s.base))
	if err != nil {
		return 0, err
	}
	defer pipeline.Release()
	return pipeline.LoadIndex(ctx)
}
