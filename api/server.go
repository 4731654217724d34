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

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
	"golang.org/x/time/rate"
)

// Searcher is the query side used by the handlers.
type Searcher interface {
	Search(ctx context.Context, req core.SearchRequest) (*core.SearchResponse, error)
	Suggest(ctx context.Context, partial string) ([]string, error)
}

// Store is the storage used by the article and feedback handlers.
type Store interface {
	storage.ArticleRepository
	storage.FeedbackRepository
}

// Server routes HTTP requests to the searcher and store.
type Server struct {
	searcher     Searcher
	store        Store
	indexEntries func() int
	metrics      http.Handler
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "api")
		return nil
	}
}

// WithRateLimit enables token-bucket limiting of perSecond requests with the
// given burst. A zero rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) error {
		if perSecond < 0 || burst < 0 {
			return ErrInvalidRateLimit
		}
		if perSecond == 0 {
			s.limiter = nil
			return nil
		}
		if burst == 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metrics = h
		return nil
	}
}

// WithIndexSize reports the vector index size on GET /health.
func WithIndexSize(fn func() int) Option {
	return func(s *Server) error {
		s.indexEntries = fn
		return nil
	}
}

// NewServer creates a server with rate limiting disabled.
func NewServer(searcher Searcher, store Store, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Server{
		searcher:     searcher,
		store:        store,
		indexEntries: func() int { return 0 },
		logger:       slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Router builds the route table with middleware applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, corsMiddleware, s.rateLimitMiddleware)

	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/suggest", s.handleSuggest).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/articles/{id:[0-9]+}", s.handleGetArticle).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/articles/{id:[0-9]+}/feedback", s.handleFeedback).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
