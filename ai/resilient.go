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

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/kbsearch/core"
)

// DegradedObserver is notified whenever a fallback value is substituted.
// component names the failing capability, e.g. "embedder".
type DegradedObserver func(component string, err error)

// ResilientEmbedder wraps an Embedder so that callers never see a failure:
// any error, timeout, or malformed response yields a zero vector of the
// configured dimension.
type ResilientEmbedder struct {
	inner       Embedder
	dim         int
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	observer    DegradedObserver
	logger      *slog.Logger
}

var _ Embedder = (*ResilientEmbedder)(nil)

// ResilientOption configures a ResilientEmbedder.
type ResilientOption func(*ResilientEmbedder) error

// WithTimeout bounds each EmbedText/EmbedTexts call, retries included.
// Zero disables the timeout.
func WithTimeout(d time.Duration) ResilientOption {
	return func(r *ResilientEmbedder) error {
		if d < 0 {
			return fmt.Errorf("%w: negative timeout", core.ErrInvalidInput)
		}
		r.timeout = d
		return nil
	}
}

// WithRetryPolicy sets the number of attempts and the base backoff delay.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) ResilientOption {
	return func(r *ResilientEmbedder) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		r.maxAttempts = maxAttempts
		r.baseDelay = baseDelay
		return nil
	}
}

// WithObserver registers a callback for degraded events.
func WithObserver(observer DegradedObserver) ResilientOption {
	return func(r *ResilientEmbedder) error {
		r.observer = observer
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResilientOption {
	return func(r *ResilientEmbedder) error {
		r.logger = logger.With("component", "embedder")
		return nil
	}
}

// NewResilientEmbedder wraps inner with normalization, timeout, retry and
// strict response validation.
func NewResilientEmbedder(inner Embedder, dim int, opts ...ResilientOption) (*ResilientEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}

	r := &ResilientEmbedder{
		inner:       inner,
		dim:         dim,
		maxAttempts: 1,
		logger:      slog.Default().With("component", "embedder"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewResilientEmbedderFromConfig applies the timeout and retry settings of cfg.
func NewResilientEmbedderFromConfig(inner Embedder, cfg *Config, opts ...ResilientOption) (*ResilientEmbedder, error) {
	base := []ResilientOption{
		WithTimeout(cfg.EmbedTimeout),
		WithRetryPolicy(cfg.MaxAttempts, cfg.RetryDelay),
	}
	return NewResilientEmbedder(inner, cfg.Dimension, append(base, opts...)...)
}

// Dimension returns the configured vector length.
func (r *ResilientEmbedder) Dimension() int {
	return r.dim
}

// EmbedText returns the embedding of text, or a zero vector on any failure.
// The returned error is always nil.
func (r *ResilientEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = NormalizeText(text)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := r.inner.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		if err := ValidateVector(v, r.dim); err != nil {
			return fmt.Errorf("%w: got %d values, want %d", err, len(v), r.dim)
		}
		vector = v
		return nil
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		r.degraded(err, "count", 1)
		return r.zero(), nil
	}
	return vector, nil
}

// EmbedTexts embeds a batch. A failed batch yields zero vectors for every
// text; an individually malformed vector is replaced by a zero vector.
func (r *ResilientEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	normalized := make([]string, len(texts))
	for i, text := range texts {
		normalized[i] = NormalizeText(text)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		vs, err := r.inner.EmbedTexts(ctx, normalized)
		if err != nil {
			return err
		}
		if len(vs) != len(normalized) {
			return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyResponse, len(vs), len(normalized))
		}
		vectors = vs
		return nil
	}, r.maxAttempts, r.baseDelay)

	results := make([][]float32, len(texts))
	if err != nil {
		r.degraded(err, "count", len(texts))
		for i := range results {
			results[i] = r.zero()
		}
		return results, nil
	}

	for i, v := range vectors {
		if verr := ValidateVector(v, r.dim); verr != nil {
			r.degraded(verr, "index", i, "got", len(v))
			results[i] = r.zero()
			continue
		}
		results[i] = v
	}
	return results, nil
}

func (r *ResilientEmbedder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

func (r *ResilientEmbedder) zero() []float32 {
	return make([]float32, r.dim)
}

func (r *ResilientEmbedder) degraded(err error, attrs ...any) {
	err = fmt.Errorf("%w: %w", core.ErrUpstreamDegraded, err)
	args := append([]any{"degraded", true, "err", err}, attrs...)
	r.logger.Warn("embedding failed, substituting zero vector", args...)
	if r.observer != nil {
		r.observer("embedder", err)
	}
}
