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

package openai

import (
	"log/slog"

	"github.com/poiesic/kbsearch/ai"
)

// Provider implements ai.AIProvider on OpenAI-compatible endpoints such as
// Ollama, vLLM or the OpenAI API itself. Embeddings and answers may live on
// different hosts.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	answerer *Answerer
	logger   *slog.Logger
}

// NewProvider validates config and builds the embedder and answerer clients.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	answerer, err := newAnswerer(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		answerer: answerer,
		logger:   slog.Default().With("component", "openai-provider"),
	}
	p.logger.Debug("provider configured",
		"embedding_host", config.EmbeddingHost,
		"embedding_model", config.EmbeddingModel,
		"answer_host", config.AnswerHost,
		"answer_model", config.AnswerModel,
		"dimension", config.Dimension)
	return p, nil
}

// Embedder returns the raw text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Answerer returns the answer generation service.
func (p *Provider) Answerer() ai.Answerer {
	return p.answerer
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider", "embedding_model", p.config.EmbeddingModel)
	return nil
}
