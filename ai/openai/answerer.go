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
	"context"
	"log/slog"

	"github.com/poiesic/kbsearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Answerer implements ai.Answerer using an OpenAI-compatible chat API.
type Answerer struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.Answerer = (*Answerer)(nil)

func newAnswerer(config *ai.Config) (*Answerer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.AnswerHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.AnswerModel),
	)
	if err != nil {
		return nil, err
	}

	return newAnswererWithModel(client), nil
}

func newAnswererWithModel(client llms.Model) *Answerer {
	return &Answerer{
		client: client,
		logger: slog.Default().With("component", "openai-answerer"),
	}
}

// NewAnswerer creates a new answerer using the provided configuration.
//
// Returns ai.Answerer interface to enforce abstraction.
func NewAnswerer(config *ai.Config) (ai.Answerer, error) {
	return newAnswerer(config)
}

// Answer asks the model to answer question using only contextText.
func (a *Answerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, answerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildAnswerPrompt(question, contextText)),
	}

	resp, err := a.client.GenerateContent(ctx, messages,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(answerMaxTokens),
	)
	if err != nil {
		a.logger.Debug("answer generation failed", "err", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	answer := cleanAnswer(resp.Choices[0].Content)
	if answer == "" {
		return "", ai.ErrEmptyResponse
	}
	return answer, nil
}
