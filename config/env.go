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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KBSEARCH_"

// envBinding maps one environment variable onto a config field.
type envBinding struct {
	name string
	set  func(c *AppConfig, value string) error
}

func stringVar(name string, field func(c *AppConfig) *string) envBinding {
	return envBinding{name: name, set: func(c *AppConfig, value string) error {
		*field(c) = value
		return nil
	}}
}

func intVar(name string, field func(c *AppConfig) *int) envBinding {
	return envBinding{name: name, set: func(c *AppConfig, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}}
}

func floatVar(name string, field func(c *AppConfig) *float64) envBinding {
	return envBinding{name: name, set: func(c *AppConfig, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}}
}

func boolVar(name string, field func(c *AppConfig) *bool) envBinding {
	return envBinding{name: name, set: func(c *AppConfig, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}}
}

var envBindings = []envBinding{
	stringVar("SERVER_ADDR", func(c *AppConfig) *string { return &c.Server.Addr }),
	floatVar("SERVER_RATE_LIMIT", func(c *AppConfig) *float64 { return &c.Server.RateLimit }),
	intVar("SERVER_RATE_BURST", func(c *AppConfig) *int { return &c.Server.RateBurst }),
	intVar("SERVER_SHUTDOWN_TIMEOUT_SECS", func(c *AppConfig) *int { return &c.Server.ShutdownTimeoutSecs }),
	stringVar("STORAGE_BACKEND", func(c *AppConfig) *string { return &c.Storage.Backend }),
	stringVar("STORAGE_PATH", func(c *AppConfig) *string { return &c.Storage.Path }),
	stringVar("AI_PROVIDER", func(c *AppConfig) *string { return &c.AI.Provider }),
	stringVar("AI_EMBEDDING_HOST", func(c *AppConfig) *string { return &c.AI.EmbeddingHost }),
	stringVar("AI_ANSWER_HOST", func(c *AppConfig) *string { return &c.AI.AnswerHost }),
	stringVar("AI_EMBEDDING_MODEL", func(c *AppConfig) *string { return &c.AI.EmbeddingModel }),
	stringVar("AI_ANSWER_MODEL", func(c *AppConfig) *string { return &c.AI.AnswerModel }),
	stringVar("AI_TOKEN", func(c *AppConfig) *string { return &c.AI.Token }),
	intVar("AI_DIMENSION", func(c *AppConfig) *int { return &c.AI.Dimension }),
	intVar("AI_EMBED_TIMEOUT_SECS", func(c *AppConfig) *int { return &c.AI.EmbedTimeoutSecs }),
	intVar("AI_ANSWER_TIMEOUT_SECS", func(c *AppConfig) *int { return &c.AI.AnswerTimeoutSecs }),
	intVar("AI_MAX_ATTEMPTS", func(c *AppConfig) *int { return &c.AI.MaxAttempts }),
	intVar("AI_RETRY_DELAY_MILLIS", func(c *AppConfig) *int { return &c.AI.RetryDelayMillis }),
	boolVar("AI_ANSWERS", func(c *AppConfig) *bool { return &c.AI.Answers }),
	intVar("CHUNKER_SIZE", func(c *AppConfig) *int { return &c.Chunker.Size }),
	intVar("CHUNKER_OVERLAP", func(c *AppConfig) *int { return &c.Chunker.Overlap }),
	stringVar("SEARCH_STRATEGY", func(c *AppConfig) *string { return &c.Search.Strategy }),
	stringVar("SEARCH_METRIC", func(c *AppConfig) *string { return &c.Search.Metric }),
	intVar("SEARCH_PAGE_SIZE", func(c *AppConfig) *int { return &c.Search.PageSize }),
	intVar("SEARCH_MAX_PAGE_SIZE", func(c *AppConfig) *int { return &c.Search.MaxPageSize }),
	intVar("SEARCH_CANDIDATE_MULTIPLIER", func(c *AppConfig) *int { return &c.Search.CandidateMultiplier }),
	intVar("SEARCH_ANSWER_WORKERS", func(c *AppConfig) *int { return &c.Search.AnswerWorkers }),
}

// ApplyEnv overrides fields from KBSEARCH_* variables found by lookup.
// Blank values are ignored. A nil lookup reads the process environment.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, binding := range envBindings {
		name := EnvPrefix + binding.name
		value, ok := lookup(name)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if err := binding.set(c, value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

// Resolve loads .env files, reads the config file at path over the defaults,
// applies environment overrides and validates the result.
func Resolve(path string) (*AppConfig, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
