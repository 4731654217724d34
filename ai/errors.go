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

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when a nil embedder is wrapped.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidDimension is returned when a non-positive dimension is configured.
	ErrInvalidDimension = errors.New("dimension must be greater than 0")

	// ErrDimensionMismatch indicates a provider returned a vector of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNonFiniteVector indicates a provider returned NaN or Inf components.
	ErrNonFiniteVector = errors.New("embedding contains non-finite values")

	// ErrEmptyResponse indicates a provider returned no data.
	ErrEmptyResponse = errors.New("empty response from provider")
)
