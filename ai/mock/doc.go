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

// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	embedder := mock.NewMockEmbedderWithDimension(4)
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0, 0}, nil
//	}
//
//	answerer := mock.NewMockAnswerer()
//	answerer.AnswerFunc = func(ctx context.Context, q, c string) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: deterministic unit vectors derived from a hash of the text
//   - MockAnswerer: echoes the question as "answer: <question>"
//   - MockProvider: aggregates one of each
package mock
