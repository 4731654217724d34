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

package mock

import (
	"context"
	"sync/atomic"
)

// MockAnswerer is a test double for ai.Answerer.
type MockAnswerer struct {
	// AnswerFunc is called by Answer if set.
	// If nil, echoes the question back.
	AnswerFunc func(ctx context.Context, question, contextText string) (string, error)

	callCount atomic.Int64
}

// NewMockAnswerer creates a mock answerer with default echo behavior.
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{}
}

// Answer returns "answer: <question>" unless AnswerFunc overrides it.
func (m *MockAnswerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	m.callCount.Add(1)

	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, contextText)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "answer: " + question, nil
}

// CallCount returns the number of Answer calls.
func (m *MockAnswerer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and override.
func (m *MockAnswerer) Reset() {
	m.callCount.Store(0)
	m.AnswerFunc = nil
}
