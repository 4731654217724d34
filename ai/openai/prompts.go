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

import "fmt"

const answerSystemPrompt = `You are a helpful support assistant answering questions about a product knowledge base.
Use only the provided context to answer accurately and concisely.
If the context does not contain the answer, say that you could not find it in the knowledge base.`

// answerMaxTokens caps generated answers at a few short paragraphs.
const answerMaxTokens = 512

// maxContextRunes bounds the retrieved context sent with each question.
const maxContextRunes = 6000

func buildAnswerPrompt(question, contextText string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", truncateRunes(contextText, maxContextRunes), question)
}
