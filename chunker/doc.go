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

// Package chunker splits article content into bounded, overlapping segments
// suitable for embedding.
//
// Sizes are measured in runes. Each segment is an exact substring of the
// input and carries the number of runes it shares with the previous segment,
// so the input can be reconstructed by concatenating the first segment with
// every later segment minus its overlap prefix.
//
// Break points are chosen in order of preference: after a blank line
// (paragraph boundary), after a newline, and finally at the hard size limit.
package chunker
