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

package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/kbsearch/core"
)

// Key prefixes for different data types.
// Every prefix ends in ':' so no prefix is a prefix of another.
const (
	articlePrefix     = "art:"
	articleSlugPrefix = "artslug:"
	articleTagPrefix  = "arttag:"
	chunkPrefix       = "chk:"
	searchLogPrefix   = "log:"
	feedbackPrefix    = "fbk:"
	articleIDSeq      = "seq:art"
	searchLogIDSeq    = "seq:log"
	feedbackIDSeq     = "seq:fbk"
)

// appendUint64 writes v in BigEndian order so lexicographic sort matches numeric sort.
func appendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// makeArticleKey generates a key for an article by ID.
// Format: prefix + id
func makeArticleKey(id core.ID) []byte {
	return appendUint64([]byte(articlePrefix), uint64(id))
}

// makeSlugKey generates the unique slug index key.
// Format: prefix + slug
func makeSlugKey(slug string) []byte {
	return []byte(articleSlugPrefix + slug)
}

// makePartialTagKey generates a partial key for tag queries.
// Format: prefix + lower(tag) + 0x00
func makePartialTagKey(tag string) []byte {
	buf := []byte(articleTagPrefix + strings.ToLower(tag))
	return append(buf, 0)
}

// makeTagKey generates a composite key for the tag association.
// Format: prefix + lower(tag) + 0x00 + articleID
func makeTagKey(tag string, id core.ID) []byte {
	return appendUint64(makePartialTagKey(tag), uint64(id))
}

// makePartialChunkKey generates a partial key for an article's chunks.
// Format: prefix + documentID
func makePartialChunkKey(documentID core.ID) []byte {
	return appendUint64([]byte(chunkPrefix), uint64(documentID))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix + documentID + seq
func makeChunkKey(documentID core.ID, seq int) []byte {
	return appendUint64(makePartialChunkKey(documentID), uint64(seq))
}

// makeSearchLogKey generates a key for a log entry. IDs come from a sequence,
// so key order is submission order.
func makeSearchLogKey(id core.ID) []byte {
	return appendUint64([]byte(searchLogPrefix), uint64(id))
}

// makePartialFeedbackKey generates a partial key for an article's feedback.
func makePartialFeedbackKey(articleID core.ID) []byte {
	return appendUint64([]byte(feedbackPrefix), uint64(articleID))
}

// makeFeedbackKey generates a composite key for feedback.
// Format: prefix + articleID + feedbackID
func makeFeedbackKey(articleID, id core.ID) []byte {
	return appendUint64(makePartialFeedbackKey(articleID), uint64(id))
}
