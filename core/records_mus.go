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

package core

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ErrTruncatedRecord is returned when a buffer ends before a record is complete.
var ErrTruncatedRecord = errors.New("truncated record")

// serializer is the MUS serializer shape shared by mus-go primitives and the
// record serializers below.
type serializer[T any] interface {
	Marshal(v T, bs []byte) (n int)
	Unmarshal(bs []byte) (v T, n int, err error)
	Size(v T) (size int)
}

// Record serializers used by the storage layer.
var (
	IDMUS             serializer[ID]             = idMUS{}
	ArticleMUS        serializer[Article]        = articleMUS{}
	ChunkMUS          serializer[Chunk]          = chunkMUS{}
	FeedbackMUS       serializer[Feedback]       = feedbackMUS{}
	SearchLogEntryMUS serializer[SearchLogEntry] = searchLogEntryMUS{}
)

var (
	stringsMUS serializer[[]string]  = stringsSer{}
	vectorMUS  serializer[[]float32] = vectorSer{}
	timeMUS    serializer[time.Time] = timeSer{}
	intMUS     serializer[int]       = intSer{}
)

// encoder tracks the write offset across consecutive Marshal calls.
type encoder struct {
	bs []byte
	n  int
}

func put[T any](e *encoder, s serializer[T], v T) {
	e.n += s.Marshal(v, e.bs[e.n:])
}

// decoder tracks the read offset and the first error across consecutive
// Unmarshal calls. After an error every subsequent read is a no-op.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func get[T any](d *decoder, s serializer[T]) (v T) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = s.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

type intSer struct{}

func (intSer) Marshal(v int, bs []byte) (n int) {
	return varint.Int64.Marshal(int64(v), bs)
}

func (intSer) Unmarshal(bs []byte) (v int, n int, err error) {
	i, n, err := varint.Int64.Unmarshal(bs)
	return int(i), n, err
}

func (intSer) Size(v int) (size int) {
	return varint.Int64.Size(int64(v))
}

// TimestampPrecision is the resolution at which stores persist timestamps.
const TimestampPrecision = time.Microsecond

// Now returns the current UTC time at TimestampPrecision, so a record
// stamped with it reads back equal to what the writer returned.
func Now() time.Time {
	return time.Now().UTC().Truncate(TimestampPrecision)
}

// StoredTime returns t as a store will read it back. The zero time is kept.
func StoredTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(TimestampPrecision)
}

// timeSer stores timestamps as Unix microseconds in UTC.
// The zero time is stored as math.MinInt64 so it survives a round trip.
type timeSer struct{}

func (timeSer) encode(t time.Time) int64 {
	if t.IsZero() {
		return math.MinInt64
	}
	return t.UnixMicro()
}

func (s timeSer) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(s.encode(v), bs)
}

func (timeSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == math.MinInt64 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s timeSer) Size(v time.Time) (size int) {
	return varint.Int64.Size(s.encode(v))
}

type stringsSer struct{}

func (stringsSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringsSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	if length > uint64(len(bs)-n) {
		return nil, n, ErrTruncatedRecord
	}
	v = make([]string, length)
	for i := range v {
		var m int
		v[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringsSer) Size(v []string) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

// vectorSer writes a length prefix followed by fixed-width little-endian floats.
type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		binary.LittleEndian.PutUint32(bs[n:], math.Float32bits(f))
		n += 4
	}
	return n
}

func (vectorSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	if length > uint64(len(bs)-n)/4 {
		return nil, n, ErrTruncatedRecord
	}
	v = make([]float32, length)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(bs[n:]))
		n += 4
	}
	return v, n, nil
}

func (vectorSer) Size(v []float32) (size int) {
	return varint.Uint64.Size(uint64(len(v))) + 4*len(v)
}

type articleMUS struct{}

func (articleMUS) Marshal(v Article, bs []byte) (n int) {
	e := &encoder{bs: bs}
	put(e, IDMUS, v.Id)
	put[string](e, ord.String, v.Title)
	put[string](e, ord.String, v.Slug)
	put[string](e, ord.String, v.Content)
	put[string](e, ord.String, v.Category)
	put(e, stringsMUS, v.Tags)
	put[bool](e, ord.Bool, v.Published)
	put(e, timeMUS, v.CreatedAt)
	put(e, timeMUS, v.UpdatedAt)
	return e.n
}

func (articleMUS) Unmarshal(bs []byte) (v Article, n int, err error) {
	d := &decoder{bs: bs}
	v.Id = get(d, IDMUS)
	v.Title = get[string](d, ord.String)
	v.Slug = get[string](d, ord.String)
	v.Content = get[string](d, ord.String)
	v.Category = get[string](d, ord.String)
	v.Tags = get(d, stringsMUS)
	v.Published = get[bool](d, ord.Bool)
	v.CreatedAt = get(d, timeMUS)
	v.UpdatedAt = get(d, timeMUS)
	return v, d.n, d.err
}

func (articleMUS) Size(v Article) (size int) {
	return IDMUS.Size(v.Id) +
		ord.String.Size(v.Title) +
		ord.String.Size(v.Slug) +
		ord.String.Size(v.Content) +
		ord.String.Size(v.Category) +
		stringsMUS.Size(v.Tags) +
		ord.Bool.Size(v.Published) +
		timeMUS.Size(v.CreatedAt) +
		timeMUS.Size(v.UpdatedAt)
}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	e := &encoder{bs: bs}
	put(e, IDMUS, v.Id)
	put(e, IDMUS, v.DocumentId)
	put(e, intMUS, v.Seq)
	put[string](e, ord.String, v.Text)
	put(e, intMUS, v.Overlap)
	put[string](e, ord.String, v.Title)
	put[string](e, ord.String, v.Category)
	put(e, stringsMUS, v.Tags)
	put(e, vectorMUS, v.Vector)
	return e.n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	d := &decoder{bs: bs}
	v.Id = get(d, IDMUS)
	v.DocumentId = get(d, IDMUS)
	v.Seq = get(d, intMUS)
	v.Text = get[string](d, ord.String)
	v.Overlap = get(d, intMUS)
	v.Title = get[string](d, ord.String)
	v.Category = get[string](d, ord.String)
	v.Tags = get(d, stringsMUS)
	v.Vector = get(d, vectorMUS)
	return v, d.n, d.err
}

func (chunkMUS) Size(v Chunk) (size int) {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.DocumentId) +
		intMUS.Size(v.Seq) +
		ord.String.Size(v.Text) +
		intMUS.Size(v.Overlap) +
		ord.String.Size(v.Title) +
		ord.String.Size(v.Category) +
		stringsMUS.Size(v.Tags) +
		vectorMUS.Size(v.Vector)
}

type feedbackMUS struct{}

func (feedbackMUS) Marshal(v Feedback, bs []byte) (n int) {
	e := &encoder{bs: bs}
	put(e, IDMUS, v.Id)
	put(e, IDMUS, v.ArticleId)
	put(e, intMUS, v.Rating)
	put[string](e, ord.String, v.Comment)
	put(e, timeMUS, v.CreatedAt)
	return e.n
}

func (feedbackMUS) Unmarshal(bs []byte) (v Feedback, n int, err error) {
	d := &decoder{bs: bs}
	v.Id = get(d, IDMUS)
	v.ArticleId = get(d, IDMUS)
	v.Rating = get(d, intMUS)
	v.Comment = get[string](d, ord.String)
	v.CreatedAt = get(d, timeMUS)
	return v, d.n, d.err
}

func (feedbackMUS) Size(v Feedback) (size int) {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.ArticleId) +
		intMUS.Size(v.Rating) +
		ord.String.Size(v.Comment) +
		timeMUS.Size(v.CreatedAt)
}

type searchLogEntryMUS struct{}

func (searchLogEntryMUS) Marshal(v SearchLogEntry, bs []byte) (n int) {
	e := &encoder{bs: bs}
	put(e, IDMUS, v.Id)
	put[string](e, ord.String, v.Query)
	put(e, intMUS, v.ResultsCount)
	put(e, timeMUS, v.Timestamp)
	return e.n
}

func (searchLogEntryMUS) Unmarshal(bs []byte) (v SearchLogEntry, n int, err error) {
	d := &decoder{bs: bs}
	v.Id = get(d, IDMUS)
	v.Query = get[string](d, ord.String)
	v.ResultsCount = get(d, intMUS)
	v.Timestamp = get(d, timeMUS)
	return v, d.n, d.err
}

func (searchLogEntryMUS) Size(v SearchLogEntry) (size int) {
	return IDMUS.Size(v.Id) +
		ord.String.Size(v.Query) +
		intMUS.Size(v.ResultsCount) +
		timeMUS.Size(v.Timestamp)
}
