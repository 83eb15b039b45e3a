// Copyright 2025 Fleetkit Labs
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


package storage

import (
	"fmt"
	"time"

	"github.com/fleetkit/knowledge/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored row types. Written by hand in the style the
// mus generator produces: one serializer value per type, composed from the
// mus-go primitive serializers.
var (
	ChunkIDMUS  = chunkIDSer{}
	DocumentMUS = documentSer{}
	ChunkMUS    = chunkSer{}

	timeMUS         = timeMicroSer{}
	float32SliceMUS = float32SliceSer{}
	stringSliceMUS  = stringSliceSer{}
	sourceFileMUS   = sourceFileSer{}
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, ChunkMUS.Size(*chunk))
	ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalChunkID serializes a ChunkID to bytes.
func MarshalChunkID(id core.ChunkID) []byte {
	buf := make([]byte, ChunkIDMUS.Size(id))
	ChunkIDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalChunkID deserializes a ChunkID from bytes.
func UnmarshalChunkID(data []byte) (core.ChunkID, error) {
	id, _, err := ChunkIDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

type chunkIDSer struct{}

func (chunkIDSer) Marshal(id core.ChunkID, buf []byte) int {
	return varint.Uint64.Marshal(uint64(id), buf)
}

func (chunkIDSer) Unmarshal(buf []byte) (core.ChunkID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(buf)
	return core.ChunkID(v), n, err
}

func (chunkIDSer) Size(id core.ChunkID) int {
	return varint.Uint64.Size(uint64(id))
}

// timeMicroSer encodes timestamps as microseconds since the Unix epoch.
type timeMicroSer struct{}

func (timeMicroSer) Marshal(t time.Time, buf []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), buf)
}

func (timeMicroSer) Unmarshal(buf []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(buf)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMicroSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type float32SliceSer struct{}

func (float32SliceSer) Marshal(v []float32, buf []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), buf)
	for _, f := range v {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return n
}

func (float32SliceSer) Unmarshal(buf []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(buf)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(buf[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (float32SliceSer) Size(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type stringSliceSer struct{}

func (stringSliceSer) Marshal(v []string, buf []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), buf)
	for _, s := range v {
		n += ord.String.Marshal(s, buf[n:])
	}
	return n
}

func (stringSliceSer) Unmarshal(buf []byte) (v []string, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(buf)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = ord.String.Unmarshal(buf[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringSliceSer) Size(v []string) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

type sourceFileSer struct{}

func (sourceFileSer) Marshal(s core.SourceFile, buf []byte) (n int) {
	n = ord.String.Marshal(s.Name, buf)
	n += ord.String.Marshal(s.MediaType, buf[n:])
	n += varint.Int.Marshal(s.Pages, buf[n:])
	return n
}

func (sourceFileSer) Unmarshal(buf []byte) (s core.SourceFile, n int, err error) {
	var n1 int
	s.Name, n, err = ord.String.Unmarshal(buf)
	if err != nil {
		return s, n, err
	}
	s.MediaType, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return s, n, err
	}
	s.Pages, n1, err = varint.Int.Unmarshal(buf[n:])
	n += n1
	return s, n, err
}

func (sourceFileSer) Size(s core.SourceFile) int {
	return ord.String.Size(s.Name) + ord.String.Size(s.MediaType) + varint.Int.Size(s.Pages)
}

type documentSer struct{}

func (documentSer) Marshal(d core.Document, buf []byte) (n int) {
	n = ord.String.Marshal(d.Id, buf)
	n += ord.String.Marshal(d.Title, buf[n:])
	n += ord.String.Marshal(d.Description, buf[n:])
	n += ord.String.Marshal(d.Type, buf[n:])
	n += ord.String.Marshal(d.Content, buf[n:])
	n += ord.String.Marshal(d.TenantId, buf[n:])
	n += sourceFileMUS.Marshal(d.Source, buf[n:])
	n += stringSliceMUS.Marshal(d.Tags, buf[n:])
	n += ord.String.Marshal(string(d.Status), buf[n:])
	n += varint.Int.Marshal(d.ChunkCount, buf[n:])
	n += ord.String.Marshal(d.StatusMessage, buf[n:])
	n += timeMUS.Marshal(d.InsertedAt, buf[n:])
	n += timeMUS.Marshal(d.UpdatedAt, buf[n:])
	return n
}

func (documentSer) Unmarshal(buf []byte) (d core.Document, n int, err error) {
	var n1 int
	if d.Id, n, err = ord.String.Unmarshal(buf); err != nil {
		return d, n, err
	}
	if d.Title, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Description, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Type, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Content, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.TenantId, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Source, n1, err = sourceFileMUS.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Tags, n1, err = stringSliceMUS.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	d.Status = core.ProcessingStatus(status)
	n += n1
	if d.ChunkCount, n1, err = varint.Int.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.StatusMessage, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.InsertedAt, n1, err = timeMUS.Unmarshal(buf[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.UpdatedAt, n1, err = timeMUS.Unmarshal(buf[n:])
	n += n1
	return d, n, err
}

func (documentSer) Size(d core.Document) int {
	return ord.String.Size(d.Id) +
		ord.String.Size(d.Title) +
		ord.String.Size(d.Description) +
		ord.String.Size(d.Type) +
		ord.String.Size(d.Content) +
		ord.String.Size(d.TenantId) +
		sourceFileMUS.Size(d.Source) +
		stringSliceMUS.Size(d.Tags) +
		ord.String.Size(string(d.Status)) +
		varint.Int.Size(d.ChunkCount) +
		ord.String.Size(d.StatusMessage) +
		timeMUS.Size(d.InsertedAt) +
		timeMUS.Size(d.UpdatedAt)
}

type chunkSer struct{}

func (chunkSer) Marshal(c core.Chunk, buf []byte) (n int) {
	n = ChunkIDMUS.Marshal(c.Id, buf)
	n += ord.String.Marshal(c.DocumentId, buf[n:])
	n += ord.String.Marshal(c.TenantId, buf[n:])
	n += varint.Int.Marshal(c.Index, buf[n:])
	n += ord.String.Marshal(c.Content, buf[n:])
	n += float32SliceMUS.Marshal(c.Vector, buf[n:])
	n += varint.Int.Marshal(c.TokenCount, buf[n:])
	n += stringSliceMUS.Marshal(c.Tags, buf[n:])
	n += timeMUS.Marshal(c.InsertedAt, buf[n:])
	return n
}

func (chunkSer) Unmarshal(buf []byte) (c core.Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = ChunkIDMUS.Unmarshal(buf); err != nil {
		return c, n, err
	}
	if c.DocumentId, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.TenantId, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Index, n1, err = varint.Int.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Content, n1, err = ord.String.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = float32SliceMUS.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.TokenCount, n1, err = varint.Int.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Tags, n1, err = stringSliceMUS.Unmarshal(buf[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	c.InsertedAt, n1, err = timeMUS.Unmarshal(buf[n:])
	n += n1
	return c, n, err
}

func (chunkSer) Size(c core.Chunk) int {
	return ChunkIDMUS.Size(c.Id) +
		ord.String.Size(c.DocumentId) +
		ord.String.Size(c.TenantId) +
		varint.Int.Size(c.Index) +
		ord.String.Size(c.Content) +
		float32SliceMUS.Size(c.Vector) +
		varint.Int.Size(c.TokenCount) +
		stringSliceMUS.Size(c.Tags) +
		timeMUS.Size(c.InsertedAt)
}
