// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"context"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/types"
)

// Chunked is a column stored as one or more vectors of the same type.
// Logical row i of the column is row i of the concatenation of the chunks.
type Chunked struct {
	typ    types.Type
	chunks []*Vector
	length int
}

// ChunkRowIndex is the physical location of a logical row.
type ChunkRowIndex struct {
	Chunk  uint32
	Offset uint32
}

func NewChunked(ctx context.Context, chunks ...*Vector) (*Chunked, error) {
	if len(chunks) == 0 {
		return nil, moerr.NewInvalidInput(ctx, "chunked column without chunks")
	}
	c := &Chunked{typ: *chunks[0].GetType()}
	for i, v := range chunks {
		if !v.GetType().Eq(c.typ) {
			return nil, moerr.NewInvalidInput(ctx, "chunk %d is %s, expect %s", i, v.GetType(), c.typ)
		}
		c.length += v.Length()
	}
	c.chunks = chunks
	return c, nil
}

// MustChunked is NewChunked for callers that own well formed chunks.
func MustChunked(chunks ...*Vector) *Chunked {
	c, err := NewChunked(context.Background(), chunks...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Chunked) Length() int {
	return c.length
}

func (c *Chunked) GetType() types.Type {
	return c.typ
}

func (c *Chunked) Chunks() []*Vector {
	return c.chunks
}

func (c *Chunked) ChunkCount() int {
	return len(c.chunks)
}

func (c *Chunked) NullCount() int {
	cnt := 0
	for _, v := range c.chunks {
		cnt += v.NullCount()
	}
	return cnt
}

// Locate returns the chunk holding logical row row by walking the chunk lengths.
func (c *Chunked) Locate(row int) ChunkRowIndex {
	for i, v := range c.chunks {
		if row < v.Length() {
			return ChunkRowIndex{Chunk: uint32(i), Offset: uint32(row)}
		}
		row -= v.Length()
	}
	panic(moerr.NewInternalErrorNoCtx("row out of chunked column of %d rows", c.length))
}

// ChunkMapping translates logical rows into chunk rows in O(1). It is
// built once per join and never changes afterwards.
type ChunkMapping struct {
	idx []ChunkRowIndex
}

// NewChunkMapping builds the mapping of c, a single chunk column needs no
// mapping and gets nil.
func NewChunkMapping(ctx context.Context, mp *mpool.MPool, c *Chunked) (*ChunkMapping, error) {
	if c.ChunkCount() <= 1 {
		return nil, nil
	}
	idx, err := mpool.MakeSlice[ChunkRowIndex](ctx, mp, c.length)
	if err != nil {
		return nil, err
	}
	row := 0
	for i, v := range c.chunks {
		for j := 0; j < v.Length(); j++ {
			idx[row] = ChunkRowIndex{Chunk: uint32(i), Offset: uint32(j)}
			row++
		}
	}
	return &ChunkMapping{idx: idx}, nil
}

func (m *ChunkMapping) Locate(row int) ChunkRowIndex {
	return m.idx[row]
}

func (m *ChunkMapping) Len() int {
	return len(m.idx)
}

func (m *ChunkMapping) Free(mp *mpool.MPool) {
	if m == nil || m.idx == nil {
		return
	}
	mpool.FreeSlice(mp, m.idx)
	m.idx = nil
}

// Windows calls fn for the pieces of the logical rows [start, end), in row
// order. offset is the logical row of the first row of each piece.
func (c *Chunked) Windows(m *ChunkMapping, start, end int, fn func(piece *Vector, offset int) error) error {
	if start >= end {
		return nil
	}
	if len(c.chunks) == 1 {
		return fn(c.chunks[0].Window(start, end), start)
	}
	var loc ChunkRowIndex
	if m != nil {
		loc = m.Locate(start)
	} else {
		loc = c.Locate(start)
	}
	row := start
	for ci := int(loc.Chunk); ci < len(c.chunks) && row < end; ci++ {
		v := c.chunks[ci]
		from := 0
		if ci == int(loc.Chunk) {
			from = int(loc.Offset)
		}
		to := v.Length()
		if n := end - row; to-from > n {
			to = from + n
		}
		if to > from {
			if err := fn(v.Window(from, to), row); err != nil {
				return err
			}
			row += to - from
		}
	}
	return nil
}
