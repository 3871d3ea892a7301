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

package joinkeys

import (
	"context"
	"unsafe"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/container/nulls"
	"github.com/matrixorigin/mojoin/pkg/container/rowenc"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
)

// Part holds the normalized keys of one partition.
type Part[K hashtable.Key] struct {
	hashmap.KeyBatch[K]
	// owned keys were allocated from the pool, the others view column memory
	owned bool
}

func (p *Part[K]) Range() concurrent.Range {
	return concurrent.Range{Start: int(p.Start), End: int(p.Start) + len(p.Keys)}
}

// Ranges returns the row ranges of parts.
func Ranges[K hashtable.Key](parts []*Part[K]) []concurrent.Range {
	ranges := make([]concurrent.Range, len(parts))
	for i, p := range parts {
		ranges[i] = p.Range()
	}
	return ranges
}

// Rows returns the number of rows of parts.
func Rows[K hashtable.Key](parts []*Part[K]) int {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	return n
}

func FreeParts[K hashtable.Key](mp *mpool.MPool, parts []*Part[K]) {
	for _, p := range parts {
		if p != nil {
			p.Free(mp)
		}
	}
}

func (p *Part[K]) Free(mp *mpool.MPool) {
	if p.owned && p.Keys != nil {
		mpool.FreeSlice(mp, p.Keys)
	}
	p.Keys = nil
	p.Nulls = nil
}

// Normalizer turns the key column of one join side into normalized keys.
type Normalizer struct {
	Kind    Kind
	Encoder rowenc.Encoder
	// FastPath is set when neither side has nulls and both are single
	// chunks, fixed width keys then view the column memory directly.
	FastPath bool
}

func NewNormalizer(kind Kind) *Normalizer {
	return &Normalizer{
		Kind:    kind,
		Encoder: rowenc.NewEncoder(),
	}
}

// Prepare returns the column the keys are read from, nested columns are
// row encoded chunk by chunk so that the chunk layout is kept.
func (n *Normalizer) Prepare(ctx context.Context, col *vector.Chunked) (*vector.Chunked, error) {
	if n.Kind != KindRowEncoded {
		return col, nil
	}
	chunks := make([]*vector.Vector, col.ChunkCount())
	for i, c := range col.Chunks() {
		ev, err := n.Encoder.Encode(ctx, []*vector.Vector{c})
		if err != nil {
			return nil, err
		}
		if ev.Length() != c.Length() {
			return nil, moerr.NewInternalError(ctx, "row encoding returned %d rows for %d", ev.Length(), c.Length())
		}
		chunks[i] = ev
	}
	return vector.NewChunked(ctx, chunks...)
}

// Normalize returns the keys of the logical rows r of col. m is the chunk
// mapping of col, nil when col has a single chunk.
func Normalize[K hashtable.Key](
	ctx context.Context,
	mp *mpool.MPool,
	n *Normalizer,
	col *vector.Chunked,
	m *vector.ChunkMapping,
	r concurrent.Range) (*Part[K], error) {
	p := &Part[K]{}
	p.Start = uint32(r.Start)
	if n.FastPath && col.ChunkCount() == 1 {
		if keys, ok := viewKeys[K](col.Chunks()[0], r); ok {
			p.Keys = keys
			return p, nil
		}
	}

	keys, err := mpool.MakeSlice[K](ctx, mp, r.Len())
	if err != nil {
		return nil, err
	}
	p.Keys = keys
	p.owned = true
	err = col.Windows(m, r.Start, r.End, func(piece *vector.Vector, offset int) error {
		base := offset - r.Start
		if err := fill(ctx, piece, p.Keys[base:base+piece.Length()]); err != nil {
			return err
		}
		if !n.FastPath && piece.HasNull() {
			if p.Nulls == nil {
				p.Nulls = nulls.NewWithSize(r.Len())
			}
			nulls.Foreach(piece.GetNulls(), func(row uint64) {
				nulls.Add(p.Nulls, row+uint64(base))
			})
		}
		return nil
	})
	if err != nil {
		p.Free(mp)
		return nil, err
	}
	return p, nil
}

// viewKeys reinterprets the values of v as keys when they already have
// the key layout.
func viewKeys[K hashtable.Key](v *vector.Vector, r concurrent.Range) ([]K, bool) {
	var k K
	if r.Len() == 0 {
		return nil, false
	}
	switch any(k).(type) {
	case uint32:
		switch v.GetType().Oid {
		case types.T_int32, types.T_uint32, types.T_date:
			col := vector.MustFixedCol[uint32](v)[r.Start:r.End]
			return unsafe.Slice((*K)(unsafe.Pointer(&col[0])), len(col)), true
		}
	case uint64:
		switch v.GetType().Oid {
		case types.T_int64, types.T_uint64, types.T_datetime, types.T_timestamp, types.T_time:
			col := vector.MustFixedCol[uint64](v)[r.Start:r.End]
			return unsafe.Slice((*K)(unsafe.Pointer(&col[0])), len(col)), true
		}
	case types.Decimal128:
		col := vector.MustFixedCol[types.Decimal128](v)[r.Start:r.End]
		return unsafe.Slice((*K)(unsafe.Pointer(&col[0])), len(col)), true
	}
	return nil, false
}

func fill[K hashtable.Key](ctx context.Context, v *vector.Vector, dst []K) error {
	switch keys := any(dst).(type) {
	case []uint32:
		return fillU32(ctx, v, keys)
	case []uint64:
		return fillU64(ctx, v, keys)
	case []types.Decimal128:
		if v.GetType().Oid != types.T_decimal128 {
			return moerr.NewUnsupportedJoinType(ctx, "%s as 128 bit key", v.GetType())
		}
		copy(keys, vector.MustFixedCol[types.Decimal128](v))
	case []string:
		if !v.GetType().IsVarlen() {
			return moerr.NewUnsupportedJoinType(ctx, "%s as byte key", v.GetType())
		}
		for i := range keys {
			keys[i] = v.UnsafeGetStringAt(i)
		}
	}
	return nil
}

func fillU32(ctx context.Context, v *vector.Vector, keys []uint32) error {
	switch v.GetType().Oid {
	case types.T_bool:
		for i, b := range vector.MustFixedCol[bool](v) {
			if b {
				keys[i] = 1
			} else {
				keys[i] = 0
			}
		}
	case types.T_int8:
		for i, x := range vector.MustFixedCol[int8](v) {
			keys[i] = uint32(int32(x))
		}
	case types.T_int16:
		for i, x := range vector.MustFixedCol[int16](v) {
			keys[i] = uint32(int32(x))
		}
	case types.T_int32:
		for i, x := range vector.MustFixedCol[int32](v) {
			keys[i] = uint32(x)
		}
	case types.T_uint8:
		for i, x := range vector.MustFixedCol[uint8](v) {
			keys[i] = uint32(x)
		}
	case types.T_uint16:
		for i, x := range vector.MustFixedCol[uint16](v) {
			keys[i] = uint32(x)
		}
	case types.T_uint32:
		copy(keys, vector.MustFixedCol[uint32](v))
	case types.T_float32:
		for i, x := range vector.MustFixedCol[float32](v) {
			keys[i] = types.CanonicalFloat32Bits(x)
		}
	case types.T_date:
		for i, x := range vector.MustFixedCol[types.Date](v) {
			keys[i] = uint32(x)
		}
	case types.T_enum:
		for i, x := range vector.MustFixedCol[types.Enum](v) {
			keys[i] = uint32(x)
		}
	default:
		return moerr.NewUnsupportedJoinType(ctx, "%s as 32 bit key", v.GetType())
	}
	return nil
}

func fillU64(ctx context.Context, v *vector.Vector, keys []uint64) error {
	switch v.GetType().Oid {
	case types.T_int64:
		for i, x := range vector.MustFixedCol[int64](v) {
			keys[i] = uint64(x)
		}
	case types.T_uint64:
		copy(keys, vector.MustFixedCol[uint64](v))
	case types.T_float64:
		for i, x := range vector.MustFixedCol[float64](v) {
			keys[i] = types.CanonicalFloat64Bits(x)
		}
	case types.T_datetime:
		for i, x := range vector.MustFixedCol[types.Datetime](v) {
			keys[i] = uint64(x)
		}
	case types.T_timestamp:
		for i, x := range vector.MustFixedCol[types.Timestamp](v) {
			keys[i] = uint64(x)
		}
	case types.T_time:
		for i, x := range vector.MustFixedCol[types.Time](v) {
			keys[i] = uint64(x)
		}
	default:
		return moerr.NewUnsupportedJoinType(ctx, "%s as 64 bit key", v.GetType())
	}
	return nil
}
