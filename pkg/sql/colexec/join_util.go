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

package colexec

import (
	"context"
	"math"

	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

// NullRow marks the absent side of a join tuple.
const NullRow = math.MaxUint32

// MaxIndexRows is the number of rows a join result may address.
var MaxIndexRows uint64 = math.MaxUint32

const minBufferCap = 256

// JoinBuffer collects the tuples found by one probe worker. Single sided
// buffers only fill Probe.
type JoinBuffer struct {
	Probe []uint32
	Build []uint32

	paired   bool
	mp       *mpool.MPool
	reserved int64
}

func NewJoinBuffer(mp *mpool.MPool, paired bool) *JoinBuffer {
	return &JoinBuffer{mp: mp, paired: paired}
}

func (b *JoinBuffer) Len() int {
	return len(b.Probe)
}

func (b *JoinBuffer) Paired() bool {
	return b.paired
}

// Append adds the tuple (probe, build), either may be NullRow.
func (b *JoinBuffer) Append(ctx context.Context, probe, build uint32) error {
	if uint64(len(b.Probe)) >= MaxIndexRows {
		return moerr.NewIndexOverflow(ctx, uint64(len(b.Probe))+1, MaxIndexRows)
	}
	if len(b.Probe) == cap(b.Probe) {
		if err := b.grow(ctx); err != nil {
			return err
		}
	}
	b.Probe = append(b.Probe, probe)
	b.Build = append(b.Build, build)
	return nil
}

// AppendRow adds a row of a single sided result.
func (b *JoinBuffer) AppendRow(ctx context.Context, row uint32) error {
	if uint64(len(b.Probe)) >= MaxIndexRows {
		return moerr.NewIndexOverflow(ctx, uint64(len(b.Probe))+1, MaxIndexRows)
	}
	if len(b.Probe) == cap(b.Probe) {
		if err := b.grow(ctx); err != nil {
			return err
		}
	}
	b.Probe = append(b.Probe, row)
	return nil
}

func (b *JoinBuffer) grow(ctx context.Context) error {
	n := len(b.Probe)
	newCap := 2 * cap(b.Probe)
	if newCap < minBufferCap {
		newCap = minBufferCap
	}
	width := int64(4)
	if b.paired {
		width = 8
	}
	if err := b.mp.Reserve(ctx, int64(newCap-cap(b.Probe))*width); err != nil {
		return err
	}
	b.reserved += int64(newCap-cap(b.Probe)) * width

	probe := make([]uint32, n, newCap)
	copy(probe, b.Probe)
	b.Probe = probe
	if b.paired {
		build := make([]uint32, n, newCap)
		copy(build, b.Build)
		b.Build = build
	}
	return nil
}

func (b *JoinBuffer) Free() {
	b.mp.Release(b.reserved)
	b.reserved = 0
	b.Probe = nil
	b.Build = nil
}

// BufferRows returns the number of tuples held by bufs.
func BufferRows(bufs []*JoinBuffer) int {
	n := 0
	for _, b := range bufs {
		n += b.Len()
	}
	return n
}

func FreeJoinBuffers(bufs []*JoinBuffer) {
	for _, b := range bufs {
		if b != nil {
			b.Free()
		}
	}
}

// ProbeBatch walks the rows of b in order and calls fn with the chains
// found in every table, chains[i] is nil when table i has no match.
func ProbeBatch[K hashtable.Key](b *hashmap.KeyBatch[K], maps []*hashmap.JoinMap[K], fn func(row uint32, chains [][]uint32) error) error {
	itrs := make([]*hashmap.Iterator[K], len(maps))
	for i, jm := range maps {
		itrs[i] = jm.NewIterator()
	}
	vs := make([][]uint64, len(maps))
	zvs := make([][]int64, len(maps))
	chains := make([][]uint32, len(maps))

	n := b.Len()
	for i := 0; i < n; i += hashmap.UnitLimit {
		cnt := n - i
		if cnt > hashmap.UnitLimit {
			cnt = hashmap.UnitLimit
		}
		for m, itr := range itrs {
			vs[m], zvs[m] = itr.Find(b, i, cnt)
		}
		for k := 0; k < cnt; k++ {
			for m, jm := range maps {
				chains[m] = jm.Chain(vs[m][k], zvs[m][k])
			}
			if err := fn(b.Start+uint32(i+k), chains); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProbeParts runs fn for every part on the worker pool, part i fills
// buffer i. Buffers come back in part order.
func ProbeParts[K hashtable.Key](
	proc *process.Process,
	parts []*joinkeys.Part[K],
	paired bool,
	fn func(ctx context.Context, i int, part *joinkeys.Part[K], buf *JoinBuffer) error) ([]*JoinBuffer, error) {
	bufs := make([]*JoinBuffer, len(parts))
	for i := range bufs {
		bufs[i] = NewJoinBuffer(proc.Mp(), paired)
	}
	err := proc.Executor().ExecuteRanges(proc.Ctx, joinkeys.Ranges(parts), func(ctx context.Context, i int, _, _ int) error {
		return fn(ctx, i, parts[i], bufs[i])
	})
	if err != nil {
		FreeJoinBuffers(bufs)
		return nil, err
	}
	return bufs, nil
}
