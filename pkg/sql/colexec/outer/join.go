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
package outer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

const opName = "outer"

func (outerJoin *OuterJoin[K]) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": outer join ")
	fmt.Fprintf(buf, "%d probe rows into %d tuples, %d build rows unmatched",
		outerJoin.ctr.probeRows, outerJoin.ctr.tuples, outerJoin.ctr.unmatched)
}

// Probe returns the tuples of parts followed by one more buffer holding
// the unmatched build rows in build order.
func (outerJoin *OuterJoin[K]) Probe(proc *process.Process, parts []*joinkeys.Part[K]) ([]*colexec.JoinBuffer, error) {
	ctr := &outerJoin.ctr
	defer ctr.free(proc)
	if err := ctr.prepare(proc, len(parts), outerJoin.BuildRows); err != nil {
		return nil, err
	}

	bufs, err := colexec.ProbeParts(proc, parts, true, func(ctx context.Context, i int, part *joinkeys.Part[K], buf *colexec.JoinBuffer) error {
		seen := ctr.matched[i]
		return colexec.ProbeBatch(&part.KeyBatch, outerJoin.Maps, func(row uint32, chains [][]uint32) error {
			matched := false
			for _, sels := range chains {
				for _, sel := range sels {
					if err := buf.Append(ctx, row, sel); err != nil {
						return err
					}
					seen.Set(uint(sel))
					matched = true
				}
			}
			if !matched {
				return buf.Append(ctx, row, colexec.NullRow)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	rest := colexec.NewJoinBuffer(proc.Mp(), true)
	bufs = append(bufs, rest)
	seen := ctr.merge(outerJoin.BuildRows)
	for b, ok := seen.NextClear(0); ok && b < uint(outerJoin.BuildRows); b, ok = seen.NextClear(b + 1) {
		if err = rest.Append(proc.Ctx, colexec.NullRow, uint32(b)); err != nil {
			colexec.FreeJoinBuffers(bufs)
			return nil, err
		}
	}
	ctr.probeRows = joinkeys.Rows(parts)
	ctr.unmatched = rest.Len()
	ctr.tuples = colexec.BufferRows(bufs)
	return bufs, nil
}

func (ctr *container) prepare(proc *process.Process, parts, buildRows int) error {
	sz := int64(parts) * int64((buildRows+63)/64*8)
	if err := proc.Mp().Reserve(proc.Ctx, sz); err != nil {
		return err
	}
	ctr.reserved = sz
	ctr.matched = make([]*bitset.BitSet, parts)
	for i := range ctr.matched {
		ctr.matched[i] = bitset.New(uint(buildRows))
	}
	return nil
}

// merge ors every marker into the first one.
func (ctr *container) merge(buildRows int) *bitset.BitSet {
	if len(ctr.matched) == 0 {
		return bitset.New(uint(buildRows))
	}
	seen := ctr.matched[0]
	for _, m := range ctr.matched[1:] {
		seen.InPlaceUnion(m)
	}
	return seen
}

func (ctr *container) free(proc *process.Process) {
	proc.Mp().Release(ctr.reserved)
	ctr.reserved = 0
	ctr.matched = nil
}
