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
package hashjoin

import (
	"context"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/nulls"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

type indexes struct {
	probe, build           []uint32
	probeNulls, buildNulls *nulls.Nulls
}

func (idx *indexes) free(mp *mpool.MPool) {
	if idx.probe != nil {
		mpool.FreeSlice(mp, idx.probe)
		idx.probe = nil
	}
	if idx.build != nil {
		mpool.FreeSlice(mp, idx.build)
		idx.build = nil
	}
}

// assemble concatenates bufs into global index arrays. Buffer i is copied
// to the offset given by the lengths of the buffers before it, so the
// copies run in parallel over disjoint ranges.
func assemble(proc *process.Process, bufs []*colexec.JoinBuffer, paired bool) (*indexes, error) {
	ranges := make([]concurrent.Range, len(bufs))
	total := uint64(0)
	for i, b := range bufs {
		ranges[i] = concurrent.Range{Start: int(total), End: int(total) + b.Len()}
		total += uint64(b.Len())
	}
	if total > colexec.MaxIndexRows {
		return nil, moerr.NewIndexOverflow(proc.Ctx, total, colexec.MaxIndexRows)
	}

	idx := &indexes{}
	var err error
	if idx.probe, err = mpool.MakeSlice[uint32](proc.Ctx, proc.Mp(), int(total)); err != nil {
		return nil, err
	}
	if paired {
		if idx.build, err = mpool.MakeSlice[uint32](proc.Ctx, proc.Mp(), int(total)); err != nil {
			idx.free(proc.Mp())
			return nil, err
		}
	}

	probeNulls := make([]*nulls.Nulls, len(bufs))
	buildNulls := make([]*nulls.Nulls, len(bufs))
	err = proc.Executor().ExecuteRanges(proc.Ctx, ranges, func(_ context.Context, i int, start, end int) error {
		b := bufs[i]
		probeNulls[i] = copyIndexes(idx.probe[start:end], b.Probe, start)
		if paired {
			buildNulls[i] = copyIndexes(idx.build[start:end], b.Build, start)
		}
		return nil
	})
	if err != nil {
		idx.free(proc.Mp())
		return nil, err
	}

	idx.probeNulls = &nulls.Nulls{}
	idx.buildNulls = &nulls.Nulls{}
	for i := range bufs {
		nulls.Merge(idx.probeNulls, probeNulls[i])
		nulls.Merge(idx.buildNulls, buildNulls[i])
	}
	return idx, nil
}

// copyIndexes copies src to dst and returns the positions of NullRow,
// offset by base.
func copyIndexes(dst, src []uint32, base int) *nulls.Nulls {
	var nsp *nulls.Nulls
	copy(dst, src)
	for i, row := range src {
		if row == colexec.NullRow {
			if nsp == nil {
				nsp = &nulls.Nulls{}
			}
			nulls.Add(nsp, uint64(base+i))
		}
	}
	return nsp
}

func newIndexVector(rows []uint32, nsp *nulls.Nulls) *vector.Vector {
	return vector.NewFixedVec(types.T_uint32.ToType(), rows, nsp)
}
