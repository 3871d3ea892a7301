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

package hashbuild

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	hll "github.com/axiomhq/hyperloglog"
	"go.uber.org/zap"

	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/logutil"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

const opName = "hash_build"

func (arg *Argument[K]) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": hash build ")
	fmt.Fprintf(buf, "%d tables over %d rows", len(arg.ctr.maps), arg.ctr.rows)
}

// Build inserts the rows of parts. A build side smaller than the single
// table threshold goes into one table, otherwise every part gets its own
// table built on the worker pool.
func (arg *Argument[K]) Build(proc *process.Process, parts []*joinkeys.Part[K]) error {
	ctr := &arg.ctr
	ctr.rows = joinkeys.Rows(parts)
	ctr.single = len(parts) <= 1 || ctr.rows < proc.Lim.SingleTableThreshold

	if ctr.single {
		jm, err := newJoinMap(proc, arg.NullsEqual, parts...)
		if err != nil {
			return err
		}
		ctr.maps = []*hashmap.JoinMap[K]{jm}
		logutil.DebugCtx(proc.Ctx, "hash build", zap.Int("rows", ctr.rows), zap.Int("tables", 1))
		return nil
	}

	ctr.maps = make([]*hashmap.JoinMap[K], len(parts))
	err := proc.Executor().ExecuteRanges(proc.Ctx, joinkeys.Ranges(parts), func(_ context.Context, i int, _, _ int) error {
		jm, err := newJoinMap(proc, arg.NullsEqual, parts[i])
		if err != nil {
			return err
		}
		ctr.maps[i] = jm
		return nil
	})
	if err != nil {
		arg.Free()
		return err
	}
	logutil.DebugCtx(proc.Ctx, "hash build", zap.Int("rows", ctr.rows), zap.Int("tables", len(parts)))
	return nil
}

func newJoinMap[K hashtable.Key](proc *process.Process, nullsEqual bool, parts ...*joinkeys.Part[K]) (*hashmap.JoinMap[K], error) {
	hint := uint64(0)
	for _, p := range parts {
		hint += uint64(p.Len())
	}
	if lim := proc.Lim.DistinctEstimateRows; lim > 0 && hint >= uint64(lim) {
		hint = estimateDistinct(parts...)
	}
	jm, err := hashmap.NewJoinMap[K](proc.Ctx, proc.Mp(), hint, nullsEqual)
	if err != nil {
		return nil, err
	}
	itr := jm.NewIterator()
	for _, p := range parts {
		if err = itr.Insert(proc.Ctx, &p.KeyBatch); err != nil {
			jm.Free()
			return nil, err
		}
	}
	return jm, nil
}

// estimateDistinct returns an estimate of the distinct non-null keys of parts.
func estimateDistinct[K hashtable.Key](parts ...*joinkeys.Part[K]) uint64 {
	hashFn := hashtable.HashFunc[K]()
	sk := hll.New()
	var buf [8]byte
	for _, p := range parts {
		for i, k := range p.Keys {
			if p.IsNull(i) {
				continue
			}
			binary.LittleEndian.PutUint64(buf[:], hashFn(k))
			sk.Insert(buf[:])
		}
	}
	return sk.Estimate()
}
