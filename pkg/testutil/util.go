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

package testutil

import (
	"context"
	"math/rand"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/config"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

func NewProcess() *process.Process {
	return NewProcessWithParams(4, 1)
}

// NewProcessWithParams returns a process whose tables are partitioned
// from singleTableThreshold build rows on.
func NewProcessWithParams(parallelism, singleTableThreshold int) *process.Process {
	jp := config.NewDefaultParameters()
	jp.Parallelism = parallelism
	jp.SingleTableThreshold = singleTableThreshold
	proc, err := process.New(context.Background(), jp)
	if err != nil {
		panic(err)
	}
	return proc
}

// NewVector returns a vector of typ holding vs, isNulls may be nil.
func NewVector[T types.FixedSizeT](typ types.Type, vs []T, isNulls []bool) *vector.Vector {
	v := vector.NewVec(typ)
	vector.AppendList(v, vs, isNulls)
	return v
}

func NewInt64Vector(vs []int64, isNulls []bool) *vector.Vector {
	return NewVector(types.T_int64.ToType(), vs, isNulls)
}

func NewStringVector(vs []string, isNulls []bool) *vector.Vector {
	v := vector.NewVec(types.T_varchar.ToType())
	vector.AppendStringList(v, vs, isNulls)
	return v
}

// NewInt64Chunked cuts vs into chunks of the given sizes, the last chunk
// takes the remaining values.
func NewInt64Chunked(vs []int64, isNulls []bool, sizes ...int) *vector.Chunked {
	var chunks []*vector.Vector
	start := 0
	for _, sz := range sizes {
		if start+sz > len(vs) {
			break
		}
		chunks = append(chunks, NewInt64Vector(vs[start:start+sz], sliceNulls(isNulls, start, start+sz)))
		start += sz
	}
	if start < len(vs) || len(chunks) == 0 {
		chunks = append(chunks, NewInt64Vector(vs[start:], sliceNulls(isNulls, start, len(vs))))
	}
	return vector.MustChunked(chunks...)
}

func sliceNulls(isNulls []bool, start, end int) []bool {
	if isNulls == nil {
		return nil
	}
	return isNulls[start:end]
}

// RandomInt64s returns n keys drawn from [0, card) with about nullRate of
// them null.
func RandomInt64s(rnd *rand.Rand, n, card int, nullRate float64) ([]int64, []bool) {
	vs := make([]int64, n)
	isNulls := make([]bool, n)
	for i := range vs {
		vs[i] = int64(rnd.Intn(card))
		isNulls[i] = rnd.Float64() < nullRate
	}
	return vs, isNulls
}

// NewParts normalizes col into one part per worker of proc.
func NewParts[K hashtable.Key](proc *process.Process, kind joinkeys.Kind, col *vector.Chunked) []*joinkeys.Part[K] {
	m, err := vector.NewChunkMapping(proc.Ctx, proc.Mp(), col)
	if err != nil {
		panic(err)
	}
	defer m.Free(proc.Mp())
	n := joinkeys.NewNormalizer(kind)
	var parts []*joinkeys.Part[K]
	for _, r := range concurrent.Split(col.Length(), proc.Lim.Parallelism) {
		p, err := joinkeys.Normalize[K](proc.Ctx, proc.Mp(), n, col, m, r)
		if err != nil {
			panic(err)
		}
		parts = append(parts, p)
	}
	return parts
}

// Flatten concatenates the tuples of bufs, a NullRow becomes -1. build is
// nil for single sided buffers.
func Flatten(bufs []*colexec.JoinBuffer) (probe, build []int64) {
	for _, b := range bufs {
		for i, row := range b.Probe {
			probe = append(probe, nullable(row))
			if b.Paired() {
				build = append(build, nullable(b.Build[i]))
			}
		}
	}
	return probe, build
}

func nullable(row uint32) int64 {
	if row == colexec.NullRow {
		return -1
	}
	return int64(row)
}
