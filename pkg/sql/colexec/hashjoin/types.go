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
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
)

type JoinType uint8

const (
	Inner JoinType = iota
	Left
	Outer
	Semi
	Anti
)

func (t JoinType) String() string {
	switch t {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Outer:
		return "outer"
	case Semi:
		return "semi"
	case Anti:
		return "anti"
	}
	return "unknown"
}

func (t JoinType) valid() bool {
	return t <= Anti
}

// paired join types return one index per side for every tuple
func (t JoinType) paired() bool {
	return t == Inner || t == Left || t == Outer
}

// JoinValidation is the cardinality contract between the left and the
// right keys of a join.
type JoinValidation uint8

const (
	ManyToMany JoinValidation = iota
	OneToOne
	OneToMany
	ManyToOne
)

func (v JoinValidation) String() string {
	switch v {
	case ManyToMany:
		return "m:m"
	case OneToOne:
		return "1:1"
	case OneToMany:
		return "1:m"
	case ManyToOne:
		return "m:1"
	}
	return "unknown"
}

func (v JoinValidation) valid() bool {
	return v <= ManyToOne
}

func (v JoinValidation) leftUnique() bool {
	return v == OneToOne || v == OneToMany
}

func (v JoinValidation) rightUnique() bool {
	return v == OneToOne || v == ManyToOne
}

type Side uint8

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	if s == LeftSide {
		return "left"
	}
	return "right"
}

// Result holds the row indexes of a join. Position i of Left and Right is
// one tuple, a null marks the absent side. Right is nil for semi and
// anti joins.
type Result struct {
	Left  *vector.Vector
	Right *vector.Vector

	left, right               *vector.Chunked
	leftMapping, rightMapping *vector.ChunkMapping
	leftRows, rightRows       []uint32
}

func (r *Result) Len() int {
	return r.Left.Length()
}

// ChunkIndex returns where logical row row of side is stored.
func (r *Result) ChunkIndex(side Side, row uint32) vector.ChunkRowIndex {
	col, m := r.left, r.leftMapping
	if side == RightSide {
		col, m = r.right, r.rightMapping
	}
	if m != nil {
		return m.Locate(int(row))
	}
	return col.Locate(int(row))
}

func (r *Result) Free(mp *mpool.MPool) {
	if r.leftRows != nil {
		mpool.FreeSlice(mp, r.leftRows)
		r.leftRows = nil
	}
	if r.rightRows != nil {
		mpool.FreeSlice(mp, r.rightRows)
		r.rightRows = nil
	}
	r.leftMapping.Free(mp)
	r.rightMapping.Free(mp)
	r.leftMapping, r.rightMapping = nil, nil
	r.Left, r.Right = nil, nil
}
