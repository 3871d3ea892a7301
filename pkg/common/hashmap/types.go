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

package hashmap

import (
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/container/nulls"
)

const (
	UnitLimit = 256
)

// KeyBatch is a run of normalized keys of the logical rows
// [Start, Start+len(Keys)). Null positions are relative to Start.
type KeyBatch[K hashtable.Key] struct {
	Start uint32
	Keys  []K
	Nulls *nulls.Nulls
}

func (b *KeyBatch[K]) Len() int {
	return len(b.Keys)
}

func (b *KeyBatch[K]) IsNull(i int) bool {
	return b.Nulls != nil && nulls.Contains(b.Nulls, uint64(i))
}

// JoinMap is used for join, it maps every distinct non-null key of the
// build rows inserted into it to the chain of those rows.
type JoinMap[K hashtable.Key] struct {
	nullsEqual bool
	rows       uint64
	// sels[v-1] is the chain of group v in insertion order
	sels     [][]uint32
	nullSels []uint32
	reserved int64

	m  *mpool.MPool
	ht *hashtable.HashMap[K]
}

// Iterator does the batched lookups of one probe worker, it owns its
// buffers and may not be shared.
//
//	vs  : the group id of each key, 0 means not found
//	zvs : 0 marks a null key, 1 a non-null one
type Iterator[K hashtable.Key] struct {
	mp      *JoinMap[K]
	keys    []K
	keyOffs []uint32
	hashes  []uint64
	values  []uint64
	zValues []int64
	found   []uint64
}
