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
	"context"

	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
)

// bytes accounted for every row of a chain and for every chain header
const (
	selSize       = 4
	selHeaderSize = 24
)

// NewJoinMap returns an empty map sized for hint distinct keys. When
// nullsEqual is set all null keys form one chain that matches null probe
// keys, otherwise null rows are kept aside and never match.
func NewJoinMap[K hashtable.Key](ctx context.Context, m *mpool.MPool, hint uint64, nullsEqual bool) (*JoinMap[K], error) {
	ht, err := hashtable.NewHashMap[K](ctx, m, hint)
	if err != nil {
		return nil, err
	}
	return &JoinMap[K]{
		nullsEqual: nullsEqual,
		m:          m,
		ht:         ht,
	}, nil
}

func (jm *JoinMap[K]) NewIterator() *Iterator[K] {
	return &Iterator[K]{
		mp:      jm,
		keys:    make([]K, UnitLimit),
		keyOffs: make([]uint32, UnitLimit),
		hashes:  make([]uint64, UnitLimit),
		values:  make([]uint64, UnitLimit),
		zValues: make([]int64, UnitLimit),
		found:   make([]uint64, UnitLimit),
	}
}

func (jm *JoinMap[K]) NullsEqual() bool {
	return jm.nullsEqual
}

func (jm *JoinMap[K]) HasNull() bool {
	return len(jm.nullSels) > 0
}

// Rows returns the number of rows inserted, null ones included.
func (jm *JoinMap[K]) Rows() uint64 {
	return jm.rows
}

func (jm *JoinMap[K]) GroupCount() uint64 {
	return jm.ht.Cardinality()
}

// GetSels returns the rows of group v in insertion order.
func (jm *JoinMap[K]) GetSels(v uint64) []uint32 {
	return jm.sels[v-1]
}

func (jm *JoinMap[K]) NullSels() []uint32 {
	return jm.nullSels
}

// Chain returns the build rows matching a probe key given its lookup
// result, nil when nothing matches.
func (jm *JoinMap[K]) Chain(v uint64, zv int64) []uint32 {
	if zv == 0 {
		if jm.nullsEqual {
			return jm.nullSels
		}
		return nil
	}
	if v == 0 {
		return nil
	}
	return jm.sels[v-1]
}

// Find looks a single key up, it returns the group id or 0.
func (jm *JoinMap[K]) Find(key K) uint64 {
	return jm.ht.Find(key)
}

// Duplicate returns the first two rows of the first chain holding more
// than one row, nil if every key is unique. The null chain only counts
// when nulls are equal.
func (jm *JoinMap[K]) Duplicate() []uint32 {
	for _, sels := range jm.sels {
		if len(sels) > 1 {
			return sels[:2]
		}
	}
	if jm.nullsEqual && len(jm.nullSels) > 1 {
		return jm.nullSels[:2]
	}
	return nil
}

// ForEachGroup calls fn with every distinct key and its chain.
func (jm *JoinMap[K]) ForEachGroup(fn func(key K, sels []uint32) error) error {
	itr := jm.ht.NewIterator()
	for {
		cell, err := itr.Next()
		if err != nil {
			return nil
		}
		if err = fn(cell.Key, jm.sels[cell.Mapped-1]); err != nil {
			return err
		}
	}
}

func (jm *JoinMap[K]) Size() int64 {
	if jm.ht == nil {
		return 0
	}
	return jm.ht.Size() + jm.reserved
}

func (jm *JoinMap[K]) Free() {
	if jm.ht == nil {
		return
	}
	jm.ht.Free()
	jm.ht = nil
	jm.m.Release(jm.reserved)
	jm.reserved = 0
	for i := range jm.sels {
		jm.sels[i] = nil
	}
	jm.sels = nil
	jm.nullSels = nil
}

func (jm *JoinMap[K]) reserve(ctx context.Context, sz int64) error {
	if err := jm.m.Reserve(ctx, sz); err != nil {
		return err
	}
	jm.reserved += sz
	return nil
}

// Insert adds the rows of b to the map.
func (itr *Iterator[K]) Insert(ctx context.Context, b *KeyBatch[K]) error {
	jm := itr.mp
	n := b.Len()
	for i := 0; i < n; i += UnitLimit {
		cnt := n - i
		if cnt > UnitLimit {
			cnt = UnitLimit
		}
		rows := 0
		for k := 0; k < cnt; k++ {
			row := b.Start + uint32(i+k)
			if b.IsNull(i + k) {
				jm.nullSels = append(jm.nullSels, row)
				continue
			}
			itr.keys[rows] = b.Keys[i+k]
			itr.keyOffs[rows] = row
			itr.hashes[rows] = jm.ht.Hash(b.Keys[i+k])
			rows++
		}

		groups := jm.ht.Cardinality()
		if err := jm.ht.InsertBatch(ctx, itr.hashes[:rows], itr.keys[:rows], itr.values[:rows]); err != nil {
			return err
		}
		newGroups := jm.ht.Cardinality() - groups
		if err := jm.reserve(ctx, int64(cnt)*selSize+int64(newGroups)*selHeaderSize); err != nil {
			return err
		}
		for k := 0; k < rows; k++ {
			v := itr.values[k]
			if v > uint64(len(jm.sels)) {
				jm.sels = append(jm.sels, make([]uint32, 0, 1))
			}
			jm.sels[v-1] = append(jm.sels[v-1], itr.keyOffs[k])
		}
		jm.rows += uint64(cnt)
	}
	return nil
}

// Find looks b.Keys[start, start+count) up, count <= UnitLimit. The
// returned slices are only valid until the next call.
func (itr *Iterator[K]) Find(b *KeyBatch[K], start, count int) (vs []uint64, zvs []int64) {
	jm := itr.mp
	rows := 0
	for k := 0; k < count; k++ {
		itr.values[k] = 0
		if b.IsNull(start + k) {
			itr.zValues[k] = 0
			continue
		}
		itr.zValues[k] = 1
		itr.keys[rows] = b.Keys[start+k]
		itr.keyOffs[rows] = uint32(k)
		itr.hashes[rows] = jm.ht.Hash(b.Keys[start+k])
		rows++
	}
	jm.ht.FindBatch(itr.hashes[:rows], itr.keys[:rows], itr.found[:rows])
	for k := 0; k < rows; k++ {
		itr.values[itr.keyOffs[k]] = itr.found[k]
	}
	return itr.values[:count], itr.zValues[:count]
}
