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

package hashtable

import (
	"context"
	"unsafe"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/types"
)

const (
	kInitialBucketCntBits = 8
	kInitialBucketCnt     = 1 << kInitialBucketCntBits

	kLoadFactorNumerator   = 1
	kLoadFactorDenominator = 2
)

// Key is the set of normalized join key representations.
type Key interface {
	uint32 | uint64 | types.Decimal128 | string
}

// Cell is one slot of a HashMap, Mapped is 0 when the slot is empty.
type Cell[K Key] struct {
	Hash   uint64
	Key    K
	Mapped uint64
}

// HashMap is an open addressing hash table with linear probing that maps
// every distinct key to a group id, ids are dense and start from 1.
//
// String keys are stored as given, the caller keeps their bytes alive for
// the lifetime of the map.
type HashMap[K Key] struct {
	hashFn        func(K) uint64
	mp            *mpool.MPool
	bucketCntBits uint8
	bucketCnt     uint64
	elemCnt       uint64
	maxElemCnt    uint64
	bucketData    []Cell[K]
}

// NewHashMap returns a map sized for hint distinct keys. All bucket memory
// is reserved from mp.
func NewHashMap[K Key](ctx context.Context, mp *mpool.MPool, hint uint64) (*HashMap[K], error) {
	ht := &HashMap[K]{
		hashFn: HashFunc[K](),
		mp:     mp,
	}
	bits, cnt, maxCnt := bucketsFor(kInitialBucketCntBits, hint)
	data, err := mpool.MakeSlice[Cell[K]](ctx, mp, int(cnt))
	if err != nil {
		return nil, err
	}
	ht.bucketCntBits = bits
	ht.bucketCnt = cnt
	ht.maxElemCnt = maxCnt
	ht.bucketData = data
	return ht, nil
}

func bucketsFor(bits uint8, target uint64) (uint8, uint64, uint64) {
	cnt := uint64(1) << bits
	maxCnt := cnt * kLoadFactorNumerator / kLoadFactorDenominator
	for maxCnt < target {
		bits++
		cnt <<= 1
		maxCnt = cnt * kLoadFactorNumerator / kLoadFactorDenominator
	}
	return bits, cnt, maxCnt
}

func (ht *HashMap[K]) Hash(key K) uint64 {
	return ht.hashFn(key)
}

// InsertBatch inserts keys and writes the group id of each of them into
// values. When hashes[0] is 0 the hashes are computed first.
func (ht *HashMap[K]) InsertBatch(ctx context.Context, hashes []uint64, keys []K, values []uint64) error {
	n := len(keys)
	if n == 0 {
		return nil
	}
	if err := ht.resizeOnDemand(ctx, n); err != nil {
		return err
	}
	if hashes[0] == 0 {
		BatchHash(ht.hashFn, keys, hashes)
	}
	for i, key := range keys {
		empty, _, cell := ht.findBucket(hashes[i], key)
		if empty {
			ht.elemCnt++
			cell.Hash = hashes[i]
			cell.Key = key
			cell.Mapped = ht.elemCnt
		}
		values[i] = cell.Mapped
	}
	return nil
}

// FindBatch writes the group id of each key into values, 0 means absent.
func (ht *HashMap[K]) FindBatch(hashes []uint64, keys []K, values []uint64) {
	if len(keys) == 0 {
		return
	}
	if hashes[0] == 0 {
		BatchHash(ht.hashFn, keys, hashes)
	}
	for i, key := range keys {
		_, _, cell := ht.findBucket(hashes[i], key)
		values[i] = cell.Mapped
	}
}

func (ht *HashMap[K]) Find(key K) uint64 {
	_, _, cell := ht.findBucket(ht.hashFn(key), key)
	return cell.Mapped
}

func (ht *HashMap[K]) findBucket(hash uint64, key K) (empty bool, idx uint64, cell *Cell[K]) {
	mask := ht.bucketCnt - 1
	for idx = hash & mask; true; idx = (idx + 1) & mask {
		cell = &ht.bucketData[idx]
		if cell.Mapped == 0 {
			return true, idx, cell
		}
		if cell.Hash == hash && cell.Key == key {
			return false, idx, cell
		}
	}
	return
}

func (ht *HashMap[K]) resizeOnDemand(ctx context.Context, n int) error {
	targetCnt := ht.elemCnt + uint64(n)
	if targetCnt <= ht.maxElemCnt {
		return nil
	}

	newBucketCntBits, newBucketCnt, newMaxElemCnt := bucketsFor(ht.bucketCntBits+1, targetCnt)
	newBucketData, err := mpool.MakeSlice[Cell[K]](ctx, ht.mp, int(newBucketCnt))
	if err != nil {
		return err
	}

	oldBucketData := ht.bucketData
	ht.bucketCntBits = newBucketCntBits
	ht.bucketCnt = newBucketCnt
	ht.maxElemCnt = newMaxElemCnt
	ht.bucketData = newBucketData

	for i := range oldBucketData {
		cell := &oldBucketData[i]
		if cell.Mapped != 0 {
			_, newIdx, _ := ht.findBucket(cell.Hash, cell.Key)
			ht.bucketData[newIdx] = *cell
		}
	}
	mpool.FreeSlice(ht.mp, oldBucketData)
	return nil
}

func (ht *HashMap[K]) Cardinality() uint64 {
	return ht.elemCnt
}

// Size returns the bytes held by the buckets.
func (ht *HashMap[K]) Size() int64 {
	var c Cell[K]
	return int64(ht.bucketCnt) * int64(unsafe.Sizeof(c))
}

func (ht *HashMap[K]) Free() {
	if ht.bucketData != nil {
		mpool.FreeSlice(ht.mp, ht.bucketData)
		ht.bucketData = nil
	}
	ht.bucketCnt = 0
	ht.elemCnt = 0
}

type HashMapIterator[K Key] struct {
	table *HashMap[K]
	pos   uint64
}

func (ht *HashMap[K]) NewIterator() *HashMapIterator[K] {
	return &HashMapIterator[K]{table: ht}
}

// Next returns the next occupied cell in bucket order.
func (it *HashMapIterator[K]) Next() (*Cell[K], error) {
	for it.pos < it.table.bucketCnt {
		cell := &it.table.bucketData[it.pos]
		it.pos++
		if cell.Mapped != 0 {
			return cell, nil
		}
	}
	return nil, moerr.NewUnexpectedEOF(moerr.Context(), "hash map iterator")
}
