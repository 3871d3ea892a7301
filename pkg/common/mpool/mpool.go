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

package mpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
)

// MPoolStats counts the memory that went through a pool.
type MPoolStats struct {
	NumAlloc      atomic.Int64
	NumFree       atomic.Int64
	NumCurrBytes  atomic.Int64
	HighWaterMark atomic.Int64
}

func (s *MPoolStats) Report(tab string) string {
	return fmt.Sprintf("%snumalloc: %d, numfree: %d, currbytes: %d, highwatermark: %d",
		tab, s.NumAlloc.Load(), s.NumFree.Load(), s.NumCurrBytes.Load(), s.HighWaterMark.Load())
}

func (s *MPoolStats) recordAlloc(sz int64) int64 {
	s.NumAlloc.Add(1)
	curr := s.NumCurrBytes.Add(sz)
	for {
		hw := s.HighWaterMark.Load()
		if curr <= hw || s.HighWaterMark.CompareAndSwap(hw, curr) {
			return curr
		}
	}
}

func (s *MPoolStats) recordFree(sz int64) int64 {
	s.NumFree.Add(1)
	return s.NumCurrBytes.Add(-sz)
}

// MPool accounts the memory held by one join call. It does not hand out
// memory of its own, callers reserve before they allocate.
type MPool struct {
	tag   string
	cap   int64
	stats MPoolStats
}

// NewMPool creates a pool with a byte capacity, 0 means unlimited.
func NewMPool(tag string, cap int64) (*MPool, error) {
	if cap < 0 {
		return nil, moerr.NewInvalidArgNoCtx("mpool cap", cap)
	}
	return &MPool{tag: tag, cap: cap}, nil
}

// MustNewZero returns an unlimited pool, used by tests.
func MustNewZero() *MPool {
	mp, err := NewMPool("zero", 0)
	if err != nil {
		panic(err)
	}
	return mp
}

func (mp *MPool) Tag() string {
	return mp.tag
}

func (mp *MPool) Cap() int64 {
	return mp.cap
}

// CurrNB returns the number of bytes currently reserved.
func (mp *MPool) CurrNB() int64 {
	return mp.stats.NumCurrBytes.Load()
}

func (mp *MPool) Stats() *MPoolStats {
	return &mp.stats
}

func (mp *MPool) String() string {
	return fmt.Sprintf("mpool %s, cap %d\n%s", mp.tag, mp.cap, mp.stats.Report("\t"))
}

// Reserve accounts sz bytes, it returns an OOM error and reserves nothing
// when the pool capacity would be exceeded.
func (mp *MPool) Reserve(ctx context.Context, sz int64) error {
	if sz <= 0 {
		return nil
	}
	if curr := mp.stats.recordAlloc(sz); mp.cap > 0 && curr > mp.cap {
		mp.stats.recordFree(sz)
		return moerr.NewOOM(ctx)
	}
	return nil
}

// Release gives back sz bytes reserved earlier.
func (mp *MPool) Release(sz int64) {
	if sz <= 0 {
		return
	}
	if mp.stats.recordFree(sz) < 0 {
		panic(moerr.NewInternalErrorNoCtx("mpool %s released more than reserved", mp.tag))
	}
}

// MakeSlice reserves and allocates a slice of n elements.
func MakeSlice[T any](ctx context.Context, mp *MPool, n int) ([]T, error) {
	var t T
	if err := mp.Reserve(ctx, int64(n)*int64(unsafe.Sizeof(t))); err != nil {
		return nil, err
	}
	return make([]T, n), nil
}

// FreeSlice releases the reservation made by MakeSlice for s.
func FreeSlice[T any](mp *MPool, s []T) {
	var t T
	mp.Release(int64(cap(s)) * int64(unsafe.Sizeof(t)))
}
