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

// Package nulls wrap up functions for the manipulation of bitmap library roaring.
// mojoin uses nulls to store all NULL values in a column.
// You can think of Nulls as a bitmap.
package nulls

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

type Nulls struct {
	Np *roaring.Bitmap
}

func NewWithSize(_ int) *Nulls {
	return &Nulls{
		Np: roaring.New(),
	}
}

func Build(size int, rows ...uint64) *Nulls {
	nsp := NewWithSize(size)
	Add(nsp, rows...)
	return nsp
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil {
		return nil
	}
	if nsp.Np == nil {
		return &Nulls{Np: nil}
	}
	return &Nulls{
		Np: nsp.Np.Clone(),
	}
}

// Or performs union operation on Nulls nsp,m and store the result in r
func Or(nsp, m, r *Nulls) {
	if !Any(nsp) && !Any(m) {
		r.Np = nil
		return
	}

	r.Np = roaring.New()
	if Any(nsp) {
		r.Np.Or(nsp.Np)
	}
	if Any(m) {
		r.Np.Or(m.Np)
	}
}

// Merge adds the rows of m to nsp.
func Merge(nsp, m *Nulls) {
	if !Any(m) {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	nsp.Np.Or(m.Np)
}

// Any returns true if any bit in the Nulls is set, otherwise it will return false.
func Any(nsp *Nulls) bool {
	if nsp == nil || nsp.Np == nil {
		return false
	}
	return !nsp.Np.IsEmpty()
}

// Length returns the number of integers contained in the Nulls
func Length(nsp *Nulls) int {
	if nsp == nil || nsp.Np == nil {
		return 0
	}
	return int(nsp.Np.GetCardinality())
}

// Size estimates the memory usage of the Nulls.
func Size(nsp *Nulls) int {
	if nsp == nil || nsp.Np == nil {
		return 0
	}
	return int(nsp.Np.GetSizeInBytes())
}

func String(nsp *Nulls) string {
	if nsp == nil || nsp.Np == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", nsp.Np.ToArray())
}

// Contains returns true if the integer is contained in the Nulls
func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(uint32(row))
}

func Add(nsp *Nulls, rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	for _, row := range rows {
		nsp.Np.Add(uint32(row))
	}
}

// AddRange adds the rows [start, end).
func AddRange(nsp *Nulls, start, end uint64) {
	if start >= end {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	nsp.Np.AddRange(start, end)
}

func Del(nsp *Nulls, rows ...uint64) {
	if nsp.Np == nil {
		return
	}
	for _, row := range rows {
		nsp.Np.Remove(uint32(row))
	}
}

// RangeCount returns the number of nulls in [start, end).
func RangeCount(nsp *Nulls, start, end uint64) int {
	if !Any(nsp) || start >= end {
		return 0
	}
	// Rank(x) counts the values <= x
	cnt := nsp.Np.Rank(uint32(end - 1))
	if start > 0 {
		cnt -= nsp.Np.Rank(uint32(start - 1))
	}
	return int(cnt)
}

// Range adds the numbers in nsp starting at start and ending at end to m.
// `bias` represents the starting offset used for the Range Output
// Return the result
func Range(nsp *Nulls, start, end, bias uint64, m *Nulls) *Nulls {
	if !Any(nsp) || start >= end {
		return m
	}
	itr := nsp.Np.Iterator()
	itr.AdvanceIfNeeded(uint32(start))
	for itr.HasNext() {
		row := uint64(itr.Next())
		if row >= end {
			break
		}
		if m.Np == nil {
			m.Np = roaring.New()
		}
		m.Np.Add(uint32(row - bias))
	}
	return m
}

// Foreach calls fn for every null row in ascending order.
func Foreach(nsp *Nulls, fn func(row uint64)) {
	if !Any(nsp) {
		return
	}
	itr := nsp.Np.Iterator()
	for itr.HasNext() {
		fn(uint64(itr.Next()))
	}
}
