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

package vector

import (
	"fmt"
	"unsafe"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/container/nulls"
	"github.com/matrixorigin/mojoin/pkg/container/types"
)

// Vector represent a column
type Vector struct {
	// type represent the type of column
	typ types.Type
	nsp *nulls.Nulls // nulls list

	// data of fixed length element
	data []byte

	// area for holding varlen values, offsets[i]:offsets[i+1] is the i-th value.
	// For a list vector offsets index the rows of children[0] instead.
	area    []byte
	offsets []uint32

	// element vector of array and list, field vectors of struct
	children []*Vector

	length int
}

func NewVec(typ types.Type) *Vector {
	v := &Vector{
		typ: typ,
		nsp: &nulls.Nulls{},
	}
	if typ.IsVarlen() || typ.Oid == types.T_list {
		v.offsets = []uint32{0}
	}
	return v
}

// NewFixedVec wraps vals as a vector of typ without copying, nsp may be nil.
func NewFixedVec[T types.FixedSizeT](typ types.Type, vals []T, nsp *nulls.Nulls) *Vector {
	v := NewVec(typ)
	if nsp != nil {
		v.nsp = nsp
	}
	if len(vals) > 0 {
		v.data = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*int(unsafe.Sizeof(vals[0])))
	}
	v.length = len(vals)
	return v
}

// NewArrayVec wraps an element vector holding width values per row.
func NewArrayVec(width int, elem *Vector) *Vector {
	v := NewVec(types.New(types.T_array, int32(width)))
	v.children = []*Vector{elem}
	if width > 0 {
		v.length = elem.Length() / width
	}
	return v
}

// NewListVec wraps an element vector, row i spans elem rows offsets[i]:offsets[i+1].
func NewListVec(elem *Vector, offsets []uint32) *Vector {
	v := NewVec(types.T_list.ToType())
	v.children = []*Vector{elem}
	v.offsets = offsets
	v.length = len(offsets) - 1
	return v
}

// NewStructVec wraps field vectors of equal length.
func NewStructVec(fields ...*Vector) *Vector {
	v := NewVec(types.T_struct.ToType())
	v.children = fields
	if len(fields) > 0 {
		v.length = fields[0].Length()
	}
	return v
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) HasNull() bool {
	return nulls.Any(v.nsp)
}

func (v *Vector) NullCount() int {
	return nulls.Length(v.nsp)
}

func (v *Vector) IsNull(i uint64) bool {
	return nulls.Contains(v.nsp, i)
}

func (v *Vector) GetChildren() []*Vector {
	return v.children
}

// ChildRange returns the element rows [start, end) of row i of an array or list vector.
func (v *Vector) ChildRange(i int) (int, int) {
	if v.typ.Oid == types.T_array {
		w := int(v.typ.Width)
		return i * w, (i + 1) * w
	}
	return int(v.offsets[i]), int(v.offsets[i+1])
}

// Size is the approximate memory footprint used in accounting.
func (v *Vector) Size() int {
	sz := len(v.data) + len(v.area) + 4*len(v.offsets) + nulls.Size(v.nsp)
	for _, c := range v.children {
		sz += c.Size()
	}
	return sz
}

// MustFixedCol returns the fixed width values of v, it panics on a varlen vector.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	if v.typ.IsVarlen() || v.typ.IsNested() {
		panic(moerr.NewInternalErrorNoCtx("fixed column of %s vector", v.typ))
	}
	if v.length == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&v.data[0])), v.length)
}

// GetBytesAt returns the value of row i of a varlen vector without copying.
func (v *Vector) GetBytesAt(i int) []byte {
	return v.area[v.offsets[i]:v.offsets[i+1]]
}

func (v *Vector) GetStringAt(i int) string {
	return string(v.GetBytesAt(i))
}

// UnsafeGetStringAt returns the value of row i as a string sharing the
// vector memory, it must not outlive v.
func (v *Vector) UnsafeGetStringAt(i int) string {
	b := v.GetBytesAt(i)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Window returns rows [start, end) of v. The values are shared with v,
// only the nulls of the window are copied.
func (v *Vector) Window(start, end int) *Vector {
	w := &Vector{
		typ:    v.typ,
		nsp:    &nulls.Nulls{},
		length: end - start,
	}
	if v.HasNull() {
		nulls.Range(v.nsp, uint64(start), uint64(end), uint64(start), w.nsp)
	}
	switch {
	case v.typ.IsVarlen():
		w.area = v.area
		w.offsets = v.offsets[start : end+1]
	case v.typ.Oid == types.T_list:
		w.children = v.children
		w.offsets = v.offsets[start : end+1]
	case v.typ.Oid == types.T_array:
		width := int(v.typ.Width)
		w.children = []*Vector{v.children[0].Window(start*width, end*width)}
	case v.typ.Oid == types.T_struct:
		w.children = make([]*Vector, len(v.children))
		for i, c := range v.children {
			w.children[i] = c.Window(start, end)
		}
	default:
		sz := v.typ.TypeSize()
		w.data = v.data[start*sz : end*sz]
	}
	return w
}

// Append appends one fixed width value.
func Append[T types.FixedSizeT](v *Vector, val T, isNull bool) {
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
	}
	sz := int(unsafe.Sizeof(val))
	if sz != v.typ.TypeSize() {
		panic(moerr.NewInternalErrorNoCtx("append %d bytes to %s vector", sz, v.typ))
	}
	v.data = append(v.data, unsafe.Slice((*byte)(unsafe.Pointer(&val)), sz)...)
	v.length++
}

// AppendBytes appends one varlen value, a null row stores an empty value.
func AppendBytes(v *Vector, val []byte, isNull bool) {
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
	} else {
		v.area = append(v.area, val...)
	}
	v.offsets = append(v.offsets, uint32(len(v.area)))
	v.length++
}

// AppendList appends fixed width values, isNulls may be nil.
func AppendList[T types.FixedSizeT](v *Vector, ws []T, isNulls []bool) {
	for i, w := range ws {
		Append(v, w, isNulls != nil && isNulls[i])
	}
}

func AppendBytesList(v *Vector, ws [][]byte, isNulls []bool) {
	for i, w := range ws {
		AppendBytes(v, w, isNulls != nil && isNulls[i])
	}
}

func AppendStringList(v *Vector, ws []string, isNulls []bool) {
	for i, w := range ws {
		AppendBytes(v, []byte(w), isNulls != nil && isNulls[i])
	}
}

func (v *Vector) String() string {
	switch v.typ.Oid {
	case types.T_bool:
		return vecToString[bool](v)
	case types.T_int8:
		return vecToString[int8](v)
	case types.T_int16:
		return vecToString[int16](v)
	case types.T_int32:
		return vecToString[int32](v)
	case types.T_int64:
		return vecToString[int64](v)
	case types.T_uint8:
		return vecToString[uint8](v)
	case types.T_uint16:
		return vecToString[uint16](v)
	case types.T_uint32:
		return vecToString[uint32](v)
	case types.T_uint64:
		return vecToString[uint64](v)
	case types.T_float32:
		return vecToString[float32](v)
	case types.T_float64:
		return vecToString[float64](v)
	case types.T_date:
		return vecToString[types.Date](v)
	case types.T_datetime:
		return vecToString[types.Datetime](v)
	case types.T_time:
		return vecToString[types.Time](v)
	case types.T_timestamp:
		return vecToString[types.Timestamp](v)
	case types.T_enum:
		return vecToString[types.Enum](v)
	case types.T_decimal128:
		return vecToString[types.Decimal128](v)
	}
	if v.typ.IsVarlen() {
		col := make([]string, v.length)
		for i := range col {
			col[i] = v.GetStringAt(i)
		}
		return fmt.Sprintf("%v-%s", col, nulls.String(v.nsp))
	}
	return fmt.Sprintf("%s(%d rows)-%s", v.typ, v.length, nulls.String(v.nsp))
}

func vecToString[T types.FixedSizeT](v *Vector) string {
	col := MustFixedCol[T](v)
	return fmt.Sprintf("%v-%s", col, nulls.String(v.nsp))
}
