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

package types

import (
	"fmt"
)

type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int8   T = 20
	T_int16  T = 21
	T_int32  T = 22
	T_int64  T = 23
	T_uint8  T = 25
	T_uint16 T = 26
	T_uint32 T = 27
	T_uint64 T = 28

	// numeric/decimal family
	T_decimal128 T = 33

	// numeric/float family
	T_float32 T = 30
	T_float64 T = 31

	// date family
	T_date      T = 50
	T_datetime  T = 51
	T_timestamp T = 52
	T_time      T = 53

	// string family
	T_char      T = 60
	T_varchar   T = 61
	T_text      T = 62
	T_binary    T = 63
	T_varbinary T = 64
	T_blob      T = 65

	// enum
	T_enum T = 70

	// nested family
	T_array  T = 80 // fixed size list, Type.Width elements per row
	T_list   T = 81
	T_struct T = 82
)

type (
	Date      int32
	Datetime  int64
	Timestamp int64
	Time      int64
	Enum      uint16
)

// Decimal128 is the fixed 128 bit layout of a decimal value.
type Decimal128 struct {
	B0_63   uint64
	B64_127 uint64
}

// FixedSizeT is the set of go types stored in fixed width columns.
type FixedSizeT interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | Date | Datetime | Timestamp | Time | Enum | Decimal128
}

type Type struct {
	Oid T

	// Size of a fixed width element in bytes
	Size int32

	// Width is the element count of a fixed size list
	Width int32
}

func New(oid T, width int32) Type {
	return Type{Oid: oid, Size: int32(oid.TypeLen()), Width: width}
}

func (t T) ToType() Type {
	return New(t, 0)
}

func (t Type) TypeSize() int {
	return int(t.Size)
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() > 0
}

func (t Type) IsVarlen() bool {
	return t.Oid.IsString()
}

func (t Type) IsNested() bool {
	return t.Oid.IsNested()
}

func (t Type) IsFloat() bool {
	return t.Oid == T_float32 || t.Oid == T_float64
}

func (t Type) Eq(b Type) bool {
	return t.Oid == b.Oid && t.Size == b.Size && t.Width == b.Width
}

func (t Type) String() string {
	if t.Oid == T_array {
		return fmt.Sprintf("ARRAY(%d)", t.Width)
	}
	return t.Oid.String()
}

// TypeLen returns the byte size of a fixed width element, or -1.
func (t T) TypeLen() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16, T_enum:
		return 2
	case T_int32, T_uint32, T_float32, T_date:
		return 4
	case T_int64, T_uint64, T_float64, T_datetime, T_timestamp, T_time:
		return 8
	case T_decimal128:
		return 16
	}
	return -1
}

// FixedLength returns the byte size of a fixed width element, or 0 for
// variable length and nested types.
func (t T) FixedLength() int {
	if n := t.TypeLen(); n > 0 {
		return n
	}
	return 0
}

func (t T) IsString() bool {
	switch t {
	case T_char, T_varchar, T_text, T_binary, T_varbinary, T_blob:
		return true
	}
	return false
}

func (t T) IsNested() bool {
	return t == T_array || t == T_list || t == T_struct
}

func (t T) IsSignedInt() bool {
	return t == T_int8 || t == T_int16 || t == T_int32 || t == T_int64
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_decimal128:
		return "DECIMAL128"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_date:
		return "DATE"
	case T_datetime:
		return "DATETIME"
	case T_timestamp:
		return "TIMESTAMP"
	case T_time:
		return "TIME"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	case T_text:
		return "TEXT"
	case T_binary:
		return "BINARY"
	case T_varbinary:
		return "VARBINARY"
	case T_blob:
		return "BLOB"
	case T_enum:
		return "ENUM"
	case T_array:
		return "ARRAY"
	case T_list:
		return "LIST"
	case T_struct:
		return "STRUCT"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}
