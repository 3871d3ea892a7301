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

// Package rowenc encodes the rows of a set of columns into one binary
// column whose values compare equal exactly when the rows do.
//
// The layout follows the tuple layer of FoundationDB: every value starts
// with a type code, integers are big endian with the sign bit flipped,
// byte strings escape 0x00 as 0x00 0xFF and end with 0x00, and nested
// values are wrapped in nestedCode ... 0x00 where an inner null is 0x00 0xFF.
package rowenc

import (
	"context"
	"encoding/binary"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
)

const (
	nilCode        = 0x00
	bytesCode      = 0x01
	nestedCode     = 0x05
	float32Code    = 0x20
	float64Code    = 0x21
	falseCode      = 0x26
	trueCode       = 0x27
	int8Code       = 0x28
	int16Code      = 0x29
	int32Code      = 0x3a
	int64Code      = 0x3b
	uint8Code      = 0x3c
	uint16Code     = 0x3d
	uint32Code     = 0x3e
	uint64Code     = 0x40
	dateCode       = 0x41
	datetimeCode   = 0x42
	timestampCode  = 0x43
	decimal128Code = 0x45
	timeCode       = 0x47
	enumCode       = 0x50
)

// Encoder converts an ordered set of columns of equal length into one
// binary column. A row is null when any of its columns is null.
type Encoder interface {
	Encode(ctx context.Context, cols []*vector.Vector) (*vector.Vector, error)
}

// TupleEncoder is the default Encoder.
type TupleEncoder struct{}

func NewEncoder() Encoder {
	return &TupleEncoder{}
}

func (e *TupleEncoder) Encode(ctx context.Context, cols []*vector.Vector) (*vector.Vector, error) {
	if len(cols) == 0 {
		return nil, moerr.NewInvalidInput(ctx, "row encoding without columns")
	}
	n := cols[0].Length()
	for _, col := range cols[1:] {
		if col.Length() != n {
			return nil, moerr.NewInvalidInput(ctx, "row encoding columns of %d and %d rows", n, col.Length())
		}
	}

	p := newPacker()
	rvec := vector.NewVec(types.T_varbinary.ToType())
	for i := 0; i < n; i++ {
		isNull := false
		for _, col := range cols {
			if col.IsNull(uint64(i)) {
				isNull = true
				break
			}
		}
		if isNull {
			vector.AppendBytes(rvec, nil, true)
			continue
		}
		p.reset()
		for _, col := range cols {
			if err := p.encodeValue(ctx, col, i); err != nil {
				return nil, err
			}
		}
		vector.AppendBytes(rvec, p.buf, false)
	}
	return rvec, nil
}

type packer struct {
	buf []byte
}

func newPacker() *packer {
	return &packer{buf: make([]byte, 0, 64)}
}

func (p *packer) reset() {
	p.buf = p.buf[:0]
}

func (p *packer) putByte(b byte) {
	p.buf = append(p.buf, b)
}

func (p *packer) putUint(code byte, v uint64, size int) {
	p.putByte(code)
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], v)
	p.buf = append(p.buf, scratch[8-size:]...)
}

// putInt flips the sign bit so that the bytes sort like the integers.
func (p *packer) putInt(code byte, v int64, size int) {
	u := uint64(v) ^ (uint64(1) << (uint(size)*8 - 1))
	if size < 8 {
		u &= uint64(1)<<(uint(size)*8) - 1
	}
	p.putUint(code, u, size)
}

// putFloat encodes the canonical bits, flipping all bits of negative
// numbers and only the sign bit of positive ones.
func (p *packer) putFloat(code byte, bits uint64, size int) {
	sign := uint64(1) << (uint(size)*8 - 1)
	if bits&sign != 0 {
		bits = ^bits
		if size < 8 {
			bits &= uint64(1)<<(uint(size)*8) - 1
		}
	} else {
		bits ^= sign
	}
	p.putUint(code, bits, size)
}

func (p *packer) putBytes(b []byte) {
	p.putByte(bytesCode)
	for _, c := range b {
		p.putByte(c)
		if c == 0x00 {
			p.putByte(0xFF)
		}
	}
	p.putByte(0x00)
}

func (p *packer) encodeValue(ctx context.Context, v *vector.Vector, row int) error {
	switch v.GetType().Oid {
	case types.T_bool:
		if vector.MustFixedCol[bool](v)[row] {
			p.putByte(trueCode)
		} else {
			p.putByte(falseCode)
		}
	case types.T_int8:
		p.putInt(int8Code, int64(vector.MustFixedCol[int8](v)[row]), 1)
	case types.T_int16:
		p.putInt(int16Code, int64(vector.MustFixedCol[int16](v)[row]), 2)
	case types.T_int32:
		p.putInt(int32Code, int64(vector.MustFixedCol[int32](v)[row]), 4)
	case types.T_int64:
		p.putInt(int64Code, vector.MustFixedCol[int64](v)[row], 8)
	case types.T_uint8:
		p.putUint(uint8Code, uint64(vector.MustFixedCol[uint8](v)[row]), 1)
	case types.T_uint16:
		p.putUint(uint16Code, uint64(vector.MustFixedCol[uint16](v)[row]), 2)
	case types.T_uint32:
		p.putUint(uint32Code, uint64(vector.MustFixedCol[uint32](v)[row]), 4)
	case types.T_uint64:
		p.putUint(uint64Code, vector.MustFixedCol[uint64](v)[row], 8)
	case types.T_float32:
		p.putFloat(float32Code, uint64(types.CanonicalFloat32Bits(vector.MustFixedCol[float32](v)[row])), 4)
	case types.T_float64:
		p.putFloat(float64Code, types.CanonicalFloat64Bits(vector.MustFixedCol[float64](v)[row]), 8)
	case types.T_date:
		p.putInt(dateCode, int64(vector.MustFixedCol[types.Date](v)[row]), 4)
	case types.T_datetime:
		p.putInt(datetimeCode, int64(vector.MustFixedCol[types.Datetime](v)[row]), 8)
	case types.T_timestamp:
		p.putInt(timestampCode, int64(vector.MustFixedCol[types.Timestamp](v)[row]), 8)
	case types.T_time:
		p.putInt(timeCode, int64(vector.MustFixedCol[types.Time](v)[row]), 8)
	case types.T_enum:
		p.putUint(enumCode, uint64(vector.MustFixedCol[types.Enum](v)[row]), 2)
	case types.T_decimal128:
		d := vector.MustFixedCol[types.Decimal128](v)[row]
		p.putInt(decimal128Code, int64(d.B64_127), 8)
		p.buf = binary.BigEndian.AppendUint64(p.buf, d.B0_63)
	case types.T_char, types.T_varchar, types.T_text, types.T_binary, types.T_varbinary, types.T_blob:
		p.putBytes(v.GetBytesAt(row))
	case types.T_array, types.T_list:
		start, end := v.ChildRange(row)
		elem := v.GetChildren()[0]
		p.putByte(nestedCode)
		for i := start; i < end; i++ {
			if err := p.encodeNested(ctx, elem, i); err != nil {
				return err
			}
		}
		p.putByte(0x00)
	case types.T_struct:
		p.putByte(nestedCode)
		for _, field := range v.GetChildren() {
			if err := p.encodeNested(ctx, field, row); err != nil {
				return err
			}
		}
		p.putByte(0x00)
	default:
		return moerr.NewNotSupported(ctx, "row encoding of %s", v.GetType())
	}
	return nil
}

func (p *packer) encodeNested(ctx context.Context, v *vector.Vector, row int) error {
	if v.IsNull(uint64(row)) {
		p.putByte(nilCode)
		p.putByte(0xFF)
		return nil
	}
	return p.encodeValue(ctx, v, row)
}
