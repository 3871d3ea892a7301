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

package joinkeys

import (
	"context"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/container/types"
)

// Kind is the physical key representation shared by both sides of a join.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindU32 keys are 32 bit patterns
	KindU32
	// KindU64 keys are 64 bit patterns
	KindU64
	// KindU128 keys are decimal128 values
	KindU128
	// KindBytes keys are views of the value bytes
	KindBytes
	// KindRowEncoded keys are views of row encoded nested values
	KindRowEncoded
)

func (k Kind) String() string {
	switch k {
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindBytes:
		return "bytes"
	case KindRowEncoded:
		return "row-encoded"
	}
	return "unknown"
}

func bitClass(t types.T) Kind {
	switch t {
	case types.T_bool,
		types.T_int8, types.T_int16, types.T_int32,
		types.T_uint8, types.T_uint16, types.T_uint32,
		types.T_float32, types.T_date, types.T_enum:
		return KindU32
	case types.T_int64, types.T_uint64, types.T_float64,
		types.T_datetime, types.T_timestamp, types.T_time:
		return KindU64
	case types.T_decimal128:
		return KindU128
	}
	return KindUnknown
}

// Resolve picks the key representation of a join between columns of type
// left and right. It fails with an unsupported join type error when the
// two columns have no common representation.
func Resolve(ctx context.Context, left, right types.Type) (Kind, error) {
	switch {
	case left.IsNested() && right.IsNested():
		// row encoding does not tag the nested shape, a list and a struct
		// of the same values encode alike
		if left.Oid != right.Oid || left.Width != right.Width {
			return KindUnknown, moerr.NewUnsupportedJoinType(ctx, "%s and %s", left, right)
		}
		return KindRowEncoded, nil
	case left.IsVarlen() && right.IsVarlen():
		return KindBytes, nil
	case left.IsNested() || right.IsNested() || left.IsVarlen() || right.IsVarlen():
		return KindUnknown, moerr.NewUnsupportedJoinType(ctx, "%s and %s", left, right)
	}

	lk, rk := bitClass(left.Oid), bitClass(right.Oid)
	if lk == KindUnknown || rk == KindUnknown {
		return KindUnknown, moerr.NewUnsupportedJoinType(ctx, "%s and %s", left, right)
	}
	if lk != rk {
		return KindUnknown, moerr.NewUnsupportedJoinType(ctx, "%s (%s) and %s (%s) differ in bit width", left, lk, right, rk)
	}
	// a float only matches the same float type, 1.0 and 1 have different bits
	if (left.IsFloat() || right.IsFloat()) && left.Oid != right.Oid {
		return KindUnknown, moerr.NewUnsupportedJoinType(ctx, "%s and %s", left, right)
	}
	return lk, nil
}
