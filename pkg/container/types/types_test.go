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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeSize(t *testing.T) {
	tests := []struct {
		oid  T
		size int
	}{
		{T_bool, 1},
		{T_int16, 2},
		{T_enum, 2},
		{T_date, 4},
		{T_float32, 4},
		{T_timestamp, 8},
		{T_decimal128, 16},
		{T_varchar, -1},
		{T_struct, -1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.size, tt.oid.ToType().TypeSize(), tt.oid.String())
	}
}

func TestFamilies(t *testing.T) {
	require.True(t, T_blob.ToType().IsVarlen())
	require.False(t, T_blob.ToType().IsFixedLen())
	require.True(t, T_list.ToType().IsNested())
	require.True(t, T_float64.ToType().IsFloat())
	require.True(t, T_int8.IsSignedInt())
	require.False(t, T_uint8.IsSignedInt())
	require.Equal(t, "ARRAY(3)", New(T_array, 3).String())
	require.True(t, New(T_array, 3).Eq(New(T_array, 3)))
	require.False(t, New(T_array, 3).Eq(New(T_array, 4)))
}

func TestCanonicalFloatBits(t *testing.T) {
	nan1 := math.Float64frombits(0x7ff8000000000001)
	require.Equal(t, CanonicalFloat64Bits(math.NaN()), CanonicalFloat64Bits(nan1))
	require.Equal(t, CanonicalFloat64Bits(0), CanonicalFloat64Bits(math.Copysign(0, -1)))
	require.NotEqual(t, CanonicalFloat64Bits(1), CanonicalFloat64Bits(-1))

	nan32 := math.Float32frombits(0xffc00001)
	require.Equal(t, CanonicalNaN32, CanonicalFloat32Bits(nan32))
	require.Equal(t, uint32(0), CanonicalFloat32Bits(float32(math.Copysign(0, -1))))
	require.Equal(t, math.Float32bits(2.5), CanonicalFloat32Bits(2.5))
}
