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
	"math"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/nulls"
	"github.com/matrixorigin/mojoin/pkg/container/rowenc/mock_rowenc"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
)

type resolveTestCase struct {
	left, right types.Type
	kind        Kind
	ok          bool
}

var resolveTestCases []resolveTestCase

func init() {
	resolveTestCases = []resolveTestCase{
		{types.T_int8.ToType(), types.T_uint32.ToType(), KindU32, true},
		{types.T_bool.ToType(), types.T_date.ToType(), KindU32, true},
		{types.T_int64.ToType(), types.T_timestamp.ToType(), KindU64, true},
		{types.T_float64.ToType(), types.T_float64.ToType(), KindU64, true},
		{types.T_decimal128.ToType(), types.T_decimal128.ToType(), KindU128, true},
		{types.T_varchar.ToType(), types.T_blob.ToType(), KindBytes, true},
		{types.New(types.T_array, 2), types.New(types.T_array, 2), KindRowEncoded, true},
		{types.T_list.ToType(), types.T_list.ToType(), KindRowEncoded, true},
		{types.New(types.T_array, 2), types.T_list.ToType(), KindUnknown, false},
		{types.New(types.T_array, 2), types.New(types.T_array, 3), KindUnknown, false},
		{types.T_list.ToType(), types.T_struct.ToType(), KindUnknown, false},
		{types.T_int32.ToType(), types.T_int64.ToType(), KindUnknown, false},
		{types.T_float32.ToType(), types.T_int32.ToType(), KindUnknown, false},
		{types.T_float64.ToType(), types.T_uint64.ToType(), KindUnknown, false},
		{types.T_varchar.ToType(), types.T_int32.ToType(), KindUnknown, false},
		{types.T_struct.ToType(), types.T_varchar.ToType(), KindUnknown, false},
		{types.T_any.ToType(), types.T_any.ToType(), KindUnknown, false},
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	for _, tc := range resolveTestCases {
		kind, err := Resolve(ctx, tc.left, tc.right)
		if tc.ok {
			require.NoError(t, err, "%s %s", tc.left, tc.right)
		} else {
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnsupportedJoinType), "%s %s", tc.left, tc.right)
		}
		require.Equal(t, tc.kind, kind)
	}
	_, err := Resolve(ctx, types.T_int32.ToType(), types.T_int64.ToType())
	require.Contains(t, err.Error(), "INT")
	require.Contains(t, err.Error(), "BIGINT")
}

func TestNormalizeChunked(t *testing.T) {
	ctx := context.Background()
	mp := mpool.MustNewZero()

	c0 := vector.NewVec(types.T_int16.ToType())
	vector.AppendList(c0, []int16{-1, 2, 3}, []bool{false, true, false})
	c1 := vector.NewVec(types.T_int16.ToType())
	vector.AppendList(c1, []int16{4, -5}, []bool{true, false})
	col := vector.MustChunked(c0, c1)
	m, err := vector.NewChunkMapping(ctx, mp, col)
	require.NoError(t, err)

	n := NewNormalizer(KindU32)
	var keys []uint32
	var nulled []uint64
	for _, r := range concurrent.Split(col.Length(), 2) {
		p, err := Normalize[uint32](ctx, mp, n, col, m, r)
		require.NoError(t, err)
		require.Equal(t, r, p.Range())
		keys = append(keys, p.Keys...)
		for i := range p.Keys {
			if p.IsNull(i) {
				nulled = append(nulled, uint64(r.Start+i))
			}
		}
		p.Free(mp)
	}
	require.Equal(t, uint32(0xffffffff), keys[0])
	require.Equal(t, uint32(3), keys[2])
	require.Equal(t, uint32(0xfffffffb), keys[4])
	require.Equal(t, []uint64{1, 3}, nulled)

	m.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestNormalizeFloatAndBytes(t *testing.T) {
	ctx := context.Background()
	mp := mpool.MustNewZero()

	f := vector.NewVec(types.T_float64.ToType())
	vector.AppendList(f, []float64{math.NaN(), math.Float64frombits(0x7ff8000000000001), math.Copysign(0, -1), 0}, nil)
	p, err := Normalize[uint64](ctx, mp, NewNormalizer(KindU64), vector.MustChunked(f), nil, concurrent.Range{Start: 0, End: 4})
	require.NoError(t, err)
	require.Equal(t, p.Keys[0], p.Keys[1])
	require.Equal(t, p.Keys[2], p.Keys[3])
	require.Nil(t, p.Nulls)
	p.Free(mp)

	s := vector.NewVec(types.T_varchar.ToType())
	vector.AppendStringList(s, []string{"a", "", "bc"}, []bool{false, false, true})
	ps, err := Normalize[string](ctx, mp, NewNormalizer(KindBytes), vector.MustChunked(s), nil, concurrent.Range{Start: 1, End: 3})
	require.NoError(t, err)
	require.Equal(t, uint32(1), ps.Start)
	require.Equal(t, []string{"", ""}, ps.Keys)
	require.False(t, ps.IsNull(0))
	require.True(t, ps.IsNull(1))
	ps.Free(mp)

	require.Equal(t, int64(0), mp.CurrNB())
}

func TestNormalizeFastPath(t *testing.T) {
	ctx := context.Background()
	mp := mpool.MustNewZero()

	v := vector.NewVec(types.T_int64.ToType())
	vector.AppendList(v, []int64{7, -7, 9}, nil)
	n := NewNormalizer(KindU64)
	n.FastPath = true
	p, err := Normalize[uint64](ctx, mp, n, vector.MustChunked(v), nil, concurrent.Range{Start: 1, End: 3})
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(math.MaxUint64 - 6), 9}, p.Keys)
	// the keys view the column
	require.Equal(t, int64(0), mp.CurrNB())
	vector.MustFixedCol[int64](v)[2] = 10
	require.Equal(t, uint64(10), p.Keys[1])
	p.Free(mp)

	// narrow types are still converted
	w := vector.NewVec(types.T_int8.ToType())
	vector.AppendList(w, []int8{-2}, nil)
	n32 := NewNormalizer(KindU32)
	n32.FastPath = true
	p32, err := Normalize[uint32](ctx, mp, n32, vector.MustChunked(w), nil, concurrent.Range{Start: 0, End: 1})
	require.NoError(t, err)
	require.Equal(t, []uint32{0xfffffffe}, p32.Keys)
	p32.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestPrepareRowEncoded(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	elem := vector.NewVec(types.T_int32.ToType())
	vector.AppendList(elem, []int32{1, 2, 1, 2}, nil)
	arr := vector.NewArrayVec(2, elem)
	col := vector.MustChunked(arr)

	encoded := vector.NewVec(types.T_varbinary.ToType())
	vector.AppendBytesList(encoded, [][]byte{[]byte("k"), []byte("k")}, nil)
	enc := mock_rowenc.NewMockEncoder(ctrl)
	enc.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(encoded, nil)

	n := NewNormalizer(KindRowEncoded)
	n.Encoder = enc
	prepared, err := n.Prepare(ctx, col)
	require.NoError(t, err)
	require.Equal(t, types.T_varbinary, prepared.GetType().Oid)

	p, err := Normalize[string](ctx, mpool.MustNewZero(), n, prepared, nil, concurrent.Range{Start: 0, End: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"k", "k"}, p.Keys)

	short := vector.NewVec(types.T_varbinary.ToType())
	enc.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(short, nil)
	_, err = n.Prepare(ctx, col)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))

	enc.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(nil, moerr.NewNotSupported(ctx, "row encoding"))
	_, err = n.Prepare(ctx, col)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestNormalizeOOM(t *testing.T) {
	ctx := context.Background()
	mp, err := mpool.NewMPool("normalize-oom", 16)
	require.NoError(t, err)
	v := vector.NewVec(types.T_int16.ToType())
	vector.AppendList(v, make([]int16, 100), nil)
	v.SetNulls(nulls.Build(100, 3))
	_, err = Normalize[uint32](ctx, mp, NewNormalizer(KindU32), vector.MustChunked(v), nil, concurrent.Range{Start: 0, End: 100})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
}
