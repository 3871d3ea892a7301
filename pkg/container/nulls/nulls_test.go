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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddContains(t *testing.T) {
	nsp := &Nulls{}
	require.False(t, Any(nsp))
	require.False(t, Any(nil))
	require.False(t, Contains(nil, 1))

	Add(nsp, 1, 5, 9)
	require.True(t, Any(nsp))
	require.Equal(t, 3, Length(nsp))
	require.True(t, Contains(nsp, 5))
	require.False(t, Contains(nsp, 4))
	require.Equal(t, "[1 5 9]", String(nsp))

	Del(nsp, 5)
	require.False(t, Contains(nsp, 5))
	require.Equal(t, 2, Length(nsp))
}

func TestRange(t *testing.T) {
	nsp := Build(20, 0, 3, 7, 12, 19)
	m := Range(nsp, 3, 13, 3, &Nulls{})
	require.Equal(t, "[0 4 9]", String(m))

	empty := Range(nsp, 13, 19, 13, &Nulls{})
	require.False(t, Any(empty))

	require.Equal(t, 3, RangeCount(nsp, 0, 8))
	require.Equal(t, 2, RangeCount(nsp, 3, 12))
	require.Equal(t, 0, RangeCount(nsp, 13, 19))
	require.Equal(t, 5, RangeCount(nsp, 0, 20))
}

func TestOrAndAddRange(t *testing.T) {
	a := Build(10, 1, 2)
	b := &Nulls{}
	AddRange(b, 5, 8)
	r := &Nulls{}
	Or(a, b, r)
	require.Equal(t, "[1 2 5 6 7]", String(r))

	var rows []uint64
	Foreach(r, func(row uint64) {
		rows = append(rows, row)
	})
	require.Equal(t, []uint64{1, 2, 5, 6, 7}, rows)

	c := r.Clone()
	Del(c, 1)
	require.Equal(t, 5, Length(r))
	require.Equal(t, 4, Length(c))

	none := &Nulls{}
	Or(&Nulls{}, nil, none)
	require.Nil(t, none.Np)
}

func TestMerge(t *testing.T) {
	nsp := &Nulls{}
	Merge(nsp, nil)
	require.Nil(t, nsp.Np)
	Merge(nsp, Build(10, 3))
	Merge(nsp, Build(10, 1, 3))
	require.Equal(t, "[1 3]", String(nsp))
}
