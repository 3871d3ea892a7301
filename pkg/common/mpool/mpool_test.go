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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
)

func TestMPool(t *testing.T) {
	ctx := context.Background()
	m, err := NewMPool("test-mpool-small", 0)
	require.True(t, err == nil, "new mpool failed %v", err)

	nb0 := m.CurrNB()
	for i := 1; i <= 1000; i++ {
		a, err := MakeSlice[uint32](ctx, m, i*10)
		require.True(t, err == nil, "alloc failure, %v", err)
		require.True(t, len(a) == i*10, "allocation i size error")
		FreeSlice(m, a)
	}
	require.True(t, nb0 == m.CurrNB(), "leak")
	require.Equal(t, int64(10000*4), m.Stats().HighWaterMark.Load())
	require.Equal(t, int64(1000), m.Stats().NumAlloc.Load())
	require.Equal(t, int64(1000), m.Stats().NumFree.Load())
}

func TestMPoolCap(t *testing.T) {
	ctx := context.Background()
	m, err := NewMPool("test-mpool-cap", 100)
	require.NoError(t, err)

	require.NoError(t, m.Reserve(ctx, 60))
	err = m.Reserve(ctx, 60)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	require.Equal(t, int64(60), m.CurrNB())

	_, err = MakeSlice[uint64](ctx, m, 10)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))

	m.Release(60)
	require.Equal(t, int64(0), m.CurrNB())

	_, err = NewMPool("bad", -1)
	require.Error(t, err)
}

func TestMPoolOverRelease(t *testing.T) {
	m := MustNewZero()
	require.Panics(t, func() { m.Release(1) })
}

func TestMP(t *testing.T) {
	ctx := context.Background()
	pool, err := NewMPool("default", 0)
	if err != nil {
		panic(err)
	}
	var wg sync.WaitGroup
	run := func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			buf, err := MakeSlice[byte](ctx, pool, 10)
			if err != nil {
				panic(err)
			}
			FreeSlice(pool, buf)
		}
	}
	for i := 0; i < 800; i++ {
		wg.Add(1)
		go run()
	}
	wg.Wait()
	require.Equal(t, int64(0), pool.CurrNB())
}
