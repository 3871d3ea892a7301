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

package concurrent

import (
	"context"
	"os"
	"sync/atomic"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
)

// ants starts a default pool on init, its purge goroutine would show up
// as a leak.
func TestMain(m *testing.M) {
	ants.Release()
	os.Exit(m.Run())
}

func TestSplit(t *testing.T) {
	require.Nil(t, Split(0, 4))
	require.Equal(t, []Range{{0, 3}}, Split(3, 0))
	require.Equal(t, []Range{{0, 1}, {1, 2}}, Split(2, 8))
	require.Equal(t, []Range{{0, 3}, {3, 6}, {6, 10}}, Split(10, 3))

	for n := 1; n < 50; n++ {
		for parts := 1; parts < 9; parts++ {
			ranges := Split(n, parts)
			require.Equal(t, 0, ranges[0].Start)
			require.Equal(t, n, ranges[len(ranges)-1].End)
			for i := 1; i < len(ranges); i++ {
				require.Equal(t, ranges[i-1].End, ranges[i].Start)
				require.True(t, ranges[i].Len() > 0)
			}
		}
	}
}

func TestExecute(t *testing.T) {
	defer leaktest.AfterTest(t)()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	for _, p := range []*ants.Pool{nil, pool} {
		e := NewThreadPoolExecutor(4, p)
		require.Equal(t, 4, e.Threads())
		sums := make([]int64, 4)
		var total atomic.Int64
		err := e.Execute(context.Background(), 1000, func(ctx context.Context, thread_id int, start, end int) error {
			for i := start; i < end; i++ {
				sums[thread_id] += int64(i)
			}
			total.Add(int64(end - start))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(1000), total.Load())
		require.Equal(t, int64(999*1000/2), sums[0]+sums[1]+sums[2]+sums[3])
	}
}

func TestExecuteErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	defer pool.Release()
	ctx := context.Background()

	e := NewThreadPoolExecutor(3, pool)
	err = e.Execute(ctx, 9, func(ctx context.Context, thread_id int, start, end int) error {
		if thread_id > 0 {
			return moerr.NewOOM(ctx)
		}
		return nil
	})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))

	err = e.Execute(ctx, 9, func(ctx context.Context, thread_id int, start, end int) error {
		if thread_id == 2 {
			panic("boom")
		}
		return nil
	})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))

	err = NewThreadPoolExecutor(1, nil).Execute(ctx, 5, func(ctx context.Context, thread_id int, start, end int) error {
		panic("single")
	})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))

	require.NoError(t, e.Execute(ctx, 0, func(ctx context.Context, thread_id int, start, end int) error {
		return moerr.NewOOM(ctx)
	}))
}
