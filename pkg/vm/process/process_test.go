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

package process

import (
	"context"
	"os"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/config"
)

// ants starts a default pool on init, its purge goroutine would show up
// as a leak.
func TestMain(m *testing.M) {
	ants.Release()
	os.Exit(m.Run())
}

func TestNew(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	jp := config.NewDefaultParameters()
	jp.Parallelism = 3
	jp.MemoryLimit = 1 << 20
	proc, err := New(ctx, jp)
	require.NoError(t, err)
	require.Equal(t, 3, proc.Lim.Parallelism)
	require.Equal(t, int64(1<<20), proc.Mp().Cap())
	require.Equal(t, 3, proc.Pool().Cap())
	require.Equal(t, 3, proc.Executor().Threads())

	err = proc.Executor().Execute(ctx, 10, func(ctx context.Context, thread_id int, start, end int) error {
		return nil
	})
	require.NoError(t, err)
	proc.Free()
	proc.Free()
}

func TestNewBadConfig(t *testing.T) {
	ctx := context.Background()
	jp := config.NewDefaultParameters()
	jp.MemoryLimit = -1
	_, err := New(ctx, jp)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))

	_, err = New(ctx, &config.JoinParameters{Log: jp.Log})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}
