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
package outer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/config"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/hashbuild"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/testutil"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

func TestString(t *testing.T) {
	buf := new(bytes.Buffer)
	(&OuterJoin[uint64]{}).String(buf)
	require.Equal(t, "outer: outer join 0 probe rows into 0 tuples, 0 build rows unmatched", buf.String())
}

func TestProbe(t *testing.T) {
	for _, parallel := range []int{1, 2, 3} {
		proc := testutil.NewProcessWithParams(parallel, 1)
		build := &hashbuild.Argument[uint64]{}
		buildKeys := []int64{2, 2, 4, 0}
		buildParts := testutil.NewParts[uint64](proc, joinkeys.KindU64,
			testutil.NewInt64Chunked(buildKeys, []bool{false, false, false, true}))
		require.NoError(t, build.Build(proc, buildParts))
		joinkeys.FreeParts(proc.Mp(), buildParts)

		probeParts := testutil.NewParts[uint64](proc, joinkeys.KindU64,
			testutil.NewInt64Chunked([]int64{1, 2, 2, 3}, nil))
		arg := &OuterJoin[uint64]{Maps: build.JoinMaps(), BuildRows: len(buildKeys)}
		bufs, err := arg.Probe(proc, probeParts)
		require.NoError(t, err)
		require.Equal(t, len(probeParts)+1, len(bufs))
		probe, got := testutil.Flatten(bufs)
		require.Equal(t, []int64{0, 1, 1, 2, 2, 3, -1, -1}, probe)
		require.Equal(t, []int64{-1, 0, 1, 0, 1, -1, 2, 3}, got)
		require.Equal(t, 2, arg.ctr.unmatched)
		require.Nil(t, arg.ctr.matched)

		colexec.FreeJoinBuffers(bufs)
		joinkeys.FreeParts(proc.Mp(), probeParts)
		build.Free()
		require.Equal(t, int64(0), proc.Mp().CurrNB())
		proc.Free()
	}
}

func TestProbeEmpty(t *testing.T) {
	proc := testutil.NewProcessWithParams(2, 1)
	defer proc.Free()
	arg := &OuterJoin[uint64]{BuildRows: 3}
	bufs, err := arg.Probe(proc, nil)
	require.NoError(t, err)
	probe, build := testutil.Flatten(bufs)
	require.Equal(t, []int64{-1, -1, -1}, probe)
	require.Equal(t, []int64{0, 1, 2}, build)
	colexec.FreeJoinBuffers(bufs)
	require.Equal(t, int64(0), proc.Mp().CurrNB())
}

func TestProbeOOM(t *testing.T) {
	jp := config.NewDefaultParameters()
	jp.Parallelism = 2
	jp.MemoryLimit = 1 << 20
	proc, err := process.New(context.Background(), jp)
	require.NoError(t, err)
	defer proc.Free()

	probeParts := testutil.NewParts[uint64](proc, joinkeys.KindU64, testutil.NewInt64Chunked([]int64{1, 2, 3, 4}, nil))
	arg := &OuterJoin[uint64]{BuildRows: 1 << 30}
	_, err = arg.Probe(proc, probeParts)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	joinkeys.FreeParts(proc.Mp(), probeParts)
	require.Equal(t, int64(0), proc.Mp().CurrNB())
}
