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
package anti

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/hashbuild"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/testutil"
)

func TestString(t *testing.T) {
	buf := new(bytes.Buffer)
	(&AntiJoin[uint64]{}).String(buf)
	require.Equal(t, "anti: anti join 0 of 0 probe rows", buf.String())
}

func TestProbe(t *testing.T) {
	for _, nullsEqual := range []bool{false, true} {
		proc := testutil.NewProcessWithParams(2, 1)
		build := &hashbuild.Argument[uint64]{NullsEqual: nullsEqual}
		buildParts := testutil.NewParts[uint64](proc, joinkeys.KindU64,
			testutil.NewInt64Chunked([]int64{2, 4, 0}, []bool{false, false, true}))
		require.NoError(t, build.Build(proc, buildParts))
		joinkeys.FreeParts(proc.Mp(), buildParts)

		probeParts := testutil.NewParts[uint64](proc, joinkeys.KindU64,
			testutil.NewInt64Chunked([]int64{1, 2, 2, 3, 0}, []bool{false, false, false, false, true}))
		arg := &AntiJoin[uint64]{Maps: build.JoinMaps()}
		bufs, err := arg.Probe(proc, probeParts)
		require.NoError(t, err)
		rows, _ := testutil.Flatten(bufs)
		if nullsEqual {
			require.Equal(t, []int64{0, 3}, rows)
		} else {
			require.Equal(t, []int64{0, 3, 4}, rows)
		}
		require.Equal(t, len(rows), arg.ctr.rows)

		colexec.FreeJoinBuffers(bufs)
		joinkeys.FreeParts(proc.Mp(), probeParts)
		build.Free()
		require.Equal(t, int64(0), proc.Mp().CurrNB())
		proc.Free()
	}
}
