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
package v2

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestJoinMetrics(t *testing.T) {
	before := testutil.ToFloat64(JoinCounter("inner"))
	JoinCounter("inner").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(JoinCounter("inner")))

	JoinBuildTablesGauge.Set(4)
	require.Equal(t, float64(4), testutil.ToFloat64(JoinBuildTablesGauge))

	JoinProbeDurationHistogram.Observe(0.5)
	mfs, err := GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	require.True(t, names["mo_join_total"])
	require.True(t, names["mo_join_phase_duration_seconds"])
	require.True(t, names["mo_join_build_tables"])
}
