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

	"github.com/panjf2000/ants/v2"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
)

type Limitation struct {
	// Parallelism is the number of partitions of each side
	Parallelism int
	// SingleTableThreshold is the build row count below which one table is built
	SingleTableThreshold int
	// DistinctEstimateRows is the partition size from which tables are pre-sized
	DistinctEstimateRows int
	// Size is the memory threshold, 0 means unlimited
	Size int64
}

// Process contains the resources shared by the joins run through it.
type Process struct {
	Ctx context.Context
	Lim Limitation

	mp   *mpool.MPool
	pool *ants.Pool
	exec concurrent.ThreadPoolExecutor
}
