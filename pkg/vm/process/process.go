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
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/config"
)

// New creates a process with a worker pool of jp.Parallelism goroutines
// and a memory pool limited to jp.MemoryLimit bytes.
func New(ctx context.Context, jp *config.JoinParameters) (*Process, error) {
	if err := jp.Validate(ctx); err != nil {
		return nil, err
	}
	lim := Limitation{
		Parallelism:          jp.Parallelism,
		SingleTableThreshold: jp.SingleTableThreshold,
		DistinctEstimateRows: jp.DistinctEstimateRows,
		Size:                 jp.MemoryLimit,
	}
	if lim.Parallelism == 0 {
		return nil, moerr.NewBadConfig(ctx, "parallelism is not set")
	}
	mp, err := mpool.NewMPool("join", lim.Size)
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(lim.Parallelism)
	if err != nil {
		return nil, moerr.NewInternalError(ctx, "create worker pool: %v", err)
	}
	return &Process{
		Ctx:  ctx,
		Lim:  lim,
		mp:   mp,
		pool: pool,
		exec: concurrent.NewThreadPoolExecutor(lim.Parallelism, pool),
	}, nil
}

// WithContext returns a process sharing the resources of proc that runs
// under ctx.
func (proc *Process) WithContext(ctx context.Context) *Process {
	p := *proc
	p.Ctx = ctx
	return &p
}

func (proc *Process) Mp() *mpool.MPool {
	return proc.mp
}

func (proc *Process) Pool() *ants.Pool {
	return proc.pool
}

// Executor runs partition tasks on the worker pool.
func (proc *Process) Executor() concurrent.ThreadPoolExecutor {
	return proc.exec
}

// Free releases the worker pool, the process can't be used afterwards.
func (proc *Process) Free() {
	if proc.pool != nil {
		proc.pool.Release()
		proc.pool = nil
	}
}
