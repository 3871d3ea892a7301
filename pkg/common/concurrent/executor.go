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
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
)

// Range is the half open row range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Split cuts [0, n) into at most parts contiguous ranges of n/parts rows,
// the last one takes the remainder. It never returns an empty range.
func Split(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := n / parts
	ranges := make([]Range, parts)
	for i := range ranges {
		ranges[i] = Range{Start: i * size, End: (i + 1) * size}
	}
	ranges[parts-1].End = n
	return ranges
}

// ThreadPoolExecutor runs one task per range and waits for all of them.
// Tasks go to pool when it is set, otherwise each gets its own goroutine.
type ThreadPoolExecutor struct {
	nthreads int
	pool     *ants.Pool
}

func NewThreadPoolExecutor(nthreads int, pool *ants.Pool) ThreadPoolExecutor {
	if nthreads == 0 {
		nthreads = runtime.NumCPU()
	}
	return ThreadPoolExecutor{nthreads: nthreads, pool: pool}
}

func (e ThreadPoolExecutor) Threads() int {
	return e.nthreads
}

// Execute splits nitems into ranges and calls fn for each of them. The
// first error in range order is returned, a panic in fn is returned as an
// internal error.
func (e ThreadPoolExecutor) Execute(
	ctx context.Context,
	nitems int,
	fn func(ctx context.Context, thread_id int, start, end int) error) error {
	return e.ExecuteRanges(ctx, Split(nitems, e.nthreads), fn)
}

func (e ThreadPoolExecutor) ExecuteRanges(
	ctx context.Context,
	ranges []Range,
	fn func(ctx context.Context, thread_id int, start, end int) error) error {
	if len(ranges) == 0 {
		return nil
	}
	if len(ranges) == 1 {
		return safeCall(ctx, fn, 0, ranges[0])
	}
	errs := make([]error, len(ranges))
	if e.pool == nil {
		g, gctx := errgroup.WithContext(ctx)
		for i, r := range ranges {
			thread_id, cur := i, r
			g.Go(func() error {
				errs[thread_id] = safeCall(gctx, fn, thread_id, cur)
				return errs[thread_id]
			})
		}
		_ = g.Wait()
		return firstError(errs)
	}

	var wg sync.WaitGroup
	for i, r := range ranges {
		thread_id, cur := i, r
		wg.Add(1)
		if err := e.pool.Submit(func() {
			defer wg.Done()
			errs[thread_id] = safeCall(ctx, fn, thread_id, cur)
		}); err != nil {
			wg.Done()
			errs[thread_id] = moerr.NewInternalError(ctx, "submit task: %v", err)
		}
	}
	wg.Wait()
	return firstError(errs)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func safeCall(
	ctx context.Context,
	fn func(ctx context.Context, thread_id int, start, end int) error,
	thread_id int, r Range) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = moerr.ConvertPanicError(ctx, e)
		}
	}()
	return fn(ctx, thread_id, r.Start, r.End)
}
