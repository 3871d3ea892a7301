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
package hashjoin

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matrixorigin/mojoin/pkg/common/concurrent"
	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
	"github.com/matrixorigin/mojoin/pkg/logutil"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/anti"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/hashbuild"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/join"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/left"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/outer"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/semi"
	v2 "github.com/matrixorigin/mojoin/pkg/util/metric/v2"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

var joinID atomic.Uint64

type prober[K hashtable.Key] interface {
	String(buf *bytes.Buffer)
	Probe(proc *process.Process, parts []*joinkeys.Part[K]) ([]*colexec.JoinBuffer, error)
}

// joinSide is one input of a join after key preparation.
type joinSide struct {
	side Side
	// col is the caller's column, keys are read from prepared
	col      *vector.Chunked
	prepared *vector.Chunked
	mapping  *vector.ChunkMapping
	n        *joinkeys.Normalizer
}

func (s *joinSide) nonNullRows() int {
	return s.prepared.Length() - s.prepared.NullCount()
}

type joiner struct {
	proc       *process.Process
	typ        JoinType
	validation JoinValidation
	nullsEqual bool
	kind       joinkeys.Kind

	left, right joinSide
	// swapped is set when the left side is built
	swapped bool
}

// Join computes the row correspondence of left and right on equal keys.
// Inner and outer joins build the side with fewer non-null keys, the
// others always build right. The result is ordered by the rows of the
// probed side and is freed with Result.Free.
func Join(proc *process.Process, l, r *vector.Chunked, typ JoinType, validation JoinValidation, nullsEqual bool) (res *Result, err error) {
	proc = proc.WithContext(logutil.WithJoinID(proc.Ctx, joinID.Add(1)))
	v2.JoinCounter(typ.String()).Inc()
	defer func() {
		if err != nil {
			v2.JoinErrorCounter(typ.String()).Inc()
			logutil.DebugCtx(proc.Ctx, "hash join failed", zap.String("type", typ.String()), zap.Error(err))
		}
	}()

	if !typ.valid() {
		return nil, moerr.NewInvalidInput(proc.Ctx, "join type %d", typ)
	}
	if !validation.valid() {
		return nil, moerr.NewInvalidInput(proc.Ctx, "join validation %d", validation)
	}
	// rows are addressed as uint32 and NullRow is never a row
	for _, c := range []*vector.Chunked{l, r} {
		if uint64(c.Length()) > colexec.MaxIndexRows {
			return nil, moerr.NewIndexOverflow(proc.Ctx, uint64(c.Length()), colexec.MaxIndexRows)
		}
	}

	kind, err := joinkeys.Resolve(proc.Ctx, l.GetType(), r.GetType())
	if err != nil {
		return nil, err
	}
	j := &joiner{
		proc:       proc,
		typ:        typ,
		validation: validation,
		nullsEqual: nullsEqual,
		kind:       kind,
		left:       joinSide{side: LeftSide, col: l, n: joinkeys.NewNormalizer(kind)},
		right:      joinSide{side: RightSide, col: r, n: joinkeys.NewNormalizer(kind)},
	}
	start := time.Now()
	if err = j.prepare(); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			j.left.mapping.Free(proc.Mp())
			j.right.mapping.Free(proc.Mp())
		}
	}()
	v2.JoinNormalizeDurationHistogram.Observe(time.Since(start).Seconds())

	switch kind {
	case joinkeys.KindU32:
		return run[uint32](j)
	case joinkeys.KindU64:
		return run[uint64](j)
	case joinkeys.KindU128:
		return run[types.Decimal128](j)
	default:
		return run[string](j)
	}
}

// prepare encodes nested keys and builds the chunk mappings of both
// sides, then picks the build side.
func (j *joiner) prepare() error {
	g, ctx := errgroup.WithContext(j.proc.Ctx)
	for _, s := range []*joinSide{&j.left, &j.right} {
		s := s
		g.Go(func() (err error) {
			if s.prepared, err = s.n.Prepare(ctx, s.col); err != nil {
				return err
			}
			s.mapping, err = vector.NewChunkMapping(ctx, j.proc.Mp(), s.prepared)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		j.left.mapping.Free(j.proc.Mp())
		j.right.mapping.Free(j.proc.Mp())
		return err
	}

	fast := j.left.prepared.NullCount() == 0 && j.right.prepared.NullCount() == 0 &&
		j.left.prepared.ChunkCount() == 1 && j.right.prepared.ChunkCount() == 1
	j.left.n.FastPath = fast
	j.right.n.FastPath = fast

	if j.typ == Inner || j.typ == Outer {
		j.swapped = j.left.nonNullRows() < j.right.nonNullRows()
	}
	return nil
}

func (j *joiner) sides() (probe, build *joinSide) {
	if j.swapped {
		return &j.right, &j.left
	}
	return &j.left, &j.right
}

func run[K hashtable.Key](j *joiner) (*Result, error) {
	proc := j.proc
	probeSide, buildSide := j.sides()

	start := time.Now()
	buildParts, err := normalize[K](proc, buildSide)
	if err != nil {
		return nil, err
	}
	defer joinkeys.FreeParts(proc.Mp(), buildParts)
	probeParts, err := normalize[K](proc, probeSide)
	if err != nil {
		return nil, err
	}
	defer joinkeys.FreeParts(proc.Mp(), probeParts)
	normalized := time.Now()

	build := &hashbuild.Argument[K]{NullsEqual: j.nullsEqual}
	defer build.Free()
	if err = build.Build(proc, buildParts); err != nil {
		return nil, err
	}
	built := time.Now()
	v2.JoinBuildDurationHistogram.Observe(built.Sub(normalized).Seconds())
	v2.JoinBuildTablesGauge.Set(float64(len(build.JoinMaps())))

	if err = validate(j, build, buildSide.side, probeParts); err != nil {
		return nil, err
	}
	validated := time.Now()
	v2.JoinValidateDurationHistogram.Observe(validated.Sub(built).Seconds())

	op := newProber(j.typ, build.JoinMaps(), buildSide.prepared.Length())
	bufs, err := op.Probe(proc, probeParts)
	if err != nil {
		return nil, err
	}
	defer colexec.FreeJoinBuffers(bufs)
	probed := time.Now()
	v2.JoinProbeDurationHistogram.Observe(probed.Sub(validated).Seconds())

	idx, err := assemble(proc, bufs, j.typ.paired())
	if err != nil {
		return nil, err
	}
	v2.JoinAssembleDurationHistogram.Observe(time.Since(probed).Seconds())

	res := &Result{
		left:         j.left.col,
		right:        j.right.col,
		leftMapping:  j.left.mapping,
		rightMapping: j.right.mapping,
	}
	if j.swapped {
		res.leftRows, res.rightRows = idx.build, idx.probe
		res.Left = newIndexVector(idx.build, idx.buildNulls)
		res.Right = newIndexVector(idx.probe, idx.probeNulls)
	} else {
		res.leftRows, res.rightRows = idx.probe, idx.build
		res.Left = newIndexVector(idx.probe, idx.probeNulls)
		if j.typ.paired() {
			res.Right = newIndexVector(idx.build, idx.buildNulls)
		}
	}
	v2.JoinOutputRowsHistogram.Observe(float64(res.Len()))

	if logutil.GetGlobalLogger().Core().Enabled(zap.DebugLevel) {
		var buf bytes.Buffer
		build.String(&buf)
		buf.WriteString(", ")
		op.String(&buf)
		logutil.DebugCtx(proc.Ctx, "hash join",
			zap.String("type", j.typ.String()),
			zap.String("validation", j.validation.String()),
			zap.Stringer("kind", j.kind),
			zap.Bool("swapped", j.swapped),
			zap.Bool("fast-path", probeSide.n.FastPath),
			zap.String("plan", buf.String()),
			zap.Duration("normalize", normalized.Sub(start)),
			zap.Duration("duration", time.Since(start)))
	}
	return res, nil
}

// normalize cuts side into one part per worker and normalizes the parts
// on the worker pool.
func normalize[K hashtable.Key](proc *process.Process, s *joinSide) ([]*joinkeys.Part[K], error) {
	ranges := concurrent.Split(s.prepared.Length(), proc.Lim.Parallelism)
	parts := make([]*joinkeys.Part[K], len(ranges))
	err := proc.Executor().ExecuteRanges(proc.Ctx, ranges, func(ctx context.Context, i int, _, _ int) (err error) {
		parts[i], err = joinkeys.Normalize[K](ctx, proc.Mp(), s.n, s.prepared, s.mapping, ranges[i])
		return err
	})
	if err != nil {
		joinkeys.FreeParts(proc.Mp(), parts)
		return nil, err
	}
	return parts, nil
}

// validate checks the contract on both sides, the built side is checked
// on its tables and the probed side on temporary ones.
func validate[K hashtable.Key](j *joiner, build *hashbuild.Argument[K], buildSide Side, probeParts []*joinkeys.Part[K]) error {
	contract := j.validation.String()
	check := func(side Side) error {
		if side == buildSide {
			return build.CheckUnique(j.proc.Ctx, contract, side.String())
		}
		return hashbuild.CheckUnique(j.proc, probeParts, j.nullsEqual, contract, side.String())
	}
	if j.validation.leftUnique() {
		if err := check(LeftSide); err != nil {
			return err
		}
	}
	if j.validation.rightUnique() {
		return check(RightSide)
	}
	return nil
}

func newProber[K hashtable.Key](typ JoinType, maps []*hashmap.JoinMap[K], buildRows int) prober[K] {
	switch typ {
	case Left:
		return &left.LeftJoin[K]{Maps: maps}
	case Outer:
		return &outer.OuterJoin[K]{Maps: maps, BuildRows: buildRows}
	case Semi:
		return &semi.SemiJoin[K]{Maps: maps}
	case Anti:
		return &anti.AntiJoin[K]{Maps: maps}
	}
	return &join.InnerJoin[K]{Maps: maps}
}
