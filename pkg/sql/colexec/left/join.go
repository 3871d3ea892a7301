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
package left

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

const opName = "left"

func (leftJoin *LeftJoin[K]) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": left join ")
	fmt.Fprintf(buf, "%d probe rows into %d tuples, %d unmatched",
		leftJoin.ctr.probeRows, leftJoin.ctr.tuples, leftJoin.ctr.unmatched)
}

func (leftJoin *LeftJoin[K]) Probe(proc *process.Process, parts []*joinkeys.Part[K]) ([]*colexec.JoinBuffer, error) {
	var unmatched atomic.Int64
	bufs, err := colexec.ProbeParts(proc, parts, true, func(ctx context.Context, _ int, part *joinkeys.Part[K], buf *colexec.JoinBuffer) error {
		cnt := int64(0)
		err := colexec.ProbeBatch(&part.KeyBatch, leftJoin.Maps, func(row uint32, chains [][]uint32) error {
			matched := false
			for _, sels := range chains {
				for _, sel := range sels {
					if err := buf.Append(ctx, row, sel); err != nil {
						return err
					}
					matched = true
				}
			}
			if !matched {
				cnt++
				return buf.Append(ctx, row, colexec.NullRow)
			}
			return nil
		})
		unmatched.Add(cnt)
		return err
	})
	if err != nil {
		return nil, err
	}
	leftJoin.ctr.probeRows = joinkeys.Rows(parts)
	leftJoin.ctr.unmatched = int(unmatched.Load())
	leftJoin.ctr.tuples = colexec.BufferRows(bufs)
	return bufs, nil
}
