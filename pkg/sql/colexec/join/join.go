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
package join

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

const opName = "join"

func (innerJoin *InnerJoin[K]) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": inner join ")
	fmt.Fprintf(buf, "%d probe rows into %d tuples", innerJoin.ctr.probeRows, innerJoin.ctr.tuples)
}

// Probe returns the (probe, build) pairs of parts, ordered by probe row
// and then by build row.
func (innerJoin *InnerJoin[K]) Probe(proc *process.Process, parts []*joinkeys.Part[K]) ([]*colexec.JoinBuffer, error) {
	bufs, err := colexec.ProbeParts(proc, parts, true, func(ctx context.Context, _ int, part *joinkeys.Part[K], buf *colexec.JoinBuffer) error {
		return colexec.ProbeBatch(&part.KeyBatch, innerJoin.Maps, func(row uint32, chains [][]uint32) error {
			for _, sels := range chains {
				for _, sel := range sels {
					if err := buf.Append(ctx, row, sel); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	innerJoin.ctr.probeRows = joinkeys.Rows(parts)
	innerJoin.ctr.tuples = colexec.BufferRows(bufs)
	return bufs, nil
}
