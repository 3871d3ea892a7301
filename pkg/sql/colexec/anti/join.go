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
	"context"
	"fmt"

	"github.com/matrixorigin/mojoin/pkg/sql/colexec"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

const opName = "anti"

func (antiJoin *AntiJoin[K]) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": anti join ")
	fmt.Fprintf(buf, "%d of %d probe rows", antiJoin.ctr.rows, antiJoin.ctr.probeRows)
}

// Probe returns the probe rows without a match. A null key only finds a
// match when nulls are equal, so it is kept otherwise.
func (antiJoin *AntiJoin[K]) Probe(proc *process.Process, parts []*joinkeys.Part[K]) ([]*colexec.JoinBuffer, error) {
	bufs, err := colexec.ProbeParts(proc, parts, false, func(ctx context.Context, _ int, part *joinkeys.Part[K], buf *colexec.JoinBuffer) error {
		return colexec.ProbeBatch(&part.KeyBatch, antiJoin.Maps, func(row uint32, chains [][]uint32) error {
			for _, sels := range chains {
				if len(sels) > 0 {
					return nil
				}
			}
			return buf.AppendRow(ctx, row)
		})
	})
	if err != nil {
		return nil, err
	}
	antiJoin.ctr.probeRows = joinkeys.Rows(parts)
	antiJoin.ctr.rows = colexec.BufferRows(bufs)
	return bufs, nil
}
