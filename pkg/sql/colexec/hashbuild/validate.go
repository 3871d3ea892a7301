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

package hashbuild

import (
	"context"

	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/joinkeys"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

var errDuplicate = moerr.NewInternalErrorNoCtx("duplicate key")

// CheckUnique fails with a join validation error naming contract and side
// when a key appears on more than one row of the built tables. Keys of
// different tables are compared too.
func (arg *Argument[K]) CheckUnique(ctx context.Context, contract, side string) error {
	if rows := duplicate(arg.ctr.maps); rows != nil {
		return moerr.NewJoinValidation(ctx, contract, side, rows)
	}
	return nil
}

// CheckUnique builds temporary tables over parts to check that their keys
// are unique, it is used for the side that is not built.
func CheckUnique[K hashtable.Key](proc *process.Process, parts []*joinkeys.Part[K], nullsEqual bool, contract, side string) error {
	arg := &Argument[K]{NullsEqual: nullsEqual}
	defer arg.Free()
	if err := arg.Build(proc, parts); err != nil {
		return err
	}
	return arg.CheckUnique(proc.Ctx, contract, side)
}

// duplicate returns two rows sharing a key, nil when there are none.
func duplicate[K hashtable.Key](maps []*hashmap.JoinMap[K]) []uint32 {
	var nullRows []uint32
	for _, jm := range maps {
		if rows := jm.Duplicate(); rows != nil {
			return rows
		}
		if jm.NullsEqual() {
			nullRows = append(nullRows, jm.NullSels()...)
		}
	}
	if len(nullRows) > 1 {
		return nullRows[:2]
	}

	var rows []uint32
	for p := 1; p < len(maps); p++ {
		err := maps[p].ForEachGroup(func(key K, sels []uint32) error {
			for q := 0; q < p; q++ {
				if v := maps[q].Find(key); v != 0 {
					rows = []uint32{maps[q].GetSels(v)[0], sels[0]}
					return errDuplicate
				}
			}
			return nil
		})
		if err != nil {
			return rows
		}
	}
	return nil
}
