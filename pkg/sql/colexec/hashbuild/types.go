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
	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
)

// Argument builds the hash tables of one join side.
type Argument[K hashtable.Key] struct {
	NullsEqual bool

	ctr container[K]
}

type container[K hashtable.Key] struct {
	// single is set when one table holds every build row
	single bool
	rows   int
	maps   []*hashmap.JoinMap[K]
}

// JoinMaps returns the built tables in partition order, they are read
// only from now on.
func (arg *Argument[K]) JoinMaps() []*hashmap.JoinMap[K] {
	return arg.ctr.maps
}

func (arg *Argument[K]) Single() bool {
	return arg.ctr.single
}

// Size returns the bytes held by the tables.
func (arg *Argument[K]) Size() int64 {
	var sz int64
	for _, jm := range arg.ctr.maps {
		sz += jm.Size()
	}
	return sz
}

func (arg *Argument[K]) Free() {
	for _, jm := range arg.ctr.maps {
		if jm != nil {
			jm.Free()
		}
	}
	arg.ctr.maps = nil
}
