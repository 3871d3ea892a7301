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
package outer

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
)

// OuterJoin keeps every row of both sides. Probe rows without a match get
// a null build row, build rows never matched get a null probe row.
type OuterJoin[K hashtable.Key] struct {
	Maps []*hashmap.JoinMap[K]
	// BuildRows is the row count of the build side
	BuildRows int

	ctr container
}

type container struct {
	// matched[i] marks the build rows found by probe part i
	matched   []*bitset.BitSet
	reserved  int64
	probeRows int
	unmatched int
	tuples    int
}
