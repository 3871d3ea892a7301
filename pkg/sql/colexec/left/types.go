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
	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
)

// LeftJoin keeps every probe row, rows without a match are paired with
// a null build row.
type LeftJoin[K hashtable.Key] struct {
	Maps []*hashmap.JoinMap[K]

	ctr container
}

type container struct {
	probeRows int
	unmatched int
	tuples    int
}
