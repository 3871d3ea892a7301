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
	"github.com/matrixorigin/mojoin/pkg/common/hashmap"
	"github.com/matrixorigin/mojoin/pkg/container/hashtable"
)

// AntiJoin emits each probe row that has no match.
type AntiJoin[K hashtable.Key] struct {
	Maps []*hashmap.JoinMap[K]

	ctr container
}

type container struct {
	probeRows int
	rows      int
}
