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

package types

import "math"

// Floats compare in a total order where every NaN is one value, equal to
// itself, and -0.0 equals +0.0. The canonical bits below are the only bit
// patterns floats are hashed and compared by.
const (
	CanonicalNaN32 uint32 = 0x7fc00000
	CanonicalNaN64 uint64 = 0x7ff8000000000000
)

func CanonicalFloat32Bits(f float32) uint32 {
	if f != f {
		return CanonicalNaN32
	}
	if f == 0 {
		return 0
	}
	return math.Float32bits(f)
}

func CanonicalFloat64Bits(f float64) uint64 {
	if f != f {
		return CanonicalNaN64
	}
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}
