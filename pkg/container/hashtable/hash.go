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

package hashtable

import (
	"math/bits"
	"math/rand"
	"unsafe"

	farm "github.com/dgryski/go-farm"

	"github.com/matrixorigin/mojoin/pkg/container/types"
)

var hashkey [4]uint64

func init() {
	hashkey[0] = rand.Uint64()
	hashkey[1] = rand.Uint64()
	hashkey[2] = rand.Uint64()
	hashkey[3] = rand.Uint64()
}

const (
	m1 = 0xa0761d6478bd642f
	m2 = 0xe7037ed1a0b428db
	m3 = 0x8ebc6af09c88c6e3
	m4 = 0x589965cc75374cc3
	m5 = 0x1d8e4e27c47d124f
)

func wyhash(data unsafe.Pointer, seed, s uint64) uint64 {
	var a, b uint64
	seed ^= hashkey[0] ^ m1
	switch {
	case s == 0:
		return seed
	case s < 4:
		a = uint64(*(*byte)(data))
		a |= uint64(*(*byte)(unsafe.Add(data, s>>1))) << 8
		a |= uint64(*(*byte)(unsafe.Add(data, s-1))) << 16
	case s == 4:
		a = r4(data, 0)
		b = a
	case s < 8:
		a = r4(data, 0)
		b = r4(data, s-4)
	case s == 8:
		a = r8(data, 0)
		b = a
	case s <= 16:
		a = r8(data, 0)
		b = r8(data, s-8)
	default:
		l := s
		if l > 48 {
			seed1 := seed
			seed2 := seed
			for ; l > 48; l -= 48 {
				seed = mix(r8(data, 0)^m2, r8(data, 8)^seed)
				seed1 = mix(r8(data, 16)^m3, r8(data, 24)^seed1)
				seed2 = mix(r8(data, 32)^m4, r8(data, 40)^seed2)
				data = unsafe.Add(data, 48)
			}
			seed ^= seed1 ^ seed2
		}
		for ; l > 16; l -= 16 {
			seed = mix(r8(data, 0)^m2, r8(data, 8)^seed)
			data = unsafe.Add(data, 16)
		}
		a = r8(data, l-16)
		b = r8(data, l-8)
	}

	return mix(m5^s, mix(a^m2, b^seed))
}

func mix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

func r4(data unsafe.Pointer, p uint64) uint64 {
	return uint64(*(*uint32)(unsafe.Add(data, p)))
}

func r8(data unsafe.Pointer, p uint64) uint64 {
	return *(*uint64)(unsafe.Add(data, p))
}

func wyhash64(x uint64) uint64 {
	return mix(m5^8, mix(x^m2, x^hashkey[1]^hashkey[0]^m1))
}

func Uint32Hash(k uint32) uint64 {
	return wyhash64(uint64(k))
}

func Uint64Hash(k uint64) uint64 {
	return wyhash64(k)
}

func Decimal128Hash(k types.Decimal128) uint64 {
	return wyhash(unsafe.Pointer(&k), 0, 16)
}

// BytesHash hashes a byte key viewed as a string.
func BytesHash(k string) uint64 {
	if len(k) == 0 {
		return hashkey[2]
	}
	return farm.Hash64WithSeed(unsafe.Slice(unsafe.StringData(k), len(k)), hashkey[2])
}

// HashFunc returns the hash function of the key type K.
func HashFunc[K Key]() func(K) uint64 {
	var k K
	switch any(k).(type) {
	case uint32:
		return any(Uint32Hash).(func(K) uint64)
	case uint64:
		return any(Uint64Hash).(func(K) uint64)
	case types.Decimal128:
		return any(Decimal128Hash).(func(K) uint64)
	case string:
		return any(BytesHash).(func(K) uint64)
	}
	panic("unsupported hash key type")
}

// BatchHash hashes keys into hashes, len(hashes) >= len(keys).
func BatchHash[K Key](fn func(K) uint64, keys []K, hashes []uint64) {
	for i, k := range keys {
		hashes[i] = fn(k)
	}
}
