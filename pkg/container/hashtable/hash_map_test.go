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
	"context"
	"fmt"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/common/mpool"
	"github.com/matrixorigin/mojoin/pkg/container/types"
)

func TestHashMapUint64(t *testing.T) {
	convey.Convey("uint64 keys keep their group ids across resizes", t, func() {
		ctx := context.Background()
		mp := mpool.MustNewZero()
		ht, err := NewHashMap[uint64](ctx, mp, 0)
		convey.So(err, convey.ShouldBeNil)

		const n = 10000
		keys := make([]uint64, n)
		for i := range keys {
			// key 0 is a regular key
			keys[i] = uint64(i % (n / 2))
		}
		values := make([]uint64, n)
		hashes := make([]uint64, n)
		for i := 0; i < n; i += 256 {
			end := i + 256
			if end > n {
				end = n
			}
			hashes[i] = 0
			convey.So(ht.InsertBatch(ctx, hashes[i:end], keys[i:end], values[i:end]), convey.ShouldBeNil)
		}
		convey.So(ht.Cardinality(), convey.ShouldEqual, n/2)
		for i := 0; i < n/2; i++ {
			convey.So(values[i], convey.ShouldEqual, uint64(i+1))
			convey.So(values[i+n/2], convey.ShouldEqual, values[i])
		}

		found := make([]uint64, 3)
		ht.FindBatch(make([]uint64, 3), []uint64{0, n, 7}, found)
		convey.So(found, convey.ShouldResemble, []uint64{1, 0, 8})
		convey.So(mp.CurrNB(), convey.ShouldEqual, ht.Size())

		ht.Free()
		convey.So(mp.CurrNB(), convey.ShouldEqual, 0)
	})
}

func TestHashMapOtherKeys(t *testing.T) {
	convey.Convey("uint32, decimal128 and string keys", t, func() {
		ctx := context.Background()
		mp := mpool.MustNewZero()

		h32, err := NewHashMap[uint32](ctx, mp, 4)
		convey.So(err, convey.ShouldBeNil)
		vs := make([]uint64, 4)
		convey.So(h32.InsertBatch(ctx, make([]uint64, 4), []uint32{5, 0, 5, 1}, vs), convey.ShouldBeNil)
		convey.So(vs, convey.ShouldResemble, []uint64{1, 2, 1, 3})

		hd, err := NewHashMap[types.Decimal128](ctx, mp, 4)
		convey.So(err, convey.ShouldBeNil)
		ds := []types.Decimal128{{B0_63: 1}, {B64_127: 1}, {B0_63: 1}}
		convey.So(hd.InsertBatch(ctx, make([]uint64, 3), ds, vs[:3]), convey.ShouldBeNil)
		convey.So(vs[:3], convey.ShouldResemble, []uint64{1, 2, 1})

		hs, err := NewHashMap[string](ctx, mp, 0)
		convey.So(err, convey.ShouldBeNil)
		ss := make([]string, 1000)
		for i := range ss {
			ss[i] = fmt.Sprintf("key-%d", i%300)
		}
		ss[999] = ""
		svs := make([]uint64, len(ss))
		convey.So(hs.InsertBatch(ctx, make([]uint64, len(ss)), ss, svs), convey.ShouldBeNil)
		convey.So(hs.Cardinality(), convey.ShouldEqual, 301)
		convey.So(hs.Find(""), convey.ShouldEqual, svs[999])
		convey.So(hs.Find("key-299"), convey.ShouldEqual, svs[299])
		convey.So(hs.Find("missing"), convey.ShouldEqual, 0)

		cnt := 0
		it := hs.NewIterator()
		for {
			cell, err := it.Next()
			if err != nil {
				convey.So(moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF), convey.ShouldBeTrue)
				break
			}
			convey.So(hs.Find(cell.Key), convey.ShouldEqual, cell.Mapped)
			cnt++
		}
		convey.So(cnt, convey.ShouldEqual, 301)

		h32.Free()
		hd.Free()
		hs.Free()
		convey.So(mp.CurrNB(), convey.ShouldEqual, 0)
	})
}

func TestHashMapOOM(t *testing.T) {
	convey.Convey("growing past the pool capacity fails", t, func() {
		ctx := context.Background()
		mp, err := mpool.NewMPool("hashtable-oom", 1<<14)
		convey.So(err, convey.ShouldBeNil)
		ht, err := NewHashMap[uint64](ctx, mp, 0)
		convey.So(err, convey.ShouldBeNil)

		keys := make([]uint64, 4096)
		for i := range keys {
			keys[i] = uint64(i)
		}
		err = ht.InsertBatch(ctx, make([]uint64, len(keys)), keys, make([]uint64, len(keys)))
		convey.So(moerr.IsMoErrCode(err, moerr.ErrOOM), convey.ShouldBeTrue)
		ht.Free()
		convey.So(mp.CurrNB(), convey.ShouldEqual, 0)

		_, err = NewHashMap[uint64](ctx, mp, 1<<20)
		convey.So(moerr.IsMoErrCode(err, moerr.ErrOOM), convey.ShouldBeTrue)
	})
}
