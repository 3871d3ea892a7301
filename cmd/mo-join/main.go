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
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matrixorigin/mojoin/pkg/config"
	"github.com/matrixorigin/mojoin/pkg/container/types"
	"github.com/matrixorigin/mojoin/pkg/container/vector"
	"github.com/matrixorigin/mojoin/pkg/logutil"
	"github.com/matrixorigin/mojoin/pkg/sql/colexec/hashjoin"
	v2 "github.com/matrixorigin/mojoin/pkg/util/metric/v2"
	"github.com/matrixorigin/mojoin/pkg/vm/process"
)

var (
	configFile  = flag.String("cfg", "", "toml configuration of the join engine")
	leftRows    = flag.Int("left", 1_000_000, "rows of the left side")
	rightRows   = flag.Int("right", 200_000, "rows of the right side")
	cardinality = flag.Int("card", 100_000, "distinct keys of each side")
	nullRate    = flag.Float64("null-rate", 0.01, "fraction of null keys")
	chunkRows   = flag.Int("chunk", 65536, "rows per chunk")
	nullsEqual  = flag.Bool("nulls-equal", false, "null keys match each other")
	metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address and wait")
	seed        = flag.Int64("seed", 1, "random seed")
)

func main() {
	flag.Parse()
	if *chunkRows <= 0 || *cardinality <= 0 {
		fmt.Printf("Usage: %s -cfg configFile, -chunk and -card must be positive\n", os.Args[0])
		os.Exit(-1)
	}

	jp := config.NewDefaultParameters()
	if *configFile != "" {
		var err error
		if jp, err = config.LoadFromFile(context.Background(), *configFile); err != nil {
			fmt.Printf("load configuration failed. error:%v\n", err)
			os.Exit(-1)
		}
	}
	logutil.SetupMOLogger(&jp.Log)

	proc, err := process.New(context.Background(), jp)
	if err != nil {
		logutil.Error("create process failed", zap.Error(err))
		os.Exit(-1)
	}
	defer proc.Free()

	rnd := rand.New(rand.NewSource(*seed))
	left := randomKeys(rnd, *leftRows)
	right := randomKeys(rnd, *rightRows)
	logutil.Info("join inputs",
		zap.Int("left", left.Length()),
		zap.Int("right", right.Length()),
		zap.Int("parallelism", proc.Lim.Parallelism))

	for _, typ := range []hashjoin.JoinType{hashjoin.Inner, hashjoin.Left, hashjoin.Outer, hashjoin.Semi, hashjoin.Anti} {
		start := time.Now()
		res, err := hashjoin.Join(proc, left, right, typ, hashjoin.ManyToMany, *nullsEqual)
		if err != nil {
			logutil.Error("join failed", zap.String("type", typ.String()), zap.Error(err))
			continue
		}
		logutil.Info("join done",
			zap.String("type", typ.String()),
			zap.Int("rows", res.Len()),
			zap.Int64("peak-memory", proc.Mp().Stats().HighWaterMark.Load()),
			zap.Duration("duration", time.Since(start)))
		res.Free(proc.Mp())
	}

	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.HandlerFor(v2.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
		logutil.Info("serving metrics", zap.String("address", *metricsAddr))
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.Error("metrics server failed", zap.Error(err))
		}
	}
}

// randomKeys returns an int64 key column cut into chunks of -chunk rows.
func randomKeys(rnd *rand.Rand, n int) *vector.Chunked {
	var chunks []*vector.Vector
	for start := 0; start < n || len(chunks) == 0; start += *chunkRows {
		end := start + *chunkRows
		if end > n {
			end = n
		}
		v := vector.NewVec(types.T_int64.ToType())
		for i := start; i < end; i++ {
			vector.Append(v, int64(rnd.Intn(*cardinality)), rnd.Float64() < *nullRate)
		}
		chunks = append(chunks, v)
	}
	return vector.MustChunked(chunks...)
}
