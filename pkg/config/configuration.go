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

package config

import (
	"context"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/mojoin/pkg/common/moerr"
	"github.com/matrixorigin/mojoin/pkg/logutil"
)

const (
	// DefaultSingleTableThreshold is the build side row count below which
	// a single global hash table is built instead of one per partition.
	DefaultSingleTableThreshold = 1 << 16

	// DefaultDistinctEstimateRows is the partition row count from which the
	// distinct key count is estimated to pre-size the hash table.
	DefaultDistinctEstimateRows = 1 << 18
)

// JoinParameters of the hash join engine
type JoinParameters struct {
	//parallelism is the size of the worker pool. default: number of logical cores
	Parallelism int `toml:"parallelism"`

	//build sides smaller than this are built into one hash table
	SingleTableThreshold int `toml:"singleTableThreshold"`

	//memory limit in bytes for hash tables and output buffers. 0 means unlimited
	MemoryLimit int64 `toml:"memoryLimit"`

	//partitions with at least this many rows get a distinct count estimate
	DistinctEstimateRows int `toml:"distinctEstimateRows"`

	//log configuration
	Log logutil.LogConfig `toml:"log"`
}

// SetDefaultValues fills the zero fields with the default values.
func (jp *JoinParameters) SetDefaultValues() {
	if jp.Parallelism == 0 {
		jp.Parallelism = runtime.NumCPU()
	}
	if jp.SingleTableThreshold == 0 {
		jp.SingleTableThreshold = DefaultSingleTableThreshold
	}
	if jp.DistinctEstimateRows == 0 {
		jp.DistinctEstimateRows = DefaultDistinctEstimateRows
	}
	if jp.Log.Level == "" {
		jp.Log.Level = "info"
	}
	if jp.Log.Format == "" {
		jp.Log.Format = "console"
	}
}

// Validate checks the parameters after the defaults are set.
func (jp *JoinParameters) Validate(ctx context.Context) error {
	if jp.Parallelism < 0 {
		return moerr.NewBadConfig(ctx, "parallelism must be positive, got %d", jp.Parallelism)
	}
	if jp.SingleTableThreshold < 0 {
		return moerr.NewBadConfig(ctx, "singleTableThreshold must not be negative, got %d", jp.SingleTableThreshold)
	}
	if jp.MemoryLimit < 0 {
		return moerr.NewBadConfig(ctx, "memoryLimit must not be negative, got %d", jp.MemoryLimit)
	}
	if jp.DistinctEstimateRows < 0 {
		return moerr.NewBadConfig(ctx, "distinctEstimateRows must not be negative, got %d", jp.DistinctEstimateRows)
	}
	switch jp.Log.Format {
	case "console", "json":
	default:
		return moerr.NewBadConfig(ctx, "unsupported log format %s", jp.Log.Format)
	}
	return nil
}

// NewDefaultParameters returns parameters with every default set.
func NewDefaultParameters() *JoinParameters {
	jp := &JoinParameters{}
	jp.SetDefaultValues()
	return jp
}

// LoadFromFile decodes a toml file, sets the defaults and validates the result.
func LoadFromFile(ctx context.Context, path string) (*JoinParameters, error) {
	jp := &JoinParameters{}
	if _, err := toml.DecodeFile(path, jp); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode %s: %v", path, err)
	}
	jp.SetDefaultValues()
	if err := jp.Validate(ctx); err != nil {
		return nil, err
	}
	return jp, nil
}
