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

package moerr

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		err      *Error
		expected uint16
		message  string
	}{
		{
			name:     "oom",
			err:      NewOOM(ctx),
			expected: ErrOOM,
			message:  "resource exhausted: out of memory",
		},
		{
			name:     "index overflow",
			err:      NewIndexOverflow(ctx, 10, 4),
			expected: ErrIndexOverflow,
			message:  "index overflow: 10 rows exceed the addressable limit 4",
		},
		{
			name:     "validation",
			err:      NewJoinValidation(ctx, "one_to_one", "right", []uint32{0, 2}),
			expected: ErrJoinValidation,
			message:  "join validation failed: one_to_one contract violated: duplicate key on the right side at rows [0 2]",
		},
		{
			name:     "unsupported",
			err:      NewUnsupportedJoinType(ctx, "%s and %s", "INT", "BIGINT"),
			expected: ErrUnsupportedJoinType,
			message:  "unsupported join key types: INT and BIGINT",
		},
		{
			name:     "bad config",
			err:      NewBadConfigNoCtx("parallelism %d", -1),
			expected: ErrBadConfig,
			message:  "invalid configuration: parallelism -1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.ErrorCode())
			assert.Equal(t, tt.message, tt.err.Error())
			assert.True(t, IsMoErrCode(tt.err, tt.expected))
			assert.False(t, tt.err.Succeeded())
		})
	}
}

func TestIsMoErrCode(t *testing.T) {
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(io.EOF, ErrInternal))
	require.False(t, IsMoErrCode(NewOOMNoCtx(), ErrInternal))
}

func TestConvertGoError(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, ConvertGoError(ctx, nil))

	oom := NewOOM(ctx)
	require.Equal(t, error(oom), ConvertGoError(ctx, oom))

	require.True(t, IsMoErrCode(ConvertGoError(ctx, io.EOF), ErrUnexpectedEOF))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, context.Canceled), ErrInternal))
}

func TestConvertPanicError(t *testing.T) {
	ctx := context.Background()
	oom := NewOOM(ctx)
	require.Equal(t, oom, ConvertPanicError(ctx, oom))
	require.True(t, IsMoErrCode(ConvertPanicError(ctx, "boom"), ErrInternal))
}

func TestDisplay(t *testing.T) {
	err := NewInvalidInputNoCtx("bad key")
	require.Equal(t, "invalid input: bad key", err.Display())
	err.WithDetail("column %d", 3)
	require.Equal(t, "column 3", err.Detail())
	require.Equal(t, "invalid input: bad key: column 3", err.Display())
	require.Equal(t, ErrInternal, DowncastError(io.EOF).ErrorCode())
}
