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

package logutil

import (
	"context"

	"go.uber.org/zap"
)

type joinIDKey struct{}

// WithJoinID tags ctx so that every log line written through the
// context aware helpers carries the join id.
func WithJoinID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, joinIDKey{}, id)
}

// JoinID returns the id attached by WithJoinID, or 0.
func JoinID(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(joinIDKey{}).(uint64); ok {
		return id
	}
	return 0
}

// GetContextFieldFunc returns the function that extracts the log field of a context.
func GetContextFieldFunc() func(context.Context) zap.Field {
	return func(ctx context.Context) zap.Field {
		return zap.Uint64("join", JoinID(ctx))
	}
}

// ContextFields wraps GetContextFieldFunc as a logger option.
func ContextFields() func(context.Context) zap.Option {
	return func(ctx context.Context) zap.Option {
		return zap.Fields(GetContextFieldFunc()(ctx))
	}
}

func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Debugf only use in develop mode
func Debugf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(msg, fields...)
}

// Infof only use in develop mode
func Infof(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(msg, fields...)
}

func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1), ContextFields()(ctx)).Debug(msg, fields...)
}

func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1), ContextFields()(ctx)).Info(msg, fields...)
}

func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1), ContextFields()(ctx)).Warn(msg, fields...)
}

func ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1), ContextFields()(ctx)).Error(msg, fields...)
}
