// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"sync"
	"sync/atomic"

	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MLogger 在 zap.Logger 之上增加按组限流的日志能力。
// 通过 With 派生的子 Logger 继承父 Logger 的限流器。
type MLogger struct {
	*zap.Logger
	limiter atomic.Pointer[utils.ReconfigurableRateLimiter]
}

// With 返回携带额外字段的子 Logger，字段在第一次真正输出时才编码。
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	nl := &MLogger{
		Logger: l.Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return newLazyCore(core, fields)
		})),
	}
	nl.limiter.Store(l.limiter.Load())
	return nl
}

// WithCombinator 返回携带组合子名称字段的子 Logger。
func (l *MLogger) WithCombinator(name string) *MLogger {
	return l.With(FieldCombinator(name))
}

// WithRateGroup 为当前 Logger 绑定名为 groupName 的限流器。
// 同名的组共享同一个限流器，后一次调用的参数覆盖前一次。
func (l *MLogger) WithRateGroup(groupName string, creditPerSecond, maxBalance float64) *MLogger {
	rl := utils.NewRateLimiter(creditPerSecond, maxBalance)
	if actual, loaded := _namedRateLimiters.LoadOrStore(groupName, rl); loaded {
		rl = actual.(*utils.ReconfigurableRateLimiter)
		rl.Update(creditPerSecond, maxBalance)
	}
	l.limiter.Store(rl)
	return l
}

func (l *MLogger) rateLimiter() RateLimiter {
	if rl := l.limiter.Load(); rl != nil {
		return rl
	}
	return R()
}

// RatedDebug 在限流允许时以 Debug 级别输出，返回本次是否输出。
func (l *MLogger) RatedDebug(cost float64, msg string, fields ...zap.Field) bool {
	return rated(l.Logger, l.rateLimiter(), zapcore.DebugLevel, cost, msg, fields)
}

// RatedInfo 在限流允许时以 Info 级别输出。
func (l *MLogger) RatedInfo(cost float64, msg string, fields ...zap.Field) bool {
	return rated(l.Logger, l.rateLimiter(), zapcore.InfoLevel, cost, msg, fields)
}

// RatedWarn 在限流允许时以 Warn 级别输出。
func (l *MLogger) RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	return rated(l.Logger, l.rateLimiter(), zapcore.WarnLevel, cost, msg, fields)
}

func rated(l *zap.Logger, rl RateLimiter, level zapcore.Level, cost float64, msg string, fields []zap.Field) bool {
	if !rl.CheckCredit(cost) {
		return false
	}
	if ce := l.WithOptions(zap.AddCallerSkip(1)).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
	return true
}

// lazyCore 把 core.With(fields) 推迟到第一次需要输出时执行，
// 级别未开启的日志不会为附加字段付出编码代价。
type lazyCore struct {
	zapcore.Core
	fields []zapcore.Field

	once sync.Once
	with zapcore.Core
}

func newLazyCore(core zapcore.Core, fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return core
	}
	return &lazyCore{Core: core, fields: fields}
}

func (c *lazyCore) resolve() zapcore.Core {
	c.once.Do(func() {
		c.with = c.Core.With(c.fields)
	})
	return c.with
}

func (c *lazyCore) With(fields []zapcore.Field) zapcore.Core {
	return c.resolve().With(fields)
}

func (c *lazyCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Core.Enabled(e.Level) {
		return ce
	}
	return c.resolve().Check(e, ce)
}

func (c *lazyCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.resolve().Write(e, fields)
}

func (c *lazyCore) Sync() error {
	return c.resolve().Sync()
}
