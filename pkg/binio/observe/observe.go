// Package observe 为组合子附加可观测性：Prometheus 指标、限流日志，以及可选的编码回读校验。
//
// 包装后的组合子与原组合子读写完全相同的字节，只在旁路记录信息。
package observe

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/log"
	"github.com/lk2023060901/binio-go/pkg/metrics"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

const (
	rateGroup       = "binio.observe"
	creditPerSecond = 1.0
	maxBalance      = 60.0
)

// Config 控制 Wrap 附加哪些包装。
type Config struct {
	// Verify 开启编码回读校验。
	Verify bool `mapstructure:"verify"`
	// Metrics 开启指标与失败日志。
	Metrics bool `mapstructure:"metrics"`
}

// Option 用于配置 Observed。
type Option func(*options)

type options struct {
	logger *log.MLogger
}

// WithLogger 指定失败日志使用的 Logger，默认使用全局 Logger。
func WithLogger(l *log.MLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(name string, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.With(log.FieldModule("binio"))
	}
	o.logger = o.logger.WithCombinator(name).WithRateGroup(rateGroup, creditPerSecond, maxBalance)
	return o
}

// Wrap 按 cfg 为 c 附加包装：先校验，再统计，统计的字节数即实际写出的字节数。
func Wrap[T any](c binio.Combinator[T], cfg Config, opts ...Option) binio.Combinator[T] {
	if cfg.Verify {
		c = Verified(c, nil, opts...)
	}
	if cfg.Metrics {
		c = Observed(c, opts...)
	}
	return c
}

// Observed 记录每次编解码的结果、字节数与耗时，失败时输出限流的 Warn 日志。
func Observed[T any](c binio.Combinator[T], opts ...Option) binio.Combinator[T] {
	name := c.Name()
	o := newOptions(name, opts)
	return binio.New(name,
		func(r io.Reader) (T, error) {
			rd := binio.NewReader(r)
			start, begin := rd.Offset(), time.Now()
			v, err := c.Decode(rd)
			o.record(name, metrics.DecodeLabel, rd.Offset()-start, time.Since(begin), err)
			return v, err
		},
		func(w io.Writer, v *T) error {
			wr := binio.NewWriter(w)
			start, begin := wr.Offset(), time.Now()
			err := c.Encode(wr, v)
			o.record(name, metrics.EncodeLabel, wr.Offset()-start, time.Since(begin), err)
			return err
		},
	)
}

func (o *options) record(name, direction string, n int64, elapsed time.Duration, err error) {
	metrics.CodecOperations.WithLabelValues(name, direction, resultLabel(err)).Inc()
	if err != nil {
		o.logger.RatedWarn(1, "codec operation failed",
			log.FieldDirection(direction),
			log.FieldOffset(n),
			zap.Error(err))
		return
	}
	metrics.CodecBytes.WithLabelValues(name, direction).Observe(float64(n))
	metrics.CodecLatency.WithLabelValues(name, direction).Observe(float64(elapsed.Microseconds()))
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.SuccessLabel
	}
	switch merr.GetErrorType(err) {
	case merr.ValueError:
		return metrics.ValueErrorLabel
	case merr.SetupError:
		return metrics.SetupErrorLabel
	}
	return metrics.IOErrorLabel
}
