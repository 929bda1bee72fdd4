package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	codecMetricSubsystem = "codec"
)

var (
	CodecOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: binioNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "operations_total",
			Help:      "编解码调用次数，按组合子、方向与结果区分",
		}, []string{CombinatorLabelName, DirectionLabelName, ResultLabelName})

	CodecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: binioNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "bytes",
			Help:      "单次成功编解码读写的字节数",
			Buckets:   sizeBuckets,
		}, []string{CombinatorLabelName, DirectionLabelName})

	CodecLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: binioNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "latency_us",
			Help:      "单次编解码耗时，单位微秒",
			Buckets:   buckets,
		}, []string{CombinatorLabelName, DirectionLabelName})

	CodecRoundTripFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: binioNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "round_trip_failures_total",
			Help:      "编码后回读校验失败的次数",
		}, []string{CombinatorLabelName})
)

// RegisterCodecMetrics 将编解码相关的指标注册到 Prometheus Registerer 中。
func RegisterCodecMetrics(registry prometheus.Registerer) {
	registry.MustRegister(CodecOperations)
	registry.MustRegister(CodecBytes)
	registry.MustRegister(CodecLatency)
	registry.MustRegister(CodecRoundTripFailures)
}
