package application

import (
	"github.com/lk2023060901/binio-go/pkg/binio/blob"
	"github.com/lk2023060901/binio-go/pkg/binio/observe"
)

// BinioConfig 对应配置文件中的 binio 段。
//
//	binio:
//	  verify: true
//	  metrics: true
//	  max_blob_size: 1048576
//	  workers: 8
type BinioConfig struct {
	// Verify 开启编码回读校验，用于调试环境。
	Verify bool `mapstructure:"verify"`
	// Metrics 开启 Prometheus 指标与失败日志。
	Metrics bool `mapstructure:"metrics"`
	// MaxBlobSize 为 blob 组合子的单个载荷上限，0 表示使用 blob.DefaultMaxSize。
	MaxBlobSize uint64 `mapstructure:"max_blob_size"`
	// Workers 为批量编解码协程池大小，0 表示 GOMAXPROCS。
	Workers int `mapstructure:"workers"`
}

// Observe 返回 observe.Wrap 使用的配置。
func (c BinioConfig) Observe() observe.Config {
	return observe.Config{Verify: c.Verify, Metrics: c.Metrics}
}

// BlobOptions 返回 blob 组合子使用的选项。
func (c BinioConfig) BlobOptions() []blob.Option {
	return []blob.Option{blob.WithMaxSize(c.MaxBlobSize)}
}
