package compressor

import (
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的压缩实现。
//
// 它持有独立的 encoder/decoder 实例，不使用全局单例，
// 由调用方自行决定实例的生命周期与复用策略。
// EncodeAll/DecodeAll 可以被多个 goroutine 并发调用。
type ZstdCompressor struct {
	enc            *zstd.Encoder
	dec            *zstd.Decoder
	maxDecodedSize uint64
	concurrency    int

	// limit -> *zstd.Decoder，按上限懒加载。
	mu      sync.Mutex
	limited map[uint64]*zstd.Decoder
}

// 编译期断言：确保 ZstdCompressor 实现了 Compressor 接口。
var (
	_ Compressor          = (*ZstdCompressor)(nil)
	_ LimitedDecompressor = (*ZstdCompressor)(nil)
)

// ZstdOption 用于配置 ZstdCompressor。
type ZstdOption func(*zstdOption)

type zstdOption struct {
	concurrency    int
	level          zstd.EncoderLevel
	maxDecodedSize uint64
}

// WithConcurrency 指定 zstd 的并发数，<= 0 时使用 GOMAXPROCS。
func WithConcurrency(n int) ZstdOption {
	return func(o *zstdOption) {
		o.concurrency = n
	}
}

// WithLevel 指定压缩级别。
func WithLevel(level zstd.EncoderLevel) ZstdOption {
	return func(o *zstdOption) {
		o.level = level
	}
}

// WithMaxDecodedSize 限制单次解压输出的最大字节数，0 表示使用 zstd 的默认上限。
func WithMaxDecodedSize(n uint64) ZstdOption {
	return func(o *zstdOption) {
		o.maxDecodedSize = n
	}
}

// NewZstdCompressor 创建一个 ZstdCompressor。
func NewZstdCompressor(opts ...ZstdOption) (*ZstdCompressor, error) {
	o := &zstdOption{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency <= 0 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(o.concurrency),
		zstd.WithEncoderLevel(o.level),
	)
	if err != nil {
		return nil, err
	}

	decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(o.concurrency)}
	if o.maxDecodedSize > 0 {
		decOpts = append(decOpts, zstd.WithDecoderMaxMemory(o.maxDecodedSize))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{
		enc:            enc,
		dec:            dec,
		maxDecodedSize: o.maxDecodedSize,
		concurrency:    o.concurrency,
		limited:        make(map[uint64]*zstd.Decoder),
	}, nil
}

func (c *ZstdCompressor) Name() string {
	return "zstd"
}

// Compress 实现 Compressor 接口。
func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

// Decompress 实现 Compressor 接口。
func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0])
}

// DecompressLimit 实现 LimitedDecompressor 接口。
//
// 帧头声明的内容大小超过 limit 时在分配前失败；未声明大小的帧按块解码，
// 输出一旦超过 limit 立即停止。
func (c *ZstdCompressor) DecompressLimit(dst, src []byte, limit uint64) ([]byte, error) {
	dec, err := c.limitedDecoder(limit)
	if err != nil {
		return nil, err
	}
	plain, err := dec.DecodeAll(src, dst[:0])
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, errors.Mark(err, ErrSizeExceeded)
	}
	return plain, err
}

func (c *ZstdCompressor) limitedDecoder(limit uint64) (*zstd.Decoder, error) {
	if c == nil {
		return nil, zstd.ErrDecoderClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	if limit == 0 || limit > 1<<63 || (c.maxDecodedSize > 0 && c.maxDecodedSize <= limit) {
		return c.dec, nil
	}
	if dec, ok := c.limited[limit]; ok {
		return dec, nil
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(c.concurrency),
		zstd.WithDecoderMaxMemory(limit),
	)
	if err != nil {
		return nil, err
	}
	c.limited[limit] = dec
	return dec, nil
}

// Close 释放内部 encoder/decoder 持有的资源。
//
// 再次使用已关闭实例将返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
	for limit, dec := range c.limited {
		dec.Close()
		delete(c.limited, limit)
	}
}
