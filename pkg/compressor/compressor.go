// Package compressor 提供单次压缩/解压能力，供长度前缀的压缩载荷使用。
package compressor

import "github.com/cockroachdb/errors"

// ErrSizeExceeded 表示解压输出超过了调用方给出的上限。
var ErrSizeExceeded = errors.New("compressor: decoded size exceeds limit")

// Compressor 抽象了“单次压缩/解压”能力。
//
// 约定：
//   - 面向内存中的一段完整载荷，不处理流式场景。
//   - 相同输入在同一实例上多次压缩得到的输出必须一致。
type Compressor interface {
	// Name 返回算法名，用于日志与诊断。
	Name() string

	// Compress 将 src 压缩后追加到 dst[:0]。
	//
	// dst 可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压后追加到 dst[:0]。
	//
	// 行为约定与 Compress 对称：src 必须是 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// LimitedDecompressor 在解压过程中约束输出大小：超过 limit 时尽早返回 ErrSizeExceeded，
// 不会先把完整的输出放进内存。
type LimitedDecompressor interface {
	DecompressLimit(dst, src []byte, limit uint64) (plain []byte, err error)
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
type NopCompressor struct{}

func (NopCompressor) Name() string {
	return "none"
}

func (NopCompressor) Compress(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (NopCompressor) Decompress(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (NopCompressor) DecompressLimit(dst, src []byte, limit uint64) ([]byte, error) {
	if uint64(len(src)) > limit {
		return dst[:0], ErrSizeExceeded
	}
	return append(dst[:0], src...), nil
}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var (
	_ Compressor          = NopCompressor{}
	_ LimitedDecompressor = NopCompressor{}
)
