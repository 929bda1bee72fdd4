// Package bytebuffer 提供可复用的字节缓冲区，基于 valyala/bytebufferpool。
//
// 典型用法：
//
//	buf := bytebuffer.Get()
//	defer bytebuffer.Put(buf)
//
// Put 之后不得再持有 buf.B 的引用，需要保留的数据请先拷贝。
package bytebuffer

import (
	"github.com/valyala/bytebufferpool"
)

// ByteBuffer 即 bytebufferpool.ByteBuffer，实现了 io.Writer。
type ByteBuffer = bytebufferpool.ByteBuffer

var defaultPool bytebufferpool.Pool

// Get 从默认池中取出一个空的缓冲区。
func Get() *ByteBuffer {
	return defaultPool.Get()
}

// Put 将缓冲区归还到默认池。nil 会被忽略。
func Put(b *ByteBuffer) {
	if b == nil {
		return
	}
	defaultPool.Put(b)
}

// Grow 将 b.B 的长度调整为 n，必要时扩容，返回可直接写入的切片。
func Grow(b *ByteBuffer, n int) []byte {
	if cap(b.B) < n {
		b.B = make([]byte, n)
	} else {
		b.B = b.B[:n]
	}
	return b.B
}

// Copy 返回 b 当前内容的独立副本。
func Copy(b *ByteBuffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.B)
	return out
}
