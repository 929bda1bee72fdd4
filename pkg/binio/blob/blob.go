// Package blob 提供以长度前缀界定的载荷组合子：原始字节、嵌套结构、压缩结构，
// 以及 JSON / Protobuf 序列化的对象。
//
// 所有组合子的布局都是：长度（由调用方给出的无符号整数组合子）+ 载荷字节。
// 解码时长度超过上限直接返回 ErrValueTooLarge，不会按声明的长度分配内存。
package blob

import (
	"fmt"
	"io"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/binio-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// DefaultMaxSize 为默认的单个载荷上限（16MB）。
const DefaultMaxSize uint64 = 16 * 1024 * 1024

// Option 用于配置载荷组合子。
type Option func(*options)

type options struct {
	maxSize uint64
}

// WithMaxSize 设置单个载荷的字节数上限，0 表示使用 DefaultMaxSize。
func WithMaxSize(n uint64) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxSize == 0 {
		o.maxSize = DefaultMaxSize
	}
	return o
}

// Bytes 读写一段长度前缀的原始字节。
func Bytes[L constraints.Unsigned](lenC binio.Combinator[L], opts ...Option) binio.Combinator[[]byte] {
	o := newOptions(opts)
	return binio.New(fmt.Sprintf("blob[%s]", lenC.Name()),
		func(r io.Reader) ([]byte, error) {
			var out []byte
			err := readPayload(r, lenC, o.maxSize, func(payload []byte) error {
				out = append(make([]byte, 0, len(payload)), payload...)
				return nil
			})
			return out, err
		},
		func(w io.Writer, v *[]byte) error {
			return writePayload(w, lenC, o.maxSize, *v)
		},
	)
}

// Framed 将 inner 的编码结果作为一个长度前缀的载荷读写。
// 解码时载荷必须被 inner 恰好消费完。
func Framed[T any, L constraints.Unsigned](lenC binio.Combinator[L], inner binio.Combinator[T], opts ...Option) binio.Combinator[T] {
	o := newOptions(opts)
	return binio.New(fmt.Sprintf("framed(%s)", inner.Name()),
		func(r io.Reader) (T, error) {
			var out T
			err := readPayload(r, lenC, o.maxSize, func(payload []byte) error {
				v, err := binio.ReadBytes(payload, inner)
				out = v
				return err
			})
			return out, err
		},
		func(w io.Writer, v *T) error {
			buf := bytebuffer.Get()
			defer bytebuffer.Put(buf)
			if err := inner.Encode(buf, v); err != nil {
				return err
			}
			return writePayload(w, lenC, o.maxSize, buf.B)
		},
	)
}

func readPayload[L constraints.Unsigned](r io.Reader, lenC binio.Combinator[L], maxSize uint64, fn func([]byte) error) error {
	l, err := lenC.Decode(r)
	if err != nil {
		return err
	}
	size := uint64(l)
	if size > maxSize {
		return merr.WrapErrValueTooLarge(size, maxSize, lenC.Name())
	}

	// 使用 ByteBuffer 池降低频繁 make 带来的分配与 GC 压力，fn 返回后不得再引用载荷。
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	payload := bytebuffer.Grow(buf, int(size))
	if _, err := io.ReadFull(r, payload); err != nil {
		return merr.WrapErrIo("read blob payload", err)
	}
	return fn(payload)
}

func writePayload[L constraints.Unsigned](w io.Writer, lenC binio.Combinator[L], maxSize uint64, payload []byte) error {
	size := uint64(len(payload))
	if size > maxSize {
		return merr.WrapErrValueTooLarge(size, maxSize, lenC.Name())
	}
	l := L(size)
	if uint64(l) != size {
		return merr.WrapErrValueCastOutOfRange[uint64](0, uint64(^L(0)), size, lenC.Name())
	}
	if err := lenC.Encode(w, &l); err != nil {
		return err
	}
	n, err := w.Write(payload)
	if err != nil {
		return merr.WrapErrIo("write blob payload", err)
	}
	if n < len(payload) {
		return merr.WrapErrIoFailed("write blob payload", io.ErrShortWrite)
	}
	return nil
}
