package binio

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/binio-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binio-go/pkg/log"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// Read 使用 c 从 r 中读出一个值。
// 失败时返回的错误包装了 c 的原始错误，附带组合子名称与失败时的偏移量，
// 错误码与底层原因保持不变。
func Read[T any](r io.Reader, c Combinator[T]) (T, error) {
	rd := NewReader(r)
	start := rd.Offset()
	v, err := c.Decode(rd)
	if err != nil {
		offset := rd.Offset() - start
		log.Debug("decode failed",
			log.FieldCombinator(c.Name()),
			log.FieldOffset(offset),
			zap.Error(err))
		var zero T
		return zero, errors.Wrapf(err, "decode %s at offset %d", c.Name(), offset)
	}
	return v, nil
}

// Write 使用 c 将 v 写入 w。
// 返回的错误包装了 c 的原始错误，errors.Is/As 与 merr 的分类函数依旧可用。
func Write[T any](w io.Writer, v T, c Combinator[T]) error {
	wr := NewWriter(w)
	start := wr.Offset()
	if err := c.Encode(wr, &v); err != nil {
		offset := wr.Offset() - start
		log.Debug("encode failed",
			log.FieldCombinator(c.Name()),
			log.FieldOffset(offset),
			zap.Error(err))
		return errors.Wrapf(err, "encode %s at offset %d", c.Name(), offset)
	}
	return nil
}

// ReadBytes 从 data 中解码一个值，并要求 data 恰好被完整消费。
func ReadBytes[T any](data []byte, c Combinator[T]) (T, error) {
	br := bytes.NewReader(data)
	v, err := Read[T](br, c)
	if err != nil {
		return v, err
	}
	if br.Len() > 0 {
		var zero T
		return zero, merr.WrapErrValueTrailingBytes(br.Len(), c.Name())
	}
	return v, nil
}

// WriteBytes 将 v 编码为一段新分配的字节切片。
func WriteBytes[T any](v T, c Combinator[T]) ([]byte, error) {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	if err := Write(buf, v, c); err != nil {
		return nil, err
	}
	return bytebuffer.Copy(buf), nil
}
