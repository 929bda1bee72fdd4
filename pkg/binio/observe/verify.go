package observe

import (
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/binio-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/metrics"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// Verified 在编码时先写入临时缓冲区并立即用同一个组合子读回，
// 读回失败或读回的值与原值不等时返回 ErrValueRoundTrip，且不向 w 写出任何字节。
// equal 为 nil 时使用 reflect.DeepEqual。解码方向不做任何额外工作。
func Verified[T any](c binio.Combinator[T], equal func(a, b T) bool, opts ...Option) binio.Combinator[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	name := c.Name()
	o := newOptions(name, opts)
	return binio.New(name,
		c.Decode,
		func(w io.Writer, v *T) error {
			buf := bytebuffer.Get()
			defer bytebuffer.Put(buf)
			if err := c.Encode(buf, v); err != nil {
				return err
			}

			back, err := binio.ReadBytes(buf.B, c)
			if err != nil || !equal(*v, back) {
				metrics.CodecRoundTripFailures.WithLabelValues(name).Inc()
				o.logger.RatedWarn(1, "round trip verification failed",
					zap.Int("size", buf.Len()),
					zap.Error(err))
				if err != nil {
					return merr.WrapErrValueRoundTripCause(name, err)
				}
				return merr.WrapErrValueRoundTrip(name)
			}

			n, err := w.Write(buf.B)
			if err != nil {
				return merr.WrapErrIo("write "+name, err)
			}
			if n < buf.Len() {
				return merr.WrapErrIoFailed("write "+name, io.ErrShortWrite)
			}
			return nil
		},
	)
}
