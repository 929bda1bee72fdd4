package blob

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/binio-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/compressor"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// Compressed 先用 inner 编码，再用 comp 压缩，作为长度前缀的载荷写出。
// 解压后的字节数同样受上限约束；comp 实现了 compressor.LimitedDecompressor 时，
// 超限会在解压过程中被发现，不会先分配完整的输出。
func Compressed[T any, L constraints.Unsigned](lenC binio.Combinator[L], inner binio.Combinator[T], comp compressor.Compressor, opts ...Option) binio.Combinator[T] {
	o := newOptions(opts)
	return binio.New(fmt.Sprintf("%s(%s)", comp.Name(), inner.Name()),
		func(r io.Reader) (T, error) {
			var out T
			err := readPayload(r, lenC, o.maxSize, func(payload []byte) error {
				plain, err := decompress(comp, payload, o.maxSize)
				if errors.Is(err, compressor.ErrSizeExceeded) {
					return merr.WrapErrValueTooLargeCause(o.maxSize, err, "decompressed")
				}
				if err != nil {
					return merr.WrapErrValueInvalid("decompress "+comp.Name(), err)
				}
				if uint64(len(plain)) > o.maxSize {
					return merr.WrapErrValueTooLarge(uint64(len(plain)), o.maxSize, "decompressed")
				}
				v, err := binio.ReadBytes(plain, inner)
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
			if uint64(buf.Len()) > o.maxSize {
				return merr.WrapErrValueTooLarge(uint64(buf.Len()), o.maxSize, "uncompressed")
			}
			packet, err := comp.Compress(nil, buf.B)
			if err != nil {
				return merr.WrapErrValueInvalid("compress "+comp.Name(), err)
			}
			return writePayload(w, lenC, o.maxSize, packet)
		},
	)
}

func decompress(comp compressor.Compressor, payload []byte, limit uint64) ([]byte, error) {
	if lc, ok := comp.(compressor.LimitedDecompressor); ok {
		return lc.DecompressLimit(nil, payload, limit)
	}
	return comp.Decompress(nil, payload)
}
