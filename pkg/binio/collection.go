package binio

import (
	"fmt"
	"io"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// maxPrealloc 限制根据流中长度字段预分配的元素个数，超出部分按需增长。
const maxPrealloc = 1024

// Cast 在两个整数类型之间做带范围检查的转换。
// 任一方向上值无法被目标类型精确表示时返回 ErrValueCastFailed。
func Cast[To, From constraints.Integer](c Combinator[From]) Combinator[To] {
	return New(c.Name(),
		func(r io.Reader) (To, error) {
			v, err := c.Decode(r)
			if err != nil {
				return 0, err
			}
			return convert[To](v)
		},
		func(w io.Writer, v *To) error {
			from, err := convert[From](*v)
			if err != nil {
				return err
			}
			return c.Encode(w, &from)
		},
	)
}

// convert 在整数类型之间做无损转换，溢出或符号变化时返回值错误。
func convert[To, From constraints.Integer](v From) (To, error) {
	to := To(v)
	if From(to) != v || (v < 0) != (to < 0) {
		return 0, merr.WrapErrValueCastFailed(typeName[From](), typeName[To](),
			fmt.Errorf("%d not representable", v))
	}
	return to, nil
}

// Count 精确读写 n 个元素。编码时长度不等于 n 返回 ErrValueLengthMismatch。
func Count[T any](c Combinator[T], n int) Combinator[[]T] {
	return New(fmt.Sprintf("[%s; %d]", c.Name(), n),
		func(r io.Reader) ([]T, error) {
			if n < 0 {
				return nil, merr.WrapErrValueInvalid(fmt.Sprintf("negative count %d", n), nil)
			}
			return decodeN(r, c, n)
		},
		func(w io.Writer, v *[]T) error {
			if len(*v) != n {
				return merr.WrapErrValueLengthMismatch(n, len(*v), c.Name())
			}
			return encodeAll(w, c, *v)
		},
	)
}

// Slice 描述一个自带长度前缀的列表：先是 lenC 表示的元素个数，随后是各个元素。
func Slice[T any, L constraints.Integer](lenC Combinator[L], elem Combinator[T]) Combinator[[]T] {
	return New(fmt.Sprintf("[%s; %s]", elem.Name(), lenC.Name()),
		func(r io.Reader) ([]T, error) {
			l, err := lenC.Decode(r)
			if err != nil {
				return nil, err
			}
			n, err := convert[int](l)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, merr.WrapErrValueInvalid(fmt.Sprintf("negative length %d", n), nil)
			}
			return decodeN(r, elem, n)
		},
		func(w io.Writer, v *[]T) error {
			l, err := convert[L](len(*v))
			if err != nil {
				return err
			}
			if err := lenC.Encode(w, &l); err != nil {
				return err
			}
			return encodeAll(w, elem, *v)
		},
	)
}

// Bool 使用一个字节表示布尔值，0 为 false，1 为 true，其它取值为值错误。
func Bool() Combinator[bool] {
	u8 := U8()
	return New("bool",
		func(r io.Reader) (bool, error) {
			b, err := u8.Decode(r)
			if err != nil {
				return false, err
			}
			switch b {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
			return false, merr.WrapErrValueInvalid(fmt.Sprintf("bool byte 0x%02x", b), nil)
		},
		func(w io.Writer, v *bool) error {
			var b uint8
			if *v {
				b = 1
			}
			return u8.Encode(w, &b)
		},
	)
}

// Bytes 精确读写 n 个原始字节。
func Bytes(n int) Combinator[[]byte] {
	return New(fmt.Sprintf("bytes[%d]", n),
		func(r io.Reader) ([]byte, error) {
			if n < 0 {
				return nil, merr.WrapErrValueInvalid(fmt.Sprintf("negative count %d", n), nil)
			}
			buf := make([]byte, n)
			if err := readFull(r, buf, "read bytes"); err != nil {
				return nil, err
			}
			return buf, nil
		},
		func(w io.Writer, v *[]byte) error {
			if len(*v) != n {
				return merr.WrapErrValueLengthMismatch(n, len(*v), "bytes")
			}
			return writeAll(w, *v, "write bytes")
		},
	)
}

func decodeN[T any](r io.Reader, c Combinator[T], n int) ([]T, error) {
	out := make([]T, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeAll[T any](w io.Writer, c Combinator[T], vs []T) error {
	for i := range vs {
		if err := c.Encode(w, &vs[i]); err != nil {
			return err
		}
	}
	return nil
}
