// Package binio 提供双向的二进制编解码组合子。
//
// 一个 Combinator[T] 同时描述了“如何从字节流读出 T”和“如何把 T 写回字节流”，
// 两个方向由同一份描述派生，因此天然保持结构一致：
//
//	Decode(Encode(v)) == v
//
// 组合子本身不持有任何流状态，可以在多个 goroutine 间共享，
// 只要每次调用使用各自独立的流即可。
package binio

import (
	"fmt"
	"io"
	"reflect"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// DecodeFunc 从 r 中读出一个 T。
type DecodeFunc[T any] func(r io.Reader) (T, error)

// EncodeFunc 将 *v 写入 w。
type EncodeFunc[T any] func(w io.Writer, v *T) error

// Decoder 是解码方向的抽象。
type Decoder[T any] interface {
	Decode(r io.Reader) (T, error)
}

// Encoder 是编码方向的抽象。
type Encoder[T any] interface {
	Encode(w io.Writer, v *T) error
}

// Codec 同时具备两个方向的能力。
type Codec[T any] interface {
	Decoder[T]
	Encoder[T]
}

// Combinator 将一对互逆的 decode/encode 函数绑定在一起。
//
// 零值不可用，请通过 New、From 或本包提供的构造函数获取。
type Combinator[T any] struct {
	name   string
	decode DecodeFunc[T]
	encode EncodeFunc[T]
}

// 编译期断言：确保 Combinator 实现了 Codec 接口。
var _ Codec[int] = Combinator[int]{}

// New 由一对函数构造组合子。两个函数必须互为逆操作。
func New[T any](name string, decode DecodeFunc[T], encode EncodeFunc[T]) Combinator[T] {
	return Combinator[T]{
		name:   name,
		decode: decode,
		encode: encode,
	}
}

// From 将任意 Codec 实现适配为组合子。
func From[T any](name string, codec Codec[T]) Combinator[T] {
	return New(name, codec.Decode, codec.Encode)
}

// Name 返回用于诊断的名字。
func (c Combinator[T]) Name() string {
	if c.name == "" {
		return typeName[T]()
	}
	return c.name
}

// Named 返回一个改名后的副本。
func (c Combinator[T]) Named(name string) Combinator[T] {
	c.name = name
	return c
}

// Valid 判断组合子是否由构造函数创建。
func (c Combinator[T]) Valid() bool {
	return c.decode != nil && c.encode != nil
}

// Decode 从 r 中读出一个值。
func (c Combinator[T]) Decode(r io.Reader) (T, error) {
	if c.decode == nil {
		var zero T
		return zero, merr.WrapErrParameterMissing("decode", c.Name())
	}
	return c.decode(r)
}

// Encode 将 *v 写入 w。
func (c Combinator[T]) Encode(w io.Writer, v *T) error {
	if c.encode == nil {
		return merr.WrapErrParameterMissing("encode", c.Name())
	}
	if v == nil {
		return merr.WrapErrParameterMissing("value", c.Name())
	}
	return c.encode(w, v)
}

// Map 通过一对全函数（互为逆）把 Combinator[A] 变换为 Combinator[B]。
// 解码后调用 to，编码前调用 from。
func Map[A, B any](c Combinator[A], to func(A) B, from func(B) A) Combinator[B] {
	return New(c.Name(),
		func(r io.Reader) (B, error) {
			a, err := c.Decode(r)
			if err != nil {
				var zero B
				return zero, err
			}
			return to(a), nil
		},
		func(w io.Writer, v *B) error {
			a := from(*v)
			return c.Encode(w, &a)
		},
	)
}

// TryMap 与 Map 类似，但转换允许失败。
// 任一方向的转换失败都会被归为值错误（ErrValueCastFailed），已经是值错误的保持不变。
func TryMap[A, B any](c Combinator[A], to func(A) (B, error), from func(B) (A, error)) Combinator[B] {
	fromName, toName := typeName[A](), typeName[B]()
	return New(c.Name(),
		func(r io.Reader) (B, error) {
			a, err := c.Decode(r)
			if err != nil {
				var zero B
				return zero, err
			}
			b, err := to(a)
			if err != nil {
				var zero B
				return zero, asValueError(fromName, toName, err)
			}
			return b, nil
		},
		func(w io.Writer, v *B) error {
			a, err := from(*v)
			if err != nil {
				return asValueError(toName, fromName, err)
			}
			return c.Encode(w, &a)
		},
	)
}

// Tuple 是 Pair 的值类型。
type Tuple[A, B any] struct {
	First  A
	Second B
}

// Pair 先处理 a 再处理 b，两个方向顺序一致。
func Pair[A, B any](a Combinator[A], b Combinator[B]) Combinator[Tuple[A, B]] {
	return New(fmt.Sprintf("(%s, %s)", a.Name(), b.Name()),
		func(r io.Reader) (Tuple[A, B], error) {
			var t Tuple[A, B]
			var err error
			if t.First, err = a.Decode(r); err != nil {
				return Tuple[A, B]{}, err
			}
			if t.Second, err = b.Decode(r); err != nil {
				return Tuple[A, B]{}, err
			}
			return t, nil
		},
		func(w io.Writer, v *Tuple[A, B]) error {
			if err := a.Encode(w, &v.First); err != nil {
				return err
			}
			return b.Encode(w, &v.Second)
		},
	)
}

// Const 描述一个固定值：解码时校验读到的值等于 v，编码时直接写出 v。
func Const[T comparable](c Combinator[T], v T) Combinator[struct{}] {
	return New(fmt.Sprintf("const(%s=%v)", c.Name(), v),
		func(r io.Reader) (struct{}, error) {
			got, err := c.Decode(r)
			if err != nil {
				return struct{}{}, err
			}
			if got != v {
				return struct{}{}, merr.WrapErrValueCheckFailed(v, got, c.Name())
			}
			return struct{}{}, nil
		},
		func(w io.Writer, _ *struct{}) error {
			want := v
			return c.Encode(w, &want)
		},
	)
}

// Ignore 描述一段不关心的内容：解码时丢弃，编码时写出 v。
func Ignore[T any](c Combinator[T], v T) Combinator[struct{}] {
	return New(fmt.Sprintf("ignore(%s)", c.Name()),
		func(r io.Reader) (struct{}, error) {
			_, err := c.Decode(r)
			return struct{}{}, err
		},
		func(w io.Writer, _ *struct{}) error {
			fill := v
			return c.Encode(w, &fill)
		},
	)
}

// Optional 根据 present 决定是否存在该值。
// present 为 false 时不读写任何字节；编码时值是否为 nil 必须与 present 一致。
func Optional[T any](c Combinator[T], present bool) Combinator[*T] {
	return New(fmt.Sprintf("optional(%s)", c.Name()),
		func(r io.Reader) (*T, error) {
			if !present {
				return nil, nil
			}
			v, err := c.Decode(r)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		func(w io.Writer, v **T) error {
			if (*v != nil) != present {
				return merr.WrapErrValueMismatch(present, *v != nil)
			}
			if !present {
				return nil
			}
			return c.Encode(w, *v)
		},
	)
}

func asValueError(from, to string, err error) error {
	if merr.IsValueError(err) {
		return err
	}
	return merr.WrapErrValueCastFailed(from, to, err)
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
