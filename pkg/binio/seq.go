package binio

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/lk2023060901/binio-go/pkg/log"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
	"github.com/lk2023060901/binio-go/pkg/util/typeutil"
)

// Values 保存一次 decode/encode 调用中，同一聚合体已处理字段的值。
// 仅在单次调用内有效，不可跨调用复用。
type Values struct {
	names []string
	vals  []any
	set   []bool
}

func newValues[S any](fields []FieldDescriptor[S]) *Values {
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = fields[i].name
	}
	return &Values{
		names: names,
		vals:  make([]any, len(fields)),
		set:   make([]bool, len(fields)),
	}
}

func (v *Values) store(i int, val any) {
	v.vals[i] = val
	v.set[i] = true
}

// Len 返回字段个数（包含尚未处理的字段）。
func (v *Values) Len() int {
	return len(v.vals)
}

func (v *Values) index(name string) int {
	for i, n := range v.names {
		if n != "" && n == name {
			return i
		}
	}
	return -1
}

// Lookup 按名字读取已处理字段的值。
// 字段不存在或尚未处理返回 ErrParameterMissing，类型不符返回 ErrParameterInvalid。
func Lookup[T any](v *Values, name string) (T, error) {
	var zero T
	i := v.index(name)
	if i < 0 || !v.set[i] {
		return zero, merr.WrapErrParameterMissing(name, "field not yet processed")
	}
	t, ok := v.vals[i].(T)
	if !ok {
		return zero, merr.WrapErrParameterInvalid(typeName[T](), fmt.Sprintf("%T", v.vals[i]), name)
	}
	return t, nil
}

// FieldRef 是对某个字段值的类型化引用。
type FieldRef[T any] struct {
	name  string
	index int
}

// Name 返回字段名。
func (f FieldRef[T]) Name() string {
	return f.name
}

// Get 读取字段值；字段尚未处理时返回零值。
func (f FieldRef[T]) Get(v *Values) T {
	var zero T
	if f.index < 0 || f.index >= len(v.vals) || !v.set[f.index] {
		return zero
	}
	t, _ := v.vals[f.index].(T)
	return t
}

// Lookup 与 Get 类似，但在字段尚未处理时返回错误。
func (f FieldRef[T]) Lookup(v *Values) (T, error) {
	if f.index < 0 || f.index >= len(v.vals) || !v.set[f.index] {
		var zero T
		return zero, merr.WrapErrParameterMissing(f.name, "field not yet processed")
	}
	return f.Get(v), nil
}

// FieldDescriptor 描述聚合体 S 中的一个字段。
// 值类型在构造时被擦除，使不同类型的字段可以放在同一个列表中。
type FieldDescriptor[S any] struct {
	name      string
	codec     string
	decode    func(r io.Reader, vals *Values) (any, error)
	encode    func(w io.Writer, s *S, vals *Values) (any, error)
	set       func(s *S, v any)
	anonymous bool
}

// Name 返回字段名，匿名字段为空。
func (f FieldDescriptor[S]) Name() string {
	return f.name
}

// NewField 使用固定的组合子描述字段，get 从聚合体中取出字段值用于编码。
func NewField[S, T any](name string, c Combinator[T], get func(*S) T) FieldDescriptor[S] {
	return NewFieldFunc(name, func(*Values) (Combinator[T], error) { return c, nil }, get).named(c.Name())
}

// NewFieldFunc 描述一个依赖前序字段的字段：pick 根据已处理的值选择本字段的组合子，
// 典型场景是“先读长度，再读对应个数的元素”。两个方向调用 pick 时看到的前序值一致。
func NewFieldFunc[S, T any](name string, pick func(*Values) (Combinator[T], error), get func(*S) T) FieldDescriptor[S] {
	return FieldDescriptor[S]{
		name:  name,
		codec: typeName[T](),
		decode: func(r io.Reader, vals *Values) (any, error) {
			c, err := pick(vals)
			if err != nil {
				return nil, err
			}
			return c.Decode(r)
		},
		encode: func(w io.Writer, s *S, vals *Values) (any, error) {
			if get == nil {
				return nil, merr.WrapErrParameterMissing("accessor", name)
			}
			c, err := pick(vals)
			if err != nil {
				return nil, err
			}
			v := get(s)
			if err := c.Encode(w, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Fixed 描述一个匿名的固定内容（常量、填充），不对应聚合体中的任何成员。
func Fixed[S any](c Combinator[struct{}]) FieldDescriptor[S] {
	return FieldDescriptor[S]{
		codec:     c.Name(),
		anonymous: true,
		decode: func(r io.Reader, _ *Values) (any, error) {
			return c.Decode(r)
		},
		encode: func(w io.Writer, _ *S, _ *Values) (any, error) {
			var unit struct{}
			return unit, c.Encode(w, &unit)
		},
	}
}

// WithSetter 为字段附加回写函数。Sequence 未提供 construct 时，解码依靠它组装聚合体。
func WithSetter[S, T any](f FieldDescriptor[S], set func(*S, T)) FieldDescriptor[S] {
	f.set = func(s *S, v any) {
		t, _ := v.(T)
		set(s, t)
	}
	return f
}

func (f FieldDescriptor[S]) named(codec string) FieldDescriptor[S] {
	f.codec = codec
	return f
}

// Sequence 由有序的字段列表构造聚合体组合子。
//
// 解码：按声明顺序依次解码并记录每个字段的值，最后调用 construct 组装聚合体。
// construct 为 nil 时使用 S 的零值并依次调用各字段的 setter。
// 编码：按相同顺序依次取值、记录、编码。
// 任一字段失败立即返回该错误，不会产生部分组装的结果。
func Sequence[S any](name string, construct func(*Values) (S, error), fields ...FieldDescriptor[S]) (Combinator[S], error) {
	if err := validateFields(construct == nil, fields); err != nil {
		return Combinator[S]{}, err
	}
	fields = append([]FieldDescriptor[S](nil), fields...)

	return New(name,
		func(r io.Reader) (S, error) {
			var zero S
			vals := newValues(fields)
			for i := range fields {
				v, err := fields[i].decode(r, vals)
				if err != nil {
					logFieldFailure(name, &fields[i], "decode", err)
					return zero, err
				}
				vals.store(i, v)
			}
			if construct != nil {
				s, err := construct(vals)
				if err != nil {
					return zero, constructError(name, err)
				}
				return s, nil
			}
			var s S
			for i := range fields {
				if fields[i].set != nil {
					fields[i].set(&s, vals.vals[i])
				}
			}
			return s, nil
		},
		func(w io.Writer, s *S) error {
			vals := newValues(fields)
			for i := range fields {
				v, err := fields[i].encode(w, s, vals)
				if err != nil {
					logFieldFailure(name, &fields[i], "encode", err)
					return err
				}
				vals.store(i, v)
			}
			return nil
		},
	), nil
}

// MustSequence 与 Sequence 相同，但在描述错误时 panic，适用于包级变量初始化。
func MustSequence[S any](name string, construct func(*Values) (S, error), fields ...FieldDescriptor[S]) Combinator[S] {
	c, err := Sequence(name, construct, fields...)
	if err != nil {
		panic(err)
	}
	return c
}

func validateFields[S any](needSetters bool, fields []FieldDescriptor[S]) error {
	seen := typeutil.NewSet[string]()
	var errs []error
	for i := range fields {
		f := &fields[i]
		if f.decode == nil || f.encode == nil {
			errs = append(errs, merr.WrapErrParameterMissing("field descriptor", fmt.Sprintf("index %d", i)))
			continue
		}
		if f.anonymous {
			continue
		}
		if f.name == "" {
			errs = append(errs, merr.WrapErrParameterInvalidMsg("field %d has no name", i))
			continue
		}
		if seen.Contain(f.name) {
			errs = append(errs, merr.WrapErrParameterInvalidMsg("duplicated field name %q", f.name))
		}
		seen.Insert(f.name)
		if needSetters && f.set == nil {
			errs = append(errs, merr.WrapErrParameterMissing("setter", f.name))
		}
	}
	return merr.Combine(errs...)
}

// constructError 保留本包定义的值错误与描述错误，其余归为 ErrValueInvalid。
func constructError(name string, err error) error {
	switch {
	case merr.IsValueError(err), merr.GetErrorType(err) == merr.SetupError:
		return err
	}
	return merr.WrapErrValueInvalid("construct "+name, err)
}

func logFieldFailure[S any](name string, f *FieldDescriptor[S], direction string, err error) {
	log.Debug("field failed",
		log.FieldCombinator(name),
		log.FieldField(f.name),
		log.FieldDirection(direction),
		zap.String("codec", f.codec),
		zap.Error(err))
}
