package binio

import (
	"github.com/lk2023060901/binio-go/pkg/util/merr"
	"github.com/lk2023060901/binio-go/pkg/util/typeutil"
)

// Builder 以声明式的方式逐个登记字段，最后生成聚合体组合子。
//
//	b := binio.Struct[Header]("header")
//	magic := binio.Field(b, "magic", binio.BeU32(), func(h *Header) uint32 { return h.Magic })
//	size := binio.Field(b, "size", binio.LeU16(), func(h *Header) uint16 { return h.Size })
//	header, err := b.Build(func(v *binio.Values) (Header, error) {
//		return Header{Magic: magic.Get(v), Size: size.Get(v)}, nil
//	})
//
// 字段名重复等描述错误会被记录下来，在 Build 时统一返回。
type Builder[S any] struct {
	name   string
	fields []FieldDescriptor[S]
	names  typeutil.Set[string]
	errs   []error
}

// Struct 创建一个空的 Builder。
func Struct[S any](name string) *Builder[S] {
	return &Builder[S]{
		name:  name,
		names: typeutil.NewSet[string](),
	}
}

// Field 登记一个字段，返回可在 construct 中读取其值的引用。
func Field[S, T any](b *Builder[S], name string, c Combinator[T], get func(*S) T) FieldRef[T] {
	return add[S, T](b, NewField(name, c, get))
}

// Member 登记一个带 setter 的字段，Build(nil) 时依靠 setter 组装聚合体。
func Member[S, T any](b *Builder[S], name string, c Combinator[T], get func(*S) T, set func(*S, T)) FieldRef[T] {
	return add[S, T](b, WithSetter(NewField(name, c, get), set))
}

// FieldWith 登记一个依赖前序字段的字段，见 NewFieldFunc。
func FieldWith[S, T any](b *Builder[S], name string, pick func(*Values) (Combinator[T], error), get func(*S) T) FieldRef[T] {
	return add[S, T](b, NewFieldFunc(name, pick, get))
}

// MemberWith 是带 setter 的 FieldWith。
func MemberWith[S, T any](b *Builder[S], name string, pick func(*Values) (Combinator[T], error), get func(*S) T, set func(*S, T)) FieldRef[T] {
	return add[S, T](b, WithSetter(NewFieldFunc(name, pick, get), set))
}

// Fixed 登记一段匿名的固定内容，例如 Const 描述的魔数或 Ignore 描述的填充。
func (b *Builder[S]) Fixed(c Combinator[struct{}]) *Builder[S] {
	b.fields = append(b.fields, Fixed[S](c))
	return b
}

// Add 直接登记已构造好的字段描述。
func (b *Builder[S]) Add(fields ...FieldDescriptor[S]) *Builder[S] {
	for _, f := range fields {
		b.register(f)
	}
	return b
}

// Fields 返回已登记字段的副本。
func (b *Builder[S]) Fields() []FieldDescriptor[S] {
	return append([]FieldDescriptor[S](nil), b.fields...)
}

// Build 生成聚合体组合子。construct 为 nil 时要求每个具名字段都带有 setter。
func (b *Builder[S]) Build(construct func(*Values) (S, error)) (Combinator[S], error) {
	if err := merr.Combine(b.errs...); err != nil {
		return Combinator[S]{}, err
	}
	return Sequence(b.name, construct, b.fields...)
}

// MustBuild 与 Build 相同，但在描述错误时 panic。
func (b *Builder[S]) MustBuild(construct func(*Values) (S, error)) Combinator[S] {
	c, err := b.Build(construct)
	if err != nil {
		panic(err)
	}
	return c
}

func (b *Builder[S]) register(f FieldDescriptor[S]) int {
	if !f.anonymous {
		if b.names.Contain(f.name) {
			b.errs = append(b.errs, merr.WrapErrParameterInvalidMsg("duplicated field name %q in %s", f.name, b.name))
		}
		b.names.Insert(f.name)
	}
	b.fields = append(b.fields, f)
	return len(b.fields) - 1
}

func add[S, T any](b *Builder[S], f FieldDescriptor[S]) FieldRef[T] {
	return FieldRef[T]{name: f.name, index: b.register(f)}
}
