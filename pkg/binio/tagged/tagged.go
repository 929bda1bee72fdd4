// Package tagged 根据结构体标签生成聚合体组合子。
//
//	type Record struct {
//		Magic uint32   `bin:"be"`
//		Count uint8
//		Items []uint16 `bin:"le,count=Count"`
//		Name  string   `bin:"nul"`
//		Note  string   `bin:"-"`
//	}
//
//	c, err := tagged.For[Record]()
//
// 字段按声明顺序读写，未导出字段与标记为 "-" 的字段被忽略。
// 生成的组合子与手写 binio.Struct 的结果在字节层面完全一致。
package tagged

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// Option 用于配置 For 的默认行为。
type Option func(*options)

type options struct {
	order ByteOrder
}

// WithByteOrder 指定未显式标注字节序的字段使用的字节序，默认大端。
func WithByteOrder(order ByteOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

type cacheKey struct {
	t     reflect.Type
	order ByteOrder
}

// cache 缓存每个 (类型, 默认字节序) 生成的组合子。
var cache sync.Map

// For 为结构体类型 S 生成组合子。
func For[S any](opts ...Option) (binio.Combinator[S], error) {
	o := &options{order: BigEndian}
	for _, opt := range opts {
		opt(o)
	}

	t := reflect.TypeOf((*S)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return binio.Combinator[S]{}, merr.WrapErrParameterInvalid("struct", t.Kind().String())
	}
	c, err := structCodec(t, o.order, make(map[cacheKey]bool))
	if err != nil {
		return binio.Combinator[S]{}, err
	}
	return binio.Map(c,
		func(v reflect.Value) S { return v.Interface().(S) },
		func(s S) reflect.Value { return reflect.ValueOf(s) },
	).Named(t.String()), nil
}

// MustFor 与 For 相同，但在标签错误时 panic，适用于包级变量初始化。
func MustFor[S any](opts ...Option) binio.Combinator[S] {
	c, err := For[S](opts...)
	if err != nil {
		panic(err)
	}
	return c
}

type slot struct {
	index int
	ref   binio.FieldRef[reflect.Value]
}

// structCodec 生成 t 的组合子。building 记录当前调用链上正在生成的类型，
// 直接或间接包含自身的类型无法确定布局，返回 ErrOperationNotSupported。
func structCodec(t reflect.Type, order ByteOrder, building map[cacheKey]bool) (binio.Combinator[reflect.Value], error) {
	key := cacheKey{t: t, order: order}
	if c, ok := cache.Load(key); ok {
		return c.(binio.Combinator[reflect.Value]), nil
	}
	if building[key] {
		return binio.Combinator[reflect.Value]{}, merr.WrapErrOperationNotSupported("recursive type", t.String())
	}
	building[key] = true
	defer delete(building, key)

	b := binio.Struct[reflect.Value](t.String())
	integers := make(map[string]bool)
	var slots []slot
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		spec, err := parseTag(sf.Tag.Get(TagName), order)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, fieldError(t, sf, err)
		}
		if spec.skip {
			continue
		}

		index := i
		get := func(v *reflect.Value) reflect.Value { return v.Field(index) }

		var ref binio.FieldRef[reflect.Value]
		if spec.count != "" {
			if !integers[spec.count] {
				return binio.Combinator[reflect.Value]{}, fieldError(t, sf,
					merr.WrapErrParameterInvalidMsg("count field %q must be an earlier integer field", spec.count))
			}
			choose, err := countedCodec(sf.Type, spec, building)
			if err != nil {
				return binio.Combinator[reflect.Value]{}, fieldError(t, sf, err)
			}
			ref = binio.FieldWith(b, sf.Name, choose, get)
		} else {
			c, err := fieldCodec(sf.Type, spec, building)
			if err != nil {
				return binio.Combinator[reflect.Value]{}, fieldError(t, sf, err)
			}
			ref = binio.Field(b, sf.Name, c, get)
		}
		slots = append(slots, slot{index: i, ref: ref})
		if isInteger(sf.Type.Kind()) {
			integers[sf.Name] = true
		}
	}

	c, err := b.Build(func(vals *binio.Values) (reflect.Value, error) {
		sv := reflect.New(t).Elem()
		for _, s := range slots {
			sv.Field(s.index).Set(s.ref.Get(vals))
		}
		return sv, nil
	})
	if err != nil {
		return binio.Combinator[reflect.Value]{}, err
	}
	actual, _ := cache.LoadOrStore(key, c)
	return actual.(binio.Combinator[reflect.Value]), nil
}

func fieldCodec(t reflect.Type, spec tagSpec, building map[cacheKey]bool) (binio.Combinator[reflect.Value], error) {
	switch t.Kind() {
	case reflect.Bool:
		return lift(binio.Bool(), t), nil
	case reflect.Uint8:
		return lift(binio.U8(), t), nil
	case reflect.Int8:
		return lift(binio.I8(), t), nil
	case reflect.Uint16:
		return lift(pick(spec.order, binio.BeU16, binio.LeU16), t), nil
	case reflect.Int16:
		return lift(pick(spec.order, binio.BeI16, binio.LeI16), t), nil
	case reflect.Uint32:
		return lift(pick(spec.order, binio.BeU32, binio.LeU32), t), nil
	case reflect.Int32:
		return lift(pick(spec.order, binio.BeI32, binio.LeI32), t), nil
	case reflect.Uint64:
		return lift(pick(spec.order, binio.BeU64, binio.LeU64), t), nil
	case reflect.Int64:
		return lift(pick(spec.order, binio.BeI64, binio.LeI64), t), nil
	case reflect.Float32:
		return lift(pick(spec.order, binio.BeF32, binio.LeF32), t), nil
	case reflect.Float64:
		return lift(pick(spec.order, binio.BeF64, binio.LeF64), t), nil
	case reflect.String:
		c, err := stringCodec(spec)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, err
		}
		return lift(c, t), nil
	case reflect.Array:
		elem, err := fieldCodec(t.Elem(), spec.element(), building)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, err
		}
		return arrayCodec(t, elem), nil
	case reflect.Slice:
		if spec.length < 0 {
			return binio.Combinator[reflect.Value]{}, merr.WrapErrParameterMissing("len or count", t.String())
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return lift(binio.Bytes(spec.length), t), nil
		}
		elem, err := fieldCodec(t.Elem(), spec.element(), building)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, err
		}
		return sliceCodec(t, elem, spec.length), nil
	case reflect.Struct:
		return structCodec(t, spec.order, building)
	}
	return binio.Combinator[reflect.Value]{}, merr.WrapErrOperationNotSupported(t.Kind().String(),
		"use a sized integer, string, array, slice or struct")
}

// countedCodec 为 count=Field 标注的切片生成依赖前序字段的组合子选择函数。
func countedCodec(t reflect.Type, spec tagSpec, building map[cacheKey]bool) (func(*binio.Values) (binio.Combinator[reflect.Value], error), error) {
	if t.Kind() != reflect.Slice {
		return nil, merr.WrapErrParameterInvalid("slice", t.Kind().String(), "count")
	}
	elem, err := fieldCodec(t.Elem(), spec.element(), building)
	if err != nil {
		return nil, err
	}
	return func(vals *binio.Values) (binio.Combinator[reflect.Value], error) {
		v, err := binio.Lookup[reflect.Value](vals, spec.count)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, err
		}
		n, err := lengthOf(v)
		if err != nil {
			return binio.Combinator[reflect.Value]{}, err
		}
		return sliceCodec(t, elem, n), nil
	}, nil
}

func stringCodec(spec tagSpec) (binio.Combinator[string], error) {
	switch {
	case spec.nul && spec.text == textASCII:
		return binio.NullASCII(), nil
	case spec.nul && spec.text == textUTF16:
		return binio.NullUTF16(), nil
	case spec.nul:
		return binio.NullUTF8(), nil
	case spec.length >= 0 && spec.text == textASCII:
		return binio.LenASCII(spec.length), nil
	case spec.length >= 0 && spec.text == textUTF16:
		return binio.LenUTF16(spec.length), nil
	case spec.length >= 0:
		return binio.LenUTF8(spec.length), nil
	}
	return binio.Combinator[string]{}, merr.WrapErrParameterMissing("nul or len", "string")
}

func arrayCodec(t reflect.Type, elem binio.Combinator[reflect.Value]) binio.Combinator[reflect.Value] {
	n := t.Len()
	return binio.New(fmt.Sprintf("[%d]%s", n, elem.Name()),
		func(r io.Reader) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			for i := 0; i < n; i++ {
				e, err := elem.Decode(r)
				if err != nil {
					return reflect.Value{}, err
				}
				v.Index(i).Set(e)
			}
			return v, nil
		},
		func(w io.Writer, v *reflect.Value) error {
			for i := 0; i < n; i++ {
				e := v.Index(i)
				if err := elem.Encode(w, &e); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

func sliceCodec(t reflect.Type, elem binio.Combinator[reflect.Value], n int) binio.Combinator[reflect.Value] {
	return binio.New(fmt.Sprintf("[%s; %d]", elem.Name(), n),
		func(r io.Reader) (reflect.Value, error) {
			v := reflect.MakeSlice(t, 0, min(n, 1024))
			for i := 0; i < n; i++ {
				e, err := elem.Decode(r)
				if err != nil {
					return reflect.Value{}, err
				}
				v = reflect.Append(v, e)
			}
			return v, nil
		},
		func(w io.Writer, v *reflect.Value) error {
			if v.Len() != n {
				return merr.WrapErrValueLengthMismatch(n, v.Len(), t.String())
			}
			for i := 0; i < n; i++ {
				e := v.Index(i)
				if err := elem.Encode(w, &e); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// lift 把基础组合子适配为以 reflect.Value 读写，支持以基础类型为底层类型的具名类型。
func lift[T any](c binio.Combinator[T], t reflect.Type) binio.Combinator[reflect.Value] {
	base := reflect.TypeOf((*T)(nil)).Elem()
	return binio.Map(c,
		func(v T) reflect.Value { return reflect.ValueOf(v).Convert(t) },
		func(v reflect.Value) T { return v.Convert(base).Interface().(T) },
	)
}

func pick[T any](order ByteOrder, be, le func() binio.Combinator[T]) binio.Combinator[T] {
	if order == LittleEndian {
		return le()
	}
	return be()
}

func lengthOf(v reflect.Value) (int, error) {
	switch {
	case v.CanInt():
		n := v.Int()
		if n < 0 || n > math.MaxInt {
			return 0, merr.WrapErrValueCastOutOfRange[int64](0, math.MaxInt, n, "int")
		}
		return int(n), nil
	case v.CanUint():
		n := v.Uint()
		if n > math.MaxInt {
			return 0, merr.WrapErrValueCastOutOfRange[uint64](0, math.MaxInt, n, "int")
		}
		return int(n), nil
	}
	return 0, merr.WrapErrValueInvalid(fmt.Sprintf("count of kind %s", v.Kind()), nil)
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func fieldError(t reflect.Type, sf reflect.StructField, err error) error {
	return errors.Wrapf(err, "field %s.%s", t.String(), sf.Name)
}
