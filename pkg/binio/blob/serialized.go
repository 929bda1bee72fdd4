package blob

import (
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/serializer"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// Serialized 使用 ser 将对象编码为长度前缀的载荷。
// newValue 返回解码目标，ser.Unmarshal 会收到它的地址。
func Serialized[T any, L constraints.Unsigned](lenC binio.Combinator[L], ser serializer.Serializer, newValue func() T, opts ...Option) binio.Combinator[T] {
	o := newOptions(opts)
	return binio.New(fmt.Sprintf("%s[%s]", ser.Name(), lenC.Name()),
		func(r io.Reader) (T, error) {
			out := newValue()
			err := readPayload(r, lenC, o.maxSize, func(payload []byte) error {
				if err := ser.Unmarshal(payload, target(&out)); err != nil {
					return merr.WrapErrValueInvalid("unmarshal "+ser.Name(), err)
				}
				return nil
			})
			if err != nil {
				var zero T
				return zero, err
			}
			return out, nil
		},
		func(w io.Writer, v *T) error {
			data, err := ser.Marshal(source(v))
			if err != nil {
				return merr.WrapErrValueInvalid("marshal "+ser.Name(), err)
			}
			return writePayload(w, lenC, o.maxSize, data)
		},
	)
}

// JSON 以 JSON 格式读写 T，map 的 key 有序输出。
func JSON[T any, L constraints.Unsigned](lenC binio.Combinator[L], opts ...Option) binio.Combinator[T] {
	return Serialized(lenC, serializer.JSONSerializer{}, func() T {
		var zero T
		return zero
	}, opts...)
}

// Proto 以 Protobuf 确定性编码读写消息，newMsg 返回一个空消息用于解码。
func Proto[M proto.Message, L constraints.Unsigned](lenC binio.Combinator[L], newMsg func() M, opts ...Option) binio.Combinator[M] {
	return Serialized(lenC, serializer.ProtoSerializer{}, newMsg, opts...)
}

// target 返回 Unmarshal 使用的目标：proto.Message 本身已是指针，其余类型取地址。
func target[T any](v *T) any {
	if msg, ok := any(*v).(proto.Message); ok {
		return msg
	}
	return v
}

func source[T any](v *T) any {
	if msg, ok := any(*v).(proto.Message); ok {
		return msg
	}
	return *v
}
