package serializer

import (
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// ProtoSerializer 使用 Protobuf 进行二进制序列化。
//
// 注意：传入/传出的对象必须实现 proto.Message。
// 编码使用确定性模式，map 字段按 key 排序输出。
type ProtoSerializer struct{}

// 编译期断言：确保 ProtoSerializer 实现了 Serializer 接口。
var _ Serializer = ProtoSerializer{}

var deterministic = proto.MarshalOptions{Deterministic: true}

func (ProtoSerializer) Name() string {
	return "proto"
}

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, merr.WrapErrParameterInvalid("proto.Message", typeOf(v))
	}
	return deterministic.Marshal(msg)
}

func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return merr.WrapErrParameterInvalid("proto.Message", typeOf(v))
	}
	return proto.Unmarshal(data, msg)
}
