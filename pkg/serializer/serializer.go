// Package serializer 提供“对象 <-> 字节”的序列化能力，供长度前缀的结构化载荷使用。
package serializer

// Serializer 抽象了对象与字节序列之间的转换。
//
// 约定：同一个值多次 Marshal 的输出必须一致。
type Serializer interface {
	// Name 返回格式名，用于日志与诊断。
	Name() string

	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}
