// Package json 统一封装 JSON 编解码实现，当前基于 bytedance/sonic。
package json

import (
	"github.com/bytedance/sonic"
)

// api 使用与标准库兼容的配置：map 的 key 有序输出，HTML 字符会被转义。
// 同一个值多次编码得到的字节完全一致。
var api = sonic.ConfigStd

var (
	Marshal   = api.Marshal
	Unmarshal = api.Unmarshal
)
