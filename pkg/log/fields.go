package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule     = "module"
	FieldNameCombinator = "combinator"
	FieldNameField      = "field"
	FieldNameOffset     = "offset"
	FieldNameDirection  = "direction"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldCombinator 返回一个包含组合子名称的 zap 字段。
func FieldCombinator(name string) zap.Field {
	return zap.String(FieldNameCombinator, name)
}

// FieldField 返回一个包含聚合字段名的 zap 字段。
func FieldField(name string) zap.Field {
	return zap.String(FieldNameField, name)
}

// FieldOffset 返回一个包含流偏移量的 zap 字段。
func FieldOffset(offset int64) zap.Field {
	return zap.Int64(FieldNameOffset, offset)
}

// FieldDirection 返回编解码方向（decode/encode）字段。
func FieldDirection(direction string) zap.Field {
	return zap.String(FieldNameDirection, direction)
}
