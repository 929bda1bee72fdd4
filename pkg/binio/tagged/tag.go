package tagged

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// TagName 是本包读取的结构体标签名。
const TagName = "bin"

// ByteOrder 指定多字节数值的字节序。
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "le"
	}
	return "be"
}

type text int

const (
	textUTF8 text = iota
	textASCII
	textUTF16
)

// tagSpec 是解析后的字段标签。
//
//	be / le        字节序，默认取 Option 中的设置
//	nul            以 0 结尾的字符串
//	len=N          定长：字符串为字节数，数组以外的切片为元素个数
//	count=Field    元素个数取自前面已声明的整数字段
//	ascii / utf8 / utf16
//	-              忽略该字段
type tagSpec struct {
	skip   bool
	order  ByteOrder
	nul    bool
	length int
	count  string
	text   text
}

func parseTag(tag string, order ByteOrder) (tagSpec, error) {
	spec := tagSpec{order: order, length: -1}
	if strings.TrimSpace(tag) == "-" {
		spec.skip = true
		return spec, nil
	}

	items := lo.Compact(lo.Map(strings.Split(tag, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	for _, item := range items {
		key, value, hasValue := strings.Cut(item, "=")
		switch {
		case key == "be" && !hasValue:
			spec.order = BigEndian
		case key == "le" && !hasValue:
			spec.order = LittleEndian
		case key == "nul" && !hasValue:
			spec.nul = true
		case key == "ascii" && !hasValue:
			spec.text = textASCII
		case key == "utf8" && !hasValue:
			spec.text = textUTF8
		case key == "utf16" && !hasValue:
			spec.text = textUTF16
		case key == "len" && hasValue:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return spec, merr.WrapErrParameterInvalidMsg("bad length %q in tag %q", value, tag)
			}
			spec.length = n
		case key == "count" && hasValue && value != "":
			spec.count = value
		default:
			return spec, merr.WrapErrParameterInvalidMsg("unknown item %q in tag %q", item, tag)
		}
	}

	sizing := lo.Count([]bool{spec.nul, spec.length >= 0, spec.count != ""}, true)
	if sizing > 1 {
		return spec, merr.WrapErrParameterInvalidMsg("tag %q mixes nul, len and count", tag)
	}
	return spec, nil
}

// element 返回数组/切片元素使用的标签：保留字节序与文本编码，去掉长度信息。
func (s tagSpec) element() tagSpec {
	return tagSpec{order: s.order, length: -1, text: s.text}
}
