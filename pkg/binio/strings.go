package binio

import (
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lk2023060901/binio-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// 字符串组合子分为两类：
//   - null：以 0 结尾（UTF-16 为 0x0000），编码时总是写出结束符，且不允许内容中出现 0。
//   - len ：给定字节长度，编码时长度必须精确一致。
//
// UTF-16 统一使用大端序，长度以字节计。

type textCodec struct {
	name     string
	validate func(s string) error
}

var (
	asciiText = textCodec{name: "ascii", validate: checkASCII}
	utf8Text  = textCodec{name: "utf8", validate: checkUTF8}
)

// NullASCII 读写以 0 结尾的 ASCII 字符串。
func NullASCII() Combinator[string] { return nullString("null_ascii", asciiText) }

// LenASCII 读写 n 字节的 ASCII 字符串。
func LenASCII(n int) Combinator[string] { return lenString("len_ascii", n, asciiText) }

// NullUTF8 读写以 0 结尾的 UTF-8 字符串。
func NullUTF8() Combinator[string] { return nullString("null_utf8", utf8Text) }

// LenUTF8 读写 n 字节的 UTF-8 字符串。
func LenUTF8(n int) Combinator[string] { return lenString("len_utf8", n, utf8Text) }

func nullString(name string, text textCodec) Combinator[string] {
	u8 := U8()
	return New(name,
		func(r io.Reader) (string, error) {
			buf := bytebuffer.Get()
			defer bytebuffer.Put(buf)
			for {
				b, err := u8.Decode(r)
				if err != nil {
					return "", err
				}
				if b == 0 {
					break
				}
				_ = buf.WriteByte(b)
			}
			s := string(buf.B)
			if err := text.validate(s); err != nil {
				return "", err
			}
			return s, nil
		},
		func(w io.Writer, v *string) error {
			if err := text.validate(*v); err != nil {
				return err
			}
			if err := checkNoNUL(*v); err != nil {
				return err
			}
			buf := bytebuffer.Get()
			defer bytebuffer.Put(buf)
			_, _ = buf.WriteString(*v)
			_ = buf.WriteByte(0)
			return writeAll(w, buf.B, "write "+name)
		},
	)
}

func lenString(name string, n int, text textCodec) Combinator[string] {
	raw := Bytes(n)
	return New(fmt.Sprintf("%s[%d]", name, n),
		func(r io.Reader) (string, error) {
			b, err := raw.Decode(r)
			if err != nil {
				return "", err
			}
			s := string(b)
			if err := text.validate(s); err != nil {
				return "", err
			}
			return s, nil
		},
		func(w io.Writer, v *string) error {
			if len(*v) != n {
				return merr.WrapErrValueLengthMismatch(n, len(*v), name)
			}
			if err := text.validate(*v); err != nil {
				return err
			}
			return writeAll(w, []byte(*v), "write "+name)
		},
	)
}

// NullUTF16 读写以 0x0000 结尾的 UTF-16（大端）字符串。
func NullUTF16() Combinator[string] {
	unit := BeU16()
	return New("null_utf16",
		func(r io.Reader) (string, error) {
			var units []uint16
			for {
				u, err := unit.Decode(r)
				if err != nil {
					return "", err
				}
				if u == 0 {
					break
				}
				units = append(units, u)
			}
			return decodeUTF16(units)
		},
		func(w io.Writer, v *string) error {
			if err := checkNoNUL(*v); err != nil {
				return err
			}
			units, err := encodeUTF16(*v)
			if err != nil {
				return err
			}
			units = append(units, 0)
			return writeAll(w, utf16Bytes(units), "write null_utf16")
		},
	)
}

// LenUTF16 读写 n 字节的 UTF-16（大端）字符串，n 必须为偶数。
func LenUTF16(n int) Combinator[string] {
	raw := Bytes(n)
	name := fmt.Sprintf("len_utf16[%d]", n)
	return New(name,
		func(r io.Reader) (string, error) {
			if n%2 != 0 {
				return "", merr.WrapErrValueInvalid(fmt.Sprintf("odd utf16 byte length %d", n), nil)
			}
			b, err := raw.Decode(r)
			if err != nil {
				return "", err
			}
			units := make([]uint16, n/2)
			for i := range units {
				units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
			}
			return decodeUTF16(units)
		},
		func(w io.Writer, v *string) error {
			units, err := encodeUTF16(*v)
			if err != nil {
				return err
			}
			if len(units)*2 != n {
				return merr.WrapErrValueLengthMismatch(n, len(units)*2, name)
			}
			return writeAll(w, utf16Bytes(units), "write "+name)
		},
	)
}

func checkASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return merr.WrapErrValueInvalid(fmt.Sprintf("non-ascii byte 0x%02x at %d", s[i], i), nil)
		}
	}
	return nil
}

func checkUTF8(s string) error {
	if !utf8.ValidString(s) {
		return merr.WrapErrValueInvalid("invalid utf8", nil)
	}
	return nil
}

func checkNoNUL(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return merr.WrapErrValueInvalid(fmt.Sprintf("NUL at %d in null-terminated string", i), nil)
		}
	}
	return nil
}

// decodeUTF16 拒绝不成对的代理项，utf16.Decode 会把它们静默替换为 U+FFFD。
func decodeUTF16(units []uint16) (string, error) {
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case utf16.IsSurrogate(u) && u < 0xdc00:
			if i+1 >= len(units) || utf16.DecodeRune(u, rune(units[i+1])) == utf8.RuneError {
				return "", merr.WrapErrValueInvalid(fmt.Sprintf("unpaired utf16 surrogate at unit %d", i), nil)
			}
			i++
		case utf16.IsSurrogate(u):
			return "", merr.WrapErrValueInvalid(fmt.Sprintf("unpaired utf16 surrogate at unit %d", i), nil)
		}
	}
	return string(utf16.Decode(units)), nil
}

func encodeUTF16(s string) ([]uint16, error) {
	if err := checkUTF8(s); err != nil {
		return nil, err
	}
	return utf16.Encode([]rune(s)), nil
}

func utf16Bytes(units []uint16) []byte {
	out := make([]byte, 2*len(units))
	for i, u := range units {
		out[2*i] = byte(u >> 8)
		out[2*i+1] = byte(u)
	}
	return out
}
