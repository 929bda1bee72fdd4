package binio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

// readFull 精确读满 buf，读不够视为 IO 错误，不做零填充。
func readFull(r io.Reader, buf []byte, op string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return merr.WrapErrIo(op, err)
	}
	return nil
}

// writeAll 将 buf 全部写出，短写视为 IO 错误。
func writeAll(w io.Writer, buf []byte, op string) error {
	n, err := w.Write(buf)
	if err != nil {
		return merr.WrapErrIo(op, err)
	}
	if n < len(buf) {
		return merr.WrapErrIoFailed(op, io.ErrShortWrite)
	}
	return nil
}

// fixed 构造定长数值组合子。
func fixed[T any](name string, size int, get func([]byte) T, put func([]byte, T)) Combinator[T] {
	readOp, writeOp := "read "+name, "write "+name
	return New(name,
		func(r io.Reader) (T, error) {
			var buf [8]byte
			if err := readFull(r, buf[:size], readOp); err != nil {
				var zero T
				return zero, err
			}
			return get(buf[:size]), nil
		},
		func(w io.Writer, v *T) error {
			var buf [8]byte
			put(buf[:size], *v)
			return writeAll(w, buf[:size], writeOp)
		},
	)
}

func U8() Combinator[uint8] {
	return fixed("u8", 1,
		func(b []byte) uint8 { return b[0] },
		func(b []byte, v uint8) { b[0] = v })
}

func I8() Combinator[int8] {
	return fixed("i8", 1,
		func(b []byte) int8 { return int8(b[0]) },
		func(b []byte, v int8) { b[0] = byte(v) })
}

// 16 位

func BeU16() Combinator[uint16] { return u16("be_u16", binary.BigEndian) }
func LeU16() Combinator[uint16] { return u16("le_u16", binary.LittleEndian) }
func BeI16() Combinator[int16]  { return i16("be_i16", binary.BigEndian) }
func LeI16() Combinator[int16]  { return i16("le_i16", binary.LittleEndian) }

// 32 位

func BeU32() Combinator[uint32] { return u32("be_u32", binary.BigEndian) }
func LeU32() Combinator[uint32] { return u32("le_u32", binary.LittleEndian) }
func BeI32() Combinator[int32]  { return i32("be_i32", binary.BigEndian) }
func LeI32() Combinator[int32]  { return i32("le_i32", binary.LittleEndian) }

// 64 位

func BeU64() Combinator[uint64] { return u64("be_u64", binary.BigEndian) }
func LeU64() Combinator[uint64] { return u64("le_u64", binary.LittleEndian) }
func BeI64() Combinator[int64]  { return i64("be_i64", binary.BigEndian) }
func LeI64() Combinator[int64]  { return i64("le_i64", binary.LittleEndian) }

// 浮点数按 IEEE 754 位模式读写，NaN 的载荷原样保留。

func BeF32() Combinator[float32] { return f32("be_f32", binary.BigEndian) }
func LeF32() Combinator[float32] { return f32("le_f32", binary.LittleEndian) }
func BeF64() Combinator[float64] { return f64("be_f64", binary.BigEndian) }
func LeF64() Combinator[float64] { return f64("le_f64", binary.LittleEndian) }

func u16(name string, order binary.ByteOrder) Combinator[uint16] {
	return fixed(name, 2, order.Uint16, order.PutUint16)
}

func i16(name string, order binary.ByteOrder) Combinator[int16] {
	return fixed(name, 2,
		func(b []byte) int16 { return int16(order.Uint16(b)) },
		func(b []byte, v int16) { order.PutUint16(b, uint16(v)) })
}

func u32(name string, order binary.ByteOrder) Combinator[uint32] {
	return fixed(name, 4, order.Uint32, order.PutUint32)
}

func i32(name string, order binary.ByteOrder) Combinator[int32] {
	return fixed(name, 4,
		func(b []byte) int32 { return int32(order.Uint32(b)) },
		func(b []byte, v int32) { order.PutUint32(b, uint32(v)) })
}

func u64(name string, order binary.ByteOrder) Combinator[uint64] {
	return fixed(name, 8, order.Uint64, order.PutUint64)
}

func i64(name string, order binary.ByteOrder) Combinator[int64] {
	return fixed(name, 8,
		func(b []byte) int64 { return int64(order.Uint64(b)) },
		func(b []byte, v int64) { order.PutUint64(b, uint64(v)) })
}

func f32(name string, order binary.ByteOrder) Combinator[float32] {
	return fixed(name, 4,
		func(b []byte) float32 { return math.Float32frombits(order.Uint32(b)) },
		func(b []byte, v float32) { order.PutUint32(b, math.Float32bits(v)) })
}

func f64(name string, order binary.ByteOrder) Combinator[float64] {
	return fixed(name, 8,
		func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) },
		func(b []byte, v float64) { order.PutUint64(b, math.Float64bits(v)) })
}
