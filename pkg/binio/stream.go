package binio

import (
	"io"
)

// Reader 包装 io.Reader 并记录已读取的字节数，用于诊断时定位偏移量。
type Reader struct {
	r   io.Reader
	off int64
}

// NewReader 创建一个 Reader。r 本身是 *Reader 时直接复用，偏移量继续累加。
func NewReader(r io.Reader) *Reader {
	if rd, ok := r.(*Reader); ok {
		return rd
	}
	return &Reader{r: r}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.off += int64(n)
	return n, err
}

// Offset 返回当前已读取的字节数。
func (r *Reader) Offset() int64 {
	return r.off
}

// Writer 包装 io.Writer 并记录已写出的字节数。
type Writer struct {
	w   io.Writer
	off int64
}

// NewWriter 创建一个 Writer。w 本身是 *Writer 时直接复用。
func NewWriter(w io.Writer) *Writer {
	if wr, ok := w.(*Writer); ok {
		return wr
	}
	return &Writer{w: w}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.off += int64(n)
	return n, err
}

// Offset 返回当前已写出的字节数。
func (w *Writer) Offset() int64 {
	return w.off
}
