package binio

import (
	"bytes"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

type brokenWriter struct {
	limit int
}

func (w *brokenWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		n := w.limit
		w.limit = 0
		return n, errors.New("device full")
	}
	w.limit -= len(p)
	return len(p), nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestReadWriteStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, uint16(0x0102), BeU16()))
	require.NoError(t, Write(&buf, uint8(3), U8()))
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())

	v, err := Read(&buf, BeU16())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)

	b, err := Read(&buf, U8())
	require.NoError(t, err)
	assert.Equal(t, uint8(3), b)

	_, err = Read(&buf, U8())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadErrorContext(t *testing.T) {
	c := Pair(BeU32(), BeU32()).Named("pair")
	_, err := ReadBytes([]byte{0, 0, 0, 1, 0, 0}, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode pair at offset 6")
	assert.ErrorIs(t, err, merr.ErrIoUnexpectEOF)
	assert.Equal(t, merr.Code(merr.ErrIoUnexpectEOF), merr.Code(err))
}

func TestReadBytesTrailing(t *testing.T) {
	_, err := ReadBytes([]byte{1, 2, 3}, BeU16())
	assert.ErrorIs(t, err, merr.ErrValueTrailingBytes)
	assert.True(t, merr.IsValueError(err))
}

func TestWriteFailures(t *testing.T) {
	err := Write(&brokenWriter{limit: 1}, uint32(1), BeU32())
	assert.ErrorIs(t, err, merr.ErrIoFailed)
	assert.True(t, merr.IsIOError(err))
	assert.True(t, merr.IsRetryableErr(err))
	assert.Contains(t, err.Error(), "device full")

	err = Write(shortWriter{}, uint32(1), BeU32())
	assert.ErrorIs(t, err, merr.ErrIoFailed)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestStreamOffsets(t *testing.T) {
	rd := NewReader(bytes.NewReader([]byte{1, 2, 3, 4}))
	assert.Same(t, rd, NewReader(rd))

	_, err := BeU16().Decode(rd)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rd.Offset())

	var buf bytes.Buffer
	wr := NewWriter(&buf)
	assert.Same(t, wr, NewWriter(wr))
	v := uint32(7)
	require.NoError(t, LeU32().Encode(wr, &v))
	assert.Equal(t, int64(4), wr.Offset())
}
