package bytebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPut(t *testing.T) {
	buf := Get()
	assert.Equal(t, 0, buf.Len())
	_, _ = buf.WriteString("abc")
	out := Copy(buf)
	Put(buf)
	Put(nil)

	assert.Equal(t, []byte("abc"), out)
}

func TestGrow(t *testing.T) {
	buf := Get()
	defer Put(buf)

	b := Grow(buf, 16)
	assert.Len(t, b, 16)
	b = Grow(buf, 4)
	assert.Len(t, b, 4)
	assert.GreaterOrEqual(t, cap(b), 16)
}
