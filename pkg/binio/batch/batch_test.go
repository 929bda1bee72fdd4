package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

type BatchSuite struct {
	suite.Suite
	pool *Pool
}

func (s *BatchSuite) SetupSuite() {
	s.pool = NewPool(4)
}

func (s *BatchSuite) TearDownSuite() {
	s.pool.Release()
}

func (s *BatchSuite) TestEncodeDecodeAll() {
	c := binio.Pair(binio.BeU16(), binio.NullUTF8())
	values := make([]binio.Tuple[uint16, string], 100)
	for i := range values {
		values[i] = binio.Tuple[uint16, string]{First: uint16(i), Second: fmt.Sprintf("item-%d", i)}
	}

	payloads, err := EncodeAll(context.Background(), s.pool, c, values)
	s.Require().NoError(err)
	s.Len(payloads, len(values))
	for i, v := range values {
		want, err := binio.WriteBytes(v, c)
		s.NoError(err)
		s.Equal(want, payloads[i])
	}

	decoded, err := DecodeAll(context.Background(), s.pool, c, payloads)
	s.NoError(err)
	s.Equal(values, decoded)
}

func (s *BatchSuite) TestFirstErrorInInputOrder() {
	payloads := [][]byte{{0, 1}, {0}, {0, 1, 2}}
	_, err := DecodeAll(context.Background(), s.pool, binio.BeU16(), payloads)
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)

	payloads = [][]byte{{0, 1}, {0, 1, 2}, {0}}
	_, err = DecodeAll(context.Background(), s.pool, binio.BeU16(), payloads)
	s.ErrorIs(err, merr.ErrValueTrailingBytes)
}

func (s *BatchSuite) TestCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EncodeAll(ctx, s.pool, binio.U8(), []uint8{1, 2, 3})
	s.ErrorIs(err, context.Canceled)
}

func (s *BatchSuite) TestPanickingMapping() {
	c := binio.Map(binio.U8(),
		func(v uint8) uint8 { return v },
		func(v uint8) uint8 {
			if v == 2 {
				panic("bad value")
			}
			return v
		})
	_, err := EncodeAll(context.Background(), s.pool, c, []uint8{1, 2, 3})
	s.ErrorIs(err, merr.ErrOperationNotSupported)
}

func (s *BatchSuite) TestEmpty() {
	out, err := EncodeAll[uint8](context.Background(), s.pool, binio.U8(), nil)
	s.NoError(err)
	s.Empty(out)
}

func (s *BatchSuite) TestDefaultPool() {
	p := NewPool(0)
	defer p.Release()
	s.Positive(p.Cap())
}

func TestBatch(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}
