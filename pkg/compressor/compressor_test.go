package compressor

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/suite"
)

type CompressorSuite struct {
	suite.Suite
	zstd *ZstdCompressor
}

func (s *CompressorSuite) SetupSuite() {
	c, err := NewZstdCompressor(WithConcurrency(2), WithLevel(zstd.SpeedFastest))
	s.Require().NoError(err)
	s.zstd = c
}

func (s *CompressorSuite) TearDownSuite() {
	s.zstd.Close()
}

func (s *CompressorSuite) TestNop() {
	var c Compressor = NopCompressor{}
	src := []byte("plain")
	packet, err := c.Compress(nil, src)
	s.NoError(err)
	s.Equal(src, packet)

	plain, err := c.Decompress(make([]byte, 0, 8), packet)
	s.NoError(err)
	s.Equal(src, plain)
	s.Equal("none", c.Name())
}

func (s *CompressorSuite) TestZstdRoundTrip() {
	src := bytes.Repeat([]byte("binio"), 1024)
	packet, err := s.zstd.Compress(nil, src)
	s.NoError(err)
	s.Less(len(packet), len(src))

	plain, err := s.zstd.Decompress(nil, packet)
	s.NoError(err)
	s.Equal(src, plain)
}

func (s *CompressorSuite) TestZstdDeterministic() {
	src := bytes.Repeat([]byte{1, 2, 3, 4}, 300)
	first, err := s.zstd.Compress(nil, src)
	s.NoError(err)
	second, err := s.zstd.Compress(make([]byte, 0, 16), src)
	s.NoError(err)
	s.Equal(first, second)
}

func (s *CompressorSuite) TestZstdCorrupt() {
	_, err := s.zstd.Decompress(nil, []byte{0x28, 0xb5, 0x2f, 0xfd, 0xff})
	s.Error(err)
}

func (s *CompressorSuite) TestZstdClosed() {
	c, err := NewZstdCompressor()
	s.Require().NoError(err)
	c.Close()
	c.Close()

	_, err = c.Compress(nil, []byte("x"))
	s.ErrorIs(err, zstd.ErrEncoderClosed)
	_, err = c.Decompress(nil, []byte("x"))
	s.ErrorIs(err, zstd.ErrDecoderClosed)
	_, err = c.DecompressLimit(nil, []byte("x"), 1024)
	s.ErrorIs(err, zstd.ErrDecoderClosed)
}

func (s *CompressorSuite) TestZstdDecompressLimit() {
	src := make([]byte, 4<<20)
	packet, err := s.zstd.Compress(nil, src)
	s.Require().NoError(err)
	s.Less(len(packet), 1<<16)

	plain, err := s.zstd.DecompressLimit(nil, packet, 1<<20)
	s.ErrorIs(err, ErrSizeExceeded)
	s.ErrorIs(err, zstd.ErrDecoderSizeExceeded)
	s.Nil(plain)

	plain, err = s.zstd.DecompressLimit(nil, packet, 4<<20)
	s.NoError(err)
	s.Equal(len(src), len(plain))
}

func (s *CompressorSuite) TestZstdDecompressLimitUnknownSize() {
	// 流式写出的帧不带内容大小，只能边解码边检查。
	var stream bytes.Buffer
	w, err := zstd.NewWriter(&stream, zstd.WithEncoderLevel(zstd.SpeedFastest))
	s.Require().NoError(err)
	_, err = w.Write(make([]byte, 4<<20))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	plain, err := s.zstd.DecompressLimit(nil, stream.Bytes(), 1<<20)
	s.ErrorIs(err, ErrSizeExceeded)
	s.Nil(plain)
}

func (s *CompressorSuite) TestNopDecompressLimit() {
	var c LimitedDecompressor = NopCompressor{}
	plain, err := c.DecompressLimit(nil, []byte("abcd"), 4)
	s.NoError(err)
	s.Equal([]byte("abcd"), plain)

	_, err = c.DecompressLimit(nil, []byte("abcde"), 4)
	s.ErrorIs(err, ErrSizeExceeded)
}

func TestCompressor(t *testing.T) {
	suite.Run(t, new(CompressorSuite))
}
