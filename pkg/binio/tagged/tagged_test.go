package tagged

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

type thing struct {
	A uint8
	B uint16
}

type kind uint16

type record struct {
	Magic   uint32 `bin:"be"`
	Kind    kind   `bin:"le"`
	Count   uint8
	Items   []uint16 `bin:"le,count=Count"`
	Name    string   `bin:"nul"`
	Label   string   `bin:"len=4,utf16"`
	Tag     [2]int8
	Raw     []byte `bin:"len=3"`
	Enabled bool
	Ratio   float32
	Inner   thing
	Note    string `bin:"-"`
	hidden  int
}

type node struct {
	N    uint8
	Kids []node `bin:"count=N"`
}

type branch struct {
	Leaves [2]leaf
}

type leaf struct {
	Next []branch `bin:"len=1"`
}

type pair struct {
	Left  thing
	Right thing `bin:"le"`
}

type TaggedSuite struct {
	suite.Suite
}

func (s *TaggedSuite) TestEndToEnd() {
	c, err := For[thing]()
	s.Require().NoError(err)

	out, err := binio.WriteBytes(thing{A: 0x10, B: 0x20}, c)
	s.NoError(err)
	s.Equal([]byte{0x10, 0x00, 0x20}, out)

	v, err := binio.ReadBytes(out, c)
	s.NoError(err)
	s.Equal(thing{A: 0x10, B: 0x20}, v)
}

func (s *TaggedSuite) TestMatchesBuilder() {
	type wide struct {
		A uint16
		B uint16
	}
	derived := MustFor[wide](WithByteOrder(LittleEndian))
	handwritten := binio.MustSequence[wide]("wide", nil,
		binio.WithSetter(binio.NewField("a", binio.LeU16(), func(w *wide) uint16 { return w.A }), func(w *wide, v uint16) { w.A = v }),
		binio.WithSetter(binio.NewField("b", binio.LeU16(), func(w *wide) uint16 { return w.B }), func(w *wide, v uint16) { w.B = v }),
	)

	in := wide{A: 0x0102, B: 0x0304}
	x, err := binio.WriteBytes(in, derived)
	s.NoError(err)
	y, err := binio.WriteBytes(in, handwritten)
	s.NoError(err)
	s.Equal(y, x)
	s.Equal([]byte{0x02, 0x01, 0x04, 0x03}, x)
}

func (s *TaggedSuite) TestRecord() {
	c, err := For[record]()
	s.Require().NoError(err)

	in := record{
		Magic:   0x62696e21,
		Kind:    7,
		Count:   2,
		Items:   []uint16{1, 0x0203},
		Name:    "ab",
		Label:   "hi",
		Tag:     [2]int8{-1, 1},
		Raw:     []byte{9, 8, 7},
		Enabled: true,
		Ratio:   1.0,
		Inner:   thing{A: 1, B: 2},
	}
	out, err := binio.WriteBytes(in, c)
	s.NoError(err)
	s.Equal([]byte{
		'b', 'i', 'n', '!',
		7, 0,
		2,
		1, 0, 3, 2,
		'a', 'b', 0,
		0, 'h', 0, 'i',
		0xff, 1,
		9, 8, 7,
		1,
		0x3f, 0x80, 0, 0,
		1, 0, 2,
	}, out)

	got, err := binio.ReadBytes(out, c)
	s.NoError(err)
	s.Equal(in, got)

	in.Note = "ignored"
	again, err := binio.WriteBytes(in, c)
	s.NoError(err)
	s.Equal(out, again)
}

func (s *TaggedSuite) TestCountMismatch() {
	c := MustFor[record]()
	_, err := binio.WriteBytes(record{Count: 3, Items: []uint16{1}}, c)
	s.ErrorIs(err, merr.ErrValueLengthMismatch)
}

func (s *TaggedSuite) TestCached() {
	first := MustFor[thing]()
	second := MustFor[thing]()
	s.Equal(first.Name(), second.Name())
	_, ok := cache.Load(cacheKey{t: reflect.TypeOf(thing{}), order: BigEndian})
	s.True(ok)
}

func (s *TaggedSuite) TestSetupErrors() {
	type noSize struct {
		S string
	}
	_, err := For[noSize]()
	s.ErrorIs(err, merr.ErrParameterMissing)

	type badCount struct {
		Items []uint8 `bin:"count=N"`
		N     uint8
	}
	_, err = For[badCount]()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	type mixed struct {
		S string `bin:"nul,len=3"`
	}
	_, err = For[mixed]()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	type unknown struct {
		S string `bin:"zigzag"`
	}
	_, err = For[unknown]()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	type pointer struct {
		P *int
	}
	_, err = For[pointer]()
	s.ErrorIs(err, merr.ErrOperationNotSupported)

	type platform struct {
		N int
	}
	_, err = For[platform]()
	s.ErrorIs(err, merr.ErrOperationNotSupported)

	_, err = For[int]()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	s.Panics(func() { MustFor[noSize]() })

	_, err = For[node]()
	s.ErrorIs(err, merr.ErrOperationNotSupported)
	s.Equal(merr.SetupError, merr.GetErrorType(err))
	_, err = For[branch]()
	s.ErrorIs(err, merr.ErrOperationNotSupported)
	s.Panics(func() { MustFor[node]() })
}

func (s *TaggedSuite) TestRepeatedStructIsNotRecursive() {
	c, err := For[pair]()
	s.Require().NoError(err)
	out, err := binio.WriteBytes(pair{Left: thing{1, 2}, Right: thing{3, 4}}, c)
	s.NoError(err)
	s.Equal([]byte{1, 0, 2, 3, 4, 0}, out)
}

func (s *TaggedSuite) TestParseTag() {
	spec, err := parseTag(" le , len=8 , ascii ", BigEndian)
	s.NoError(err)
	s.Equal(LittleEndian, spec.order)
	s.Equal(8, spec.length)
	s.Equal(textASCII, spec.text)
	s.Equal("le", spec.order.String())

	spec, err = parseTag("", LittleEndian)
	s.NoError(err)
	s.Equal(LittleEndian, spec.order)
	s.Equal(-1, spec.length)

	_, err = parseTag("len=-1", BigEndian)
	s.ErrorIs(err, merr.ErrParameterInvalid)

	spec, err = parseTag("-", BigEndian)
	s.NoError(err)
	s.True(spec.skip)
}

func TestTagged(t *testing.T) {
	suite.Run(t, new(TaggedSuite))
}
