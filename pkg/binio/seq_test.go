package binio

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

type thing struct {
	A uint8
	B uint16
}

type list struct {
	N     uint8
	Items []uint16
}

type SeqSuite struct {
	suite.Suite
}

func thingFields() []FieldDescriptor[thing] {
	return []FieldDescriptor[thing]{
		WithSetter(NewField("a", U8(), func(t *thing) uint8 { return t.A }), func(t *thing, v uint8) { t.A = v }),
		WithSetter(NewField("b", BeU16(), func(t *thing) uint16 { return t.B }), func(t *thing, v uint16) { t.B = v }),
	}
}

func listCombinator() Combinator[list] {
	return MustSequence[list]("list", nil,
		WithSetter(NewField("n", U8(), func(l *list) uint8 { return l.N }), func(l *list, v uint8) { l.N = v }),
		WithSetter(NewFieldFunc("items",
			func(v *Values) (Combinator[[]uint16], error) {
				n, err := Lookup[uint8](v, "n")
				if err != nil {
					return Combinator[[]uint16]{}, err
				}
				return Count(BeU16(), int(n)), nil
			},
			func(l *list) []uint16 { return l.Items }),
			func(l *list, v []uint16) { l.Items = v }),
	)
}

func (s *SeqSuite) TestEndToEnd() {
	c, err := Sequence[thing]("thing", nil, thingFields()...)
	s.Require().NoError(err)

	out, err := WriteBytes(thing{A: 0x10, B: 0x20}, c)
	s.NoError(err)
	s.Equal([]byte{0x10, 0x00, 0x20}, out)

	v, err := ReadBytes([]byte{0x10, 0x00, 0x20}, c)
	s.NoError(err)
	s.Equal(thing{A: 0x10, B: 0x20}, v)
}

func (s *SeqSuite) TestConstruct() {
	fields := thingFields()
	c, err := Sequence("thing", func(v *Values) (thing, error) {
		a, err := Lookup[uint8](v, "a")
		if err != nil {
			return thing{}, err
		}
		b, err := Lookup[uint16](v, "b")
		if err != nil {
			return thing{}, err
		}
		return thing{A: a + 1, B: b}, nil
	}, fields...)
	s.Require().NoError(err)

	v, err := ReadBytes([]byte{0x10, 0x00, 0x20}, c)
	s.NoError(err)
	s.Equal(thing{A: 0x11, B: 0x20}, v)

	wrongType, err := Sequence("thing", func(v *Values) (thing, error) {
		_, err := Lookup[string](v, "a")
		return thing{}, err
	}, fields...)
	s.Require().NoError(err)
	_, err = ReadBytes([]byte{0x10, 0x00, 0x20}, wrongType)
	s.ErrorIs(err, merr.ErrParameterInvalid)

	foreign, err := Sequence("thing", func(v *Values) (thing, error) {
		return thing{}, errors.New("rejected")
	}, fields...)
	s.Require().NoError(err)
	_, err = ReadBytes([]byte{0x10, 0x00, 0x20}, foreign)
	s.ErrorIs(err, merr.ErrValueInvalid)
	s.True(merr.IsValueError(err))
}

func (s *SeqSuite) TestFailureAborts() {
	c := MustSequence[thing]("thing", nil, thingFields()...)

	v, err := ReadBytes([]byte{0x10, 0x00}, c)
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)
	s.Equal(thing{}, v)
}

func (s *SeqSuite) TestDependentField() {
	c := listCombinator()

	out, err := WriteBytes(list{N: 2, Items: []uint16{1, 2}}, c)
	s.NoError(err)
	s.Equal([]byte{2, 0, 1, 0, 2}, out)

	v, err := ReadBytes(out, c)
	s.NoError(err)
	s.Equal(list{N: 2, Items: []uint16{1, 2}}, v)

	_, err = WriteBytes(list{N: 3, Items: []uint16{1}}, c)
	s.ErrorIs(err, merr.ErrValueLengthMismatch)
}

func (s *SeqSuite) TestSetupErrors() {
	_, err := Sequence[thing]("thing", nil,
		NewField("a", U8(), func(t *thing) uint8 { return t.A }))
	s.ErrorIs(err, merr.ErrParameterMissing)
	s.Equal(merr.SetupError, merr.GetErrorType(err))

	fields := thingFields()
	_, err = Sequence[thing]("thing", nil, fields[0], fields[0])
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = Sequence[thing]("thing", nil, FieldDescriptor[thing]{})
	s.ErrorIs(err, merr.ErrParameterMissing)

	s.Panics(func() {
		MustSequence[thing]("thing", nil, fields[1], fields[1])
	})
}

func (s *SeqSuite) TestFixed() {
	c := MustSequence[thing]("thing", nil,
		Fixed[thing](Const(BeU16(), 0xcafe)),
		thingFields()[0],
		Fixed[thing](Ignore(U8(), 0)),
	)

	out, err := WriteBytes(thing{A: 5}, c)
	s.NoError(err)
	s.Equal([]byte{0xca, 0xfe, 5, 0}, out)

	v, err := ReadBytes([]byte{0xca, 0xfe, 5, 9}, c)
	s.NoError(err)
	s.Equal(thing{A: 5}, v)

	_, err = ReadBytes([]byte{0xbe, 0xef, 5, 0}, c)
	s.ErrorIs(err, merr.ErrValueCheckFailed)
}

func (s *SeqSuite) TestLookupBeforeProcessed() {
	c := MustSequence("early", func(v *Values) (thing, error) { return thing{}, nil },
		NewFieldFunc("a", func(v *Values) (Combinator[uint8], error) {
			_, err := Lookup[uint16](v, "b")
			return U8(), err
		}, func(t *thing) uint8 { return t.A }),
		NewField("b", BeU16(), func(t *thing) uint16 { return t.B }),
	)
	_, err := ReadBytes([]byte{1, 0, 2}, c)
	s.ErrorIs(err, merr.ErrParameterMissing)
}

func TestSeq(t *testing.T) {
	suite.Run(t, new(SeqSuite))
}
