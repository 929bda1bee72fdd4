// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"io"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrValueCheckFailed(0x50, 0x51)
	err = errors.Wrap(err, "failed to read magic")
	s.ErrorIs(err, ErrValueCheckFailed)
	s.Equal(Code(ErrValueCheckFailed), Code(err))
	s.Equal(int32(0), Code(nil))
	s.Equal(errUnexpected.errCode, Code(errors.New("foreign")))

	sameCodeErr := newBinError("new error", ErrValueCheckFailed.errCode, false, ValueError)
	s.True(sameCodeErr.Is(ErrValueCheckFailed))
	s.False(sameCodeErr.Is(ErrValueCastFailed))
}

func (s *ErrSuite) TestWrapKeepsLeafIntact() {
	_ = WrapErrValueLengthMismatch(3, 4)
	s.Equal("value length mismatch", ErrValueLengthMismatch.Error())
}

func (s *ErrSuite) TestWrap() {
	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("read", os.ErrClosed), ErrIoFailed)
	s.ErrorIs(WrapErrIoUnexpectEOF("read", io.ErrUnexpectedEOF), ErrIoUnexpectEOF)
	s.Nil(WrapErrIoFailed("read", nil))
	s.Nil(WrapErrIo("read", nil))

	// 值相关错误。
	s.ErrorIs(WrapErrValueCheckFailed(1, 2, "magic"), ErrValueCheckFailed)
	s.ErrorIs(WrapErrValueCastFailed("uint16", "uint8", nil), ErrValueCastFailed)
	s.ErrorIs(WrapErrValueCastOutOfRange(0, 255, 256, "uint8"), ErrValueCastFailed)
	s.ErrorIs(WrapErrValueInvalid("not ascii", nil), ErrValueInvalid)
	s.ErrorIs(WrapErrValueLengthMismatch(3, 2), ErrValueLengthMismatch)
	s.ErrorIs(WrapErrValueMismatch(true, false), ErrValueMismatch)
	s.ErrorIs(WrapErrValueTrailingBytes(2), ErrValueTrailingBytes)
	s.ErrorIs(WrapErrValueTooLarge(10, 5), ErrValueTooLarge)
	s.ErrorIs(WrapErrValueRoundTrip("be_u16"), ErrValueRoundTrip)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid("unique", "duplicated"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("field %s duplicated", "a"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("setter"), ErrParameterMissing)
	s.ErrorIs(WrapErrOperationNotSupported("chan"), ErrOperationNotSupported)
}

func (s *ErrSuite) TestIoCauseReachable() {
	err := WrapErrIo("read be_u16", io.ErrUnexpectedEOF)
	s.ErrorIs(err, ErrIoUnexpectEOF)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.True(IsIOError(err))
	s.False(IsValueError(err))

	err = WrapErrIo("read u8", io.EOF)
	s.ErrorIs(err, ErrIoUnexpectEOF)
	s.ErrorIs(err, io.EOF)

	err = WrapErrIo("write", os.ErrClosed)
	s.ErrorIs(err, ErrIoFailed)
	s.ErrorIs(err, os.ErrClosed)
	s.True(IsRetryableErr(err))
	s.Contains(err.Error(), "op=write")
}

func (s *ErrSuite) TestValueCauseKeepsValueType() {
	readBack := WrapErrIo("read be_u16", io.ErrUnexpectedEOF)
	err := WrapErrValueRoundTripCause("map(be_u16)", readBack)
	s.ErrorIs(err, ErrValueRoundTrip)
	s.ErrorIs(err, ErrIoUnexpectEOF)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.True(IsValueError(err))
	s.False(IsIOError(err))
	s.Equal(ErrValueRoundTrip.code(), Code(err))

	err = WrapErrValueTooLargeCause(1024, os.ErrInvalid, "decompressed")
	s.ErrorIs(err, ErrValueTooLarge)
	s.ErrorIs(err, os.ErrInvalid)
	s.True(IsValueError(err))
	s.Contains(err.Error(), "limit=1024")
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(ValueError, GetErrorType(WrapErrValueInvalid("bad utf8", nil)))
	s.Equal(IOError, GetErrorType(WrapErrIoFailed("x", os.ErrClosed)))
	s.Equal(SetupError, GetErrorType(WrapErrParameterMissing("x")))
	s.Equal(IOError, GetErrorType(errors.New("from the stream")))
	s.True(IsValueError(errors.Wrap(WrapErrValueMismatch(true, false), "field b")))
	s.False(IsValueError(nil))
	s.Equal("value_error", ValueError.String())
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrValueInvalid("x", nil), WrapErrValueCheckFailed(1, 2))
	s.Equal(Code(ErrValueCheckFailed), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
