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
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// nil 返回 0；非本包构造的错误统一归为 errUnexpected。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	var be *binError
	if errors.As(err, &be) {
		return be.code()
	}
	return errUnexpected.code()
}

func IsRetryableErr(err error) bool {
	var be *binError
	if errors.As(err, &be) {
		return be.retriable
	}
	return false
}

// GetErrorType 返回错误所属的类别。
// 无法识别的错误视为 IOError：它们只可能来自底层流。
func GetErrorType(err error) ErrorType {
	var be *binError
	if errors.As(err, &be) {
		return be.errType
	}
	return IOError
}

// IsIOError 判断 err 是否为流读写层面的失败。
func IsIOError(err error) bool {
	return err != nil && GetErrorType(err) == IOError
}

// IsValueError 判断 err 是否为值约束层面的失败。
func IsValueError(err error) bool {
	return err != nil && GetErrorType(err) == ValueError
}

// IO related

// WrapErrIo 将底层流返回的错误包装为 IO 错误。
// 读到末尾（io.EOF / io.ErrUnexpectedEOF）归为 ErrIoUnexpectEOF，其余归为 ErrIoFailed。
// 原始错误作为 cause 保留，errors.Is 依旧可以命中。
func WrapErrIo(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return WrapErrIoUnexpectEOF(op, err)
	}
	return WrapErrIoFailed(op, err)
}

func WrapErrIoFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	return wrapCause(ErrIoFailed, err, value("op", op))
}

func WrapErrIoUnexpectEOF(op string, err error) error {
	if err == nil {
		return nil
	}
	return wrapCause(ErrIoUnexpectEOF, err, value("op", op))
}

// Value related
func WrapErrValueCheckFailed(expected, actual any, msg ...string) error {
	err := wrapFields(ErrValueCheckFailed,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrValueCastFailed(from, to string, cause error) error {
	if cause == nil {
		return wrapFields(ErrValueCastFailed, value("from", from), value("to", to))
	}
	return wrapCause(ErrValueCastFailed, cause, value("from", from), value("to", to))
}

func WrapErrValueCastOutOfRange[T any](lower, upper, actual T, to string) error {
	return wrapFields(ErrValueCastFailed,
		bound("value", actual, lower, upper),
		value("to", to),
	)
}

func WrapErrValueInvalid(reason string, cause error) error {
	if cause == nil {
		return wrapFieldsWithDesc(ErrValueInvalid, reason)
	}
	return wrapCause(ErrValueInvalid, cause, value("reason", reason))
}

func WrapErrValueLengthMismatch(expected, actual int, msg ...string) error {
	err := wrapFields(ErrValueLengthMismatch,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrValueMismatch(expectedPresent, actualPresent bool) error {
	return wrapFields(ErrValueMismatch,
		value("expected_present", expectedPresent),
		value("actual_present", actualPresent),
	)
}

func WrapErrValueTrailingBytes(remaining int, msg ...string) error {
	err := wrapFields(ErrValueTrailingBytes, value("remaining", remaining))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrValueTooLarge(size, limit uint64, msg ...string) error {
	err := wrapFields(ErrValueTooLarge,
		value("size", size),
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrValueTooLargeCause 用于实际大小未知、只知道超过了 limit 的场景，例如解压被提前中止。
func WrapErrValueTooLargeCause(limit uint64, cause error, msg ...string) error {
	err := wrapCause(ErrValueTooLarge, cause, value("limit", limit))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrValueRoundTrip(combinator string, msg ...string) error {
	err := wrapFields(ErrValueRoundTrip, value("combinator", combinator))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrValueRoundTripCause 把读回时的错误挂为原因，错误类型仍是 ValueError。
func WrapErrValueRoundTripCause(combinator string, cause error, msg ...string) error {
	err := wrapCause(ErrValueRoundTrip, cause, value("combinator", combinator))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrOperationNotSupported(op string, msg ...string) error {
	err := wrapFields(ErrOperationNotSupported, value("op", op))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err *binError, fields ...errorField) error {
	e := err.clone()
	for i := range fields {
		e.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	e.detail = e.msg
	return e
}

func wrapFieldsWithDesc(err *binError, desc string, fields ...errorField) error {
	e := err.clone()
	for i := range fields {
		e.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	e.msg += ": " + desc
	e.detail = e.msg
	return e
}

// wrapCause 与 wrapFieldsWithDesc 类似，但保留 cause 以便 errors.Is/As 继续向下匹配。
func wrapCause(err *binError, cause error, fields ...errorField) error {
	e := wrapFieldsWithDesc(err, cause.Error(), fields...).(*binError)
	e.cause = cause
	return e
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
