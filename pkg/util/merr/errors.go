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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrorType 区分错误属于“流读写失败”还是“值不满足约束”。
type ErrorType int32

const (
	// IOError 表示底层流无法提供/接收所需字节（例如读到末尾、写入被拒绝）。
	IOError ErrorType = 0
	// ValueError 表示字节本身可以读写，但对应的值违反了语义约束。
	ValueError ErrorType = 1
	// SetupError 表示组合子在构造阶段就被错误地描述（例如重复的字段名）。
	SetupError ErrorType = 2
)

var ErrorTypeName = map[ErrorType]string{
	IOError:    "io_error",
	ValueError: "value_error",
	SetupError: "setup_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// IO related
	ErrIoFailed      = newBinError("IO failed", 1000, true, IOError)
	ErrIoUnexpectEOF = newBinError("unexpected EOF", 1001, false, IOError)

	// Value related
	ErrValueCheckFailed    = newBinError("value check failed", 1100, false, ValueError)
	ErrValueCastFailed     = newBinError("value cast failed", 1101, false, ValueError)
	ErrValueInvalid        = newBinError("invalid value", 1102, false, ValueError)
	ErrValueLengthMismatch = newBinError("value length mismatch", 1103, false, ValueError)
	ErrValueMismatch       = newBinError("value presence mismatch", 1104, false, ValueError)
	ErrValueTrailingBytes  = newBinError("trailing bytes after value", 1105, false, ValueError)
	ErrValueTooLarge       = newBinError("value too large", 1106, false, ValueError)
	ErrValueRoundTrip      = newBinError("round trip mismatch", 1107, false, ValueError)

	// Parameter related
	ErrParameterInvalid = newBinError("invalid parameter", 1200, false, SetupError)
	ErrParameterMissing = newBinError("missing parameter", 1201, false, SetupError)

	// General
	ErrOperationNotSupported = newBinError("unsupported operation", 3000, false, SetupError)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to binError
	errUnexpected = newBinError("unexpected error", (1<<16)-1, false, IOError)
)

// binError 是本仓库所有错误的叶子类型。
//
// 与常规哨兵错误不同，它可以携带底层原因（cause），
// 从而在保留错误码的同时，让 errors.Is(err, io.ErrUnexpectedEOF) 之类的判断依旧成立。
type binError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
	cause     error
}

func newBinError(msg string, code int32, retriable bool, etype ErrorType) *binError {
	err := &binError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
		errType:   etype,
	}
	return err
}

func (e *binError) code() int32 {
	return e.errCode
}

func (e *binError) Error() string {
	return e.msg
}

func (e *binError) Detail() string {
	return e.detail
}

func (e *binError) Unwrap() error {
	return e.cause
}

// Is 以错误码判等，使得携带了字段信息的副本依旧能匹配到叶子错误。
func (e *binError) Is(err error) bool {
	target, ok := err.(*binError)
	if !ok {
		return false
	}
	return e.errCode == target.errCode
}

// clone 返回一个可安全修改的副本，叶子错误本身保持不变。
func (e *binError) clone() *binError {
	cp := *e
	return &cp
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
