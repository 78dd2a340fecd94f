// Copyright 2024 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errorx

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	NOT_FOUND ErrorCode = 1002
	IOErr     ErrorCode = 1003

	// error code for planning

	InvalidState  ErrorCode = 2102
	ValidationErr ErrorCode = 2103
)

var NotFoundErr = NewWithCode(NOT_FOUND, "not found")

func NewIOErr(msg string) error {
	return &Error{
		code: IOErr,
		msg:  msg,
	}
}

// NewInvalidState reports a broken invariant. The query must be aborted.
func NewInvalidState(format string, args ...any) error {
	return &Error{
		code: InvalidState,
		msg:  fmt.Sprintf("invalid state: "+format, args...),
	}
}

func IsInvalidState(err error) bool {
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.Code() == InvalidState
	}
	return false
}

// NewValidationError rejects a value that cannot be encoded without loss.
func NewValidationError(format string, args ...any) error {
	return &Error{
		code: ValidationErr,
		msg:  fmt.Sprintf(format, args...),
	}
}

func IsValidationError(err error) bool {
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.Code() == ValidationErr
	}
	return false
}

func GetErrorCode(err error) (ErrorCode, bool) {
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.Code(), true
	}
	return 0, false
}
