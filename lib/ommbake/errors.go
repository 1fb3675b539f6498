// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import "fmt"

// Error wraps a Result with a human-readable cause. Every exported
// function that can fail returns one of these (or nil), never a bare
// Result, so that callers can both switch on Result via errors.As and
// read a useful message.
type Error struct {
	Result Result
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ommbake: %s: %s", e.Result, e.Msg)
}

func errInvalidArgument(format string, args ...any) *Error {
	return &Error{Result: ResultInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func errWorkloadTooBig(format string, args ...any) *Error {
	return &Error{Result: ResultWorkloadTooBig, Msg: fmt.Sprintf(format, args...)}
}

func errFailure(format string, args ...any) *Error {
	return &Error{Result: ResultFailure, Msg: fmt.Sprintf(format, args...)}
}

// ResultOf returns the Result carried by err, or ResultSuccess if err is
// nil, or ResultFailure if err is a non-nil error of some other type.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	if e, ok := err.(*Error); ok {
		return e.Result
	}
	return ResultFailure
}
