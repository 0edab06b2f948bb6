// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"memsim/checker"
	"memsim/logger"
)

type errorType int

//go:generate go run golang.org/x/tools/cmd/stringer -type=errorType
const (
	checkFail     errorType = 2
	internalError errorType = 1
	configError   errorType = 1
	noError       errorType = 0
)

type mError struct {
	typ     errorType
	verdict checker.Verdict
	err     error
}

func mfail(v checker.Verdict, err error) *mError {
	return &mError{
		typ:     checkFail,
		verdict: v,
		err:     err,
	}
}

func (e *mError) Error() string {
	switch e.typ {
	case checkFail:
		logger.Debugf("%v: %v", e.typ, e.verdict)
		return ""
	default:
		return e.err.Error()
	}
}

func (e *mError) Code() int {
	return int(e.typ)
}

func merror(typ errorType, err error) *mError {
	return &mError{
		typ: typ,
		err: err,
	}
}

func getErrorType(err error) string {
	if err == nil {
		return "none"
	}
	switch e := err.(type) {
	case *mError:
		return fmt.Sprintf("%v", e.typ)
	default:
		return "internalError"
	}
}

func getErrorCode(err error) int {
	if err == nil {
		return 0
	}
	switch e := err.(type) {
	case *mError:
		return e.Code()
	default:
		return -1
	}
}

func getErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
