// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"memsim/core"
	"memsim/logger"
	"memsim/sim"
)

const fileMode = 0600

type csvReport struct {
	name     string
	strength core.Strength
	duration time.Duration
	outcome  *sim.Outcome
	err      error
}

const (
	dateTime = "2006-01-02 15:04:05"
)

func (csv csvReport) save(filename string) {
	if filename == "" {
		return
	}
	withHeader := false
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		withHeader = true
	}

	fp, err := os.OpenFile(filename,
		os.O_APPEND|os.O_WRONLY|os.O_CREATE, fileMode)
	if err != nil {
		logger.Fatalf("could not open file: %v", filename)
	}
	defer func() {
		if err := fp.Close(); err != nil {
			logger.Warnf("error closing file: %v", err)
		}
	}()

	if withHeader {
		fmt.Fprint(fp, "# date, filename, strength, duration, verdict, runs, violations, error_type, exit_code")
		fmt.Fprintln(fp)
	}

	var (
		verdict    = "unknown"
		runs       = 0
		violations = 0
	)
	if csv.outcome != nil {
		verdict = fmt.Sprintf("%v", csv.outcome.Verdict())
		runs = csv.outcome.Runs
		violations = csv.outcome.Violations
	}

	fmt.Fprintf(fp, "%s, %s, %v, %v, %s, %d, %d, %s, %d\n",
		time.Now().Format(dateTime),
		csv.name,
		csv.strength,
		csv.duration,
		verdict,
		runs,
		violations,
		getErrorType(csv.err),
		getErrorCode(csv.err))
}
