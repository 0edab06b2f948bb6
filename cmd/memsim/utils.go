// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"memsim/checker"
	"memsim/core"
	"memsim/history"
)

// IsArgsn ensures there are 1 or more arguments
func IsArgsn(_ *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("no program file specified")
	}
	return nil
}

var (
	rlxColor = color.New(color.FgRed).SprintFunc()
	relColor = color.New(color.FgGreen).SprintFunc()
	acqColor = color.New(color.FgYellow).SprintFunc()
	seqColor = color.New(color.FgCyan).SprintFunc()
	barColor = color.New(color.FgBlue).SprintFunc()

	okColor   = color.New(color.FgGreen).SprintFunc()
	failColor = color.New(color.FgRed).SprintFunc()
)

func coloredVerdict(v checker.Verdict) string {
	if v == checker.Violation {
		return failColor(v)
	}
	return okColor(v)
}

// coloredOrdering renders an ordering tag in its display color.
func coloredOrdering(o core.Ordering) string {
	switch o {
	case core.Relaxed:
		return rlxColor(o)
	case core.Release:
		return relColor(o)
	case core.Acquire:
		return acqColor(o)
	case core.AcqRel:
		return barColor(o)
	case core.SeqCst:
		return seqColor(o)
	default:
		return o.String()
	}
}

// coloredRecord renders a history record colored by its ordering tag.
func coloredRecord(r *history.Record) string {
	switch r.Inst.Ordering {
	case core.Relaxed:
		return rlxColor(r)
	case core.Release:
		return relColor(r)
	case core.Acquire:
		return acqColor(r)
	case core.AcqRel:
		return barColor(r)
	case core.SeqCst:
		return seqColor(r)
	default:
		return r.String()
	}
}
