// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package machine implements the simulated memory system: per-core
// cache lines, main memory and the inter-core mailboxes. All state is
// mutated exclusively through Machine methods; the scheduler decides
// when each mutation happens.
package machine

import "memsim/core"

//go:generate go run golang.org/x/tools/cmd/stringer -type=LineState

// LineState is the coherence state of one cache line. The zero value
// is Invalid, so a missing line is an invalid line.
type LineState int

const (
	// Invalid line: the core holds no usable copy
	Invalid LineState = iota
	// Shared line: a clean copy that other cores may also hold
	Shared
	// Exclusive line: a clean copy no other core holds
	Exclusive
	// Modified line: a dirty copy no other core holds
	Modified
)

// Owned returns true for states granting exclusive ownership.
func (s LineState) Owned() bool {
	return s == Exclusive || s == Modified
}

// Line is one core's copy of one address.
type Line struct {
	State  LineState
	Value  core.Value
	Writer int // record ID of the store that produced Value
	Dirty  bool
}
