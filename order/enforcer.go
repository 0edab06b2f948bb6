// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package order

import "memsim/core"

// State is the view of the execution the enforcer consults. It is
// implemented by the scheduler.
type State interface {
	// Done reports whether the instruction at the given program
	// position has completed.
	Done(c core.CoreID, idx int) bool
	// Drained reports whether the core's mailbox is empty.
	Drained(c core.CoreID) bool
	// Fetching reports whether the core is blocked on a fetch round
	// trip.
	Fetching(c core.CoreID) bool
}

// Enforcer decides which instructions a core may legally execute next.
type Enforcer struct {
	prog core.Program
}

// NewEnforcer returns an enforcer for the given program.
func NewEnforcer(p core.Program) *Enforcer {
	return &Enforcer{prog: p}
}

// Eligible returns the program positions the core may legally execute
// next. Per-core program order for one address is always preserved;
// everything else is exactly as constrained by the ordering tags.
func (e *Enforcer) Eligible(st State, c core.CoreID) []int {
	if st.Fetching(c) {
		// a read on an Invalid line blocks the issuing core until
		// its fetch round trip returns
		return nil
	}
	var out []int
	for i, in := range e.prog[c] {
		if st.Done(c, i) {
			continue
		}
		if e.canIssue(st, c, i, in) {
			out = append(out, i)
		}
	}
	return out
}

func (e *Enforcer) canIssue(st State, c core.CoreID, i int, in core.Instruction) bool {
	r := RuleFor(in.Ordering)
	if r.NeedsDrain(in.Kind) && !st.Drained(c) {
		return false
	}
	for j := 0; j < i; j++ {
		if st.Done(c, j) {
			continue
		}
		prev := e.prog[c][j]
		// single-location program order is never violated
		if prev.Kind != core.Fence && in.Kind != core.Fence && prev.Addr == in.Addr {
			return false
		}
		// an incomplete acquire-type operation blocks everything
		// after it
		if RuleFor(prev.Ordering).BlocksLater(prev.Kind) {
			return false
		}
		// a release-type operation waits for everything before it
		if r.WaitsEarlier(in.Kind) {
			return false
		}
	}
	return true
}
