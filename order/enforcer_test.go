// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package order

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"memsim/core"
)

type fakeState struct {
	done     map[core.CoreID]map[int]bool
	blocked  map[core.CoreID]bool // mailbox not drained
	fetching map[core.CoreID]bool
}

func (s *fakeState) Done(c core.CoreID, idx int) bool { return s.done[c][idx] }
func (s *fakeState) Drained(c core.CoreID) bool { return !s.blocked[c] }
func (s *fakeState) Fetching(c core.CoreID) bool { return s.fetching[c] }

func newFakeState() *fakeState {
	return &fakeState{
		done:     map[core.CoreID]map[int]bool{0: {}},
		blocked:  map[core.CoreID]bool{},
		fetching: map[core.CoreID]bool{},
	}
}

func TestRules(t *testing.T) {
	testCases := []struct {
		o      core.Ordering
		k      core.OpKind
		blocks bool
		waits  bool
		drain  bool
		flush  bool
		bus    bool
	}{
		{core.Relaxed, core.Load, false, false, false, false, false},
		{core.Relaxed, core.Store, false, false, false, false, false},
		{core.Relaxed, core.RMW, false, false, false, false, true},
		{core.Acquire, core.Load, true, false, true, false, false},
		{core.Acquire, core.Cmpxchg, true, false, true, false, true},
		{core.Release, core.Store, false, true, false, true, false},
		{core.Release, core.RMW, false, true, false, true, true},
		{core.AcqRel, core.RMW, true, true, true, true, true},
		{core.AcqRel, core.Fence, true, true, true, true, false},
		{core.SeqCst, core.Load, true, true, true, true, true},
		{core.SeqCst, core.Store, true, true, true, true, true},
		{core.SeqCst, core.Fence, true, true, true, true, false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v_%v", tc.o, tc.k), func(t *testing.T) {
			r := RuleFor(tc.o)
			assert.Equal(t, tc.blocks, r.BlocksLater(tc.k), "BlocksLater")
			assert.Equal(t, tc.waits, r.WaitsEarlier(tc.k), "WaitsEarlier")
			assert.Equal(t, tc.drain, r.NeedsDrain(tc.k), "NeedsDrain")
			assert.Equal(t, tc.flush, r.FlushesBefore(tc.k), "FlushesBefore")
			assert.Equal(t, tc.bus, r.BusLocked(tc.k), "BusLocked")
		})
	}
}

func TestRelaxedReordersAcrossAddresses(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Load, Addr: "x", Ordering: core.Relaxed},
		{Kind: core.Load, Addr: "y", Ordering: core.Relaxed},
	}})
	// both loads are eligible: relaxed operations on different
	// addresses may execute out of program order
	assert.Equal(t, []int{0, 1}, e.Eligible(newFakeState(), 0))
}

func TestSameAddressProgramOrderPreserved(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Store, Addr: "x", Operand: 1, Ordering: core.Relaxed},
		{Kind: core.Load, Addr: "x", Ordering: core.Relaxed},
	}})
	assert.Equal(t, []int{0}, e.Eligible(newFakeState(), 0))
}

func TestAcquireBlocksLaterInstructions(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Load, Addr: "flag", Ordering: core.Acquire},
		{Kind: core.Load, Addr: "data", Ordering: core.Relaxed},
	}})
	st := newFakeState()
	assert.Equal(t, []int{0}, e.Eligible(st, 0))

	st.done[0][0] = true
	assert.Equal(t, []int{1}, e.Eligible(st, 0))
}

func TestAcquireWaitsForMailboxDrain(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Load, Addr: "flag", Ordering: core.Acquire},
		{Kind: core.Load, Addr: "data", Ordering: core.Relaxed},
	}})
	st := newFakeState()
	st.blocked[0] = true
	// the acquire is fenced on the mailbox and everything after it
	// waits for it
	assert.Empty(t, e.Eligible(st, 0))

	st.blocked[0] = false
	assert.Equal(t, []int{0}, e.Eligible(st, 0))
}

func TestReleaseWaitsForEarlierInstructions(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Store, Addr: "data", Operand: 42, Ordering: core.Relaxed},
		{Kind: core.Store, Addr: "flag", Operand: 1, Ordering: core.Release},
	}})
	st := newFakeState()
	assert.Equal(t, []int{0}, e.Eligible(st, 0))

	st.done[0][0] = true
	assert.Equal(t, []int{1}, e.Eligible(st, 0))
}

func TestStoreBufferReorderingUnderAcqRel(t *testing.T) {
	// store-buffer idiom with Release/Acquire only: the load may pass
	// the earlier store
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Store, Addr: "x", Operand: 1, Ordering: core.Release},
		{Kind: core.Load, Addr: "y", Ordering: core.Acquire},
	}})
	assert.Equal(t, []int{0, 1}, e.Eligible(newFakeState(), 0))
}

func TestStoreBufferForbiddenUnderSeqCst(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Store, Addr: "x", Operand: 1, Ordering: core.SeqCst},
		{Kind: core.Load, Addr: "y", Ordering: core.SeqCst},
	}})
	assert.Equal(t, []int{0}, e.Eligible(newFakeState(), 0))
}

func TestFetchingCoreIsBlocked(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Load, Addr: "x", Ordering: core.Relaxed},
		{Kind: core.Load, Addr: "y", Ordering: core.Relaxed},
	}})
	st := newFakeState()
	st.fetching[0] = true
	assert.Empty(t, e.Eligible(st, 0))
}

func TestFenceSplitsRelaxedOperations(t *testing.T) {
	e := NewEnforcer(core.Program{0: {
		{Kind: core.Store, Addr: "x", Operand: 1, Ordering: core.Relaxed},
		{Kind: core.Fence, Ordering: core.SeqCst},
		{Kind: core.Load, Addr: "y", Ordering: core.Relaxed},
	}})
	st := newFakeState()
	// the fence waits for the store; the load waits for the fence
	assert.Equal(t, []int{0}, e.Eligible(st, 0))

	st.done[0][0] = true
	assert.Equal(t, []int{1}, e.Eligible(st, 0))

	st.done[0][1] = true
	assert.Equal(t, []int{2}, e.Eligible(st, 0))
}
