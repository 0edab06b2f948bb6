// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"fmt"
	"sort"
)

// Program maps each core to its ordered instruction sequence. Programs
// are created once at simulation setup and are immutable thereafter.
type Program map[CoreID][]Instruction

// UsageError reports an illegal ordering or malformed instruction. It
// is detected at program construction time, before any simulation step
// runs.
type UsageError struct {
	Core   CoreID
	Index  int
	Inst   Instruction
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("core %d, instruction %d: %v: %s", e.Core, e.Index, e.Inst, e.Reason)
}

// Cores returns the core identifiers of the program in ascending order.
func (p Program) Cores() []CoreID {
	var ids []CoreID
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the total number of instructions across all cores.
func (p Program) Len() int {
	var n int
	for _, seq := range p {
		n += len(seq)
	}
	return n
}

// Addrs returns all addresses touched by the program in ascending order.
func (p Program) Addrs() []Addr {
	seen := make(map[Addr]struct{})
	for _, seq := range p {
		for _, in := range seq {
			if in.Kind != Fence {
				seen[in.Addr] = struct{}{}
			}
		}
	}
	var addrs []Addr
	for a := range seen {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Validate checks every instruction of the program for illegal ordering
// usage. The first offending instruction is returned as a UsageError.
func (p Program) Validate() error {
	for _, c := range p.Cores() {
		for i, in := range p[c] {
			if err := validateInst(c, i, in); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateInst(c CoreID, i int, in Instruction) error {
	fail := func(reason string) error {
		return &UsageError{Core: c, Index: i, Inst: in, Reason: reason}
	}
	if in.Kind == InvalidOp {
		return fail("unknown operation kind")
	}
	if in.Kind == Fence {
		if in.Addr != "" {
			return fail("fence must not name an address")
		}
	} else if in.Addr == "" {
		return fail("operation requires an address")
	}
	if !in.Ordering.LegalOn(in.Kind) {
		return fail(fmt.Sprintf("ordering %v is illegal on %v", in.Ordering, in.Kind))
	}
	if in.Await && in.Kind != Load && in.Kind != Cmpxchg {
		return fail("await is only supported on Load and Cmpxchg")
	}
	return nil
}
