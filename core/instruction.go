// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import "fmt"

// CoreID identifies one simulated core.
type CoreID int

// Addr is an opaque identifier for one shared memory location. One
// address maps to exactly one cache line.
type Addr string

// Value is the content of one shared memory location.
type Value int64

// Instruction is one operation of a core's program: an operation kind,
// a target address, a memory ordering and, depending on the kind, an
// operand.
//
// The operand fields are interpreted per kind:
//   - Store:   Operand is the value written.
//   - RMW:     Operand is the addend of the fetch-add.
//   - Cmpxchg: Expect is the expected old value, Operand the desired new one.
//   - Load:    Operand is unused unless Await is set, then it is the
//     value the load waits for.
//
// Await turns a Load or Cmpxchg into a blocking operation: it only
// executes once it would observe (Load) or find (Cmpxchg) the expected
// value. This models spin loops without branching instructions.
type Instruction struct {
	Kind     OpKind
	Addr     Addr
	Ordering Ordering
	Operand  Value
	Expect   Value
	Await    bool
}

func (in Instruction) String() string {
	switch in.Kind {
	case Fence:
		return fmt.Sprintf("Fence(%v)", in.Ordering)
	case Load:
		if in.Await {
			return fmt.Sprintf("Load(%s, %v, await=%d)", in.Addr, in.Ordering, in.Operand)
		}
		return fmt.Sprintf("Load(%s, %v)", in.Addr, in.Ordering)
	case Store:
		return fmt.Sprintf("Store(%s, %d, %v)", in.Addr, in.Operand, in.Ordering)
	case RMW:
		return fmt.Sprintf("RMW(%s, +%d, %v)", in.Addr, in.Operand, in.Ordering)
	case Cmpxchg:
		return fmt.Sprintf("Cmpxchg(%s, %d->%d, %v)", in.Addr, in.Expect, in.Operand, in.Ordering)
	default:
		return fmt.Sprintf("Invalid(%s)", in.Addr)
	}
}
