// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package core contains the most basic objects of memsim.
// These are memory orderings, operation kinds, instructions and programs.
package core

//go:generate go run golang.org/x/tools/cmd/stringer -type=Ordering

// Ordering represents the memory ordering of an operation
type Ordering int

const (
	// Invalid  memory ordering
	Invalid Ordering = iota
	// SeqCst memory ordering
	SeqCst
	// AcqRel memory ordering
	AcqRel
	// Acquire memory ordering
	Acquire
	// Release memory ordering
	Release
	// Relaxed memory ordering
	Relaxed
)

// Acquires returns true if the ordering has acquire semantics.
func (o Ordering) Acquires() bool {
	switch o {
	case Acquire, AcqRel, SeqCst:
		return true
	default:
		return false
	}
}

// Releases returns true if the ordering has release semantics.
func (o Ordering) Releases() bool {
	switch o {
	case Release, AcqRel, SeqCst:
		return true
	default:
		return false
	}
}

// ParseOrdering parses a string and returns an equivalent memory ordering.
func ParseOrdering(s string) Ordering {
	switch s {
	case "rlx", "relaxed":
		return Relaxed
	case "acq", "acquire":
		return Acquire
	case "rel", "release":
		return Release
	case "acq_rel", "acqrel":
		return AcqRel
	case "sc", "seq_cst", "seqcst":
		return SeqCst
	default:
		return Invalid
	}
}

var orderMap = map[OpKind][]Ordering{
	Fence:   {Acquire, Release, AcqRel, SeqCst},
	RMW:     {Relaxed, Acquire, Release, AcqRel, SeqCst},
	Cmpxchg: {Relaxed, Acquire, Release, AcqRel, SeqCst},
	Load:    {Relaxed, Acquire, SeqCst},
	Store:   {Relaxed, Release, SeqCst},
}

// LegalOn returns whether the ordering may be attached to operations of
// the given kind. Acquire is illegal on stores, Release is illegal on
// loads, AcqRel is only legal on read-modify-write operations and fences.
func (o Ordering) LegalOn(op OpKind) bool {
	for _, l := range orderMap[op] {
		if o == l {
			return true
		}
	}
	return false
}
