// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

//go:generate go run golang.org/x/tools/cmd/stringer -type=OpKind

// OpKind represents types of operations on shared memory
type OpKind int

const (
	// InvalidOp represents an InvalidOp operation
	InvalidOp OpKind = iota
	// Fence represents a Fence operation
	Fence
	// RMW represents a fetch-add read-modify-write operation
	RMW
	// Load represents a Load operation
	Load
	// Store represents a Store operation
	Store
	// Cmpxchg represents a compare-exchange operation
	Cmpxchg
)

// ParseOpKind parses a string and returns an equivalent operation kind.
func ParseOpKind(s string) OpKind {
	switch s {
	case "load":
		return Load
	case "store":
		return Store
	case "rmw", "add":
		return RMW
	case "cas", "cmpxchg":
		return Cmpxchg
	case "fence":
		return Fence
	default:
		return InvalidOp
	}
}

// Reads returns true if operations of this kind observe a value.
func (op OpKind) Reads() bool {
	switch op {
	case Load, RMW, Cmpxchg:
		return true
	default:
		return false
	}
}

// Writes returns true if operations of this kind produce a value.
func (op OpKind) Writes() bool {
	switch op {
	case Store, RMW, Cmpxchg:
		return true
	default:
		return false
	}
}
