// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

//go:generate go run golang.org/x/tools/cmd/stringer -type=Strength

// Strength selects how expensive coherence traffic is in the simulated
// machine.
type Strength int

const (
	// InvalidStrength represents any unknown coherence strength
	InvalidStrength Strength = iota
	// Strong coherence: the bus lock is always available and cheap
	Strong
	// Weak coherence: bus-lock latency is modeled and mailbox delivery
	// delay is variable
	Weak
)

// ParseStrength parses a string and returns an equivalent coherence
// strength.
func ParseStrength(s string) Strength {
	switch s {
	case "strong":
		return Strong
	case "weak":
		return Weak
	default:
		return InvalidStrength
	}
}
