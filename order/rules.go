// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package order implements the memory ordering enforcer: given a
// core's program order and the set of completed operations, it decides
// which instructions may legally execute next. Each ordering tag's
// constraint set is one rule object, so tags can be tested in
// isolation.
package order

import "memsim/core"

// Rule is the constraint set one ordering tag imposes on an operation
// of a given kind.
type Rule interface {
	// BlocksLater reports whether later instructions must wait for
	// this one to complete before executing.
	BlocksLater(k core.OpKind) bool
	// WaitsEarlier reports whether this instruction must wait for
	// every earlier instruction to complete.
	WaitsEarlier(k core.OpKind) bool
	// NeedsDrain reports whether the issuing core's mailbox must be
	// empty before this instruction executes (the cache fence of an
	// acquire).
	NeedsDrain(k core.OpKind) bool
	// FlushesBefore reports whether the core's dirty lines are
	// written back before this instruction executes (the visibility
	// flush of a release).
	FlushesBefore(k core.OpKind) bool
	// BusLocked reports whether the operation executes as a single
	// synchronous bus-locking step with immediately visible effect.
	BusLocked(k core.OpKind) bool
}

// RuleFor returns the rule object of an ordering tag.
func RuleFor(o core.Ordering) Rule {
	switch o {
	case core.SeqCst:
		return seqCstRule{}
	case core.AcqRel:
		return acqRelRule{}
	case core.Acquire:
		return acquireRule{}
	case core.Release:
		return releaseRule{}
	default:
		return relaxedRule{}
	}
}

// locked instructions are bus-locking under every ordering tag
func lockedKind(k core.OpKind) bool {
	return k == core.RMW || k == core.Cmpxchg
}

type relaxedRule struct{}

func (relaxedRule) BlocksLater(core.OpKind) bool { return false }
func (relaxedRule) WaitsEarlier(core.OpKind) bool { return false }
func (relaxedRule) NeedsDrain(core.OpKind) bool { return false }
func (relaxedRule) FlushesBefore(core.OpKind) bool { return false }
func (relaxedRule) BusLocked(k core.OpKind) bool { return lockedKind(k) }

type acquireRule struct{}

func (acquireRule) BlocksLater(core.OpKind) bool { return true }
func (acquireRule) WaitsEarlier(core.OpKind) bool { return false }
func (acquireRule) NeedsDrain(core.OpKind) bool { return true }
func (acquireRule) FlushesBefore(core.OpKind) bool { return false }
func (acquireRule) BusLocked(k core.OpKind) bool { return lockedKind(k) }

type releaseRule struct{}

func (releaseRule) BlocksLater(core.OpKind) bool { return false }
func (releaseRule) WaitsEarlier(core.OpKind) bool { return true }
func (releaseRule) NeedsDrain(core.OpKind) bool { return false }
func (releaseRule) FlushesBefore(core.OpKind) bool { return true }
func (releaseRule) BusLocked(k core.OpKind) bool { return lockedKind(k) }

type acqRelRule struct{}

func (acqRelRule) BlocksLater(core.OpKind) bool { return true }
func (acqRelRule) WaitsEarlier(core.OpKind) bool { return true }
func (acqRelRule) NeedsDrain(core.OpKind) bool { return true }
func (acqRelRule) FlushesBefore(core.OpKind) bool { return true }
func (acqRelRule) BusLocked(k core.OpKind) bool { return lockedKind(k) }

type seqCstRule struct{}

func (seqCstRule) BlocksLater(core.OpKind) bool { return true }
func (seqCstRule) WaitsEarlier(core.OpKind) bool { return true }
func (seqCstRule) NeedsDrain(core.OpKind) bool { return true }
func (seqCstRule) FlushesBefore(core.OpKind) bool { return true }
func (seqCstRule) BusLocked(k core.OpKind) bool { return k != core.Fence }
