// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package relax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memsim/core"
)

func TestRelaxMessagePassing(t *testing.T) {
	p := core.Program{
		0: {
			{Kind: core.Store, Addr: "data", Operand: 42, Ordering: core.SeqCst},
			{Kind: core.Store, Addr: "flag", Operand: 1, Ordering: core.SeqCst},
		},
		1: {
			{Kind: core.Load, Addr: "flag", Ordering: core.SeqCst, Await: true, Operand: 1},
			{Kind: core.Load, Addr: "data", Ordering: core.SeqCst},
		},
	}
	init := map[core.Addr]core.Value{"data": 0, "flag": 0}

	d := NewDriver(Config{Strength: core.Weak})
	sol, err := d.Run(p, init)
	require.NoError(t, err)

	assert.Equal(t, []Change{
		{Core: 0, Index: 0, Before: core.SeqCst, After: core.Relaxed},
		{Core: 0, Index: 1, Before: core.SeqCst, After: core.Release},
		{Core: 1, Index: 0, Before: core.SeqCst, After: core.Relaxed},
	}, sol.Changes)

	// the data load is the one position that cannot be weakened: any
	// weaker tag lets it issue before the flag load
	assert.Equal(t, core.SeqCst, sol.Program[1][1].Ordering)
	assert.Equal(t, core.Release, sol.Program[0][1].Ordering)

	// the input program is untouched
	assert.Equal(t, core.SeqCst, p[0][0].Ordering)
}

func TestRelaxAtomicCounter(t *testing.T) {
	inc := core.Instruction{Kind: core.RMW, Addr: "ctr", Operand: 1, Ordering: core.SeqCst}
	p := core.Program{0: {inc}, 1: {inc}}

	d := NewDriver(Config{Strength: core.Weak})
	sol, err := d.Run(p, map[core.Addr]core.Value{"ctr": 0})
	require.NoError(t, err)

	// fetch-add is atomic under every ordering, so both increments
	// drop to relaxed
	require.Len(t, sol.Changes, 2)
	assert.Equal(t, core.Relaxed, sol.Program[0][0].Ordering)
	assert.Equal(t, core.Relaxed, sol.Program[1][0].Ordering)
	assert.Equal(t, 2, sol.Checks)
}

func TestRelaxNothingToRelax(t *testing.T) {
	p := core.Program{
		0: {
			{Kind: core.Store, Addr: "x", Operand: 1, Ordering: core.Relaxed},
			{Kind: core.Load, Addr: "x", Ordering: core.Relaxed},
		},
	}
	d := NewDriver(Config{Strength: core.Weak})
	sol, err := d.Run(p, map[core.Addr]core.Value{"x": 0})
	require.NoError(t, err)
	assert.Empty(t, sol.Changes)
	assert.Zero(t, sol.Checks)
}
