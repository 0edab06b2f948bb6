// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderingLegality(t *testing.T) {
	testCases := []struct {
		op    OpKind
		o     Ordering
		legal bool
	}{
		{Load, Relaxed, true},
		{Load, Acquire, true},
		{Load, Release, false},
		{Load, AcqRel, false},
		{Load, SeqCst, true},
		{Store, Relaxed, true},
		{Store, Acquire, false},
		{Store, Release, true},
		{Store, AcqRel, false},
		{Store, SeqCst, true},
		{RMW, AcqRel, true},
		{Cmpxchg, AcqRel, true},
		{Fence, Relaxed, false},
		{Fence, SeqCst, true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v", tc), func(t *testing.T) {
			assert.Equal(t, tc.legal, tc.o.LegalOn(tc.op))
		})
	}
}

func TestOrderingSemantics(t *testing.T) {
	testCases := []struct {
		o        Ordering
		acquires bool
		releases bool
	}{
		{Relaxed, false, false},
		{Acquire, true, false},
		{Release, false, true},
		{AcqRel, true, true},
		{SeqCst, true, true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v", tc.o), func(t *testing.T) {
			assert.Equal(t, tc.acquires, tc.o.Acquires())
			assert.Equal(t, tc.releases, tc.o.Releases())
		})
	}
}

func TestValidateRejectsIllegalUsage(t *testing.T) {
	testCases := []struct {
		name string
		in   Instruction
	}{
		{"acquire store", Instruction{Kind: Store, Addr: "x", Ordering: Acquire}},
		{"release load", Instruction{Kind: Load, Addr: "x", Ordering: Release}},
		{"acqrel load", Instruction{Kind: Load, Addr: "x", Ordering: AcqRel}},
		{"missing addr", Instruction{Kind: Store, Ordering: Relaxed}},
		{"fence with addr", Instruction{Kind: Fence, Addr: "x", Ordering: SeqCst}},
		{"await store", Instruction{Kind: Store, Addr: "x", Ordering: Relaxed, Await: true}},
		{"unknown op", Instruction{Addr: "x", Ordering: Relaxed}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Program{0: {tc.in}}
			err := p.Validate()
			require.Error(t, err)
			var ue *UsageError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, CoreID(0), ue.Core)
			assert.Equal(t, 0, ue.Index)
		})
	}
}

func TestValidateAcceptsLegalProgram(t *testing.T) {
	p := Program{
		0: {
			{Kind: Store, Addr: "data", Operand: 42, Ordering: Relaxed},
			{Kind: Store, Addr: "flag", Operand: 1, Ordering: Release},
		},
		1: {
			{Kind: Load, Addr: "flag", Ordering: Acquire, Operand: 1, Await: true},
			{Kind: Load, Addr: "data", Ordering: Relaxed},
		},
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, []CoreID{0, 1}, p.Cores())
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []Addr{"data", "flag"}, p.Addrs())
}

func TestParseProgram(t *testing.T) {
	src := `
init:
  data: 0
  flag: 0
cores:
  - program:
      - {op: store, addr: data, value: 42, ordering: rlx}
      - {op: store, addr: flag, value: 1, ordering: rel}
  - program:
      - {op: load, addr: flag, ordering: acq, value: 1, await: true}
      - {op: load, addr: data, ordering: rlx}
`
	pf, err := ParseProgram([]byte(src))
	require.NoError(t, err)
	require.Len(t, pf.Program, 2)
	assert.Equal(t, Value(0), pf.Init["data"])

	first := pf.Program[0][0]
	assert.Equal(t, Store, first.Kind)
	assert.Equal(t, Addr("data"), first.Addr)
	assert.Equal(t, Value(42), first.Operand)
	assert.Equal(t, Relaxed, first.Ordering)

	spin := pf.Program[1][0]
	assert.True(t, spin.Await)
	assert.Equal(t, Acquire, spin.Ordering)
}

func TestParseProgramErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no cores", "init:\n  x: 1\n"},
		{"bad yaml", "cores: ["},
		{"illegal ordering", `
cores:
  - program:
      - {op: store, addr: x, ordering: acq}
`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProgram([]byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestProgramFileRoundTrip(t *testing.T) {
	src := `
init:
  lock: 0
cores:
  - program:
      - {op: cas, addr: lock, ordering: acq, expect: 0, value: 1, await: true}
      - {op: store, addr: lock, ordering: rel}
  - program:
      - {op: fence, ordering: sc}
      - {op: load, addr: lock, ordering: rlx}
`
	pf, err := ParseProgram([]byte(src))
	require.NoError(t, err)

	again, err := ParseProgram([]byte(pf.String()))
	require.NoError(t, err)
	assert.Equal(t, pf.Program, again.Program)
	assert.Equal(t, pf.Init, again.Init)
}
