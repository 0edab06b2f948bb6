// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memsim/core"
)

func TestAppendAssignsIDsAndModOrder(t *testing.T) {
	h := New()
	w1 := h.Append(Record{Core: 0, Inst: core.Instruction{Kind: core.Store, Addr: "x", Ordering: core.Relaxed}, Value: 1})
	w2 := h.Append(Record{Core: 1, Inst: core.Instruction{Kind: core.Store, Addr: "x", Ordering: core.Relaxed}, Value: 2})
	r1 := h.Append(Record{Core: 1, Inst: core.Instruction{Kind: core.Load, Addr: "x", Ordering: core.Relaxed}, Value: 2, ReadFrom: 2})

	assert.Equal(t, 1, w1.ID)
	assert.Equal(t, 2, w2.ID)
	assert.Equal(t, 3, r1.ID)
	assert.Equal(t, []int{1, 2}, h.ModOrder["x"])
	assert.Empty(t, h.SeqCst)

	require.NotNil(t, h.Record(2))
	assert.Nil(t, h.Record(0))
	assert.Nil(t, h.Record(4))
}

func TestSeqCstCandidateOrder(t *testing.T) {
	h := New()
	h.Append(Record{Core: 0, Inst: core.Instruction{Kind: core.Store, Addr: "x", Ordering: core.SeqCst}})
	h.Append(Record{Core: 1, Inst: core.Instruction{Kind: core.Load, Addr: "x", Ordering: core.Relaxed}})
	h.Append(Record{Core: 1, Inst: core.Instruction{Kind: core.Load, Addr: "x", Ordering: core.SeqCst}})

	assert.Equal(t, []int{1, 3}, h.SeqCst)
}

func TestLoadsInProgramOrder(t *testing.T) {
	h := New()
	// core 0 completed its loads out of program order
	h.Append(Record{Core: 0, Index: 2, Inst: core.Instruction{Kind: core.Load, Addr: "y", Ordering: core.Relaxed}, Value: 7})
	h.Append(Record{Core: 0, Index: 0, Inst: core.Instruction{Kind: core.Load, Addr: "x", Ordering: core.Relaxed}, Value: 5})
	h.Append(Record{Core: 0, Index: 1, Inst: core.Instruction{Kind: core.Store, Addr: "z", Ordering: core.Relaxed}, Value: 1})

	assert.Equal(t, []core.Value{5, 7}, h.Loads(0))
}
