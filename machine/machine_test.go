// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memsim/core"
)

func newTestMachine(n int) *Machine {
	return New(n, map[core.Addr]core.Value{"x": 0, "y": 0})
}

func TestReadInvalidLineNeedsFetch(t *testing.T) {
	m := newTestMachine(2)
	_, ok := m.Read(0, "x")
	assert.False(t, ok)

	m.IssueFetch(0, "x")
	assert.False(t, m.Drained(0))

	msg, ok := m.Boxes[0].Pop(0)
	require.True(t, ok)
	assert.Equal(t, FetchUpdated, msg.Kind)
	_, err := m.Deliver(msg)
	require.NoError(t, err)

	v, ok := m.Read(0, "x")
	require.True(t, ok)
	assert.Equal(t, core.Value(0), v.Value)
	assert.Equal(t, Exclusive, m.Line(0, "x").State)
}

func TestWriteInvalidatesOtherHolders(t *testing.T) {
	m := newTestMachine(2)

	// both cores cache x
	m.IssueFetch(0, "x")
	msg, _ := m.Boxes[0].Pop(0)
	_, err := m.Deliver(msg)
	require.NoError(t, err)
	m.IssueFetch(1, "x")
	msg, _ = m.Boxes[1].Pop(1)
	_, err = m.Deliver(msg)
	require.NoError(t, err)
	assert.Equal(t, Shared, m.Line(0, "x").State)
	assert.Equal(t, Shared, m.Line(1, "x").State)

	m.Write(0, "x", 7, 1)
	assert.Equal(t, Modified, m.Line(0, "x").State)
	// core 1 still holds the stale copy until its invalidate arrives
	assert.Equal(t, Shared, m.Line(1, "x").State)
	assert.True(t, m.Boxes[1].PendingFor("x"))
	require.NoError(t, m.CheckCoherence())

	msg, ok := m.Boxes[1].Pop(0)
	require.True(t, ok)
	assert.Equal(t, Invalidate, msg.Kind)
	_, err = m.Deliver(msg)
	require.NoError(t, err)
	assert.Equal(t, Invalid, m.Line(1, "x").State)
	require.NoError(t, m.CheckCoherence())
}

func TestWriteDemotesForeignOwnerSynchronously(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 1, 1)
	require.Equal(t, Modified, m.Line(0, "x").State)

	m.Write(1, "x", 2, 2)
	// ownership moved in one step; core 0 keeps only a stale shared copy
	assert.Equal(t, Modified, m.Line(1, "x").State)
	assert.Equal(t, Shared, m.Line(0, "x").State)
	// the demoted value reached main memory
	assert.Equal(t, core.Value(1), m.Mem["x"].Value)
	require.NoError(t, m.CheckCoherence())
}

func TestStaleInvalidateIsDropped(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 1, 1)
	m.Write(1, "x", 2, 2) // enqueues invalidate to core 0
	m.Write(0, "x", 3, 3) // core 0 re-acquires ownership, invalidate to core 1

	msg, ok := m.Boxes[0].Pop(1)
	require.True(t, ok)
	require.Equal(t, Invalidate, msg.Kind)
	_, err := m.Deliver(msg)
	require.NoError(t, err)
	// the stale invalidate must not kill the re-acquired line
	assert.Equal(t, Modified, m.Line(0, "x").State)
}

func TestBusWriteIsSynchronouslyVisible(t *testing.T) {
	m := newTestMachine(3)
	m.Write(1, "x", 5, 1)
	m.BusWrite(0, "x", 9, 2)

	assert.Equal(t, Invalid, m.Line(1, "x").State)
	assert.Equal(t, Invalid, m.Line(2, "x").State)
	assert.Equal(t, core.Value(9), m.Mem["x"].Value)
	assert.Equal(t, core.Value(9), m.Coherent("x").Value)
	require.NoError(t, m.CheckCoherence())
}

func TestBusReadObservesCoherentValue(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 5, 1)

	v := m.BusRead(1, "x")
	assert.Equal(t, core.Value(5), v.Value)
	assert.Equal(t, 1, v.Writer)
	// the old owner was demoted and written back
	assert.Equal(t, Shared, m.Line(0, "x").State)
	assert.Equal(t, core.Value(5), m.Mem["x"].Value)
	require.NoError(t, m.CheckCoherence())
}

func TestBusReadDistrustsStaleSharedCopy(t *testing.T) {
	m := newTestMachine(2)

	// core 1 holds a Shared copy of x=0
	m.IssueFetch(1, "x")
	msg, _ := m.Boxes[1].Pop(1)
	_, err := m.Deliver(msg)
	require.NoError(t, err)

	// core 0 stores 5; core 1's Invalidate is still in flight
	m.Write(0, "x", 5, 1)
	require.False(t, m.Drained(1))

	v := m.BusRead(1, "x")
	assert.Equal(t, core.Value(5), v.Value)
	assert.Equal(t, 1, v.Writer)
	require.NoError(t, m.CheckCoherence())
}

func TestFlushDirty(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 3, 1)
	m.Write(0, "y", 4, 2)
	assert.Equal(t, core.Value(0), m.Mem["x"].Value)

	m.FlushDirty(0)
	assert.Equal(t, core.Value(3), m.Mem["x"].Value)
	assert.Equal(t, core.Value(4), m.Mem["y"].Value)
	assert.False(t, m.Line(0, "x").Dirty)
	// flush does not give up ownership
	assert.Equal(t, Modified, m.Line(0, "x").State)
}

func TestFetchReadsFromModifiedOwner(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 42, 1)

	m.IssueFetch(1, "x")
	msg, _ := m.Boxes[1].Pop(1)
	v, err := m.Deliver(msg)
	require.NoError(t, err)
	assert.Equal(t, core.Value(42), v.Value)
	assert.Equal(t, Shared, m.Line(1, "x").State)
	assert.Equal(t, Shared, m.Line(0, "x").State)
	require.NoError(t, m.CheckCoherence())
}

func TestMailboxFIFOPerSource(t *testing.T) {
	b := NewMailbox()
	b.Enqueue(Message{Src: 1, Dst: 0, Addr: "x", Kind: Invalidate})
	b.Enqueue(Message{Src: 1, Dst: 0, Addr: "y", Kind: Invalidate})
	b.Enqueue(Message{Src: 2, Dst: 0, Addr: "z", Kind: Invalidate})

	assert.Equal(t, []core.CoreID{1, 2}, b.Sources())
	assert.Equal(t, 3, b.Len())

	m, ok := b.Pop(1)
	require.True(t, ok)
	assert.Equal(t, core.Addr("x"), m.Addr)
	m, _ = b.Pop(1)
	assert.Equal(t, core.Addr("y"), m.Addr)
	assert.False(t, b.Empty())
	_, ok = b.Pop(1)
	assert.False(t, ok)
}

func TestSnapshotIsIndependent(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 1, 1)
	s := m.Snapshot()

	m.Write(0, "x", 2, 2)
	m.IssueFetch(1, "y")

	assert.Equal(t, core.Value(1), s.Coherent("x").Value)
	assert.True(t, s.Boxes[1].Empty())
	assert.Equal(t, core.Value(2), m.Coherent("x").Value)
}

func TestFinalMemory(t *testing.T) {
	m := newTestMachine(2)
	m.Write(0, "x", 10, 1)
	m.Write(1, "y", 20, 2)

	mem := m.FinalMemory()
	assert.Equal(t, core.Value(10), mem["x"])
	assert.Equal(t, core.Value(20), mem["y"])
}
