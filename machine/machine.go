// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package machine

import (
	"fmt"
	"sort"
	"strings"

	"memsim/core"
)

// Versioned is a value together with the record ID of the store that
// produced it. Writer 0 denotes the initial value.
type Versioned struct {
	Value  core.Value
	Writer int
}

// Machine holds the complete state of the simulated memory system.
// Fields are exported so snapshots can deep-copy them; external
// packages must not mutate them directly.
type Machine struct {
	N     int
	Lines []map[core.Addr]*Line
	Mem   map[core.Addr]Versioned
	Boxes []*Mailbox
}

// New builds a machine for n cores with the given initial memory.
func New(n int, init map[core.Addr]core.Value) *Machine {
	m := &Machine{
		N:   n,
		Mem: make(map[core.Addr]Versioned),
	}
	for a, v := range init {
		m.Mem[a] = Versioned{Value: v}
	}
	for i := 0; i < n; i++ {
		m.Lines = append(m.Lines, make(map[core.Addr]*Line))
		m.Boxes = append(m.Boxes, NewMailbox())
	}
	return m
}

// Line returns a copy of the given core's line for addr. A missing
// line is reported as Invalid.
func (m *Machine) Line(c core.CoreID, addr core.Addr) Line {
	if l, ok := m.Lines[c][addr]; ok {
		return *l
	}
	return Line{}
}

// Mailbox returns the inbound mailbox of the given core.
func (m *Machine) Mailbox(c core.CoreID) *Mailbox {
	return m.Boxes[c]
}

// Owner returns the core holding an Exclusive or Modified line for
// addr, if any.
func (m *Machine) Owner(addr core.Addr) (core.CoreID, bool) {
	for c := 0; c < m.N; c++ {
		if l, ok := m.Lines[c][addr]; ok && l.State.Owned() {
			return core.CoreID(c), true
		}
	}
	return 0, false
}

// Coherent returns the value of addr per coherence order: the owning
// core's copy when one exists, main memory otherwise.
func (m *Machine) Coherent(addr core.Addr) Versioned {
	if c, ok := m.Owner(addr); ok {
		l := m.Lines[c][addr]
		return Versioned{Value: l.Value, Writer: l.Writer}
	}
	return m.Mem[addr]
}

// Read returns the core's locally observable value for addr. It
// reports false if the core's line is Invalid, in which case the load
// must first issue a fetch round trip.
func (m *Machine) Read(c core.CoreID, addr core.Addr) (Versioned, bool) {
	l, ok := m.Lines[c][addr]
	if !ok || l.State == Invalid {
		return Versioned{}, false
	}
	return Versioned{Value: l.Value, Writer: l.Writer}, true
}

// IssueFetch enqueues the FetchUpdated round trip for a read on an
// Invalid line. The message travels through the core's own mailbox, so
// the fetch costs at least one scheduler step of latency.
func (m *Machine) IssueFetch(c core.CoreID, addr core.Addr) {
	m.Boxes[c].Enqueue(Message{Src: c, Dst: c, Addr: addr, Kind: FetchUpdated})
}

// Write performs a plain store: the local line becomes Modified and
// every other holder of the address is sent an asynchronous Invalidate.
// Ownership transfer is synchronous so that at most one core ever owns
// a line; only the shared stale copies linger until their Invalidate
// arrives.
func (m *Machine) Write(c core.CoreID, addr core.Addr, v core.Value, writer int) {
	m.demoteOwner(c, addr)
	for o := 0; o < m.N; o++ {
		if core.CoreID(o) == c {
			continue
		}
		if l, ok := m.Lines[o][addr]; ok && l.State != Invalid {
			m.Boxes[o].Enqueue(Message{Src: c, Dst: core.CoreID(o), Addr: addr, Kind: Invalidate})
		}
	}
	m.Lines[c][addr] = &Line{State: Modified, Value: v, Writer: writer, Dirty: true}
}

// BusWrite performs a bus-locked store: every other copy of the address
// is invalidated as a side effect of this single step and the value is
// written through to main memory.
func (m *Machine) BusWrite(c core.CoreID, addr core.Addr, v core.Value, writer int) {
	for o := 0; o < m.N; o++ {
		if core.CoreID(o) != c {
			delete(m.Lines[o], addr)
		}
	}
	m.Lines[c][addr] = &Line{State: Exclusive, Value: v, Writer: writer}
	m.Mem[addr] = Versioned{Value: v, Writer: writer}
}

// BusRead performs a bus-locked read: it observes the coherent value
// directly, demoting a foreign owner to Shared, and installs a clean
// local copy. A non-owned local line is not trusted: it may be a
// Shared copy whose Invalidate is still in flight.
func (m *Machine) BusRead(c core.CoreID, addr core.Addr) Versioned {
	if l, ok := m.Lines[c][addr]; ok && l.State.Owned() {
		return Versioned{Value: l.Value, Writer: l.Writer}
	}
	v := m.Coherent(addr)
	if o, ok := m.Owner(addr); ok && o != c {
		m.writeBack(o, addr)
		m.Lines[o][addr].State = Shared
	}
	st := Exclusive
	if m.otherHolder(c, addr) {
		st = Shared
	}
	m.Lines[c][addr] = &Line{State: st, Value: v.Value, Writer: v.Writer}
	return v
}

// FlushDirty writes all of the core's dirty lines back to main memory.
// This is the visibility flush a Release performs for the instructions
// preceding it.
func (m *Machine) FlushDirty(c core.CoreID) {
	var addrs []core.Addr
	for a, l := range m.Lines[c] {
		if l.Dirty {
			addrs = append(addrs, a)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, a := range addrs {
		m.writeBack(c, a)
	}
}

// Deliver applies one mailbox message at its destination. For a
// FetchUpdated message it returns the value the fetch brought in.
func (m *Machine) Deliver(msg Message) (Versioned, error) {
	switch msg.Kind {
	case Invalidate:
		// A line owned at delivery time was re-acquired after this
		// invalidate was sent; the message is stale and dropped.
		if l, ok := m.Lines[msg.Dst][msg.Addr]; ok && !l.State.Owned() {
			delete(m.Lines[msg.Dst], msg.Addr)
		}
		return Versioned{}, nil
	case FetchUpdated:
		v := m.Coherent(msg.Addr)
		if o, ok := m.Owner(msg.Addr); ok && o != msg.Dst {
			m.writeBack(o, msg.Addr)
			m.Lines[o][msg.Addr].State = Shared
		}
		st := Exclusive
		if m.otherHolder(msg.Dst, msg.Addr) {
			st = Shared
		}
		m.Lines[msg.Dst][msg.Addr] = &Line{State: st, Value: v.Value, Writer: v.Writer}
		return v, nil
	default:
		return Versioned{}, fmt.Errorf("cannot deliver message %v", msg)
	}
}

// Drained returns true if the core's mailbox is empty. An acquire
// operation acts as a cache fence and is only eligible once this holds.
func (m *Machine) Drained(c core.CoreID) bool {
	return m.Boxes[c].Empty()
}

// CheckCoherence validates the structural cache invariant: at most one
// core owns a line per address, and every stale Shared copy has its
// Invalidate still in flight.
func (m *Machine) CheckCoherence() error {
	for _, addr := range m.addrs() {
		owners := 0
		for c := 0; c < m.N; c++ {
			if l, ok := m.Lines[c][addr]; ok && l.State.Owned() {
				owners++
			}
		}
		if owners > 1 {
			return fmt.Errorf("%d owners for address %s", owners, addr)
		}
		coherent := m.Coherent(addr)
		for c := 0; c < m.N; c++ {
			l, ok := m.Lines[c][addr]
			if !ok || l.State != Shared {
				continue
			}
			if l.Writer == coherent.Writer {
				continue
			}
			if !m.Boxes[c].PendingFor(addr) {
				return fmt.Errorf("core %d holds stale %s copy with no invalidate in flight", c, addr)
			}
		}
	}
	return nil
}

// Quiesced returns true once no message is pending in any mailbox.
func (m *Machine) Quiesced() bool {
	for _, b := range m.Boxes {
		if !b.Empty() {
			return false
		}
	}
	return true
}

// FinalMemory flushes every dirty line and returns the resulting main
// memory values. It is meant to be called once a run has completed.
func (m *Machine) FinalMemory() map[core.Addr]core.Value {
	for c := 0; c < m.N; c++ {
		m.FlushDirty(core.CoreID(c))
	}
	out := make(map[core.Addr]core.Value)
	for a, v := range m.Mem {
		out[a] = v.Value
	}
	return out
}

func (m *Machine) String() string {
	var sb strings.Builder
	for _, addr := range m.addrs() {
		fmt.Fprintf(&sb, "%s=%d", addr, m.Coherent(addr).Value)
		for c := 0; c < m.N; c++ {
			if l, ok := m.Lines[c][addr]; ok && l.State != Invalid {
				fmt.Fprintf(&sb, " c%d:%v(%d)", c, l.State, l.Value)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Machine) demoteOwner(c core.CoreID, addr core.Addr) {
	o, ok := m.Owner(addr)
	if !ok || o == c {
		return
	}
	m.writeBack(o, addr)
	m.Lines[o][addr].State = Shared
}

func (m *Machine) writeBack(c core.CoreID, addr core.Addr) {
	l := m.Lines[c][addr]
	if l == nil || !l.Dirty {
		return
	}
	m.Mem[addr] = Versioned{Value: l.Value, Writer: l.Writer}
	l.Dirty = false
}

func (m *Machine) otherHolder(c core.CoreID, addr core.Addr) bool {
	for o := 0; o < m.N; o++ {
		if core.CoreID(o) == c {
			continue
		}
		if l, ok := m.Lines[o][addr]; ok && l.State != Invalid {
			return true
		}
	}
	return false
}

func (m *Machine) addrs() []core.Addr {
	seen := make(map[core.Addr]struct{})
	for a := range m.Mem {
		seen[a] = struct{}{}
	}
	for c := 0; c < m.N; c++ {
		for a := range m.Lines[c] {
			seen[a] = struct{}{}
		}
	}
	var addrs []core.Addr
	for a := range seen {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
