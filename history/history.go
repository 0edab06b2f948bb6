// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history records the execution trace of one simulation run:
// every completed operation, the value it observed or produced, and the
// synchronizes-with edges established between operations.
package history

import (
	"fmt"
	"strings"

	"memsim/core"
)

// Record is one completed operation. Records are immutable once
// appended. ID 0 is reserved for the initial memory values.
type Record struct {
	ID       int
	Core     core.CoreID
	Index    int // program position within the core's sequence
	Inst     core.Instruction
	Value    core.Value // value observed (reads) or written (writes)
	ReadFrom int        // record ID of the write a read observed
	Failed   bool       // compare-and-swap observed a mismatch, wrote nothing
	Time     int        // logical timestamp (scheduler step)
	SyncWith []int      // release records this acquire synchronizes with
}

func (r *Record) String() string {
	s := fmt.Sprintf("#%d t=%d c%d[%d] %v = %d", r.ID, r.Time, r.Core, r.Index, r.Inst, r.Value)
	if r.Failed {
		s += " failed"
	}
	if r.Inst.Kind.Reads() {
		s += fmt.Sprintf(" rf=#%d", r.ReadFrom)
	}
	for _, sw := range r.SyncWith {
		s += fmt.Sprintf(" sw=#%d", sw)
	}
	return s
}

// History is the append-only log of one run.
type History struct {
	Records  []*Record
	ModOrder map[core.Addr][]int // per-address modification order
	SeqCst   []int               // candidate total order of SeqCst operations
}

// New returns an empty history.
func New() *History {
	return &History{ModOrder: make(map[core.Addr][]int)}
}

// Append adds a completed operation to the log, assigning its record
// ID, and maintains the per-address modification order and the SeqCst
// candidate total order.
func (h *History) Append(r Record) *Record {
	rec := &r
	rec.ID = len(h.Records) + 1
	h.Records = append(h.Records, rec)
	if rec.Inst.Kind.Writes() && !rec.Failed {
		h.ModOrder[rec.Inst.Addr] = append(h.ModOrder[rec.Inst.Addr], rec.ID)
	}
	if rec.Inst.Ordering == core.SeqCst {
		h.SeqCst = append(h.SeqCst, rec.ID)
	}
	return rec
}

// Record returns the record with the given ID, or nil for ID 0 (the
// initial memory values).
func (h *History) Record(id int) *Record {
	if id <= 0 || id > len(h.Records) {
		return nil
	}
	return h.Records[id-1]
}

// PerCore returns the records of each core in completion order.
func (h *History) PerCore() map[core.CoreID][]*Record {
	out := make(map[core.CoreID][]*Record)
	for _, r := range h.Records {
		out[r.Core] = append(out[r.Core], r)
	}
	return out
}

// Loads returns the values observed by every Load of the given core, in
// program order of the loads.
func (h *History) Loads(c core.CoreID) []core.Value {
	var recs []*Record
	for _, r := range h.Records {
		if r.Core == c && r.Inst.Kind == core.Load {
			recs = append(recs, r)
		}
	}
	for i := 0; i < len(recs); i++ {
		for j := i + 1; j < len(recs); j++ {
			if recs[j].Index < recs[i].Index {
				recs[i], recs[j] = recs[j], recs[i]
			}
		}
	}
	var vals []core.Value
	for _, r := range recs {
		vals = append(vals, r.Value)
	}
	return vals
}

func (h *History) String() string {
	var sb strings.Builder
	for _, r := range h.Records {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
