// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"

	"memsim/core"
	"memsim/history"
	"memsim/logger"
	"memsim/machine"
	"memsim/order"
)

type choiceKind int

const (
	issueChoice choiceKind = iota
	deliverChoice
)

// choice is one applicable scheduler action: issuing an eligible
// instruction or delivering the next message of one mailbox lane.
type choice struct {
	kind choiceKind
	core core.CoreID // issuing core, or delivery destination
	idx  int         // program position (issue)
	src  core.CoreID // source lane (deliver)
}

func (c choice) String() string {
	if c.kind == deliverChoice {
		return fmt.Sprintf("deliver %d->%d", c.src, c.core)
	}
	return fmt.Sprintf("issue c%d[%d]", c.core, c.idx)
}

// RunResult is the outcome of one simulated interleaving.
type RunResult struct {
	History *history.History
	Final   map[core.Addr]core.Value
	// Complete is true when every instruction executed and every
	// mailbox drained.
	Complete bool
	// Bounded is true when the strategy abandoned the run at its depth
	// bound.
	Bounded bool
	// Stuck is true when no action was applicable, i.e. an awaited
	// value can never be observed.
	Stuck bool
}

// Scheduler executes a program on a machine, one nondeterministic
// choice per step. It is not safe for concurrent use; parallel
// exploration uses one scheduler per worker.
type Scheduler struct {
	// Monitor validates the cache coherence invariant after every
	// step.
	Monitor bool

	prog     core.Program
	cores    []core.CoreID
	strength core.Strength

	pristine *machine.Machine
	mach     *machine.Machine
	enf      *order.Enforcer
	hist     *history.History
	done     map[core.CoreID][]bool
	fetching map[core.CoreID]int // core blocked on a fetch -> load position
	time     int
}

// NewScheduler builds a scheduler over a fresh machine holding the
// given initial memory. The program must already be validated.
func NewScheduler(p core.Program, init map[core.Addr]core.Value, st core.Strength) *Scheduler {
	n := 0
	for _, c := range p.Cores() {
		if int(c)+1 > n {
			n = int(c) + 1
		}
	}
	s := &Scheduler{
		prog:     p,
		cores:    p.Cores(),
		strength: st,
		pristine: machine.New(n, init),
		enf:      order.NewEnforcer(p),
	}
	s.Reset()
	return s
}

// Reset restores the machine to the initial snapshot and discards the
// history, so the next Run starts from scratch.
func (s *Scheduler) Reset() {
	s.mach = s.pristine.Snapshot()
	s.hist = history.New()
	s.done = make(map[core.CoreID][]bool)
	for _, c := range s.cores {
		s.done[c] = make([]bool, len(s.prog[c]))
	}
	s.fetching = make(map[core.CoreID]int)
	s.time = 0
}

// Done implements order.State.
func (s *Scheduler) Done(c core.CoreID, idx int) bool {
	return s.done[c][idx]
}

// Drained implements order.State.
func (s *Scheduler) Drained(c core.CoreID) bool {
	return s.mach.Drained(c)
}

// Fetching implements order.State.
func (s *Scheduler) Fetching(c core.CoreID) bool {
	_, ok := s.fetching[c]
	return ok
}

// Run executes one interleaving under the given strategy and returns
// its history. The caller resets the scheduler between runs.
func (s *Scheduler) Run(st Strategy) (RunResult, error) {
	for {
		if s.finished() {
			return RunResult{
				History:  s.hist,
				Final:    s.mach.FinalMemory(),
				Complete: true,
			}, nil
		}
		cs := s.choices()
		if len(cs) == 0 {
			return RunResult{History: s.hist, Stuck: true}, nil
		}
		k, ok := st.Amb(len(cs))
		if !ok {
			return RunResult{History: s.hist, Bounded: true}, nil
		}
		logger.Debugf("step %d: %v", s.time+1, cs[k])
		if err := s.apply(cs[k]); err != nil {
			return RunResult{}, err
		}
		if s.Monitor {
			if err := s.mach.CheckCoherence(); err != nil {
				return RunResult{}, fmt.Errorf("after step %d: %w", s.time, err)
			}
		}
	}
}

func (s *Scheduler) finished() bool {
	for _, c := range s.cores {
		for _, d := range s.done[c] {
			if !d {
				return false
			}
		}
	}
	return len(s.fetching) == 0 && s.mach.Quiesced()
}

// choices builds the step's choice set. Under Strong strength pending
// deliveries preempt instruction issue, modeling a fast bus; under Weak
// strength deliveries may lag behind arbitrarily many issues.
func (s *Scheduler) choices() []choice {
	var issues, delivers []choice
	for _, c := range s.cores {
		for _, i := range s.enf.Eligible(s, c) {
			in := s.prog[c][i]
			if in.Await && !s.awaitable(c, in) {
				continue
			}
			issues = append(issues, choice{kind: issueChoice, core: c, idx: i})
		}
	}
	for d := 0; d < s.mach.N; d++ {
		dst := core.CoreID(d)
		for _, src := range s.mach.Mailbox(dst).Sources() {
			delivers = append(delivers, choice{kind: deliverChoice, core: dst, src: src})
		}
	}
	if s.strength == core.Strong && len(delivers) > 0 {
		return delivers
	}
	return append(issues, delivers...)
}

// awaitable reports whether an awaiting instruction would observe its
// expected value if issued now. Loads on an Invalid line consult the
// coherent value the fetch would bring in.
func (s *Scheduler) awaitable(c core.CoreID, in core.Instruction) bool {
	if in.Kind == core.Cmpxchg {
		return s.mach.Coherent(in.Addr).Value == in.Expect
	}
	if v, ok := s.mach.Read(c, in.Addr); ok {
		return v.Value == in.Operand
	}
	return s.mach.Coherent(in.Addr).Value == in.Operand
}

func (s *Scheduler) apply(ch choice) error {
	s.time++
	if ch.kind == deliverChoice {
		return s.deliver(ch)
	}
	return s.issue(ch)
}

func (s *Scheduler) issue(ch choice) error {
	c, in := ch.core, s.prog[ch.core][ch.idx]
	r := order.RuleFor(in.Ordering)
	if r.FlushesBefore(in.Kind) {
		s.mach.FlushDirty(c)
	}
	switch {
	case in.Kind == core.Fence:
		s.record(c, ch.idx, history.Record{})
	case r.BusLocked(in.Kind):
		s.issueLocked(c, ch.idx, in)
	case in.Kind == core.Load:
		v, ok := s.mach.Read(c, in.Addr)
		if !ok {
			s.mach.IssueFetch(c, in.Addr)
			s.fetching[c] = ch.idx
			return nil
		}
		s.completeRead(c, ch.idx, in, v)
	case in.Kind == core.Store:
		rec := s.record(c, ch.idx, history.Record{Value: in.Operand})
		s.mach.Write(c, in.Addr, in.Operand, rec.ID)
	default:
		return fmt.Errorf("cannot issue %v", in)
	}
	return nil
}

// issueLocked executes a bus-locked operation: a single synchronous
// step that reads and writes the coherent value.
func (s *Scheduler) issueLocked(c core.CoreID, idx int, in core.Instruction) {
	switch in.Kind {
	case core.Load:
		s.completeRead(c, idx, in, s.mach.BusRead(c, in.Addr))
	case core.Store:
		rec := s.record(c, idx, history.Record{Value: in.Operand})
		s.mach.BusWrite(c, in.Addr, in.Operand, rec.ID)
	case core.RMW:
		old := s.mach.BusRead(c, in.Addr)
		nv := old.Value + in.Operand
		rec := s.record(c, idx, history.Record{
			Value:    nv,
			ReadFrom: old.Writer,
			SyncWith: s.syncEdge(in, old.Writer),
		})
		s.mach.BusWrite(c, in.Addr, nv, rec.ID)
	case core.Cmpxchg:
		old := s.mach.BusRead(c, in.Addr)
		if old.Value != in.Expect {
			s.record(c, idx, history.Record{
				Value:    old.Value,
				ReadFrom: old.Writer,
				Failed:   true,
				SyncWith: s.syncEdge(in, old.Writer),
			})
			return
		}
		rec := s.record(c, idx, history.Record{
			Value:    in.Operand,
			ReadFrom: old.Writer,
			SyncWith: s.syncEdge(in, old.Writer),
		})
		s.mach.BusWrite(c, in.Addr, in.Operand, rec.ID)
	}
}

func (s *Scheduler) deliver(ch choice) error {
	dst := ch.core
	msg, ok := s.mach.Mailbox(dst).Pop(ch.src)
	if !ok {
		return fmt.Errorf("no pending message %d->%d", ch.src, dst)
	}
	v, err := s.mach.Deliver(msg)
	if err != nil {
		return err
	}
	if msg.Kind != machine.FetchUpdated {
		return nil
	}
	idx, ok := s.fetching[dst]
	if !ok {
		return fmt.Errorf("fetch completion for core %d with no pending load", dst)
	}
	delete(s.fetching, dst)
	in := s.prog[dst][idx]
	if in.Await && v.Value != in.Operand {
		// the coherent value moved on while the fetch was in flight;
		// the line is valid now, so the load waits for eligibility
		// again
		return nil
	}
	s.completeRead(dst, idx, in, v)
	return nil
}

func (s *Scheduler) completeRead(c core.CoreID, idx int, in core.Instruction, v machine.Versioned) {
	s.record(c, idx, history.Record{
		Value:    v.Value,
		ReadFrom: v.Writer,
		SyncWith: s.syncEdge(in, v.Writer),
	})
}

// record appends a completed operation and marks its position done.
func (s *Scheduler) record(c core.CoreID, idx int, r history.Record) *history.Record {
	r.Core, r.Index, r.Inst, r.Time = c, idx, s.prog[c][idx], s.time
	s.done[c][idx] = true
	return s.hist.Append(r)
}

// syncEdge returns the synchronizes-with edge a read establishes: an
// acquire-type read observing a release-type write synchronizes with
// that write.
func (s *Scheduler) syncEdge(in core.Instruction, writer int) []int {
	if writer == 0 || !in.Ordering.Acquires() {
		return nil
	}
	if w := s.hist.Record(writer); w != nil && w.Inst.Ordering.Releases() {
		return []int{writer}
	}
	return nil
}
