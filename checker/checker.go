// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package checker validates recorded execution histories against the
// guarantees of the declared memory orderings. The checker is a pure
// function of the history: re-running it always yields the same
// verdict.
package checker

import (
	"fmt"
	"sort"

	"memsim/core"
	"memsim/history"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=Verdict

// Verdict represents the outcome of checking one execution history
type Verdict int

const (
	// Undefined represents an unchecked history
	Undefined Verdict = iota
	// Consistent histories satisfy every ordering tag's guarantees
	Consistent
	// Violation histories break at least one guarantee
	Violation
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=Kind

// Kind classifies a violation
type Kind int

const (
	// InvalidKind represents an unknown violation kind
	InvalidKind Kind = iota
	// StaleRead: a load observed a value the happens-before relation forbids
	StaleRead
	// CyclicHappensBefore: the synchronizes-with edges form a cycle
	CyclicHappensBefore
	// NoTotalOrder: the SeqCst operations admit no consistent total order
	NoTotalOrder
	// IllegalOrderingUsage: an ordering tag is illegal on its operation
	IllegalOrderingUsage
)

// Issue is one violation together with its counterexample records.
type Issue struct {
	Kind    Kind
	Records []int // IDs of the conflicting records
	Detail  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%v %v: %s", i.Kind, i.Records, i.Detail)
}

// Result is the verdict for one history plus any lint warnings.
type Result struct {
	Verdict    Verdict
	Violations []Issue
	Warnings   []string
}

// Check validates a completed history against the program it was
// produced from: per-core projection, acyclic happens-before, coherence
// of observed values, and the existence of a SeqCst total order.
func Check(h *history.History, p core.Program) Result {
	var res Result

	if err := p.Validate(); err != nil {
		res.add(Issue{Kind: IllegalOrderingUsage, Detail: err.Error()})
		res.Verdict = Violation
		return res
	}

	checkProjection(h, p, &res)
	g := buildHB(h)
	if cyc := g.findCycle(); cyc != nil {
		res.add(Issue{
			Kind:    CyclicHappensBefore,
			Records: cyc,
			Detail:  "happens-before contains a cycle",
		})
	} else {
		checkReads(h, g, &res)
		checkAtomicity(h, &res)
		checkSeqCst(h, g, &res)
	}
	res.Warnings = lintMixedOrderings(h)

	if len(res.Violations) > 0 {
		res.Verdict = Violation
	} else {
		res.Verdict = Consistent
	}
	return res
}

func (r *Result) add(i Issue) {
	r.Violations = append(r.Violations, i)
}

// checkProjection verifies that each core's records match its program:
// every executed position names the program's instruction, no position
// executes twice, and operations on one address complete in program
// order.
func checkProjection(h *history.History, p core.Program, res *Result) {
	for c, recs := range h.PerCore() {
		seen := make(map[int]bool)
		lastByAddr := make(map[core.Addr]*history.Record)
		for _, r := range recs {
			if r.Index < 0 || r.Index >= len(p[c]) {
				res.add(Issue{
					Kind:    CyclicHappensBefore,
					Records: []int{r.ID},
					Detail:  fmt.Sprintf("core %d has no instruction %d", c, r.Index),
				})
				continue
			}
			if seen[r.Index] {
				res.add(Issue{
					Kind:    CyclicHappensBefore,
					Records: []int{r.ID},
					Detail:  fmt.Sprintf("core %d executed instruction %d twice", c, r.Index),
				})
			}
			seen[r.Index] = true
			if r.Inst.Kind == core.Fence {
				continue
			}
			if prev := lastByAddr[r.Inst.Addr]; prev != nil && prev.Index > r.Index {
				res.add(Issue{
					Kind:    CyclicHappensBefore,
					Records: []int{prev.ID, r.ID},
					Detail:  fmt.Sprintf("core %d reordered same-address operations %d and %d", c, prev.Index, r.Index),
				})
			}
			lastByAddr[r.Inst.Addr] = r
		}
	}
}

// checkReads verifies coherence: no read may observe a value that a
// write happening-before the read has already overwritten, and no read
// may observe a write that happens after it.
func checkReads(h *history.History, g *hbGraph, res *Result) {
	for _, r := range h.Records {
		if !r.Inst.Kind.Reads() {
			continue
		}
		w := r.ReadFrom
		if w != 0 && g.reaches(r.ID, w) {
			res.add(Issue{
				Kind:    StaleRead,
				Records: []int{r.ID, w},
				Detail:  fmt.Sprintf("record #%d observes write #%d that happens after it", r.ID, w),
			})
			continue
		}
		mo := h.ModOrder[r.Inst.Addr]
		pos := -1 // initial value precedes the whole modification order
		for k, id := range mo {
			if id == w {
				pos = k
				break
			}
		}
		for k := pos + 1; k < len(mo); k++ {
			if g.reaches(mo[k], r.ID) {
				res.add(Issue{
					Kind:    StaleRead,
					Records: []int{r.ID, mo[k]},
					Detail: fmt.Sprintf("record #%d observes a value older than write #%d that happens before it",
						r.ID, mo[k]),
				})
				break
			}
		}
	}
}

// checkAtomicity verifies that read-modify-writes are atomic: a
// successful RMW or compare-exchange must read the write immediately
// preceding its own in the per-address modification order. A gap means
// another write slipped between its read and its write.
func checkAtomicity(h *history.History, res *Result) {
	for _, r := range h.Records {
		if !r.Inst.Kind.Reads() || !r.Inst.Kind.Writes() || r.Failed {
			continue
		}
		pred := 0
		for _, id := range h.ModOrder[r.Inst.Addr] {
			if id == r.ID {
				break
			}
			pred = id
		}
		if r.ReadFrom != pred {
			res.add(Issue{
				Kind:    StaleRead,
				Records: []int{r.ID, pred},
				Detail: fmt.Sprintf("record #%d reads #%d instead of #%d, the write preceding its own",
					r.ID, r.ReadFrom, pred),
			})
		}
	}
}

// checkSeqCst attempts to construct a total order over all SeqCst
// operations consistent with program order, the synchronizes-with
// edges, and each core's observations. Failure to construct one is a
// NoTotalOrder violation with the conflicting pair as counterexample.
func checkSeqCst(h *history.History, g *hbGraph, res *Result) {
	sc := h.SeqCst
	if len(sc) < 2 {
		return
	}
	in := make(map[int]map[int]bool) // edge set, from -> to
	addEdge := func(a, b int) {
		if a == b {
			return
		}
		if in[a] == nil {
			in[a] = make(map[int]bool)
		}
		in[a][b] = true
	}

	// happens-before between SeqCst records constrains the total order
	for _, a := range sc {
		for _, b := range sc {
			if a != b && g.reaches(a, b) {
				addEdge(a, b)
			}
		}
	}
	// reads-from and modification order constraints per address
	for _, mo := range h.ModOrder {
		var scw []int
		for _, id := range mo {
			if h.Record(id).Inst.Ordering == core.SeqCst {
				scw = append(scw, id)
			}
		}
		for i := 0; i < len(scw); i++ {
			for j := i + 1; j < len(scw); j++ {
				addEdge(scw[i], scw[j])
			}
		}
	}
	for _, id := range sc {
		r := h.Record(id)
		if !r.Inst.Kind.Reads() {
			continue
		}
		mo := h.ModOrder[r.Inst.Addr]
		pos := -1
		for k, w := range mo {
			if w == r.ReadFrom {
				pos = k
				break
			}
		}
		if r.ReadFrom != 0 && h.Record(r.ReadFrom).Inst.Ordering == core.SeqCst {
			addEdge(r.ReadFrom, id)
		}
		// the read precedes every later SeqCst write of the address,
		// otherwise it would have observed that write
		for k := pos + 1; k < len(mo); k++ {
			if h.Record(mo[k]).Inst.Ordering == core.SeqCst {
				addEdge(id, mo[k])
			}
		}
	}

	if pair := toposortFails(sc, in); pair != nil {
		res.add(Issue{
			Kind:    NoTotalOrder,
			Records: pair,
			Detail:  "no total order over SeqCst operations is consistent with the observations",
		})
	}
}

// toposortFails runs Kahn's algorithm over the constraint edges and, if
// a cycle remains, returns a minimal conflicting pair.
func toposortFails(nodes []int, edges map[int]map[int]bool) []int {
	indeg := make(map[int]int)
	for _, n := range nodes {
		indeg[n] = 0
	}
	for _, tos := range edges {
		for to := range tos {
			indeg[to]++
		}
	}
	var ready []int
	for _, n := range nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Ints(ready)
	done := 0
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		done++
		for to := range edges[n] {
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
		sort.Ints(ready)
	}
	if done == len(nodes) {
		return nil
	}
	// every remaining node sits on a cycle; report the smallest
	// mutually-reachable pair
	var rest []int
	for n, d := range indeg {
		if d > 0 {
			rest = append(rest, n)
		}
	}
	sort.Ints(rest)
	for i := 0; i < len(rest); i++ {
		for j := i + 1; j < len(rest); j++ {
			if edges[rest[i]][rest[j]] && edges[rest[j]][rest[i]] {
				return []int{rest[i], rest[j]}
			}
		}
	}
	return rest
}

// lintMixedOrderings flags addresses accessed with both SeqCst and
// weaker tags: such mixing degrades the address to the weakest
// guarantee used.
func lintMixedOrderings(h *history.History) []string {
	type usage struct{ seqCst, weaker bool }
	use := make(map[core.Addr]*usage)
	for _, r := range h.Records {
		if r.Inst.Kind == core.Fence {
			continue
		}
		u := use[r.Inst.Addr]
		if u == nil {
			u = &usage{}
			use[r.Inst.Addr] = u
		}
		if r.Inst.Ordering == core.SeqCst {
			u.seqCst = true
		} else {
			u.weaker = true
		}
	}
	var addrs []core.Addr
	for a, u := range use {
		if u.seqCst && u.weaker {
			addrs = append(addrs, a)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	var warns []string
	for _, a := range addrs {
		warns = append(warns,
			fmt.Sprintf("address %s mixes SeqCst with weaker orderings; it only gets the weakest guarantee used", a))
	}
	return warns
}
