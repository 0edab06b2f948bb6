// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package sim

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"memsim/checker"
	"memsim/core"
	"memsim/history"
	"memsim/logger"
)

// Config selects how the interleaving space is explored.
type Config struct {
	// Strength picks the coherence strength of the simulated machine.
	Strength core.Strength
	// MaxDepth bounds the number of choices per run; zero means
	// unbounded.
	MaxDepth int
	// Trials is the number of random-mode runs.
	Trials int
	// Seed makes random-mode trials reproducible.
	Seed int64
	// Workers is the number of parallel random-mode workers; zero
	// means one per CPU.
	Workers int
	// Monitor validates the cache coherence invariant after every
	// scheduler step.
	Monitor bool
}

// Failure is the first violating run of an exploration, kept for
// reporting a counterexample.
type Failure struct {
	History *history.History
	Result  checker.Result
}

// Outcome aggregates the checked runs of one exploration.
type Outcome struct {
	Runs       int
	Complete   int
	Bounded    int // runs abandoned at the depth bound
	Stuck      int // runs with an unsatisfiable await
	Violations int
	// Exhaustive is true when every interleaving was visited.
	Exhaustive bool
	// Finals counts the distinct final memory states.
	Finals map[string]int
	// Loads counts the distinct per-core load observations.
	Loads map[string]int
	// Warnings holds the distinct lint warnings across all runs.
	Warnings []string

	First *Failure

	warned map[string]bool
}

func newOutcome() *Outcome {
	return &Outcome{
		Finals: make(map[string]int),
		Loads:  make(map[string]int),
		warned: make(map[string]bool),
	}
}

// absorb folds one run into the summary, checking its history when the
// run completed.
func (o *Outcome) absorb(res RunResult, p core.Program) {
	o.Runs++
	if res.Bounded {
		o.Bounded++
		return
	}
	if res.Stuck {
		o.Stuck++
		return
	}
	o.Complete++
	o.Finals[finalKey(res.Final)]++
	o.Loads[loadsKey(res.History, p)]++

	r := checker.Check(res.History, p)
	for _, w := range r.Warnings {
		if !o.warned[w] {
			o.warned[w] = true
			o.Warnings = append(o.Warnings, w)
		}
	}
	if r.Verdict == checker.Violation {
		o.Violations++
		if o.First == nil {
			o.First = &Failure{History: res.History, Result: r}
		}
	}
}

// Verdict is Violation if any checked run violated the model,
// Consistent otherwise.
func (o *Outcome) Verdict() checker.Verdict {
	if o.Violations > 0 {
		return checker.Violation
	}
	return checker.Consistent
}

func (o *Outcome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d runs, %d complete, %d bounded, %d stuck, %d violations\n",
		o.Runs, o.Complete, o.Bounded, o.Stuck, o.Violations)
	var keys []string
	for k := range o.Finals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-40s x%d\n", k, o.Finals[k])
	}
	return sb.String()
}

// Explore visits every interleaving of the program depth-first and
// checks each completed history. A hit depth bound makes the outcome
// non-exhaustive, not a failure.
func Explore(p core.Program, init map[core.Addr]core.Value, cfg Config) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := NewScheduler(p, init, cfg.Strength)
	s.Monitor = cfg.Monitor
	st := &DFS{MaxDepth: cfg.MaxDepth}
	out := newOutcome()
	for {
		res, err := s.Run(st)
		if err != nil {
			return nil, err
		}
		out.absorb(res, p)
		if !st.Next() {
			break
		}
		s.Reset()
	}
	out.Exhaustive = !st.Bounded()
	logger.Debugf("explored %d interleavings", out.Runs)
	return out, nil
}

// Sample runs seeded random trials spread over worker goroutines and
// checks each completed history. Worker w derives its seed from
// cfg.Seed+w, so a sample is reproducible for a fixed worker count.
func Sample(ctx context.Context, p core.Program, init map[core.Addr]core.Value, cfg Config) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	trials := cfg.Trials
	if trials <= 0 {
		trials = 1
	}
	if workers > trials {
		workers = trials
	}

	var mu sync.Mutex
	out := newOutcome()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		n := trials / workers
		if w < trials%workers {
			n++
		}
		g.Go(func() error {
			s := NewScheduler(p, init, cfg.Strength)
			s.Monitor = cfg.Monitor
			st := NewRandom(cfg.Seed+int64(w), n)
			st.MaxDepth = cfg.MaxDepth
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				res, err := s.Run(st)
				if err != nil {
					return err
				}
				mu.Lock()
				out.absorb(res, p)
				mu.Unlock()
				if !st.Next() {
					return nil
				}
				s.Reset()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// finalKey renders a final memory state as a sorted, stable string.
func finalKey(final map[core.Addr]core.Value) string {
	var addrs []core.Addr
	for a := range final {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	var parts []string
	for _, a := range addrs {
		parts = append(parts, fmt.Sprintf("%s=%d", a, final[a]))
	}
	return strings.Join(parts, " ")
}

// loadsKey renders the values every core's loads observed, in program
// order.
func loadsKey(h *history.History, p core.Program) string {
	var parts []string
	for _, c := range p.Cores() {
		parts = append(parts, fmt.Sprintf("c%d:%v", c, h.Loads(c)))
	}
	return strings.Join(parts, " ")
}
