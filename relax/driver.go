// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package relax contains the relaxation search of memsim. Given a
// program, the driver looks for a maximally relaxed ordering assignment
// that preserves the program's observable outcomes.
package relax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/copier"

	"memsim/core"
	"memsim/logger"
	"memsim/sim"
)

// Config represents the configuration of the driver.
type Config struct {
	Strength core.Strength
	MaxDepth int
}

// Change is one accepted weakening of the search.
type Change struct {
	Core   core.CoreID
	Index  int
	Before core.Ordering
	After  core.Ordering
}

func (c Change) String() string {
	return fmt.Sprintf("c%d[%d] %v -> %v", c.Core, c.Index, c.Before, c.After)
}

// Solution represents one correct assignment: the relaxed program and
// the weakenings applied to reach it.
type Solution struct {
	Program core.Program
	Changes []Change
	// Checks is the number of explorations the search ran.
	Checks int
}

// Driver is the object that coordinates the relaxation search.
type Driver struct {
	cfg Config
}

// NewDriver returns a new driver object.
func NewDriver(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

// Run searches position by position for the weakest ordering that
// keeps the program's outcome set intact. Weakenings accepted early
// constrain the candidates of later positions.
func (d *Driver) Run(p core.Program, init map[core.Addr]core.Value) (Solution, error) {
	work, err := cloneProgram(p)
	if err != nil {
		return Solution{}, err
	}
	base, err := d.signature(work, init)
	if err != nil {
		return Solution{}, err
	}
	logger.Println("== RELAXATION ================================")
	logger.Println()

	sol := Solution{Program: work}
	for _, c := range work.Cores() {
		for i := range work[c] {
			in := &work[c][i]
			for _, o := range weakenings(*in) {
				prev := in.Ordering
				in.Ordering = o
				logger.Printf("CHECK   c%d[%d] %v -> %v ", c, i, prev, o)
				sig, err := d.signature(work, init)
				sol.Checks++
				if err != nil {
					return Solution{}, err
				}
				if sig == base {
					logger.Println("OK")
					sol.Changes = append(sol.Changes, Change{
						Core: c, Index: i, Before: prev, After: o,
					})
					break
				}
				logger.Println("FAIL")
				in.Ordering = prev
			}
		}
	}
	return sol, nil
}

// signature explores the program exhaustively and summarizes its
// observable behavior: the reachable final memory states, the reachable
// load observations, and the verdict.
func (d *Driver) signature(p core.Program, init map[core.Addr]core.Value) (string, error) {
	out, err := sim.Explore(p, init, sim.Config{
		Strength: d.cfg.Strength,
		MaxDepth: d.cfg.MaxDepth,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s :: %s :: %v :: stuck=%v",
		sortedKeys(out.Finals), sortedKeys(out.Loads), out.Verdict(), out.Stuck > 0), nil
}

// weakenings returns the orderings to try for one instruction, weakest
// first. Only orderings legal for the instruction's kind and strictly
// weaker than the current one qualify.
func weakenings(in core.Instruction) []core.Ordering {
	var out []core.Ordering
	for _, o := range []core.Ordering{core.Relaxed, core.Acquire, core.Release, core.AcqRel} {
		if rank(o) >= rank(in.Ordering) {
			continue
		}
		if o.LegalOn(in.Kind) {
			out = append(out, o)
		}
	}
	return out
}

func rank(o core.Ordering) int {
	switch o {
	case core.Relaxed:
		return 0
	case core.Acquire, core.Release:
		return 1
	case core.AcqRel:
		return 2
	default:
		return 3
	}
}

func cloneProgram(p core.Program) (core.Program, error) {
	work := make(core.Program)
	if err := copier.CopyWithOption(&work, p, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("cannot clone program: %v", err)
	}
	return work, nil
}

func sortedKeys(m map[string]int) string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, " | ")
}
