// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sim drives the machine: a scheduler turns one sequence of
// nondeterministic choices into one execution history, a strategy
// enumerates those sequences, and an explorer aggregates the checked
// histories into an outcome summary.
package sim

import (
	"fmt"
	"math/rand"
)

// Strategy resolves the scheduler's nondeterministic choices. Every
// choice point of a run calls Amb once; Next advances to the following
// interleaving.
type Strategy interface {
	// Amb picks one of n alternatives. It reports false when the
	// current path must be abandoned because the depth bound was hit.
	Amb(n int) (int, bool)
	// Next moves to the next path, reporting false once the strategy
	// has no more paths to offer.
	Next() bool
	// Reset rewinds the strategy to a pristine state.
	Reset()
}

// DFS explores every interleaving up to MaxDepth choices per run by
// replaying the recorded path prefix and bumping its last branch.
type DFS struct {
	// MaxDepth bounds the number of choices per run; zero means
	// unbounded.
	MaxDepth int

	widths  []int
	path    []int
	step    int
	bounded bool
}

// Amb picks the next branch: replayed from the current path while
// inside the recorded prefix, branch zero of a fresh choice point past
// it.
func (d *DFS) Amb(n int) (int, bool) {
	if d.step < len(d.path) {
		if n != d.widths[d.step] {
			panic(fmt.Sprintf("nondeterministic run: Amb(%d) during replay of a width-%d choice", n, d.widths[d.step]))
		}
		res := d.path[d.step]
		d.step++
		return res, true
	}
	if d.MaxDepth > 0 && d.step == d.MaxDepth {
		d.bounded = true
		return 0, false
	}
	d.widths = append(d.widths, n)
	d.path = append(d.path, 0)
	d.step++
	return 0, true
}

// Next backtracks to the deepest choice point with an untaken branch.
func (d *DFS) Next() bool {
	for i := len(d.path) - 1; i >= 0; i-- {
		d.path[i]++
		if d.path[i] < d.widths[i] {
			break
		}
		d.path = d.path[:i]
	}
	d.widths = d.widths[:len(d.path)]
	d.step = 0
	return len(d.path) > 0
}

// Reset discards all recorded paths.
func (d *DFS) Reset() {
	d.widths, d.path = nil, nil
	d.step = 0
	d.bounded = false
}

// Bounded reports whether any run was cut short by MaxDepth, i.e.
// whether the exploration is incomplete.
func (d *DFS) Bounded() bool {
	return d.bounded
}

// Random samples interleavings with a seeded source, so a trial can be
// reproduced from its seed.
type Random struct {
	// MaxDepth bounds the number of choices per run; zero means
	// unbounded.
	MaxDepth int
	// Trials is the number of runs before Next reports false.
	Trials int

	seed    int64
	rng     *rand.Rand
	run     int
	depth   int
	bounded bool
}

// NewRandom returns a random strategy for the given number of trials.
func NewRandom(seed int64, trials int) *Random {
	return &Random{
		Trials: trials,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Amb picks a uniformly random branch.
func (r *Random) Amb(n int) (int, bool) {
	if r.MaxDepth > 0 && r.depth == r.MaxDepth {
		r.bounded = true
		return 0, false
	}
	r.depth++
	return r.rng.Intn(n), true
}

// Next starts the following trial.
func (r *Random) Next() bool {
	r.run++
	r.depth = 0
	return r.run < r.Trials
}

// Reset reseeds the source and restarts the trial count.
func (r *Random) Reset() {
	r.rng = rand.New(rand.NewSource(r.seed))
	r.run = 0
	r.depth = 0
	r.bounded = false
}

// Bounded reports whether any trial was cut short by MaxDepth.
func (r *Random) Bounded() bool {
	return r.bounded
}
