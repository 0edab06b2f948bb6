// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package checker

import (
	"sort"

	"memsim/history"
)

// hbGraph is the happens-before relation of one history: program order
// within each core plus the recorded synchronizes-with edges.
type hbGraph struct {
	nodes []int
	adj   map[int][]int
	reach map[int]map[int]bool
}

func buildHB(h *history.History) *hbGraph {
	g := &hbGraph{adj: make(map[int][]int)}
	for _, r := range h.Records {
		g.nodes = append(g.nodes, r.ID)
	}
	for _, recs := range h.PerCore() {
		byIndex := append([]*history.Record(nil), recs...)
		sort.Slice(byIndex, func(i, j int) bool { return byIndex[i].Index < byIndex[j].Index })
		for i := 1; i < len(byIndex); i++ {
			g.edge(byIndex[i-1].ID, byIndex[i].ID)
		}
	}
	for _, r := range h.Records {
		for _, sw := range r.SyncWith {
			g.edge(sw, r.ID)
		}
	}
	return g
}

func (g *hbGraph) edge(a, b int) {
	g.adj[a] = append(g.adj[a], b)
}

// reaches reports whether a happens before b.
func (g *hbGraph) reaches(a, b int) bool {
	if g.reach == nil {
		g.close()
	}
	return g.reach[a][b]
}

func (g *hbGraph) close() {
	g.reach = make(map[int]map[int]bool)
	for _, n := range g.nodes {
		seen := make(map[int]bool)
		stack := append([]int(nil), g.adj[n]...)
		for len(stack) > 0 {
			m := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[m] {
				continue
			}
			seen[m] = true
			stack = append(stack, g.adj[m]...)
		}
		g.reach[n] = seen
	}
}

// findCycle returns the records of a happens-before cycle, or nil if
// the relation is a strict partial order.
func (g *hbGraph) findCycle() []int {
	const (
		white = iota
		gray
		black
	)
	color := make(map[int]int)
	var stack []int
	var cycle []int

	var visit func(n int) bool
	visit = func(n int) bool {
		color[n] = gray
		stack = append(stack, n)
		for _, m := range g.adj[n] {
			switch color[m] {
			case gray:
				// cut the stack at m: that suffix is the cycle
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == m {
						break
					}
				}
				return true
			case white:
				if visit(m) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range g.nodes {
		if color[n] == white && visit(n) {
			sort.Ints(cycle)
			return cycle
		}
	}
	return nil
}
