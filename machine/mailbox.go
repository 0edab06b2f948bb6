// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package machine

import (
	"fmt"
	"sort"

	"memsim/core"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=MsgKind

// MsgKind represents types of coherence notifications
type MsgKind int

const (
	// InvalidMsg represents an unknown message kind
	InvalidMsg MsgKind = iota
	// Invalidate tells the destination to drop its copy of an address
	Invalidate
	// FetchUpdated completes a pending fetch round trip at the destination
	FetchUpdated
)

// Message is one coherence notification between cores. A fetch round
// trip is modeled as a message from a core to itself.
type Message struct {
	Src  core.CoreID
	Dst  core.CoreID
	Addr core.Addr
	Kind MsgKind
}

func (m Message) String() string {
	return fmt.Sprintf("%v(%s) %d->%d", m.Kind, m.Addr, m.Src, m.Dst)
}

// Mailbox is one core's inbound queue of coherence notifications.
// Messages from the same source are delivered in FIFO order; messages
// from different sources may be delivered in any order.
type Mailbox struct {
	Lanes map[core.CoreID][]Message
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{Lanes: make(map[core.CoreID][]Message)}
}

// Enqueue appends a message to its source lane.
func (b *Mailbox) Enqueue(m Message) {
	b.Lanes[m.Src] = append(b.Lanes[m.Src], m)
}

// Sources returns the sources with pending messages in ascending order.
func (b *Mailbox) Sources() []core.CoreID {
	var srcs []core.CoreID
	for src, lane := range b.Lanes {
		if len(lane) > 0 {
			srcs = append(srcs, src)
		}
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i] < srcs[j] })
	return srcs
}

// Peek returns the next message from the given source without removing it.
func (b *Mailbox) Peek(src core.CoreID) (Message, bool) {
	lane := b.Lanes[src]
	if len(lane) == 0 {
		return Message{}, false
	}
	return lane[0], true
}

// Pop removes and returns the next message from the given source.
func (b *Mailbox) Pop(src core.CoreID) (Message, bool) {
	lane := b.Lanes[src]
	if len(lane) == 0 {
		return Message{}, false
	}
	m := lane[0]
	b.Lanes[src] = lane[1:]
	return m, true
}

// Empty returns true if no message is pending.
func (b *Mailbox) Empty() bool {
	for _, lane := range b.Lanes {
		if len(lane) > 0 {
			return false
		}
	}
	return true
}

// Len returns the number of pending messages.
func (b *Mailbox) Len() int {
	var n int
	for _, lane := range b.Lanes {
		n += len(lane)
	}
	return n
}

// PendingFor returns true if a message for the given address is pending.
func (b *Mailbox) PendingFor(addr core.Addr) bool {
	for _, lane := range b.Lanes {
		for _, m := range lane {
			if m.Addr == addr {
				return true
			}
		}
	}
	return false
}
