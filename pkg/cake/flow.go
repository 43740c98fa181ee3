// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cake

import "time"

// listMembership records which of a tin's two intrusive lists a flow
// belongs to. A flow is never on both.
type listMembership uint8

const (
	onNoList listMembership = iota
	onNewList
	onOldList
)

// flow is one hashed bucket within a tin. It is owned by the tin's flow
// table at a fixed slot (identified by its index) for its entire lifetime;
// listNext/listPrev only express its transient position in one of the
// tin's new/old intrusive lists, never ownership.
type flow struct {
	head, tail *pktNode // FIFO of held packets
	length     int      // packet count, for diagnostics only
	backlog    int64    // bytes held, mirrored into the owning tin's table

	deficit   int64 // DRR deficit counter, bytes
	dropCount uint64
	codel     codelVars

	onList     listMembership
	listPrev   int // index into the owning tin's flow table, -1 if none
	listNext   int
}

const noFlowIndex = -1

func newFlow() *flow {
	return &flow{listPrev: noFlowIndex, listNext: noFlowIndex}
}

// empty reports whether the flow's FIFO currently holds no packets.
func (f *flow) empty() bool { return f.head == nil }

// pushTail appends node to the flow's FIFO and updates backlog bookkeeping.
func (f *flow) pushTail(node *pktNode) {
	node.next = nil
	if f.tail == nil {
		f.head = node
		f.tail = node
	} else {
		f.tail.next = node
		f.tail = node
	}
	f.length++
	f.backlog += node.truesize
}

// popHead removes and returns the flow's head packet, or nil if empty.
func (f *flow) popHead() *pktNode {
	node := f.head
	if node == nil {
		return nil
	}
	f.head = node.next
	if f.head == nil {
		f.tail = nil
	}
	node.next = nil
	f.length--
	f.backlog -= node.truesize
	return node
}

// drain empties the flow's FIFO without any byte accounting (the caller is
// expected to already have reconciled tin/global backlog separately, as
// happens during Reset/Destroy/reconfigure).
func (f *flow) drain() {
	f.head, f.tail, f.length, f.backlog = nil, nil, 0, 0
}

// codelVars is the per-flow CoDel state, tied to the flow's lifetime.
type codelVars struct {
	count          uint32    // consecutive drop-inducing intervals
	lastCount      uint32    // count as of the last scheduled drop, restored on re-entry to dropping
	dropping       bool
	firstAboveTime time.Time // when sojourn first exceeded target, zero if not above
	dropNext       time.Time // scheduled time of the next drop while dropping
	drops          uint32    // drops/marks issued during the current Dequeue cycle
}

func (c *codelVars) resetCycleCounters() { c.drops = 0 }
