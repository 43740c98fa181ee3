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

// CakeMaxTins bounds the number of priority classes a Scheduler can hold.
const CakeMaxTins = 8

// defaultFlowsPerTin is the flow-table size suggested for the flow table; it
// must stay a power of two for the reciprocal-multiply hash reduction to
// spread evenly.
const defaultFlowsPerTin = 1024

// tin is one traffic class: a flow table, the two new/old DRR lists over
// it, its own byte-clock, and its running counters.
type tin struct {
	flows    []flow
	perturb  uint32
	newHead  int
	newTail  int
	oldHead  int
	oldTail  int

	shaper byteClock

	quantumPrio int64 // DRR replenishment while under-rate
	quantumBand int64 // DRR replenishment while over-rate
	tinDeficit  int64

	backlog int64 // sum of flows[*].backlog

	packets       uint64
	bytes         uint64
	dropped       uint64
	ecnMarked     uint64
	bulkFlowCount int
}

func newTin(flowsCount int, perturb uint32) *tin {
	if flowsCount <= 0 {
		flowsCount = defaultFlowsPerTin
	}
	t := &tin{
		flows:   make([]flow, flowsCount),
		perturb: perturb,
		newHead: noFlowIndex, newTail: noFlowIndex,
		oldHead: noFlowIndex, oldTail: noFlowIndex,
	}
	for i := range t.flows {
		t.flows[i] = *newFlow()
	}
	return t
}

// listHeadTail returns pointers to the head/tail cursor fields for the
// requested list, so list operations can be written once and shared
// between new_flows and old_flows.
func (t *tin) listHeadTail(which listMembership) (*int, *int) {
	if which == onNewList {
		return &t.newHead, &t.newTail
	}
	return &t.oldHead, &t.oldTail
}

// pushListTail appends flow index idx to the tail of the requested list.
func (t *tin) pushListTail(idx int, which listMembership) {
	head, tail := t.listHeadTail(which)
	f := &t.flows[idx]
	f.onList = which
	f.listPrev = *tail
	f.listNext = noFlowIndex
	if *tail != noFlowIndex {
		t.flows[*tail].listNext = idx
	} else {
		*head = idx
	}
	*tail = idx
}

// removeFromList unlinks flow index idx from whichever list it is on.
func (t *tin) removeFromList(idx int) {
	f := &t.flows[idx]
	if f.onList == onNoList {
		return
	}
	head, tail := t.listHeadTail(f.onList)
	if f.listPrev != noFlowIndex {
		t.flows[f.listPrev].listNext = f.listNext
	} else {
		*head = f.listNext
	}
	if f.listNext != noFlowIndex {
		t.flows[f.listNext].listPrev = f.listPrev
	} else {
		*tail = f.listPrev
	}
	f.listPrev, f.listNext = noFlowIndex, noFlowIndex
	f.onList = onNoList
}

// moveToListTail removes idx from its current list (if any) and appends it
// to the tail of which.
func (t *tin) moveToListTail(idx int, which listMembership) {
	t.removeFromList(idx)
	t.pushListTail(idx, which)
}

// enqueue appends node to the hashed flow at flowIdx, updates the flow's
// list membership (new flows start on new_flows), and mirrors the byte
// accounting up into the tin.
func (t *tin) enqueue(flowIdx int, node *pktNode, now time.Time) {
	f := &t.flows[flowIdx]
	wasEmpty := f.empty()
	f.pushTail(node)
	t.backlog += node.truesize

	if wasEmpty && f.onList == onNoList {
		t.pushListTail(flowIdx, onNewList)
	}
	if t.backlog > 0 {
		t.shaper.refreshIfStale(now)
	}
}

// active reports whether the tin currently holds any backlog.
func (t *tin) active() bool { return t.backlog > 0 }

// fattestFlow returns the index of the flow in this tin with the largest
// backlog, or noFlowIndex if the tin holds nothing.
func (t *tin) fattestFlow() int {
	best := noFlowIndex
	var bestBacklog int64 = -1
	for i := range t.flows {
		if t.flows[i].backlog > bestBacklog {
			bestBacklog = t.flows[i].backlog
			best = i
		}
	}
	if bestBacklog <= 0 {
		return noFlowIndex
	}
	return best
}

// reset drains every flow, clears both lists, and zeroes counters, keeping
// the tin's configured rate/weights intact.
func (t *tin) reset() {
	for i := range t.flows {
		t.flows[i].drain()
		t.flows[i].deficit = 0
		t.flows[i].dropCount = 0
		t.flows[i].codel = codelVars{}
		t.flows[i].onList = onNoList
		t.flows[i].listPrev, t.flows[i].listNext = noFlowIndex, noFlowIndex
	}
	t.newHead, t.newTail = noFlowIndex, noFlowIndex
	t.oldHead, t.oldTail = noFlowIndex, noFlowIndex
	t.backlog = 0
	t.packets, t.bytes, t.dropped, t.ecnMarked = 0, 0, 0, 0
	t.bulkFlowCount = 0
	t.tinDeficit = 0
}
