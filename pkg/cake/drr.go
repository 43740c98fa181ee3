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

// quantum returns the DRR byte allowance this tin grants per flow turn,
// derived from the tin's own shaping rate, or the full MTU
// if the tin is unshaped.
func (t *tin) quantum() int64 {
	if t.shaper.unlimited() {
		return mtuBytes
	}
	return quantumForRate(t.shaper.rateBps)
}

// tinDequeueResult carries what the flow-level DRR loop produced for one
// call, alongside the bookkeeping the tin selector needs afterwards.
type tinDequeueResult struct {
	node     *pktNode
	flowIdx  int
	drops    int
	marks    int
}

// serviceTin runs the flow-level deficit round robin within t:
// new_flows are tried before old_flows; a flow whose deficit
// has run out is replenished and rotated to old_flows; CoDel is applied to
// the flow at the head; a drained flow either graduates from new_flows to
// old_flows (counted as no longer sparse) or leaves both lists.
func serviceTin(t *tin, params CodelParams, now time.Time, overloaded bool, overhead RateOverhead) (result tinDequeueResult, ok bool) {
	for {
		which := onNewList
		idx := t.newHead
		if idx == noFlowIndex {
			which = onOldList
			idx = t.oldHead
		}
		if idx == noFlowIndex {
			return tinDequeueResult{}, false
		}
		f := &t.flows[idx]

		if f.deficit <= 0 {
			f.deficit += t.quantum()
			wasNew := which == onNewList
			t.moveToListTail(idx, onOldList)
			if wasNew {
				t.bulkFlowCount++
			}
			continue
		}

		node, drops, marks := codelDequeue(f, params, now, overloaded)
		t.dropped += uint64(drops)
		t.ecnMarked += uint64(marks)

		if node != nil {
			corrected := overhead.apply(node.pkt.Len())
			f.deficit -= corrected
			t.tinDeficit -= corrected
			t.backlog -= node.truesize
			t.packets++
			t.bytes += uint64(node.truesize)
			return tinDequeueResult{node: node, flowIdx: idx, drops: drops, marks: marks}, true
		}

		// Flow drained while searching for an acceptable packet.
		if which == onNewList && t.oldHead != noFlowIndex {
			t.moveToListTail(idx, onOldList)
			t.bulkFlowCount++
			continue
		}
		if which == onOldList {
			t.bulkFlowCount--
		}
		t.removeFromList(idx)
	}
}
