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

// dropFattestFlow scans every active flow in every tin, evicts the head
// packet of whichever flow holds the largest backlog in bytes, and
// updates all counters. This is the anti-parking-lot eviction: it
// punishes the flow causing memory pressure rather than whichever
// packet happens to be arriving.
//
// Returns the evicted node (nil if there was nothing to evict) so the
// caller can tell whether the packet it just admitted was itself the one
// dropped.
func dropFattestFlow(tins []*tin) (evicted *pktNode, tinIdx, flowIdx int) {
	bestTin := noFlowIndex
	bestFlow := noFlowIndex
	var bestBacklog int64 = -1
	for ti, t := range tins {
		fi := t.fattestFlow()
		if fi == noFlowIndex {
			continue
		}
		if b := t.flows[fi].backlog; b > bestBacklog {
			bestBacklog = b
			bestTin = ti
			bestFlow = fi
		}
	}
	if bestTin == noFlowIndex {
		return nil, noFlowIndex, noFlowIndex
	}

	t := tins[bestTin]
	f := &t.flows[bestFlow]
	node := f.popHead()
	if node == nil {
		return nil, noFlowIndex, noFlowIndex
	}
	t.backlog -= node.truesize
	t.dropped++
	if f.empty() && f.onList == onOldList {
		// An emptied flow that was graduated into old_flows no longer
		// contributes to the bulk count.
		t.bulkFlowCount--
	}
	if f.empty() {
		t.removeFromList(bestFlow)
	}
	return node, bestTin, bestFlow
}
