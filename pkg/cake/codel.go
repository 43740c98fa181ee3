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

import (
	"math"
	"time"
)

// CodelParams are the AQM knobs shared by every flow's codelVars.
type CodelParams struct {
	Target   time.Duration
	Interval time.Duration
}

// codelMaxPacketThreshold bounds the "below this, always ok" backlog
// threshold used instead of sojourn time for very light flows; it is at
// most one MTU.
const codelMaxPacketThreshold = mtuBytes

// codelDecayIntervals is how many intervals of no-drop silence before a
// dropping episode's count resets, matching the kernel's dropping-state
// decay behaviour.
const codelDecayIntervals = 16

// codelDequeue pulls packets from the head of f's FIFO, applying the CoDel
// sojourn-time AQM, until one is accepted or the flow drains. overloaded
// suppresses ECN marking (forcing hard drops) when the caller has observed
// global memory pressure above three quarters of the buffer limit.
//
// Returns the accepted node (nil if the flow emptied), plus the number of
// packets dropped and marked while searching for it.
func codelDequeue(f *flow, params CodelParams, now time.Time, overloaded bool) (accepted *pktNode, drops int, marks int) {
	f.codel.resetCycleCounters()
	for {
		node := f.popHead()
		if node == nil {
			return nil, drops, marks
		}

		sojourn := now.Sub(node.enqueuedAt)
		ok := sojourn < params.Target || f.backlog+node.truesize <= codelMaxPacketThreshold

		if ok {
			// Below target (or queue is shallow): clear the above-target
			// clock and, if we were dropping, leave the dropping state.
			f.codel.firstAboveTime = time.Time{}
			f.codel.dropping = false
			return node, drops, marks
		}

		// Sojourn at or above target: track how long this has persisted
		// before entering the dropping state (CoDel's "interval" grace
		// period), unless we are already dropping.
		if !f.codel.dropping {
			if f.codel.firstAboveTime.IsZero() {
				f.codel.firstAboveTime = now.Add(params.Interval)
				return node, drops, marks
			}
			if now.Before(f.codel.firstAboveTime) {
				return node, drops, marks
			}
			// Sustained above target for a full interval: enter dropping.
			f.codel.dropping = true
			if f.codel.count > 1 && now.Sub(f.codel.dropNext) < codelDecayIntervals*params.Interval {
				f.codel.count = f.codel.lastCount
			} else {
				f.codel.count = 1
			}
			f.codel.dropNext = now.Add(controlLaw(params.Interval, f.codel.count))
		} else if now.After(f.codel.dropNext) || now.Equal(f.codel.dropNext) {
			f.codel.count++
			f.codel.lastCount = f.codel.count
			f.codel.dropNext = f.codel.dropNext.Add(controlLaw(params.Interval, f.codel.count))
		} else {
			// Still dropping but not yet time for the next scheduled
			// drop: this packet passes through untouched.
			return node, drops, marks
		}

		if node.pkt.ECNCapable() && !overloaded {
			// Marked, not dropped: the packet is still delivered.
			f.codel.drops++
			marks++
			return node, drops, marks
		}
		// Not ECN-capable (or marking is suppressed under overload):
		// drop this packet and keep searching the FIFO for one to accept.
		f.codel.drops++
		drops++
		f.dropCount++
	}
}

// controlLaw computes the next scheduled drop time given the current
// episode length: interval / sqrt(count), the standard CoDel control law.
func controlLaw(interval time.Duration, count uint32) time.Duration {
	if count == 0 {
		return interval
	}
	return time.Duration(float64(interval) / math.Sqrt(float64(count)))
}
