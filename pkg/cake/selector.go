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

// selectTin runs the hybrid priority/bandwidth DRR across tins.
// Starting at curTin, it advances with wraparound until a
// tin has both backlog and a positive tin_deficit. Every tin it passes
// over is replenished: quantum_prio if that tin's own shaper gate is open
// (it is still within its rate allocation), quantum_band if not — so a
// high-priority tin gets large turns while under-rate and collapses to
// ordinary bandwidth sharing once it is not, preventing starvation of
// lower tins.
//
// Returns noFlowIndex if no tin currently has backlog, or if a full lap
// adds nothing to any backlogged tin's deficit (its weights are zero).
func selectTin(tins []*tin, curTin int, now time.Time) int {
	n := len(tins)
	if n == 0 {
		return noFlowIndex
	}
	idx := curTin % n
	// Laps repeat until a backlogged tin's deficit turns positive; a lap
	// that replenishes no backlogged tin ends the search.
	progress := false
	for i := 1; ; i++ {
		t := tins[idx]
		if t.active() && t.tinDeficit > 0 {
			return idx
		}
		q := t.quantumBand
		if t.shaper.open(now) {
			q = t.quantumPrio
		}
		t.tinDeficit += q
		progress = progress || (t.active() && q > 0)
		idx = (idx + 1) % n
		if i%n == 0 {
			if !progress {
				return noFlowIndex
			}
			progress = false
		}
	}
}

// chargeTinsUpTo advances the byte-clock of tins[0..curTin] (inclusive) by
// the cost of one overhead-corrected packet. Bandwidth
// used by a higher-priority tin is also charged against every
// lower-priority tin (the ones at or below its index), so a lower tin can
// never "catch up" while a higher one is saturating the wire.
func chargeTinsUpTo(tins []*tin, curTin int, correctedLen int64, now time.Time) {
	for i := 0; i <= curTin && i < len(tins); i++ {
		tins[i].shaper.charge(correctedLen, now)
	}
}
