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

// TinStats is one tin's slice of the statistics blob. It has no per-flow
// peak/average delay or way-hits/misses fields.
type TinStats struct {
	ThresholdRate uint64 `json:"threshold_rate"`
	TargetUs      int64  `json:"target_us"`
	IntervalUs    int64  `json:"interval_us"`
	SentPackets   uint64 `json:"sent_packets"`
	SentBytes     uint64 `json:"sent_bytes"`
	Dropped       uint64 `json:"dropped"`
	ECNMarked     uint64 `json:"ecn_marked"`
	BacklogBytes  int64  `json:"backlog_bytes"`
	BulkFlowCount int    `json:"bulk_flow_count"`
}

// StatsSnapshot is the JSON-serializable form of dump_stats: per-tin
// counters plus the global memory-budget state.
type StatsSnapshot struct {
	Tins          []TinStats `json:"tins"`
	MemoryLimit   int64      `json:"memory_limit"`
	MemoryUsed    int64      `json:"memory_used"`
	DropOverlimit uint64     `json:"drop_overlimit"`
}

// DumpStats snapshots the scheduler's current counters.
func (s *Scheduler) DumpStats() StatsSnapshot {
	snap := StatsSnapshot{
		Tins:          make([]TinStats, len(s.tins)),
		MemoryLimit:   s.bufferLimit,
		MemoryUsed:    s.bufferUsed,
		DropOverlimit: s.dropOverlimit,
	}
	for i, t := range s.tins {
		snap.Tins[i] = tinStatsOf(t, s.codelParams)
	}
	return snap
}

// tinStatsOf builds the reported slice for a single tin, shared between
// DumpStats and TinStatsAt.
func tinStatsOf(t *tin, codelParams CodelParams) TinStats {
	return TinStats{
		ThresholdRate: t.shaper.rateBps,
		TargetUs:      codelParams.Target.Microseconds(),
		IntervalUs:    codelParams.Interval.Microseconds(),
		SentPackets:   t.packets,
		SentBytes:     t.bytes,
		Dropped:       t.dropped,
		ECNMarked:     t.ecnMarked,
		BacklogBytes:  t.backlog,
		BulkFlowCount: t.bulkFlowCount,
	}
}

// TinStatsAt returns the statistics slice for a single tin by index,
// without building the full snapshot. Returns ErrTinIndexOOR if idx falls
// outside the scheduler's current tin count.
func (s *Scheduler) TinStatsAt(idx int) (TinStats, error) {
	if idx < 0 || idx >= len(s.tins) {
		return TinStats{}, ErrTinIndexOOR
	}
	return tinStatsOf(s.tins[idx], s.codelParams), nil
}

// DumpConfig returns the configuration currently in effect.
func (s *Scheduler) DumpConfig() Config { return s.cfg }
