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

// minBufferLimit is the floor placed on a derived (rather
// than explicitly configured) buffer_limit.
const minBufferLimit = 64 << 10

// overloadNumerator/overloadDenominator is the fraction of buffer_limit
// above which CoDel is told to suppress ECN marking and force hard drops.
const overloadNumerator, overloadDenominator = 3, 4

// DSCPRewriter is an optional capability a Packet implementation may
// support so Scheduler can honor Config.Wash by clearing the DSCP bits on
// the way out. Rewriting the IP header itself remains a host concern
// this is only the hook CAKE calls if it's present.
type DSCPRewriter interface {
	SetDSCP(uint8)
}

// Scheduler is one CAKE instance: the global shaper, its tins, and the
// shared CoDel parameters and memory budget. It is not safe for concurrent
// use — exactly like the kernel qdisc it models, callers must serialize
// Enqueue/Dequeue/Peek/Change/Reset under their own lock.
type Scheduler struct {
	cfg Config

	tins       []*tin
	dscpTable  [64]uint8
	globalShaper byteClock
	curTin     int

	codelParams CodelParams
	overhead    RateOverhead

	bufferUsed        int64
	bufferLimit       int64 // 0 = unlimited
	bufferConfigLimit int64 // explicit Config.Memory, 0 if derived
	dropOverlimit     uint64

	watchdog Watchdog

	peeked     *pktNode
	peekedTin  int
	peekedFlow int
	hasPeeked  bool

	initialized bool
	destroyed   bool
}

// New constructs a Scheduler and immediately Inits it with cfg. wd may be
// nil, in which case watchdog requests are silently dropped.
func New(cfg Config, wd Watchdog) (*Scheduler, error) {
	s := &Scheduler{}
	if wd == nil {
		wd = noopWatchdog{}
	}
	s.watchdog = wd
	if err := s.Init(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Init allocates tins and flow tables for cfg and sets default mode to
// diffserv4/flows/100ms/5ms when cfg is the zero value.
func (s *Scheduler) Init(cfg Config) error {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return s.reconfigure(cfg)
}

// Change re-validates and applies a new parameter blob. On failure the
// scheduler's prior configuration and state are left untouched.
func (s *Scheduler) Change(cfg Config) error {
	return s.reconfigure(cfg)
}

// reconfigure is the shared body of Init/Change: validate, build the new
// tin set, and only then swap it in. A tin at an index below both the old
// and the new tin count, with flows-per-tin unchanged from the prior
// configuration, keeps its flow table, backlog, and counters; only its
// rate and DRR weights are re-derived. Packets held by any tin index at
// or beyond the new tin count are discarded, along with any packet
// caught mid-Peek.
func (s *Scheduler) reconfigure(cfg Config) error {
	if s.destroyed {
		return ErrSchedulerClosed
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	dscpTable, presets := buildPreset(cfg.DiffservMode)
	if len(presets) > CakeMaxTins {
		return ErrTooManyTins
	}
	flowsPerTin := cfg.FlowsPerTin
	if flowsPerTin == 0 {
		flowsPerTin = defaultFlowsPerTin
	}

	prevFlowsPerTin := s.cfg.FlowsPerTin
	if prevFlowsPerTin == 0 {
		prevFlowsPerTin = defaultFlowsPerTin
	}
	reusable := s.initialized && prevFlowsPerTin == flowsPerTin

	newTins := make([]*tin, len(presets))
	for i, p := range presets {
		rate := uint64(0)
		if cfg.BaseRate != 0 && p.rateDenominator != 0 {
			rate = cfg.BaseRate * p.rateNumerator / p.rateDenominator
		}
		var t *tin
		if reusable && i < len(s.tins) {
			t = s.tins[i]
		} else {
			t = newTin(flowsPerTin, jenkinsOneAtATime(uint32(i)+1, []byte("cake-tin-perturb")))
		}
		t.shaper.setRate(rate)
		t.quantumPrio = p.quantumPrio
		t.quantumBand = p.quantumBand
		newTins[i] = t
	}

	// Any prior tin at or beyond the new count is dropped along with the
	// backlog it held; its bytes must not linger in buffer_used once its
	// tin object is gone.
	var droppedBacklog int64
	if reusable {
		for i := len(newTins); i < len(s.tins); i++ {
			droppedBacklog += s.tins[i].backlog
		}
	} else {
		for _, t := range s.tins {
			droppedBacklog += t.backlog
		}
	}

	// A packet caught mid-Peek is detached from its tin already; it must
	// be accounted for separately or its bytes leak into buffer_used
	// forever once it is discarded below.
	if s.hasPeeked {
		droppedBacklog += s.peeked.truesize
	}

	var rate0 uint64
	if len(newTins) > 0 {
		rate0 = newTins[0].shaper.rateBps
	}

	bufferLimit := cfg.Memory
	if bufferLimit == 0 && rate0 != 0 {
		bufferLimit = int64(rate0) * int64(cfg.Interval) / int64(250*time.Millisecond)
		if bufferLimit < minBufferLimit {
			bufferLimit = minBufferLimit
		}
	}

	s.tins = newTins
	s.dscpTable = dscpTable
	s.curTin = 0
	s.cfg = cfg
	s.codelParams = CodelParams{Target: cfg.Target, Interval: cfg.Interval}
	s.overhead = RateOverhead{Overhead: cfg.Overhead, ATM: cfg.ATM}
	s.globalShaper = byteClock{}
	s.globalShaper.setRate(rate0)
	s.bufferUsed -= droppedBacklog
	s.bufferLimit = bufferLimit
	s.bufferConfigLimit = cfg.Memory
	if !reusable {
		s.dropOverlimit = 0
	}
	s.peeked, s.hasPeeked = nil, false
	s.watchdog.Cancel()
	s.initialized = true
	return nil
}

// Reset drops every held packet but keeps the current configuration.
func (s *Scheduler) Reset() {
	for _, t := range s.tins {
		t.reset()
	}
	s.bufferUsed = 0
	s.dropOverlimit = 0
	s.peeked, s.hasPeeked = nil, false
	s.globalShaper.timeNextPacket = time.Time{}
	s.watchdog.Cancel()
}

// Destroy releases the scheduler and cancels its watchdog. A destroyed
// Scheduler must not be reused.
func (s *Scheduler) Destroy() {
	s.Reset()
	s.tins = nil
	s.destroyed = true
	s.watchdog.Cancel()
}

// classify maps a packet's DSCP to a tin index, falling back to tin 0 for an
// out-of-range entry as a defensive measure (the table always covers all 64 code points, but a
// reconfigure race between classification and table swap is possible at
// the host integration layer).
func (s *Scheduler) classify(pkt Packet) int {
	idx := int(s.dscpTable[pkt.DSCP()&0x3F])
	if idx < 0 || idx >= len(s.tins) {
		return 0
	}
	return idx
}

// Enqueue admits pkt into the flow selected by key within its classified
// tin. It never blocks. If the memory budget is exceeded, the fattest flow
// in the whole scheduler is evicted until it is not; dropped
// reports whether that eviction happened to take the packet this call just
// admitted.
func (s *Scheduler) Enqueue(pkt Packet, key FlowKey, now time.Time) (accepted, dropped bool) {
	if s.destroyed || len(s.tins) == 0 {
		return false, false
	}

	tinIdx := s.classify(pkt)
	t := s.tins[tinIdx]
	flowIdx := HashFlow(key, t.perturb, s.cfg.FlowMode, len(t.flows))

	node := newPktNode(pkt, now)
	t.enqueue(flowIdx, node, now)
	s.bufferUsed += node.truesize
	accepted = true

	for s.bufferLimit > 0 && s.bufferUsed > s.bufferLimit {
		evicted, _, _ := dropFattestFlow(s.tins)
		if evicted == nil {
			break
		}
		s.bufferUsed -= evicted.truesize
		s.dropOverlimit++
		if evicted == node {
			dropped = true
		}
	}
	return accepted, dropped
}

// overloaded reports whether buffer_used has crossed three quarters of
// buffer_limit, the threshold at which CoDel is told to forgo ECN marking
// in favor of outright drops.
func (s *Scheduler) overloaded() bool {
	if s.bufferLimit <= 0 {
		return false
	}
	return s.bufferUsed*overloadDenominator > s.bufferLimit*overloadNumerator
}

// Dequeue returns the next packet ready to transmit, or nil if the global
// shaper gate is closed or nothing is backlogged. When the gate is closed,
// the watchdog is armed for the time it will next open.
func (s *Scheduler) Dequeue() Packet {
	if s.hasPeeked {
		node := s.peeked
		s.peeked, s.hasPeeked = nil, false
		s.finishDequeue(node, s.peekedTin)
		return node.pkt
	}
	node, tinIdx := s.dequeueNode(time.Now())
	if node == nil {
		return nil
	}
	s.finishDequeue(node, tinIdx)
	return node.pkt
}

// Peek returns the next packet without removing it from the scheduler's
// view of "already sent" state beyond caching it; a following Dequeue call
// returns the same packet instead of re-running selection.
func (s *Scheduler) Peek() Packet {
	if s.hasPeeked {
		return s.peeked.pkt
	}
	node, tinIdx := s.dequeueNode(time.Now())
	if node == nil {
		return nil
	}
	s.peeked, s.peekedTin, s.hasPeeked = node, tinIdx, true
	return node.pkt
}

// dequeueNode runs the gate → tin-selector → flow-DRR → CoDel pipeline
// once, without charging byte-clocks or touching
// global counters (that happens once the packet is actually handed out,
// in finishDequeue, so Peek doesn't double-charge on a later Dequeue).
func (s *Scheduler) dequeueNode(now time.Time) (*pktNode, int) {
	if s.destroyed || len(s.tins) == 0 {
		return nil, -1
	}
	if !s.globalShaper.open(now) {
		s.watchdog.ScheduleAt(s.globalShaper.timeNextPacket)
		return nil, -1
	}

	tinIdx := selectTin(s.tins, s.curTin, now)
	if tinIdx == noFlowIndex {
		s.watchdog.Cancel()
		return nil, -1
	}
	s.curTin = tinIdx

	result, ok := serviceTin(s.tins[tinIdx], s.codelParams, now, s.overloaded(), s.overhead)
	if !ok {
		return nil, -1
	}
	return result.node, tinIdx
}

// finishDequeue performs the side effects that must happen exactly once
// per packet actually handed to the caller: charging the byte-clocks and
// the global buffer accounting, advancing curTin for the next call.
func (s *Scheduler) finishDequeue(node *pktNode, tinIdx int) {
	now := time.Now()
	corrected := s.overhead.apply(node.pkt.Len())
	chargeTinsUpTo(s.tins, tinIdx, corrected, now)
	s.globalShaper.charge(corrected, now)
	s.bufferUsed -= node.truesize
	if s.cfg.Wash {
		if w, ok := node.pkt.(DSCPRewriter); ok {
			w.SetDSCP(0)
		}
	}
	s.curTin = (tinIdx + 1) % len(s.tins)
}

// Drop is the eviction hook a host can call directly under memory
// pressure; it delegates to the same fattest-flow policy Enqueue uses
// internally. Returns false if the scheduler holds nothing to evict.
func (s *Scheduler) Drop() bool {
	if s.destroyed || len(s.tins) == 0 {
		return false
	}
	evicted, _, _ := dropFattestFlow(s.tins)
	if evicted == nil {
		return false
	}
	s.bufferUsed -= evicted.truesize
	s.dropOverlimit++
	return true
}

// BufferUsage returns the current memory budget state, mainly for tests
// and the control-plane API.
func (s *Scheduler) BufferUsage() (used, limit int64) { return s.bufferUsed, s.bufferLimit }
