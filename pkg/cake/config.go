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

// Mode selects one of CAKE's four preset tin layouts. Multi-tenant class
// trees beyond these four are an explicit non-goal.
type Mode uint8

const (
	ModeBestEffort Mode = iota
	ModePrecedence
	ModeDiffserv4
	ModeDiffserv8
)

// Config is the parameter blob accepted by Init/Change. Init substitutes
// DefaultConfig only when handed the zero Config as a whole; otherwise, and
// always in Change, each field is taken as given, so a zero field keeps its
// zero value (DiffservMode 0 is ModeBestEffort, FlowMode 0 is FlowModeNone)
// rather than the DefaultConfig value.
type Config struct {
	BaseRate        uint64        // shaping rate in bytes/sec; 0 = unlimited
	DiffservMode    Mode          // besteffort / precedence / diffserv4 / diffserv8
	FlowMode        FlowMode      // flow-key selector
	ATM             bool          // ATM/DSL cell framing
	Wash            bool          // clear non-ECN DSCP bits before enqueue
	AutorateIngress bool          // accepted, not acted upon
	Overhead        int32         // signed per-packet byte overhead
	Interval        time.Duration // CoDel interval
	Target          time.Duration // CoDel target
	Memory          int64         // explicit buffer_limit; 0 = derive from rate*interval
	FlowsPerTin     int           // flow-table size per tin; 0 = defaultFlowsPerTin
}

// DefaultConfig matches diffserv4, flow-key "flows",
// 100ms interval, 5ms target.
func DefaultConfig() Config {
	return Config{
		DiffservMode: ModeDiffserv4,
		FlowMode:     FlowModeFlows,
		Interval:     100 * time.Millisecond,
		Target:       5 * time.Millisecond,
	}
}

// validate checks the parts of Config that can be rejected synchronously,
// before any tin is (re)built.
func (c Config) validate() error {
	if c.DiffservMode > ModeDiffserv8 {
		return ErrUnknownMode
	}
	if c.Interval < 0 || (c.Interval == 0 && c.Target != 0) {
		return ErrBadInterval
	}
	if c.Interval > 0 && (c.Target <= 0 || c.Target >= c.Interval) {
		return ErrBadTarget
	}
	if c.FlowsPerTin != 0 && c.FlowsPerTin&(c.FlowsPerTin-1) != 0 {
		return ErrFlowsNotPow2
	}
	return nil
}

// Standard Diffserv code points (RFC 2474/4594), used to build the
// diffserv4/diffserv8/precedence DSCP→tin tables.
const (
	dscpCS0  = 0
	dscpCS1  = 8
	dscpCS2  = 16
	dscpCS3  = 24
	dscpCS4  = 32
	dscpCS5  = 40
	dscpCS6  = 48
	dscpCS7  = 56
	dscpAF11 = 10
	dscpAF12 = 12
	dscpAF13 = 14
	dscpAF21 = 18
	dscpAF22 = 20
	dscpAF23 = 22
	dscpAF31 = 26
	dscpAF32 = 28
	dscpAF33 = 30
	dscpAF41 = 34
	dscpAF42 = 36
	dscpAF43 = 38
	dscpEF   = 46
	dscpVA   = 44
	// Legacy IPv4 ToS-derived code points, used by the diffserv tables for
	// traffic that still sets the old "maximize throughput" (TOS1, ToS
	// byte 0x08) or "minimize delay" (TOS4, ToS byte 0x10) ToS bits read
	// as a DSCP value.
	dscpTOS1 = 2
	dscpTOS4 = 4
)

// tinPreset is what the configurator computes per tin before tins are
// built: its share of the base rate and its two DRR weights.
type tinPreset struct {
	rateNumerator, rateDenominator uint64
	quantumPrio, quantumBand       int64
}

// buildPreset returns, for mode, the per-tin DSCP table and rate/weight
// presets.
func buildPreset(mode Mode) (dscpTable [64]uint8, presets []tinPreset) {
	switch mode {
	case ModeBestEffort:
		return dscpTable, []tinPreset{{1, 1, 65535, 65535}}

	case ModePrecedence:
		for d := 0; d < 64; d++ {
			idx := d >> 3
			if idx > 7 {
				idx = 7
			}
			dscpTable[d] = uint8(idx)
		}
		presets = make([]tinPreset, CakeMaxTins)
		qp, qb := int64(256), int64(256)
		num, den := uint64(1), uint64(1)
		for i := 0; i < CakeMaxTins; i++ {
			presets[i] = tinPreset{num, den, qp, qb}
			num *= 7
			den *= 8
			qp = qp * 3 / 2
			qb = qb * 7 / 8
		}
		return dscpTable, presets

	case ModeDiffserv8:
		assign := func(tinIdx uint8, points ...uint8) {
			for _, p := range points {
				dscpTable[p] = tinIdx
			}
		}
		assign(0, dscpCS1)
		assign(1, dscpAF11, dscpAF12, dscpAF13)
		assign(2, dscpCS0)
		assign(3, dscpCS3, dscpAF31, dscpAF32, dscpAF33, dscpAF41, dscpAF42, dscpAF43)
		assign(4, dscpTOS4, dscpAF21, dscpAF22, dscpAF23)
		assign(5, dscpTOS1, dscpCS2)
		assign(6, dscpCS4, dscpCS5, dscpVA, dscpEF)
		assign(7, dscpCS6, dscpCS7)
		presets = make([]tinPreset, CakeMaxTins)
		qp, qb := int64(256), int64(256)
		num, den := uint64(1), uint64(1)
		for i := 0; i < CakeMaxTins; i++ {
			presets[i] = tinPreset{num, den, qp, qb}
			num *= 7
			den *= 8
			qp = qp * 3 / 2
			qb = qb * 7 / 8
		}
		return dscpTable, presets

	case ModeDiffserv4:
		// 0 background, 1 best-effort, 2 video/bulk, 3 latency.
		assign := func(tinIdx uint8, points ...uint8) {
			for _, p := range points {
				dscpTable[p] = tinIdx
			}
		}
		// Every code point not assigned below lands in best-effort (1).
		for d := range dscpTable {
			dscpTable[d] = 1
		}
		assign(0, dscpCS1)
		assign(1, dscpCS0, dscpAF11, dscpAF12, dscpAF13)
		assign(2, dscpCS3, dscpAF21, dscpAF22, dscpAF23, dscpAF31, dscpAF32, dscpAF33,
			dscpAF41, dscpAF42, dscpAF43, dscpCS2, dscpTOS1, dscpTOS4)
		assign(3, dscpCS4, dscpCS5, dscpCS6, dscpCS7, dscpEF, dscpVA)

		presets = []tinPreset{
			{1, 1, 1 * 256, 1},    // background: full rate share, low priority weight
			{15, 16, 2 * 256, 2},  // best-effort
			{3, 4, 4 * 256, 8},    // video/bulk
			{1, 4, 256 * 256, 16}, // latency: biased hard toward priority weight
		}
		return dscpTable, presets
	}
	return dscpTable, nil
}
