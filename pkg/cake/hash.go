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

// FlowMode selects which fields of a FlowKey participate in hashing.
// CAKE_SET_WAYS (set-associative hashing) is not implemented; the flow
// table is direct-mapped; set-associative hashing is left as a future refinement.
type FlowMode uint8

const (
	// FlowModeNone always hashes to flow index 0 (one shared flow per tin).
	FlowModeNone FlowMode = iota
	// FlowModeSrcIP hashes on source address only.
	FlowModeSrcIP
	// FlowModeDstIP hashes on destination address only.
	FlowModeDstIP
	// FlowModeHosts hashes on source and destination address.
	FlowModeHosts
	// FlowModeFlows hashes on the full 5-tuple (hosts + ports + protocol).
	FlowModeFlows
	// FlowModeDualSrc hashes on the 5-tuple with a seed mixed with the
	// source address; flows of one source still spread across the table.
	FlowModeDualSrc
	// FlowModeDualDst is the destination-biased counterpart of DualSrc.
	FlowModeDualDst
)

// FlowKey is the reduced set of packet-header fields a flow is identified
// by. Extraction from a real packet is a host concern; this
// type is the hash input contract.
type FlowKey struct {
	SrcIP   [16]byte
	DstIP   [16]byte
	SrcPort uint16
	DstPort uint16
	Proto   uint8
}

// bytes renders the fields selected by mode into a flat byte slice fed to
// the hash. Field order is fixed so the same key always hashes the same way
// for a given mode.
func (k FlowKey) bytes(mode FlowMode) []byte {
	buf := make([]byte, 0, 37)
	switch mode {
	case FlowModeNone:
		return buf
	case FlowModeSrcIP:
		buf = append(buf, k.SrcIP[:]...)
	case FlowModeDstIP:
		buf = append(buf, k.DstIP[:]...)
	case FlowModeHosts:
		buf = append(buf, k.SrcIP[:]...)
		buf = append(buf, k.DstIP[:]...)
	case FlowModeFlows, FlowModeDualSrc, FlowModeDualDst:
		buf = append(buf, k.SrcIP[:]...)
		buf = append(buf, k.DstIP[:]...)
		buf = append(buf, byte(k.SrcPort>>8), byte(k.SrcPort))
		buf = append(buf, byte(k.DstPort>>8), byte(k.DstPort))
		buf = append(buf, k.Proto)
	default:
		buf = append(buf, k.SrcIP[:]...)
		buf = append(buf, k.DstIP[:]...)
	}
	return buf
}

// perturbFor returns the seed used for a given mode: the dual variants mix
// the seed with a single host address (src or dst). The index is still a
// hash of the full 5-tuple, so flows sharing that host still spread across
// the table.
func (k FlowKey) perturbFor(mode FlowMode, basePerturb uint32) uint32 {
	switch mode {
	case FlowModeDualSrc:
		return jenkinsOneAtATime(basePerturb, k.SrcIP[:])
	case FlowModeDualDst:
		return jenkinsOneAtATime(basePerturb, k.DstIP[:])
	default:
		return basePerturb
	}
}

// jenkinsOneAtATime is Bob Jenkins' one-at-a-time hash, the style of 32-bit
// non-cryptographic hash CAKE uses to mix a perturbation seed with selected
// header fields.
func jenkinsOneAtATime(seed uint32, data []byte) uint32 {
	h := seed
	for _, b := range data {
		h += uint32(b)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// reduceToRange maps a 32-bit hash into [0, n) via a reciprocal multiply,
// avoiding a modulo on the hot path.
func reduceToRange(hash uint32, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return uint32((uint64(hash) * uint64(n)) >> 32)
}

// HashFlow reduces key to a flow index in [0, flowsCount) within a tin
// whose hash table uses perturb as its seed and mode to select which
// fields of key participate. FlowModeNone always returns 0.
func HashFlow(key FlowKey, perturb uint32, mode FlowMode, flowsCount int) int {
	if mode == FlowModeNone || flowsCount <= 0 {
		return 0
	}
	seed := key.perturbFor(mode, perturb)
	h := jenkinsOneAtATime(seed, key.bytes(mode))
	return int(reduceToRange(h, uint32(flowsCount)))
}
