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

// Packet is the host's packet handle. The scheduler never copies or
// inspects payload bytes; it only needs wire length, memory footprint, and
// the fields classification depends on. Ownership: a Packet is held by
// exactly one flow queue between Enqueue and Dequeue, then handed back to
// the caller or dropped.
type Packet interface {
	// Len is the wire length in bytes.
	Len() int
	// Truesize is the packet's true memory footprint, normally larger than
	// Len because it includes skb/mbuf overhead.
	Truesize() int
	// DSCP is the 6-bit Diffserv code point from the IP header.
	DSCP() uint8
	// IPVersion is 4 or 6.
	IPVersion() uint8
	// ECNCapable reports whether the packet may be marked (ECT(0)/ECT(1))
	// instead of dropped.
	ECNCapable() bool
}

// pktNode intrusively chains one Packet into a flow's singly-linked FIFO,
// carrying the enqueue timestamp CoDel needs to compute sojourn time.
type pktNode struct {
	pkt        Packet
	enqueuedAt time.Time
	truesize   int64
	next       *pktNode
}

func newPktNode(pkt Packet, now time.Time) *pktNode {
	return &pktNode{pkt: pkt, enqueuedAt: now, truesize: int64(pkt.Truesize())}
}
