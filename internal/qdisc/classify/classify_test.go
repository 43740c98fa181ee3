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

package classify

import (
	"net"
	"testing"

	"cake/pkg/cake"
)

func TestExtract_NoneModeIgnoresHeader(t *testing.T) {
	key, err := Extract(Header{}, cake.FlowModeNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != (cake.FlowKey{}) {
		t.Fatalf("expected zero key for FlowModeNone, got %+v", key)
	}
}

func TestExtract_NoAddressesErrors(t *testing.T) {
	_, err := Extract(Header{SrcPort: 1, DstPort: 2}, cake.FlowModeFlows)
	if err != ErrNoAddresses {
		t.Fatalf("expected ErrNoAddresses, got %v", err)
	}
}

func TestExtract_PopulatesAllFields(t *testing.T) {
	h := Header{
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
		SrcPort:  4000,
		DstPort:  443,
		Protocol: 6,
	}
	key, err := Extract(h, cake.FlowModeFlows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.SrcPort != 4000 || key.DstPort != 443 || key.Proto != 6 {
		t.Fatalf("ports/proto not carried through: %+v", key)
	}
	var wantSrc, wantDst [16]byte
	copy(wantSrc[12:], net.IPv4(10, 0, 0, 1).To4())
	copy(wantDst[12:], net.IPv4(10, 0, 0, 2).To4())
	if key.SrcIP != wantSrc || key.DstIP != wantDst {
		t.Fatalf("address bytes not mapped into v4-in-v6 tail: %+v", key)
	}
}

func TestExtract_DeterministicPerAddress(t *testing.T) {
	h := Header{SrcIP: net.IPv4(1, 2, 3, 4), DstIP: net.IPv4(5, 6, 7, 8)}
	k1, _ := Extract(h, cake.FlowModeHosts)
	k2, _ := Extract(h, cake.FlowModeHosts)
	if k1 != k2 {
		t.Fatalf("expected deterministic extraction, got %+v vs %+v", k1, k2)
	}
}
