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

// Package classify is a reference packet header -> cake.FlowKey projection.
// It is deliberately kept outside pkg/cake: the core engine only consumes
// an already-built FlowKey, never a raw header, so a host is free to swap
// in its own extraction logic.
package classify

import (
	"errors"
	"net"

	"cake/pkg/cake"
)

// ErrNoAddresses is returned when a Header carries neither a source nor a
// destination address; there is nothing to key a flow on.
var ErrNoAddresses = errors.New("classify: header has no source or destination address")

// Header is the minimal set of fields a flow-key projection needs out of a
// real packet's IP/transport headers.
type Header struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	DSCP     uint8
}

// Extract projects h into a cake.FlowKey. FlowModeNone needs nothing and
// yields the zero key. Every other mode returns ErrNoAddresses only when
// both addresses are absent; otherwise whichever addresses, ports and
// protocol are present are copied without checking them against mode,
// since HashFlow itself ignores the fields mode doesn't use. An IPv4
// address fills the last four bytes of its 16-byte key field, the rest
// left zero.
func Extract(h Header, mode cake.FlowMode) (cake.FlowKey, error) {
	if mode == cake.FlowModeNone {
		return cake.FlowKey{}, nil
	}
	if len(h.SrcIP) == 0 && len(h.DstIP) == 0 {
		return cake.FlowKey{}, ErrNoAddresses
	}

	var key cake.FlowKey
	if v4 := h.SrcIP.To4(); v4 != nil {
		copy(key.SrcIP[12:], v4)
	} else if ip := h.SrcIP.To16(); ip != nil {
		copy(key.SrcIP[:], ip)
	}
	if v4 := h.DstIP.To4(); v4 != nil {
		copy(key.DstIP[12:], v4)
	} else if ip := h.DstIP.To16(); ip != nil {
		copy(key.DstIP[:], ip)
	}
	key.SrcPort = h.SrcPort
	key.DstPort = h.DstPort
	key.Proto = h.Protocol
	return key, nil
}
