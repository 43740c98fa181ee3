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

package api

import "net"

// syntheticPacket backs the demo /enqueue endpoint: a cake.Packet with no
// real payload, just the fields the scheduler needs.
type syntheticPacket struct {
	length int
	dscp   uint8
}

func (p *syntheticPacket) Len() int         { return p.length }
func (p *syntheticPacket) Truesize() int    { return p.length }
func (p *syntheticPacket) DSCP() uint8      { return p.dscp }
func (p *syntheticPacket) IPVersion() uint8 { return 4 }
func (p *syntheticPacket) ECNCapable() bool { return false }

// net4 parses an IPv4 dotted-quad string into its 4-byte form, returning
// the zero address on a parse failure or empty input — the demo endpoint
// trades strict validation for a simple, always-safe caller contract.
func net4(s string) []byte {
	ip := net.ParseIP(s)
	if ip == nil {
		return make([]byte, 4)
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return make([]byte, 4)
}
