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

// cake-loadgen drives a cake.Scheduler directly with a synthetic packet
// stream, with no HTTP involved, to exercise pacing, flow isolation, and
// overflow behavior and print periodic backlog/drop stats.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"cake/internal/qdisc/classify"
	"cake/pkg/cake"
)

type genPacket struct {
	length int
	dscp   uint8
}

func (p *genPacket) Len() int         { return p.length }
func (p *genPacket) Truesize() int    { return p.length + 64 }
func (p *genPacket) DSCP() uint8      { return p.dscp }
func (p *genPacket) IPVersion() uint8 { return 4 }
func (p *genPacket) ECNCapable() bool { return true }

// nopWatchdog discards arm/cancel calls; cake-loadgen drives Dequeue on a
// fixed ticker instead of reacting to watchdog deadlines.
type nopWatchdog struct{}

func (nopWatchdog) ScheduleAt(time.Time) {}
func (nopWatchdog) Cancel()              {}

func main() {
	baseRate := flag.Uint64("rate", 1_000_000, "Shaping rate in bytes/sec")
	diffservMode := flag.Int("diffserv_mode", int(cake.ModeDiffserv4), "Diffserv mode: 0=besteffort 1=precedence 2=diffserv4 3=diffserv8")
	flows := flag.Int("flows", 8, "Number of synthetic flows")
	packetSize := flag.Int("packet_size", 1200, "Packet size in bytes")
	duration := flag.Duration("duration", 10*time.Second, "How long to generate traffic")
	sendInterval := flag.Duration("send_interval", time.Millisecond, "How often to enqueue one packet per flow")
	reportInterval := flag.Duration("report_interval", time.Second, "How often to print scheduler stats")
	flag.Parse()

	cfg := cake.DefaultConfig()
	cfg.BaseRate = *baseRate
	cfg.DiffservMode = cake.Mode(*diffservMode)

	sched, err := cake.New(cfg, nopWatchdog{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cake.New: %v\n", err)
		os.Exit(1)
	}

	keys := make([]cake.FlowKey, *flows)
	for i := range keys {
		h := classify.Header{
			SrcIP:   []byte{10, 0, 0, byte(i + 1)},
			DstIP:   []byte{10, 0, 1, 1},
			SrcPort: uint16(20000 + i),
			DstPort: 443,
			Protocol: 6,
		}
		key, err := classify.Extract(h, cfg.FlowMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "classify.Extract: %v\n", err)
			os.Exit(1)
		}
		keys[i] = key
	}
	dscps := []uint8{0, 10, 26, 46} // spread across diffserv4 tins

	stop := time.Now().Add(*duration)
	sendTicker := time.NewTicker(*sendInterval)
	defer sendTicker.Stop()
	reportTicker := time.NewTicker(*reportInterval)
	defer reportTicker.Stop()

	var enqueued, accepted, dropped, drained uint64
	for time.Now().Before(stop) {
		select {
		case <-sendTicker.C:
			for _, key := range keys {
				pkt := &genPacket{length: *packetSize, dscp: dscps[rand.Intn(len(dscps))]}
				enqueued++
				acc, drp := sched.Enqueue(pkt, key, time.Now())
				if acc {
					accepted++
				}
				if drp {
					dropped++
				}
			}
			for {
				if sched.Dequeue() == nil {
					break
				}
				drained++
			}
		case <-reportTicker.C:
			snap := sched.DumpStats()
			fmt.Printf("t=%s enqueued=%d accepted=%d dropped=%d drained=%d mem=%d/%d\n",
				time.Since(stop.Add(-*duration)).Truncate(time.Second), enqueued, accepted, dropped, drained,
				snap.MemoryUsed, snap.MemoryLimit)
			for i, t := range snap.Tins {
				fmt.Printf("  tin[%d] sent=%d bytes=%d dropped=%d ecn=%d backlog=%d bulk_flows=%d\n",
					i, t.SentPackets, t.SentBytes, t.Dropped, t.ECNMarked, t.BacklogBytes, t.BulkFlowCount)
			}
		}
	}
}
