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

// Package core implements the background worker responsible for pumping
// packets out of each scheduler's watchdog-gated dequeue and for evicting
// idle instances.
package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cake/internal/qdisc/telemetry"
	"cake/pkg/cake"
)

// Sink receives packets a scheduler has released via Dequeue. A host
// integration backs this with whatever actually transmits the packet;
// nothing in this package interprets cake.Packet beyond handing it off.
type Sink interface {
	Transmit(iface string, pkt cake.Packet)
}

// Worker drives every managed scheduler's watchdog-gated pump loop and
// evicts instances idle past evictionAge, pairing a commit loop and an
// eviction loop around a sync.Map-backed Store.
type Worker struct {
	store            *Store
	sink             Sink
	persister        Persister
	pumpInterval     time.Duration
	commitInterval   time.Duration
	evictionAge      time.Duration
	evictionInterval time.Duration
	stopChan         chan struct{}
	wg               sync.WaitGroup
	stopped          uint32
	nextCommitID     int64
}

// NewWorker creates and configures a new background worker.
//
// pumpInterval: how often to check every instance's watchdog deadline and
// drain ready packets.
// commitInterval: how often to persist a stats snapshot per instance.
// evictionAge/evictionInterval: how long an instance may sit untouched
// before the eviction sweep removes it, and how often that sweep runs.
func NewWorker(store *Store, sink Sink, persister Persister, pumpInterval, commitInterval, evictionAge, evictionInterval time.Duration) *Worker {
	return &Worker{
		store:            store,
		sink:             sink,
		persister:        persister,
		pumpInterval:     pumpInterval,
		commitInterval:   commitInterval,
		evictionAge:      evictionAge,
		evictionInterval: evictionInterval,
		stopChan:         make(chan struct{}),
	}
}

// Start launches the background goroutines for the worker.
func (w *Worker) Start() {
	fmt.Println("Starting qdisc background worker...")
	w.wg.Add(3)
	go func() {
		defer w.wg.Done()
		w.pumpLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.commitLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.evictionLoop()
	}()
}

// Stop gracefully stops the background worker.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	fmt.Println("Stopping qdisc background worker...")
	close(w.stopChan)
	w.wg.Wait()
}

// pumpLoop ticks at pumpInterval; every tick, every instance whose watchdog
// deadline has elapsed gets drained with Dequeue until it returns nothing.
func (w *Worker) pumpLoop() {
	ticker := time.NewTicker(w.pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runPumpCycle()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) runPumpCycle() {
	now := time.Now()
	w.store.ForEach(func(iface string, m *managedScheduler) {
		if !m.watchdog.due(now) {
			return
		}
		m.mu.Lock()
		for {
			pkt := m.sched.Dequeue()
			if pkt == nil {
				break
			}
			if w.sink != nil {
				w.sink.Transmit(iface, pkt)
			}
		}
		m.mu.Unlock()
	})
}

// commitLoop periodically persists a stats snapshot for every instance.
func (w *Worker) commitLoop() {
	ticker := time.NewTicker(w.commitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runCommitCycle()
		case <-w.stopChan:
			w.runCommitCycle() // final flush
			return
		}
	}
}

func (w *Worker) runCommitCycle() {
	if w.persister == nil {
		return
	}
	var entries []SnapshotEntry
	commitID := atomic.AddInt64(&w.nextCommitID, 1)
	w.store.ForEach(func(iface string, m *managedScheduler) {
		m.mu.Lock()
		snap := m.sched.DumpStats()
		m.mu.Unlock()
		entries = append(entries, SnapshotEntry{Iface: iface, Snapshot: snap, CommitID: commitID})

		telemetry.ObserveMemory(iface, snap.MemoryUsed, snap.MemoryLimit)
		var busiestTin int
		var busiestDrops uint64
		for i, t := range snap.Tins {
			telemetry.ObserveSnapshot(iface, i, t.SentPackets, t.SentBytes, t.Dropped, t.ECNMarked, t.BacklogBytes)
			if t.Dropped >= busiestDrops {
				busiestTin, busiestDrops = i, t.Dropped
			}
		}
		if len(snap.Tins) > 0 {
			telemetry.ReportBusiest(iface, busiestTin, busiestDrops, snap.Tins[busiestTin].BacklogBytes)
		}
	})
	if len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.persister.CommitBatch(ctx, entries); err != nil {
		fmt.Printf("ERROR: failed to commit stats batch: %v\n", err)
	}
}

// evictionLoop periodically removes schedulers idle longer than
// evictionAge.
func (w *Worker) evictionLoop() {
	ticker := time.NewTicker(w.evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runEvictionCycle()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) runEvictionCycle() {
	var stale []string
	w.store.ForEach(func(iface string, m *managedScheduler) {
		if m.idleSince() > w.evictionAge {
			stale = append(stale, iface)
		}
	})
	if len(stale) == 0 {
		return
	}
	fmt.Printf("Evicting %d idle cake instances...\n", len(stale))
	for _, iface := range stale {
		// Re-check staleness right before removal: a late GetOrCreate or
		// Enqueue may have touched it since the sweep above.
		if m, ok := w.store.instances.Load(iface); ok {
			managed := m.(*managedScheduler)
			if managed.idleSince() <= w.evictionAge {
				continue
			}
			w.store.Delete(iface)
		}
	}
}
