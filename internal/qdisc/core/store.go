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

// Package core provides the host-side management of CAKE scheduler
// instances: one named instance per network interface, kept in memory and
// driven by a background worker.
package core

import (
	"sync"
	"sync/atomic"
	"time"

	"cake/pkg/cake"
)

// managedScheduler wraps one cake.Scheduler with the metadata the
// background worker needs: its own mutex (the single lock the whole
// host-integration layer requires, since pkg/cake itself holds none) and
// a last-active timestamp for the eviction sweep.
type managedScheduler struct {
	mu        sync.Mutex
	sched     *cake.Scheduler
	watchdog  *timerWatchdog
	iface     string
	lastActive int64 // UnixNano, atomic
}

func (m *managedScheduler) touch() {
	atomic.StoreInt64(&m.lastActive, time.Now().UnixNano())
}

func (m *managedScheduler) idleSince() time.Duration {
	return time.Since(time.Unix(0, atomic.LoadInt64(&m.lastActive)))
}

// Change pushes a new configuration to the underlying scheduler under the
// instance's own mutex, the one lock the host-integration layer needs.
func (m *managedScheduler) Change(cfg cake.Config) error {
	m.touch()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.Change(cfg)
}

// Reset drains and resets the underlying scheduler, keeping its config.
func (m *managedScheduler) Reset() {
	m.touch()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched.Reset()
}

// DumpStats snapshots the underlying scheduler's counters.
func (m *managedScheduler) DumpStats() cake.StatsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.DumpStats()
}

// TinStats returns the statistics slice for a single tin by index,
// without building the full snapshot.
func (m *managedScheduler) TinStats(idx int) (cake.TinStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.TinStatsAt(idx)
}

// Enqueue admits pkt under key into the underlying scheduler and arms the
// watchdog at the current time, so the worker's next pump cycle calls
// Dequeue; a Dequeue that finds the shaper gate closed re-arms it for the
// time the gate opens.
func (m *managedScheduler) Enqueue(pkt cake.Packet, key cake.FlowKey) (accepted, dropped bool) {
	m.touch()
	m.mu.Lock()
	defer m.mu.Unlock()
	accepted, dropped = m.sched.Enqueue(pkt, key, time.Now())
	m.watchdog.ScheduleAt(time.Now())
	return accepted, dropped
}

// Store manages a collection of named Scheduler instances in memory. It is
// thread-safe and designed for high-concurrency access from both the
// packet-processing hot path and the control-plane API.
type Store struct {
	instances  sync.Map // string -> *managedScheduler
	defaultCfg cake.Config
}

// NewStore creates a Store that initializes new instances with defaultCfg.
func NewStore(defaultCfg cake.Config) *Store {
	return &Store{defaultCfg: defaultCfg}
}

// GetOrCreate returns the named instance, creating and Init-ing it with the
// store's default configuration on first use. The fast path (key already
// present) makes no allocations: Load is tried before falling back to the
// allocate-and-LoadOrStore path.
func (s *Store) GetOrCreate(iface string) (*managedScheduler, error) {
	if actual, ok := s.instances.Load(iface); ok {
		m := actual.(*managedScheduler)
		m.touch()
		return m, nil
	}

	wd := newTimerWatchdog()
	sched, err := cake.New(s.defaultCfg, wd)
	if err != nil {
		return nil, err
	}
	newManaged := &managedScheduler{sched: sched, watchdog: wd, iface: iface, lastActive: time.Now().UnixNano()}

	if actual, loaded := s.instances.LoadOrStore(iface, newManaged); loaded {
		m := actual.(*managedScheduler)
		m.touch()
		return m, nil
	}
	return newManaged, nil
}

// ForEach iterates over every managed instance. f must not block for long;
// it runs on the worker's own goroutine.
func (s *Store) ForEach(f func(iface string, m *managedScheduler)) {
	s.instances.Range(func(key, value interface{}) bool {
		f(key.(string), value.(*managedScheduler))
		return true
	})
}

// Delete removes iface from the store and destroys its scheduler.
func (s *Store) Delete(iface string) {
	if v, ok := s.instances.LoadAndDelete(iface); ok {
		m := v.(*managedScheduler)
		m.mu.Lock()
		m.sched.Destroy()
		m.mu.Unlock()
	}
}

// CloseAll destroys every managed instance. Call at shutdown.
func (s *Store) CloseAll() {
	s.instances.Range(func(_, value interface{}) bool {
		m := value.(*managedScheduler)
		m.mu.Lock()
		m.sched.Destroy()
		m.mu.Unlock()
		return true
	})
}
