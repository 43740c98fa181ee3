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

package core

import (
	"sync"
	"testing"
	"time"

	"cake/pkg/cake"
)

func TestStore_GetOrCreate_IdempotentPerIface(t *testing.T) {
	store := NewStore(cake.DefaultConfig())

	m1, err := store.GetOrCreate("eth0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(time.Millisecond)
	before := m1.idleSince()

	m2, err := store.GetOrCreate("eth0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("expected same managedScheduler for the same iface")
	}
	if m2.idleSince() >= before {
		t.Fatalf("expected idleSince to shrink after a fresh touch")
	}
}

func TestStore_ConcurrentGetOrCreate_SingleInstance(t *testing.T) {
	store := NewStore(cake.DefaultConfig())
	const goroutines = 64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make([]*managedScheduler, goroutines)

	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			m, err := store.GetOrCreate("wlan0")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = m
		}(i)
	}
	wg.Wait()

	first := results[0]
	for i := 1; i < goroutines; i++ {
		if results[i] != first {
			t.Fatalf("expected a single managedScheduler for wlan0, mismatch at %d", i)
		}
	}
}

func TestStore_ForEachAndDelete(t *testing.T) {
	store := NewStore(cake.DefaultConfig())
	for _, iface := range []string{"a", "b", "c"} {
		if _, err := store.GetOrCreate(iface); err != nil {
			t.Fatalf("unexpected error creating %s: %v", iface, err)
		}
	}

	seen := map[string]bool{}
	store.ForEach(func(iface string, _ *managedScheduler) { seen[iface] = true })
	if len(seen) != 3 {
		t.Fatalf("expected 3 ifaces, got %d", len(seen))
	}

	store.Delete("b")
	seen = map[string]bool{}
	store.ForEach(func(iface string, _ *managedScheduler) { seen[iface] = true })
	if seen["b"] {
		t.Fatalf("expected iface b to be deleted")
	}
	if !seen["a"] || !seen["c"] {
		t.Fatalf("expected a and c to remain, got %v", seen)
	}
}

func TestManagedScheduler_EnqueueDequeueRoundTrip(t *testing.T) {
	store := NewStore(cake.DefaultConfig())
	m, err := store.GetOrCreate("eth0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pkt := &fakePacket{length: 500}
	accepted, dropped := m.Enqueue(pkt, cake.FlowKey{})
	if !accepted || dropped {
		t.Fatalf("expected accepted=true dropped=false, got %v %v", accepted, dropped)
	}

	snap := m.DumpStats()
	var backlog int64
	for _, ts := range snap.Tins {
		backlog += ts.BacklogBytes
	}
	if backlog == 0 {
		t.Fatalf("expected non-zero backlog after enqueue")
	}
}

type fakePacket struct{ length int }

func (p *fakePacket) Len() int         { return p.length }
func (p *fakePacket) Truesize() int    { return p.length }
func (p *fakePacket) DSCP() uint8      { return 0 }
func (p *fakePacket) IPVersion() uint8 { return 4 }
func (p *fakePacket) ECNCapable() bool { return false }
