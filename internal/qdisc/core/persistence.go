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
	"context"
	"fmt"
	"sync"
	"time"

	"cake/pkg/cake"
)

// SnapshotEntry is one instance's stats snapshot destined for persistence,
// tagged with a monotonic CommitID so a retried commit is idempotent.
type SnapshotEntry struct {
	Iface    string
	Snapshot cake.StatsSnapshot
	CommitID int64
}

// Persister is the interface the worker's commit cycle persists snapshots
// through. Implementations live in internal/qdisc/persistence.
type Persister interface {
	CommitBatch(ctx context.Context, entries []SnapshotEntry) error
}

// NewMockPersister returns a dependency-free persister that logs every
// committed snapshot batch to stdout, for running the daemon without any
// external storage wired in.
func NewMockPersister() Persister {
	return &mockPersister{}
}

type mockPersister struct {
	mu           sync.Mutex
	totalBatches int64
	totalEntries int64
}

func (p *mockPersister) CommitBatch(ctx context.Context, entries []SnapshotEntry) error {
	if len(entries) == 0 {
		return nil
	}
	fmt.Printf("[%s] persisting batch of %d cake snapshots...\n", time.Now().Format(time.RFC3339), len(entries))
	for _, e := range entries {
		var sent, dropped uint64
		var backlog int64
		for _, t := range e.Snapshot.Tins {
			sent += t.SentPackets
			dropped += t.Dropped
			backlog += t.BacklogBytes
		}
		fmt.Printf("  - IFACE: %-16s SENT: %d DROPPED: %d BACKLOG: %d\n", e.Iface, sent, dropped, backlog)
	}
	p.mu.Lock()
	p.totalBatches++
	p.totalEntries += int64(len(entries))
	p.mu.Unlock()
	return nil
}
