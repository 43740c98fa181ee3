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

// Package persistence provides idempotent persistence adapters for
// Postgres, Redis, and Kafka, committing a CAKE instance's periodic stats
// snapshot.
//
// Every adapter implements a common entry shape carrying an idempotency
// key (CommitID) so a retried commit (crash, timeout, duplicate delivery)
// is a no-op rather than a double-write.
package persistence

import (
	"context"
	"encoding/json"

	"cake/pkg/cake"
)

// CommitEntry is the adapter-facing shape for one instance's committed
// snapshot.
//
//   - Iface: the network interface this scheduler instance is named for.
//   - Snapshot: the stats blob being committed.
//   - CommitID: a unique idempotency key for this commit; replaying the
//     same CommitID for the same Iface must be a no-op.
type CommitEntry struct {
	Iface    string
	Snapshot cake.StatsSnapshot
	CommitID string
}

// IdempotentPersister is the minimal API every adapter implements.
// Implementations must apply each entry exactly once per (Iface, CommitID)
// pair and must be safe to retry with the same CommitID.
type IdempotentPersister interface {
	CommitBatch(ctx context.Context, entries []CommitEntry) error
}

func marshalSnapshot(s cake.StatsSnapshot) ([]byte, error) {
	return json.Marshal(s)
}
