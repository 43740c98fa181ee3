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

package persistence

import (
	"context"
	"fmt"

	"cake/internal/qdisc/core"
)

// IdemShim adapts an IdempotentPersister to the core.Persister interface
// the worker's commit cycle depends on. It turns the worker's own
// monotonic int64 CommitID into the string idempotency key "iface:CommitID"
// the adapters expect, so each instance's entry in a cycle gets its own key
// and a replayed cycle reproduces the same keys.
type IdemShim struct {
	impl IdempotentPersister
}

func NewIdemShim(impl IdempotentPersister) *IdemShim { return &IdemShim{impl: impl} }

func (s *IdemShim) CommitBatch(ctx context.Context, entries []core.SnapshotEntry) error {
	if len(entries) == 0 {
		return nil
	}
	out := make([]CommitEntry, len(entries))
	for i, e := range entries {
		out[i] = CommitEntry{
			Iface:    e.Iface,
			Snapshot: e.Snapshot,
			CommitID: fmt.Sprintf("%s:%d", e.Iface, e.CommitID),
		}
	}
	return s.impl.CommitBatch(ctx, out)
}
