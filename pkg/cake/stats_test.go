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

package cake

import "testing"

func TestScheduler_TinStatsAtMatchesDumpStats(t *testing.T) {
	s, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	snap := s.DumpStats()
	for i := range snap.Tins {
		got, err := s.TinStatsAt(i)
		if err != nil {
			t.Fatalf("TinStatsAt(%d) error: %v", i, err)
		}
		if got != snap.Tins[i] {
			t.Fatalf("TinStatsAt(%d) = %+v, want %+v", i, got, snap.Tins[i])
		}
	}
}

func TestScheduler_TinStatsAtRejectsOutOfRangeIndex(t *testing.T) {
	s, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := s.TinStatsAt(-1); err != ErrTinIndexOOR {
		t.Fatalf("expected ErrTinIndexOOR for a negative index, got %v", err)
	}
	if _, err := s.TinStatsAt(len(s.tins)); err != ErrTinIndexOOR {
		t.Fatalf("expected ErrTinIndexOOR for an index at the tin count, got %v", err)
	}
}
