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

import "time"

// Watchdog is the injected capability a Scheduler uses to ask its host to
// call Dequeue again in the future. It carries no implementation here so
// tests can drive time deterministically and a real host can
// back it with a hrtimer, time.Timer, or anything else.
type Watchdog interface {
	// ScheduleAt requests a future call; a new call supersedes any
	// previously scheduled one. Calling Dequeue before the requested time
	// is harmless — it simply returns nothing and re-arms.
	ScheduleAt(at time.Time)
	// Cancel clears any pending request.
	Cancel()
}

// noopWatchdog is used when a Scheduler is constructed without one; it
// drops every request on the floor.
type noopWatchdog struct{}

func (noopWatchdog) ScheduleAt(time.Time) {}
func (noopWatchdog) Cancel()              {}
