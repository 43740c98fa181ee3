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
	"sync/atomic"
	"time"
)

// timerWatchdog is the host-side cake.Watchdog implementation: it records
// the deadline a Scheduler last asked to be woken at, as a UnixNano, so the
// worker's pumpLoop can compare against it without a dedicated timer per
// instance. -1 means no deadline is armed.
type timerWatchdog struct {
	deadline int64
}

func newTimerWatchdog() *timerWatchdog {
	w := &timerWatchdog{}
	w.Cancel()
	return w
}

func (w *timerWatchdog) ScheduleAt(at time.Time) {
	atomic.StoreInt64(&w.deadline, at.UnixNano())
}

func (w *timerWatchdog) Cancel() {
	atomic.StoreInt64(&w.deadline, -1)
}

// due reports whether the armed deadline, if any, has passed as of now.
func (w *timerWatchdog) due(now time.Time) bool {
	d := atomic.LoadInt64(&w.deadline)
	return d >= 0 && now.UnixNano() >= d
}
