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

// Package cake implements the CAKE (Common Applications Kept Enhanced)
// traffic shaper, active queue management, and fair queueing discipline.
//
// A Scheduler holds a three-level hierarchy — global shaper, tins (priority
// classes), per-flow queues — and applies CoDel at the leaf and deficit
// round robin at both the flow and tin level. The dataplane (Enqueue,
// Dequeue, Peek) is single-threaded by construction: callers are
// responsible for serializing access, exactly as a kernel qdisc is called
// under its own lock.
package cake
