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

import "errors"

// Config-invalid errors. Surfaced synchronously from Init/Change; the
// scheduler's prior state is left unchanged on failure.
var (
	ErrUnknownMode     = errors.New("cake: unknown diffserv mode")
	ErrBadInterval     = errors.New("cake: interval must be positive")
	ErrBadTarget       = errors.New("cake: target must be positive and below interval")
	ErrTooManyTins     = errors.New("cake: tin count exceeds CakeMaxTins")
	ErrTinIndexOOR     = errors.New("cake: tin index out of range")
	ErrFlowsNotPow2    = errors.New("cake: flows-per-tin must be a power of two")
	ErrSchedulerClosed = errors.New("cake: scheduler destroyed")
)
