// Plinth Core
// Copyright (c) 2026 The Plinth Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Plinth Core.
//
// Plinth Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Plinth Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Plinth Core.  If not, see <http://www.gnu.org/licenses/>.

//go:build !deadlock

// Package syncutil provides an ownership-tracking mutual exclusion lock with
// scoped acquisition, and a one-shot countdown latch built on it. Use build
// tag -tags=deadlock to enable deadlock detection and leaked-guard checks
// during development.
package syncutil

import (
	"sync"
	"sync/atomic"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// A Mutex is a mutual exclusion lock that records the goroutine ID of its
// holder. The zero value is ready to use. It is non-reentrant: a goroutine
// re-acquiring a lock it already holds deadlocks. Acquisition goes through
// Acquire or WithLock only.
type Mutex struct {
	inner  sync.Mutex //nolint:forbidigo // this package wraps sync.Mutex
	holder atomic.Int64
}

// An RWMutex is a reader/writer mutual exclusion lock.
//
//nolint:gocritic // embedding sync.RWMutex is intentional - this IS the wrapper
type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // this package wraps sync.RWMutex
}

// trackGuard is a debug-build hook; no-op without the deadlock tag.
func trackGuard(_ *Guard) {}
