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

//go:build deadlock

// Package syncutil provides an ownership-tracking mutual exclusion lock with
// scoped acquisition, and a one-shot countdown latch built on it. Use build
// tag -tags=deadlock to enable deadlock detection and leaked-guard checks
// during development.
package syncutil

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = true

func init() {
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}

// A Mutex is a mutual exclusion lock that records the goroutine ID of its
// holder. The zero value is ready to use. It is non-reentrant: a goroutine
// re-acquiring a lock it already holds deadlocks; this build detects and
// reports it. Acquisition goes through Acquire or WithLock only.
type Mutex struct {
	inner  deadlock.Mutex
	holder atomic.Int64
}

// An RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	deadlock.RWMutex
}

// leakedGuardHook is what a guard collected while still holding its lock
// triggers. Replaced by tests; panicking in the finalizer goroutine takes
// the process down, which is the intended fatal outcome.
var leakedGuardHook = func(holder int64) {
	panic(fmt.Sprintf(
		"syncutil: guard collected while lock held by goroutine %d", holder,
	))
}

// trackGuard arranges a collection-time check that g does not die holding
// its lock. A guard that is never released leaves the mutex locked forever;
// in this build that is a fatal programming error instead of a silent hang.
func trackGuard(g *Guard) {
	runtime.SetFinalizer(g, func(g *Guard) {
		if g.mu != nil {
			leakedGuardHook(g.mu.Holder())
		}
	})
}
