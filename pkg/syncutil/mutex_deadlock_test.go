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

package syncutil

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadlockEnabled(t *testing.T) {
	require.True(t, DeadlockEnabled)
}

// TestLeakedGuardIsFatal covers the debug-build check that a lock must not
// die held: a guard collected without Release fires the fatal hook.
func TestLeakedGuardIsFatal(t *testing.T) {
	fired := make(chan int64, 1)
	old := leakedGuardHook
	leakedGuardHook = func(holder int64) {
		select {
		case fired <- holder:
		default:
		}
	}
	defer func() { leakedGuardHook = old }()

	// Leak the guard inside a closure so no reference to it survives. The
	// detector may pin the held mutex itself, but the leak check lives on
	// the guard, which nothing keeps alive.
	func() {
		var m Mutex
		g := m.Acquire()
		_ = g
	}()

	for i := 0; i < 50; i++ {
		runtime.GC()
		select {
		case holder := <-fired:
			require.Positive(t, holder)
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatal("leaked guard was never detected")
}

// TestReleasedGuardCollectsQuietly is the counterpart: a properly released
// guard must not trip the leak check.
func TestReleasedGuardCollectsQuietly(t *testing.T) {
	fired := make(chan int64, 1)
	old := leakedGuardHook
	leakedGuardHook = func(holder int64) {
		select {
		case fired <- holder:
		default:
		}
	}
	defer func() { leakedGuardHook = old }()

	func() {
		var m Mutex
		g := m.Acquire()
		g.Release()
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case holder := <-fired:
		t.Fatalf("leak check fired for a released guard (holder %d)", holder)
	default:
	}
}
