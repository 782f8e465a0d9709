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

package syncutil

import (
	"fmt"

	"github.com/PlinthProject/plinth-core/pkg/threadid"
)

// unowned is the holder value of an unlocked Mutex.
const unowned int64 = 0

// Acquire locks m, blocking until it is free, and returns the guard that
// releases it. The guard must be bound to a variable and released on every
// exit path; WithLock is the closed form that does both.
func (m *Mutex) Acquire() *Guard {
	m.lock()
	g := &Guard{mu: m}
	trackGuard(g)
	return g
}

// WithLock runs fn with m held, releasing on every exit path including
// panic.
func WithLock(m *Mutex, fn func()) {
	g := m.Acquire()
	defer g.Release()
	fn()
}

func (m *Mutex) lock() {
	start := watchStart()
	m.inner.Lock()
	watchDone(start)
	m.assignHolder()
}

// unlock clears the holder before releasing the inner lock. The order is
// load-bearing: clearing after the release races a second goroutine's
// acquire, which could lock and assign itself only to have the stale clear
// wipe its assignment.
func (m *Mutex) unlock() {
	m.unassignHolder()
	m.inner.Unlock()
}

func (m *Mutex) assignHolder() {
	m.holder.Store(threadid.Current())
}

func (m *Mutex) unassignHolder() {
	m.holder.Store(unowned)
}

// Holder returns the goroutine ID of the current owner, or 0 if unowned.
func (m *Mutex) Holder() int64 {
	return m.holder.Load()
}

// IsHeldByCurrent reports whether the calling goroutine holds m. For
// assertions only, never for control flow.
func (m *Mutex) IsHeldByCurrent() bool {
	return m.holder.Load() == threadid.Current()
}

// AssertHeld panics unless the calling goroutine holds m. Methods that
// require the lock already held call this to document and enforce the
// precondition.
func (m *Mutex) AssertHeld() {
	if !m.IsHeldByCurrent() {
		panic(fmt.Sprintf(
			"syncutil: lock not held by goroutine %d (holder %d)",
			threadid.Current(), m.holder.Load(),
		))
	}
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// A Guard is a scoped acquisition of one Mutex. It is created already
// holding the lock and must be released exactly once; a second Release
// panics. Guards must not be copied (go vet enforces this) and must not
// escape the scope that protects the guarded region.
type Guard struct {
	mu *Mutex
	_  noCopy
}

// Release unlocks the mutex the guard holds. Panics if the guard was already
// released or if the calling goroutine is not the holder.
func (g *Guard) Release() {
	if g.mu == nil {
		panic("syncutil: release of released guard")
	}
	if !g.mu.IsHeldByCurrent() {
		panic(fmt.Sprintf(
			"syncutil: guard released by goroutine %d, holder is %d",
			threadid.Current(), g.mu.Holder(),
		))
	}
	m := g.mu
	g.mu = nil
	m.unlock()
}
