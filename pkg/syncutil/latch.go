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

import "sync"

// A CountDownLatch is a one-shot barrier. Wait blocks until the count
// reaches zero; CountDown decrements it and wakes every waiter when it does.
// The count never goes below zero and the latch is not reusable.
type CountDownLatch struct {
	cond  *sync.Cond
	count int
	mu    Mutex
}

// NewCountDownLatch creates a latch with initial count n. Panics if n is
// negative.
func NewCountDownLatch(n int) *CountDownLatch {
	if n < 0 {
		panic("syncutil: negative latch count")
	}
	l := &CountDownLatch{count: n}
	l.cond = sync.NewCond(&l.mu.inner)
	return l
}

// Wait blocks the calling goroutine until the count reaches zero. Returns
// immediately if it already has.
func (l *CountDownLatch) Wait() {
	g := l.mu.Acquire()
	defer g.Release()
	for l.count > 0 {
		l.waitSignal()
	}
}

// waitSignal parks on the condition variable. The inner lock is physically
// released for the duration of the wait, so ownership is unassigned first
// and restored unconditionally on scope exit.
func (l *CountDownLatch) waitSignal() {
	l.mu.AssertHeld()
	l.mu.unassignHolder()
	defer l.mu.assignHolder()
	l.cond.Wait()
}

// CountDown decrements the count, waking all waiters when it reaches zero.
// Counting down an exhausted latch is a no-op.
func (l *CountDownLatch) CountDown() {
	g := l.mu.Acquire()
	defer g.Release()
	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		l.cond.Broadcast()
	}
}

// Count returns the current count.
func (l *CountDownLatch) Count() int {
	g := l.mu.Acquire()
	defer g.Release()
	return l.count
}
