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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatchWaitBlocksUntilZero(t *testing.T) {
	t.Parallel()

	l := NewCountDownLatch(3)
	require.Equal(t, 3, l.Count())

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()

	l.CountDown()
	l.CountDown()
	select {
	case <-done:
		t.Fatal("Wait returned before count reached zero")
	case <-time.After(50 * time.Millisecond):
	}

	l.CountDown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned after count reached zero")
	}
	assert.Equal(t, 0, l.Count())
}

func TestLatchZeroCountReturnsImmediately(t *testing.T) {
	t.Parallel()

	l := NewCountDownLatch(0)
	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked on an exhausted latch")
	}
}

func TestLatchCountDownBelowZeroIsNoOp(t *testing.T) {
	t.Parallel()

	l := NewCountDownLatch(1)
	l.CountDown()
	l.CountDown()
	assert.Equal(t, 0, l.Count())
}

func TestLatchNegativeCountPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { NewCountDownLatch(-1) })
}

func TestLatchHolderRestoredAroundWait(t *testing.T) {
	t.Parallel()

	l := NewCountDownLatch(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Wait()
		// The waiter released its guard on return, so ownership bookkeeping
		// must be back to unowned.
		assert.Equal(t, int64(0), l.mu.Holder())
	}()

	// Give the waiter time to park inside the wait, where ownership is
	// transiently unassigned even though it will reacquire on wake.
	time.Sleep(20 * time.Millisecond)
	l.CountDown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke")
	}
}
