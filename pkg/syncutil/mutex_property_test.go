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
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyMutualExclusion verifies that for arbitrary goroutine counts
// and iteration mixes, at most one goroutine ever observes holder set to
// itself inside the critical section.
func TestPropertyMutualExclusion(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		goroutines := rapid.IntRange(2, 8).Draw(t, "goroutines")
		iters := rapid.IntRange(1, 200).Draw(t, "iters")

		var (
			m          Mutex
			inside     atomic.Int32
			violations atomic.Int32
		)

		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < iters; j++ {
					WithLock(&m, func() {
						if inside.Add(1) != 1 {
							violations.Add(1)
						}
						if !m.IsHeldByCurrent() {
							violations.Add(1)
						}
						inside.Add(-1)
					})
				}
			}()
		}
		wg.Wait()

		if v := violations.Load(); v != 0 {
			t.Fatalf("mutual exclusion violated %d times", v)
		}
		if h := m.Holder(); h != 0 {
			t.Fatalf("holder %d after all goroutines released", h)
		}
	})
}

// TestPropertyLatchReleasesAllWaiters verifies that N countdowns release
// every waiter exactly once regardless of interleaving.
func TestPropertyLatchReleasesAllWaiters(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 8).Draw(t, "count")
		waiters := rapid.IntRange(1, 8).Draw(t, "waiters")

		l := NewCountDownLatch(count)

		var released atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < waiters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.Wait()
				released.Add(1)
			}()
		}

		var cd sync.WaitGroup
		for i := 0; i < count; i++ {
			cd.Add(1)
			go func() {
				defer cd.Done()
				l.CountDown()
			}()
		}
		cd.Wait()
		wg.Wait()

		if got := released.Load(); got != int32(waiters) {
			t.Fatalf("released %d of %d waiters", got, waiters)
		}
		if l.Count() != 0 {
			t.Fatalf("count %d after exhaustion", l.Count())
		}
	})
}
