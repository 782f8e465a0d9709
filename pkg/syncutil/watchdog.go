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
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/PlinthProject/plinth-core/pkg/threadid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// SlowLockEnv overrides the slow-acquisition warning threshold, in
// milliseconds. Zero or unset leaves the watchdog disarmed.
const SlowLockEnv = "PLINTH_SLOW_LOCK"

// clockBox keeps atomic.Value happy: the stored concrete type must not
// change, and tests swap in a fake clock.
type clockBox struct {
	c clockwork.Clock
}

var (
	slowLockNanos atomic.Int64
	watchClock    atomic.Value // clockBox
)

func init() {
	watchClock.Store(clockBox{c: clockwork.NewRealClock()})
	if ms, err := strconv.Atoi(os.Getenv(SlowLockEnv)); err == nil && ms > 0 {
		SetSlowLockWarning(time.Duration(ms) * time.Millisecond)
	}
}

// SetSlowLockWarning arms a warning log for lock acquisitions that wait
// longer than d. Zero disarms. Disarmed acquisition pays no clock reads.
func SetSlowLockWarning(d time.Duration) {
	slowLockNanos.Store(int64(d))
}

// SlowLockWarning returns the current warning threshold, zero if disarmed.
func SlowLockWarning() time.Duration {
	return time.Duration(slowLockNanos.Load())
}

func setWatchClock(c clockwork.Clock) {
	watchClock.Store(clockBox{c: c})
}

func clock() clockwork.Clock {
	box, _ := watchClock.Load().(clockBox)
	return box.c
}

func watchStart() time.Time {
	if slowLockNanos.Load() == 0 {
		return time.Time{}
	}
	return clock().Now()
}

func watchDone(start time.Time) {
	if start.IsZero() {
		return
	}
	limit := time.Duration(slowLockNanos.Load())
	if limit == 0 {
		return
	}
	waited := clock().Since(start)
	if waited > limit {
		log.Warn().
			Int64("goroutine", threadid.Current()).
			Dur("waited", waited).
			Dur("limit", limit).
			Msg("slow lock acquisition")
	}
}
