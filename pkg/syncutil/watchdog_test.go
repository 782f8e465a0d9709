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
	"bytes"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureWarnings swaps the global logger and the watchdog clock for the
// duration of the test. Not parallel-safe, so none of these tests are.
func captureWarnings(t *testing.T, clk clockwork.Clock) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	oldLogger := log.Logger
	log.Logger = zerolog.New(zerolog.SyncWriter(&buf))

	setWatchClock(clk)

	t.Cleanup(func() {
		log.Logger = oldLogger
		setWatchClock(clockwork.NewRealClock())
		SetSlowLockWarning(0)
	})
	return &buf
}

func TestWatchdogDisarmedByDefault(t *testing.T) {
	SetSlowLockWarning(0)
	start := watchStart()
	assert.True(t, start.IsZero())
}

func TestWatchdogWarnsPastThreshold(t *testing.T) {
	clk := clockwork.NewFakeClock()
	buf := captureWarnings(t, clk)

	SetSlowLockWarning(10 * time.Millisecond)
	start := watchStart()
	require.False(t, start.IsZero())

	clk.Advance(50 * time.Millisecond)
	watchDone(start)

	out := buf.String()
	assert.Contains(t, out, "slow lock acquisition")
	assert.Contains(t, out, "goroutine")
}

func TestWatchdogQuietUnderThreshold(t *testing.T) {
	clk := clockwork.NewFakeClock()
	buf := captureWarnings(t, clk)

	SetSlowLockWarning(100 * time.Millisecond)
	start := watchStart()
	require.False(t, start.IsZero())

	clk.Advance(5 * time.Millisecond)
	watchDone(start)

	assert.Empty(t, buf.String())
}

func TestWatchdogThresholdRoundTrip(t *testing.T) {
	SetSlowLockWarning(25 * time.Millisecond)
	assert.Equal(t, 25*time.Millisecond, SlowLockWarning())
	SetSlowLockWarning(0)
	assert.Equal(t, time.Duration(0), SlowLockWarning())
}

func TestWatchdogArmedLockStillCorrect(t *testing.T) {
	clk := clockwork.NewFakeClock()
	_ = captureWarnings(t, clk)

	SetSlowLockWarning(time.Hour)

	var m Mutex
	WithLock(&m, func() {
		assert.True(t, m.IsHeldByCurrent())
	})
	assert.Equal(t, int64(0), m.Holder())
}
