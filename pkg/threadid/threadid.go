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

// Package threadid caches a per-goroutine identity: the runtime goroutine ID,
// a fixed-width textual rendering of it for log prefixes, and a display
// label. Entries are computed once per goroutine and reused. The cache must
// be invalidated in child processes after a fork, since entries inherited
// from the parent are stale; HandleFork does that and re-primes the calling
// goroutine as "main".
package threadid

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"
)

type entry struct {
	idString string
	label    string
}

var (
	mu     sync.RWMutex //nolint:forbidigo // leaf package below syncutil
	cache  = make(map[int64]*entry)
	mainID int64
)

func init() {
	prime()
}

// prime records the calling goroutine as the process main goroutine.
func prime() {
	id := goid.Get()
	mu.Lock()
	mainID = id
	cache[id] = newEntry(id, "main")
	mu.Unlock()
}

func newEntry(id int64, label string) *entry {
	return &entry{
		idString: fmt.Sprintf("%5d ", id),
		label:    label,
	}
}

// current returns the calling goroutine's cache entry, creating it on first
// use.
func current() *entry {
	id := goid.Get()
	mu.RLock()
	e := cache[id]
	mu.RUnlock()
	if e != nil {
		return e
	}
	e = newEntry(id, "unknown")
	mu.Lock()
	cache[id] = e
	mu.Unlock()
	return e
}

// Current returns the calling goroutine's runtime ID. Always positive.
func Current() int64 {
	return goid.Get()
}

// IDString returns a fixed-width rendering of the calling goroutine's ID,
// suitable as a log prefix. Computed once per goroutine.
func IDString() string {
	return current().idString
}

// Label returns the calling goroutine's display label. Goroutines that never
// set one are labeled "unknown".
func Label() string {
	mu.RLock()
	defer mu.RUnlock()
	id := goid.Get()
	if e := cache[id]; e != nil {
		return e.label
	}
	return "unknown"
}

// SetLabel sets the calling goroutine's display label.
func SetLabel(label string) {
	id := goid.Get()
	mu.Lock()
	defer mu.Unlock()
	if e := cache[id]; e != nil {
		e.label = label
		return
	}
	cache[id] = newEntry(id, label)
}

// MainID returns the identity recorded for the main goroutine.
func MainID() int64 {
	mu.RLock()
	defer mu.RUnlock()
	return mainID
}

// IsMain reports whether the calling goroutine is the recorded main
// goroutine.
func IsMain() bool {
	return Current() == MainID()
}

// Forget drops the calling goroutine's cache entry. Unlike thread-local
// storage, entries do not die with their goroutine: managed thread
// trampolines call Forget on exit, and any other goroutine that creates an
// entry (via IDString or SetLabel) must defer Forget itself or its entry
// stays in the cache until the next HandleFork.
func Forget() {
	id := goid.Get()
	mu.Lock()
	delete(cache, id)
	mu.Unlock()
}

// HandleFork invalidates every cached entry and re-primes the calling
// goroutine as "main". Entries inherited across a fork describe the parent's
// goroutines and must not survive into the child. Go offers no pthread_atfork
// equivalent, so embedders that fork via cgo call this in the child
// themselves. Idempotent; no side effects beyond resetting the cache.
func HandleFork() {
	mu.Lock()
	cache = make(map[int64]*entry)
	mu.Unlock()
	prime()
}
