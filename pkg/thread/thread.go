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

// Package thread provides a one-shot managed thread handle. Start spawns the
// goroutine and does not return until the new thread has published its
// identity back to the caller, so the creator always knows who it started.
// A thread runs to completion or process death: there is no cancellation,
// and faults in the user function are fail-fast (see crash.go).
package thread

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/PlinthProject/plinth-core/pkg/syncutil"
	"github.com/PlinthProject/plinth-core/pkg/threadid"
)

// Func is the body of a managed thread, invoked exactly once.
type Func func()

// ErrEarlyExit reports that the user function ended the goroutine via
// runtime.Goexit instead of returning.
var ErrEarlyExit = errors.New("thread: user function exited early")

// A Thread is a one-shot, non-reusable thread handle. State machine:
// created, then Start (at most once), then optionally Join (at most once).
// A started thread that is never joined keeps running on its own; nothing
// blocks on it and the runtime reclaims it when it finishes.
type Thread struct {
	fn      Func
	latch   *syncutil.CountDownLatch
	done    chan struct{}
	joinErr error
	name    string
	id      atomic.Int64
	started atomic.Bool
	joined  atomic.Bool
	pinned  bool
}

var numCreated atomic.Int32

// NumCreated returns how many Thread handles have been created
// process-wide.
func NumCreated() int32 {
	return numCreated.Load()
}

// Option configures a Thread at creation time.
type Option func(*Thread)

// LockOSThread pins the spawned goroutine to a dedicated OS thread for its
// whole lifetime and applies the thread name as the OS-visible one.
func LockOSThread() Option {
	return func(t *Thread) { t.pinned = true }
}

// New creates a thread handle that will run fn. An empty name gets a unique
// default derived from the process-wide creation counter: the first unnamed
// thread is "Thread1", the second "Thread2", and so on. The thread is not
// running until Start is called.
func New(fn Func, name string, opts ...Option) *Thread {
	n := numCreated.Add(1)
	if name == "" {
		name = fmt.Sprintf("Thread%d", n)
	}
	t := &Thread{
		fn:    fn,
		name:  name,
		latch: syncutil.NewCountDownLatch(1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start spawns the thread and blocks until it has published its identity.
// The bound is the trampoline prologue, not the user function: Start returns
// as soon as the new goroutine has stored its ID and signaled the latch.
// Panics if called twice.
func (t *Thread) Start() {
	if !t.started.CompareAndSwap(false, true) {
		panic("thread: Start called twice on " + t.name)
	}

	data := &threadData{
		fn:     t.fn,
		name:   t.name,
		id:     &t.id,
		latch:  t.latch,
		pinned: t.pinned,
	}
	go func() {
		defer close(t.done)
		completed := false
		defer func() {
			// runtime.Goexit unwinds past the code below; record it.
			if !completed && t.joinErr == nil {
				t.joinErr = ErrEarlyExit
			}
		}()
		t.joinErr = data.run()
		completed = true
	}()

	t.latch.Wait()
	if t.id.Load() <= 0 {
		panic("thread: spawned thread published no identity")
	}
}

// Join blocks until the thread has fully exited. Returns nil on normal
// completion, ErrEarlyExit if the user function ended via runtime.Goexit, or
// a crash error when a non-aborting crash handler is installed. Panics on
// Join before Start or a second Join.
func (t *Thread) Join() error {
	if !t.started.Load() {
		panic("thread: Join before Start on " + t.name)
	}
	if !t.joined.CompareAndSwap(false, true) {
		panic("thread: Join called twice on " + t.name)
	}
	<-t.done
	return t.joinErr
}

// Started reports whether Start has been called.
func (t *Thread) Started() bool {
	return t.started.Load()
}

// Joined reports whether Join has completed or is in progress.
func (t *Thread) Joined() bool {
	return t.joined.Load()
}

// ID returns the spawned thread's published identity, or 0 before Start.
func (t *Thread) ID() int64 {
	return t.id.Load()
}

// Name returns the thread's given or defaulted name.
func (t *Thread) Name() string {
	return t.name
}

// threadData is the transfer record handed to the trampoline: everything the
// new goroutine needs before it runs user code.
type threadData struct {
	fn     Func
	id     *atomic.Int64
	latch  *syncutil.CountDownLatch
	name   string
	pinned bool
}

// run is the trampoline. Order matters: publish the identity, signal the
// latch (unblocking Start), set the display label and OS thread name, then
// hand control to the user function.
func (d *threadData) run() (err error) {
	if d.pinned {
		runtime.LockOSThread()
	}
	defer threadid.Forget()

	d.id.Store(threadid.Current())
	d.latch.CountDown()

	label := d.name
	if label == "" {
		label = "Thread"
	}
	threadid.SetLabel(label)
	if d.pinned {
		setOSThreadName(label)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		threadid.SetLabel("crashed")
		c := Crash{
			Thread: d.name,
			Value:  r,
			Stack:  debug.Stack(),
		}
		if e, ok := r.(error); ok {
			c.Err = e
		}
		currentHandler()(c)
		if c.Err == nil {
			// Unrecognized fault: propagate to default runtime handling.
			panic(r)
		}
		// Only reachable with a non-aborting handler installed.
		err = fmt.Errorf("thread %s crashed: %w", d.name, c.Err)
	}()

	d.fn()
	threadid.SetLabel("finished")
	return nil
}
