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

package thread

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/PlinthProject/plinth-core/pkg/syncutil"
	pkgerrors "github.com/pkg/errors"
)

// A Crash describes a fault raised by a thread's user function.
type Crash struct {
	Value  any
	Err    error // non-nil when Value is an error
	Thread string
	Stack  []byte // goroutine stack at recovery
}

// A Handler receives crash records from thread trampolines. The default
// handler reports to stderr and aborts for error values; for unrecognized
// values it only reports, and the trampoline re-raises them after the
// handler returns. Handlers that do not abort turn error crashes into a
// wrapped error returned from Join.
type Handler func(Crash)

var (
	handlerMu    syncutil.Mutex
	crashHandler Handler
)

// SetCrashHandler installs h as the process-wide crash handler and returns
// the previous one. Passing nil restores the default.
func SetCrashHandler(h Handler) Handler {
	g := handlerMu.Acquire()
	defer g.Release()
	prev := crashHandler
	crashHandler = h
	return prev
}

func currentHandler() Handler {
	g := handlerMu.Acquire()
	defer g.Release()
	if crashHandler == nil {
		return defaultHandler
	}
	return crashHandler
}

var (
	crashOut io.Writer = os.Stderr
	abort              = func() { os.Exit(1) }
)

// stackTracer matches errors that carry a captured trace
// (github.com/pkg/errors values do).
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// defaultHandler is the fail-fast crash policy: report and abort. A worker
// thread fault is a whole-process defect, not something callers recover
// from.
func defaultHandler(c Crash) {
	if c.Err == nil {
		_, _ = fmt.Fprintf(crashOut, "unknown exception caught in Thread %s\n", c.Thread)
		return
	}
	_, _ = fmt.Fprintf(crashOut, "exception caught in Thread %s\n", c.Thread)
	_, _ = fmt.Fprintf(crashOut, "reason: %s\n", c.Err)
	var st stackTracer
	if errors.As(c.Err, &st) {
		_, _ = fmt.Fprintf(crashOut, "stack trace: %+v\n", st.StackTrace())
	}
	abort()
}
