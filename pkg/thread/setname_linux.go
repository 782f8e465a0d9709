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

//go:build linux

package thread

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// taskNameLimit is the kernel comm buffer size minus the NUL terminator.
const taskNameLimit = 15

// setOSThreadName applies name to the calling OS thread via
// prctl(PR_SET_NAME). Only meaningful while the goroutine is pinned with
// runtime.LockOSThread. Longer names are truncated per the kernel limit.
func setOSThreadName(name string) {
	if len(name) > taskNameLimit {
		name = name[:taskNameLimit]
	}
	b, err := unix.BytePtrFromString(name)
	if err != nil {
		return
	}
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(b)), 0, 0, 0)
}
