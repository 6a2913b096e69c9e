// Copyright (c) 2022 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License version 3 as
// published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build windows

package reaper

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// waitForMultipleObjects wraps the kernel32 call of the same name.
// golang.org/x/sys/windows doesn't export it directly (only the
// single-object form), so it's resolved the same way the rest of that
// package resolves kernel32 entry points it hasn't wrapped: a lazy DLL
// handle plus NewProc.
var (
	modkernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	procWaitForMultipleObjectsW = modkernel32.NewProc("WaitForMultipleObjects")
)

// waitForMultipleObjects blocks until one of handles is signalled (or,
// if waitAll, until all are) or timeoutMs elapses, and returns the index
// into handles of the object that satisfied the wait.
func waitForMultipleObjects(handles []windows.Handle, waitAll bool, timeoutMs uint32) (int, error) {
	var all uintptr
	if waitAll {
		all = 1
	}
	r0, _, e1 := procWaitForMultipleObjectsW.Call(
		uintptr(len(handles)),
		uintptr(unsafe.Pointer(&handles[0])),
		all,
		uintptr(timeoutMs),
	)
	const waitFailed = 0xFFFFFFFF
	switch {
	case r0 == waitFailed:
		if e1 != windows.ERROR_SUCCESS {
			return 0, e1
		}
		return 0, windows.ERROR_INVALID_HANDLE
	case r0 >= uintptr(len(handles)):
		return 0, windows.ERROR_INVALID_PARAMETER
	default:
		return int(r0), nil
	}
}
