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

//go:build !windows

package asyncexec

import "golang.org/x/sys/unix"

// noExitCodeSentinel is returned by Check when the process
// terminated without a normal exit code (e.g. killed by a signal).
const noExitCodeSentinel = -1

// Check reports whether the raw exit code represents a successful
// (zero) exit. A non-zero normal exit returns an *ExitError with that
// code; termination by signal returns an *ExitError with the sentinel
// code -1, since there's no exit code to report.
func (c ExitCode) Check() error {
	ws := unix.WaitStatus(c)
	if ws.Signaled() {
		return &ExitError{Code: noExitCodeSentinel}
	}
	code := ws.ExitStatus()
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}
