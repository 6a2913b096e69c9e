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

package asyncexec

import "os/exec"

// waitCleanup calls cmd.Wait after the reaper has already delivered the
// exit code, purely so os/exec releases the goroutines and handles it
// opened in Start (StdoutPipe/StderrPipe readers, the process-state
// bookkeeping); the reaper, not this call, is the authoritative source
// of the exit code. Unlike POSIX, the reaper's WindowsReaperBackend
// waits on its own process handle (opened via OpenProcess), distinct
// from cmd.Process's handle, so cmd.Wait here is an ordinary, harmless
// wait rather than a guaranteed error.
func waitCleanup(cmd *exec.Cmd) {
	cmd.Wait()
}
