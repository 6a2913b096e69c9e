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

import (
	"errors"
	"os"
	"os/exec"

	"github.com/gospawn/asyncexec/internal/logger"
)

// waitCleanup calls cmd.Wait after the reaper has already delivered the
// exit code, purely so os/exec releases the goroutines and file
// descriptors it opened in Start (StdoutPipe/StderrPipe readers, the
// process-state bookkeeping); the reaper, not this call, is the
// authoritative source of the exit code. Because the reaper is the
// sole waiter on this process's children (see internal/reaper's package
// doc comment), cmd.Wait is expected to fail with "no child processes"
// rather than return successfully — mirroring the teacher's own
// WaitCommand, which calls cmd.Wait for exactly this cleanup after
// already having the exit code from its own SIGCHLD reaper.
func waitCleanup(cmd *exec.Cmd) {
	err := cmd.Wait()
	var syscallErr *os.SyscallError
	switch {
	case err == nil:
		logger.Debugf("reaper: cmd.Wait unexpectedly returned nil for pid %d", cmd.Process.Pid)
	case errors.As(err, &syscallErr) && (syscallErr.Syscall == "wait" || syscallErr.Syscall == "waitid"):
		// Expected: the reaper already collected this child.
	default:
		logger.Debugf("reaper: cmd.Wait returned unexpected error for pid %d: %v", cmd.Process.Pid, err)
	}
}
