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

package reaper

import (
	"golang.org/x/sys/unix"

	"github.com/gospawn/asyncexec/internal/logger"
)

// backendState is empty on POSIX: a single blocking "wait for any
// child" call already covers every pid this process might register, so
// there's no per-generation wake-up channel to track.
type backendState struct{}

// startWorkerLocked launches the POSIX worker goroutine. Called with
// s.mu held, by AwaitExit, only when no worker is currently running.
func startWorkerLocked(s *state) {
	go posixWorker(s)
}

// notifyNewPending is a no-op on POSIX. wait4(-1, ...) already blocks
// for termination of any child of this process, registered or not, so a
// newly pending pid needs no separate wake-up: the next time any child
// terminates the worker will re-examine pending and notice it.
func notifyNewPending(s *state) {}

// posixWorker is the PosixReaperBackend worker loop. It blocks on
// wait4(-1, ...) for any child of this process, delivering each
// termination to the matching pending entry (if any), and shuts itself
// down once no awaiter remains registered.
func posixWorker(s *state) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		if err != nil {
			// ECHILD ("no child processes") means some child was
			// reaped by a party outside this package, or a race let
			// the worker start with nothing left to wait for. Any
			// other error is treated identically: the worker is
			// single-purpose and re-creatable, so there's nothing to
			// retry. Outstanding pending entries are left exactly as
			// they are; callers only ever learn of this via their own
			// context timeout.
			if err != unix.ECHILD {
				logger.Noticef("reaper: wait4 failed: %v", err)
			}
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}

		// Store the raw status word untouched; decoding exit-vs-signal
		// bits is the ExitStatus helpers' job, not the reaper's.
		code := ExitCode(ws)

		s.mu.Lock()
		s.deliver(pid, code)
		empty := s.pendingEmptyLocked()
		if empty {
			s.running = false
		}
		s.mu.Unlock()

		if empty {
			return
		}
	}
}
