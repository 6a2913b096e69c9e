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

// Package reaper multiplexes arbitrarily many concurrent child-process
// waits onto one background worker and one blocking OS wait primitive.
//
// Callers never install their own SIGCHLD handler and never call the
// host's "wait for any child" primitive directly: doing so from outside
// this package races with the worker and silently drops terminations.
// This package assumes it is the only reaper of this process's children.
package reaper

import (
	"context"
	"sync"

	"github.com/gospawn/asyncexec/internal/logger"
)

// ChildID identifies a spawned child process to the reaper. Equality is
// by PID; a PID is assumed not to be reused while an entry for it
// exists (children are single-shot).
type ChildID int

// ExitCode is the raw, platform-specific exit status delivered by the
// wait primitive. On POSIX it's the raw wait4 status word (decode with
// golang.org/x/sys/unix.WaitStatus). On Windows it's already the 32-bit
// process exit code. Interpreting it is the job of the ExitStatus
// helpers, never of this package.
type ExitCode int

// state is the single process-wide reaper record. All mutation of its
// fields happens under mu; mu is never held across an OS wait.
type state struct {
	mu sync.Mutex

	// pending holds one channel per ChildID with a registered awaiter
	// that hasn't yet observed termination. The worker closes the
	// channel (after moving the exit code into ready) to wake it.
	pending map[int]chan struct{}

	// ready holds exit codes for children the worker has observed
	// terminating for which no further action from the worker is
	// needed. Entries here are removed by whichever poller picks them
	// up; an entry whose awaiter was cancelled before termination is
	// never picked up and stays here for the life of the process. That
	// is a bounded, accepted leak (see orphan termination handling
	// below) and never blocks worker shutdown, which is gated on
	// pending only.
	ready map[int]ExitCode

	// running is true iff a worker goroutine exists and will, on its
	// next wait completion, re-examine pending.
	running bool

	// backend carries whatever platform-specific state the running
	// worker generation needs to accept wake-ups (the Windows
	// semaphore handle; unused on POSIX).
	backend backendState
}

var shared = &state{
	pending: make(map[int]chan struct{}),
	ready:   make(map[int]ExitCode),
}

// AwaitExit blocks the calling goroutine until the child identified by
// id terminates, returning its raw exit code. It is single-result and
// non-restartable: call it at most once per ChildID.
//
// Cancelling ctx before the child terminates is legal and doesn't
// deregister the child; if it later terminates, the reaper tolerates
// that nobody is listening: the result is recorded in ready and never
// picked up (see the ready map's doc comment above). AwaitExit never itself calls
// a blocking OS primitive; the wait happens on the shared worker.
func AwaitExit(ctx context.Context, id ChildID) (ExitCode, error) {
	pid := int(id)
	for {
		shared.mu.Lock()
		if code, ok := shared.ready[pid]; ok {
			delete(shared.ready, pid)
			shared.mu.Unlock()
			return code, nil
		}

		ch, already := shared.pending[pid]
		if !already {
			ch = make(chan struct{})
			shared.pending[pid] = ch
		}

		wasRunning := shared.running
		if !shared.running {
			shared.running = true
			startWorkerLocked(shared)
		}
		shared.mu.Unlock()

		if wasRunning && !already {
			// A worker is already blocked in its OS wait; give it a
			// nudge to pick up this new pid (no-op on POSIX, where
			// "wait for any child" already covers it).
			notifyNewPending(shared)
		}

		select {
		case <-ch:
			// The worker moved our entry from pending to ready and
			// closed the channel; loop around and pick it up under
			// the lock.
			continue
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// deliver is called by a backend, under shared.mu, when it has observed
// pid terminate with the given code. It moves any pending registration
// to ready and wakes its waiter. If no registration exists, the
// termination is an orphan (cancelled awaiter, or a child spawned
// outside this package) and is dropped silently.
func (s *state) deliver(pid int, code ExitCode) {
	ch, ok := s.pending[pid]
	if !ok {
		logger.Debugf("reaper: orphan termination for pid %d, discarding", pid)
		return
	}
	delete(s.pending, pid)
	s.ready[pid] = code
	close(ch)
}

// pendingEmptyLocked reports whether any awaiter is still registered.
func (s *state) pendingEmptyLocked() bool {
	return len(s.pending) == 0
}
