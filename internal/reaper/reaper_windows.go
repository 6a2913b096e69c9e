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
	"golang.org/x/sys/windows"

	"github.com/gospawn/asyncexec/internal/logger"
)

// maxWaitObjects is MAXIMUM_WAIT_OBJECTS: WaitForMultipleObjects refuses
// more than this many handles, including the wake-up semaphore. The
// worker therefore tracks at most maxWaitObjects-1 live process handles
// at a time and serialises registration of the rest (see
// rescanPendingLocked).
const maxWaitObjects = 64

// semaphoreMax bounds how many outstanding ReleaseSemaphore calls the
// worker can absorb before it's had a chance to drain them, comfortably
// above any realistic registration burst.
const semaphoreMax = 512

// backendState carries the live worker generation's wake-up semaphore.
// It's valid only while state.running is true; a fresh one is created
// each time the worker is (re)started.
type backendState struct {
	wake windows.Handle
}

// startWorkerLocked creates a fresh wake-up semaphore and launches the
// Windows worker goroutine. Called with s.mu held, by AwaitExit, only
// when no worker is currently running.
func startWorkerLocked(s *state) {
	sem, err := windows.CreateSemaphore(nil, 0, semaphoreMax, nil)
	if err != nil {
		// Nothing sensible to do but leave pending registered; the
		// caller's context will eventually time out. This mirrors the
		// POSIX backend's handling of a wait-primitive failure.
		logger.Noticef("reaper: CreateSemaphore failed: %v", err)
		s.running = false
		return
	}
	s.backend.wake = sem
	go windowsWorker(s, sem)
}

// notifyNewPending wakes a worker that may currently be blocked inside
// WaitForMultipleObjects so it re-scans pending for newly registered
// pids. Releasing the semaphore by one unit causes the wait to return
// with object 0 signalled.
func notifyNewPending(s *state) {
	s.mu.Lock()
	sem := s.backend.wake
	running := s.running
	s.mu.Unlock()
	if !running || sem == 0 {
		return
	}
	if err := windows.ReleaseSemaphore(sem, 1, nil); err != nil {
		logger.Noticef("reaper: ReleaseSemaphore failed: %v", err)
	}
}

// windowsWorker is the WindowsReaperBackend worker loop. handles and
// reverse are local to this goroutine, never shared: the only shared
// state is the reaper's pending/ready maps and the semaphore handle
// recorded in s.backend.
func windowsWorker(s *state, sem windows.Handle) {
	handles := make(map[int]windows.Handle)
	reverse := make(map[windows.Handle]int)

	defer func() {
		for _, h := range handles {
			windows.CloseHandle(h)
		}
		windows.CloseHandle(sem)
	}()

	// The registration that started this worker posts no wake-up, so pick
	// up the pids already pending before the first wait.
	rescanPendingLocked(s, handles, reverse)

	for {
		objects := make([]windows.Handle, 0, len(handles)+1)
		objects = append(objects, sem)
		for _, h := range handles {
			objects = append(objects, h)
		}

		index, err := waitForMultipleObjects(objects, false, windows.INFINITE)
		if err != nil {
			logger.Noticef("reaper: WaitForMultipleObjects failed: %v", err)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}

		if index == 0 {
			rescanPendingLocked(s, handles, reverse)
			continue
		}

		h := objects[index]
		pid := reverse[h]
		delete(handles, pid)
		delete(reverse, h)

		var code uint32
		if err := windows.GetExitCodeProcess(h, &code); err != nil {
			logger.Noticef("reaper: GetExitCodeProcess failed for pid %d: %v", pid, err)
		}
		windows.CloseHandle(h)

		s.mu.Lock()
		s.deliver(pid, ExitCode(code))
		empty := s.pendingEmptyLocked() && len(handles) == 0
		if empty {
			s.running = false
		}
		s.mu.Unlock()

		if empty {
			return
		}

		// A slot just freed: rescan immediately rather than waiting for a
		// semaphore wake, which may never come if no further registration
		// happens. Without this, a pid left pending past the handle cap is
		// only ever picked up by a notifyNewPending call triggered by a new
		// registration; once those credits are drained, it would never be
		// opened, and the worker would block forever on the semaphore alone.
		rescanPendingLocked(s, handles, reverse)
	}
}

// rescanPendingLocked opens a process handle for every pending pid not
// already tracked, up to the WaitForMultipleObjects capacity. Pids left
// over when the wait set is full stay pending and are picked up by the
// rescan the worker runs after each child completes, once a slot has
// freed up, or by a later semaphore wake: this is how registration
// is serialised past the 64-handle limit (see spec.md §4.3 and
// SPEC_FULL.md §4.1–4.3).
func rescanPendingLocked(s *state, handles map[int]windows.Handle, reverse map[windows.Handle]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pid := range s.pending {
		if len(handles)+1 >= maxWaitObjects {
			break
		}
		if _, ok := handles[pid]; ok {
			continue
		}
		h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
		if err != nil {
			logger.Noticef("reaper: OpenProcess failed for pid %d: %v", pid, err)
			continue
		}
		handles[pid] = h
		reverse[h] = pid
	}
}
