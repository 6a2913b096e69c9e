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

package asyncexec

import (
	"context"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/gospawn/asyncexec/internal/reaper"
)

// Output is the result of Command.Output: the child's exit code plus
// everything it wrote to stdout and stderr before exiting.
type Output struct {
	ExitCode ExitCode
	Stdout   []byte
	Stderr   []byte
}

// captureOutput drains stdout and stderr concurrently with awaiting the
// child's exit. The pipes must be drained regardless of whether the
// wait finishes first: os/exec's pipes are only guaranteed empty once
// read to EOF, and the child can block forever writing to a full pipe
// buffer if nothing is reading the other end. Two reader goroutines run
// in one errgroup, which reports the first read error once both reads
// have returned; a failed read does not interrupt its sibling, which
// still reads until EOF. The exit-wait runs alongside them on its own
// goroutine rather than under the same group, since a non-zero exit
// must not be treated as a read error.
func captureOutput(ctx context.Context, cmd *exec.Cmd, stdout, stderr io.Reader) (*Output, error) {
	var out, errOut []byte

	type waitResult struct {
		code reaper.ExitCode
		err  error
	}
	waitDone := make(chan waitResult, 1)
	go func() {
		code, err := reaper.AwaitExit(ctx, reaper.ChildID(cmd.Process.Pid))
		waitDone <- waitResult{code, err}
	}()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := io.ReadAll(stdout)
		out = b
		if err != nil {
			return &IOError{Err: err}
		}
		return nil
	})
	g.Go(func() error {
		b, err := io.ReadAll(stderr)
		errOut = b
		if err != nil {
			return &IOError{Err: err}
		}
		return nil
	})
	readErr := g.Wait()

	res := <-waitDone
	code, waitErr := res.code, res.err
	if waitErr != nil {
		return nil, waitErr
	}
	waitCleanup(cmd)
	if readErr != nil {
		return nil, readErr
	}

	return &Output{
		ExitCode: ExitCode(code),
		Stdout:   out,
		Stderr:   errOut,
	}, nil
}
