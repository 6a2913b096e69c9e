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
	"os/exec"

	"github.com/gospawn/asyncexec/internal/reaper"
)

// Command is a minimal process builder over os/exec.Cmd. Argument
// handling, stdio redirection beyond output capture, and program
// resolution are all delegated straight through to os/exec; the only
// thing Command changes is how the child's termination is awaited.
type Command struct {
	cmd *exec.Cmd
}

// New creates a Command for the given program and arguments.
func New(name string, args ...string) *Command {
	return &Command{cmd: exec.Command(name, args...)}
}

// Arg appends a single argument.
func (c *Command) Arg(arg string) *Command {
	c.cmd.Args = append(c.cmd.Args, arg)
	return c
}

// Args appends multiple arguments.
func (c *Command) Args(args ...string) *Command {
	c.cmd.Args = append(c.cmd.Args, args...)
	return c
}

// Dir sets the child's working directory.
func (c *Command) Dir(dir string) *Command {
	c.cmd.Dir = dir
	return c
}

// Env sets the child's environment.
func (c *Command) Env(env []string) *Command {
	c.cmd.Env = env
	return c
}

// Status starts the command and awaits its termination through the
// shared reaper, returning its raw exit code. Unlike os/exec.Cmd.Wait,
// a non-zero exit is not itself an error: use ExitCode.Check to decide.
func (c *Command) Status(ctx context.Context) (ExitCode, error) {
	if err := c.cmd.Start(); err != nil {
		return 0, &SpawnError{Err: err}
	}
	code, err := reaper.AwaitExit(ctx, reaper.ChildID(c.cmd.Process.Pid))
	if err == nil {
		waitCleanup(c.cmd)
	}
	return ExitCode(code), err
}

// Output starts the command with its stdout and stderr redirected to
// pipes, and returns once the child has exited and both pipes have been
// fully drained. See captureOutput's doc comment for the concurrency
// and deadlock-avoidance rationale.
func (c *Command) Output(ctx context.Context) (*Output, error) {
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Err: err}
	}
	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Err: err}
	}
	if err := c.cmd.Start(); err != nil {
		return nil, &SpawnError{Err: err}
	}
	return captureOutput(ctx, c.cmd, stdout, stderr)
}
