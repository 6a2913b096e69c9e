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

package asyncexec_test

import (
	"context"
	"fmt"
	"time"

	. "gopkg.in/check.v1"

	"github.com/gospawn/asyncexec"
)

type outputSuite struct{}

var _ = Suite(&outputSuite{})

// TestOutputBasic is scenario 1: a child writing a line to stdout and a
// line to stderr before exiting zero, both captured in full.
func (s *outputSuite) TestOutputBasic(c *C) {
	cmd := asyncexec.New("sh", "-c", "echo foo; echo bar 1>&2")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := cmd.Output(ctx)
	c.Assert(err, IsNil)
	c.Check(out.ExitCode.Check(), IsNil)
	c.Check(string(out.Stdout), Equals, "foo\n")
	c.Check(string(out.Stderr), Equals, "bar\n")
}

// TestOutputLarge is scenario 5: a child writing enough to both pipes
// to fill the OS pipe buffer must not deadlock, since both pipes are
// drained concurrently rather than sequentially.
func (s *outputSuite) TestOutputLarge(c *C) {
	const n = 10 * 1024 * 1024 // 10MiB per stream
	script := fmt.Sprintf(
		`yes x | head -c %d; yes y | head -c %d 1>&2`, n, n)
	cmd := asyncexec.New("sh", "-c", script)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := cmd.Output(ctx)
	c.Assert(err, IsNil)
	c.Check(out.ExitCode.Check(), IsNil)
	c.Check(len(out.Stdout), Equals, n)
	c.Check(len(out.Stderr), Equals, n)
}

// TestOutputNonZeroExit verifies a non-zero exit is not itself reported
// as an error from Output; the captured streams are still returned.
func (s *outputSuite) TestOutputNonZeroExit(c *C) {
	cmd := asyncexec.New("sh", "-c", "echo partial; exit 3")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := cmd.Output(ctx)
	c.Assert(err, IsNil)
	c.Check(string(out.Stdout), Equals, "partial\n")
	c.Check(out.ExitCode.Check(), NotNil)
}

// TestOutputCancel confirms a cancelled context propagates as an error
// rather than hanging, per P4 (no leak on cancel).
func (s *outputSuite) TestOutputCancel(c *C) {
	cmd := asyncexec.New("sh", "-c", "sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cmd.Output(ctx)
	c.Check(err, Equals, context.DeadlineExceeded)
}
