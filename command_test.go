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
	"errors"
	"testing"
	"time"

	. "gopkg.in/check.v1"

	"github.com/gospawn/asyncexec"
	"github.com/gospawn/asyncexec/internal/testutil"
)

func Test(t *testing.T) { TestingT(t) }

type commandSuite struct{}

var _ = Suite(&commandSuite{})

// TestStatusSuccess is scenario 1's exit-status half: a command that
// exits zero reports a zero ExitCode and Check returns nil.
func (s *commandSuite) TestStatusSuccess(c *C) {
	cmd := asyncexec.New("true")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)
	c.Check(code.Check(), IsNil)
}

func (s *commandSuite) TestStatusNonZero(c *C) {
	cmd := asyncexec.New("false")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)
	c.Check(code.Check(), NotNil)
}

func (s *commandSuite) TestStatusBadProgram(c *C) {
	cmd := asyncexec.New("this-program-does-not-exist-anywhere")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := cmd.Status(ctx)
	c.Assert(err, NotNil)
	var spawnErr *asyncexec.SpawnError
	c.Check(errors.As(err, &spawnErr), Equals, true)
}

func (s *commandSuite) TestStatusCancel(c *C) {
	cmd := asyncexec.New("sleep", "5")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cmd.Status(ctx)
	c.Check(err, Equals, context.DeadlineExceeded)
}

// TestArgBuilder is grounded on scenario 1: arguments built up
// incrementally must reach the child unchanged.
func (s *commandSuite) TestArgBuilder(c *C) {
	fake := testutil.FakeCommand(c, "asyncexec-test-echo", "")
	defer fake.Restore()

	cmd := asyncexec.New(fake.Exe()).Arg("foo").Args("bar", "baz")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)
	c.Assert(code.Check(), IsNil)
	c.Check(fake.Calls(), DeepEquals, [][]string{
		{"asyncexec-test-echo", "foo", "bar", "baz"},
	})
}
