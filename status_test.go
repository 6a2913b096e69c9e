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
	"time"

	. "gopkg.in/check.v1"

	"github.com/gospawn/asyncexec"
)

type statusSuite struct{}

var _ = Suite(&statusSuite{})

func (s *statusSuite) TestCheckZeroExit(c *C) {
	cmd := asyncexec.New("true")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)
	c.Check(code.Check(), IsNil)
}

func (s *statusSuite) TestCheckNonZeroExit(c *C) {
	cmd := asyncexec.New("sh", "-c", "exit 7")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)

	var exitErr *asyncexec.ExitError
	c.Assert(code.Check(), FitsTypeOf, exitErr)
}

func (s *statusSuite) TestCheckSignalled(c *C) {
	// "sh -c 'kill -TERM $$'" has the shell terminate itself by signal.
	cmd := asyncexec.New("sh", "-c", "kill -TERM $$")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cmd.Status(ctx)
	c.Assert(err, IsNil)

	checkErr := code.Check()
	c.Assert(checkErr, NotNil)
	var exitErr *asyncexec.ExitError
	c.Assert(checkErr, FitsTypeOf, exitErr)
}
