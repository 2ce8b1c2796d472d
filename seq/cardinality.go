// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package seq

import (
	"fmt"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"
)

// CardinalityError is the dynamic error raised when a
// sequence violates its required occurrence range. Role
// names the syntactic position of the offending sequence
// (for example "function argument" or "variable binding").
type CardinalityError struct {
	Role    string
	TooMany bool
}

// Code returns the stable error code for the violation.
func (e *CardinalityError) Code() string { return "XPTY0004" }

func (e *CardinalityError) Error() string {
	role := e.Role
	if role == "" {
		role = "expression"
	}
	if e.TooMany {
		return fmt.Sprintf("%s: a sequence of more than one item is not allowed", role)
	}
	return fmt.Sprintf("%s: an empty sequence is not allowed", role)
}

// Checked wraps base in a cardinality-enforcing iterator
// for the required cardinality. When base can report its
// length up front, violations are detected before any
// item is delivered; otherwise the check is streamed and
// fails at the earliest item that proves the violation.
func Checked(base om.Iterator, required seqtype.Cardinality, role string) om.Iterator {
	if required == seqtype.ZeroOrMore {
		return base
	}
	if lp, ok := base.(om.LastPositionFinder); ok {
		n := lp.LastPosition()
		if n == 0 && !required.AllowsZero() {
			return &failed{err: &CardinalityError{Role: role}}
		}
		if n >= 1 && !required.AllowsOne() {
			// required is empty-sequence(): any item at all
			// is one too many
			return &failed{err: &CardinalityError{Role: role, TooMany: true}}
		}
		if n > 1 && !required.AllowsMany() {
			return &failed{err: &CardinalityError{Role: role, TooMany: true}}
		}
		return base
	}
	return &checker{base: base, required: required, role: role}
}

// failed yields nothing but an error.
type failed struct {
	err error
}

func (f *failed) Next() (om.Item, error) { return nil, f.err }

type checker struct {
	base     om.Iterator
	required seqtype.Cardinality
	role     string
	pos      int
	err      error
	done     bool
}

func (c *checker) Next() (om.Item, error) {
	if c.err != nil || c.done {
		return nil, c.err
	}
	it, err := c.base.Next()
	if err != nil {
		c.err = err
		return nil, err
	}
	if it == nil {
		c.done = true
		if c.pos == 0 && !c.required.AllowsZero() {
			c.err = &CardinalityError{Role: c.role}
			return nil, c.err
		}
		return nil, nil
	}
	c.pos++
	if !c.required.AllowsOne() || c.pos > 1 && !c.required.AllowsMany() {
		c.err = &CardinalityError{Role: c.role, TooMany: true}
		return nil, c.err
	}
	return it, nil
}
