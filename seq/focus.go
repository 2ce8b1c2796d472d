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

import "github.com/pathlang/pathlang/om"

// Focus tracks the evaluation focus over a sequence:
// the current item and its 1-based position. Position
// and Current are valid only between successive Next
// calls. A Focus is owned by exactly one evaluation
// frame and is never shared across goroutines.
type Focus struct {
	base om.Iterator
	cur  om.Item
	pos  int
	last int // -1 until known
}

// NewFocus wraps base in a focus tracker.
func NewFocus(base om.Iterator) *Focus {
	return &Focus{base: base, last: -1}
}

// SingletonFocus is a focus positioned at a single item.
func SingletonFocus(it om.Item) *Focus {
	f := NewFocus(One(it))
	f.cur = it
	f.pos = 1
	f.last = 1
	return f
}

func (f *Focus) Next() (om.Item, error) {
	it, err := f.base.Next()
	if err != nil {
		return nil, err
	}
	if it == nil {
		f.cur = nil
		return nil, nil
	}
	f.pos++
	f.cur = it
	return it, nil
}

// Current returns the item most recently returned by
// Next, or nil before the first call.
func (f *Focus) Current() om.Item { return f.cur }

// Position returns the 1-based position of the current
// item, or 0 before the first Next call.
func (f *Focus) Position() int { return f.pos }

// Last returns the total length of the focus sequence,
// or -1 when the underlying iterator cannot report it
// without consumption.
func (f *Focus) Last() int {
	if f.last >= 0 {
		return f.last
	}
	if lp, ok := f.base.(om.LastPositionFinder); ok {
		f.last = lp.LastPosition()
	}
	return f.last
}
