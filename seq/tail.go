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

// Tail returns an iterator over base beginning at
// 1-based position start. Over a grounded sequence this
// is a zero-copy subsequence view; otherwise the prefix
// is consumed and discarded on the first Next call.
func Tail(base om.Iterator, start int) om.Iterator {
	if start <= 1 {
		return base
	}
	if s, ok := base.(*Slice); ok {
		return s.Tail(start)
	}
	if g, ok := base.(om.Grounded); ok {
		items := g.Slice()
		if start > len(items) {
			return Empty()
		}
		return Of(items[start-1:]...)
	}
	return &tail{base: base, skip: start - 1}
}

type tail struct {
	base om.Iterator
	skip int
}

func (t *tail) Next() (om.Item, error) {
	for t.skip > 0 {
		it, err := t.base.Next()
		if err != nil {
			return nil, err
		}
		if it == nil {
			t.skip = 0
			return nil, nil
		}
		t.skip--
	}
	return t.base.Next()
}

// Range returns an iterator over the items of base with
// 1-based positions in [lo, hi]. hi < 0 means unbounded.
func Range(base om.Iterator, lo, hi int) om.Iterator {
	if hi >= 0 && hi < lo {
		return Empty()
	}
	base = Tail(base, lo)
	if hi < 0 {
		return base
	}
	return &limit{base: base, left: hi - lo + 1}
}

type limit struct {
	base om.Iterator
	left int
}

func (l *limit) Next() (om.Item, error) {
	if l.left <= 0 {
		return nil, nil
	}
	it, err := l.base.Next()
	if err != nil {
		return nil, err
	}
	if it == nil {
		l.left = 0
		return nil, nil
	}
	l.left--
	return it, nil
}
