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

// MapFn maps one input item to a (possibly empty)
// sequence of output items. Returning a nil iterator
// means the item maps to nothing.
type MapFn func(om.Item) (om.Iterator, error)

// Mapping applies fn to each item of base and flattens
// the results, preserving input order: all outputs for
// the first input item, then for the second, and so on.
// A failure of fn or of any produced iterator is
// propagated immediately; no item is silently skipped.
type Mapping struct {
	base om.Iterator
	fn   MapFn
	cur  om.Iterator
	err  error
	done bool
}

// Map returns a mapping iterator over base.
func Map(base om.Iterator, fn MapFn) *Mapping {
	return &Mapping{base: base, fn: fn}
}

func (m *Mapping) Next() (om.Item, error) {
	if m.err != nil || m.done {
		return nil, m.err
	}
	for {
		if m.cur != nil {
			it, err := m.cur.Next()
			if err != nil {
				m.err = err
				return nil, err
			}
			if it != nil {
				return it, nil
			}
			m.cur = nil
		}
		in, err := m.base.Next()
		if err != nil {
			m.err = err
			return nil, err
		}
		if in == nil {
			m.done = true
			return nil, nil
		}
		m.cur, err = m.fn(in)
		if err != nil {
			m.err = err
			return nil, err
		}
	}
}
