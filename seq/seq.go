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

// Package seq provides the derived sequence iterators the
// evaluator composes over om.Iterator: grounded in-memory
// sequences, mapping (flattening), cardinality checking,
// tail and positional slicing, and the focus tracker.
package seq

import (
	"github.com/pathlang/pathlang/om"
)

// Slice is a grounded iterator over an in-memory slice.
// It reports its length without consumption, supports
// lookahead, and restarts cheaply.
type Slice struct {
	items []om.Item
	pos   int
}

// Of returns a grounded iterator over items. The slice
// is retained, not copied.
func Of(items ...om.Item) *Slice {
	return &Slice{items: items}
}

// Empty returns an iterator over the empty sequence.
func Empty() *Slice { return &Slice{} }

// One returns an iterator over a single item.
func One(it om.Item) *Slice { return Of(it) }

func (s *Slice) Next() (om.Item, error) {
	if s.pos >= len(s.items) {
		return nil, nil
	}
	it := s.items[s.pos]
	s.pos++
	return it, nil
}

func (s *Slice) HasNext() bool { return s.pos < len(s.items) }

func (s *Slice) LastPosition() int { return len(s.items) }

// Slice returns the undelivered remainder and exhausts
// the iterator, per the om.Grounded contract.
func (s *Slice) Slice() []om.Item {
	out := s.items[s.pos:]
	s.pos = len(s.items)
	return out
}

func (s *Slice) Another() om.Iterator { return &Slice{items: s.items} }

// Tail returns a zero-copy view of the slice sequence
// beginning at 1-based position start.
func (s *Slice) Tail(start int) *Slice {
	if start <= 1 {
		return &Slice{items: s.items}
	}
	if start > len(s.items) {
		return Empty()
	}
	return &Slice{items: s.items[start-1:]}
}

var (
	_ om.Lookahead          = &Slice{}
	_ om.LastPositionFinder = &Slice{}
	_ om.Grounded           = &Slice{}
	_ om.Restartable        = &Slice{}
)

// Expand consumes src and returns its remaining items.
// Grounded sources hand over their backing slice without
// copying.
func Expand(src om.Iterator) ([]om.Item, error) {
	if g, ok := src.(om.Grounded); ok {
		return g.Slice(), nil
	}
	var out []om.Item
	for {
		it, err := src.Next()
		if err != nil {
			return nil, err
		}
		if it == nil {
			return out, nil
		}
		out = append(out, it)
	}
}

// Count consumes src and returns its length, using the
// last-position fast path when available.
func Count(src om.Iterator) (int, error) {
	if lp, ok := src.(om.LastPositionFinder); ok {
		return lp.LastPosition(), nil
	}
	n := 0
	for {
		it, err := src.Next()
		if err != nil {
			return 0, err
		}
		if it == nil {
			return n, nil
		}
		n++
	}
}
