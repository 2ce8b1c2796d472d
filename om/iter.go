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

package om

// Iterator is the pull protocol for sequences.
//
// Next returns the next item, or (nil, nil) once the
// sequence is exhausted. After an error or exhaustion,
// further calls to Next keep returning the same result.
// Next calls must be made from one logical thread of
// control; iterators are never shared across goroutines.
//
// Iterators may additionally implement Restartable,
// Lookahead, LastPositionFinder, or Grounded; callers
// discover these capabilities by type assertion.
type Iterator interface {
	Next() (Item, error)
}

// Restartable is implemented by iterators that can
// produce a fresh, independent iterator over the same
// logical sequence, for algorithms that need two passes.
type Restartable interface {
	Iterator
	Another() Iterator
}

// Lookahead is implemented by iterators that can report
// whether more items remain without consuming them.
type Lookahead interface {
	Iterator
	HasNext() bool
}

// LastPositionFinder is implemented by iterators that
// can report the total sequence length without consuming
// the sequence.
type LastPositionFinder interface {
	Iterator
	LastPosition() int
}

// Grounded is implemented by iterators backed by an
// in-memory, repeatedly-indexable structure. Slice
// returns the items not yet delivered by Next and leaves
// the iterator exhausted; callers must not mutate the
// returned slice.
type Grounded interface {
	Iterator
	Slice() []Item
}
