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

// Package seqtype implements the static sequence-type
// model: occurrence cardinalities, item types, and the
// subtype relationship queries that drive rewriting.
//
// The lattice is consulted, never mutated, during
// compilation; everything here is safe for concurrent
// use once the process has started.
package seqtype

import "strings"

// Cardinality is the statically-known range of item
// counts a sequence-valued expression may produce.
// It is a bitmask over the possible count classes
// {zero, one, many}, so subsumption is bitset
// containment.
type Cardinality uint8

const (
	// CardZero allows the empty sequence.
	CardZero Cardinality = 1 << iota
	// CardOne allows exactly one item.
	CardOne
	// CardMany allows two or more items.
	CardMany
)

const (
	// Empty is the cardinality of a provably empty sequence.
	Empty = CardZero
	// ExactlyOne allows exactly one item.
	ExactlyOne = CardOne
	// ZeroOrOne allows zero or one item.
	ZeroOrOne = CardZero | CardOne
	// OneOrMore allows one or more items.
	OneOrMore = CardOne | CardMany
	// ZeroOrMore allows any number of items.
	ZeroOrMore = CardZero | CardOne | CardMany
)

// Subsumes returns whether every sequence permitted by
// actual is also permitted by c. It is the partial-order
// test used to decide whether a run-time cardinality
// check can be elided.
func (c Cardinality) Subsumes(actual Cardinality) bool {
	return actual&^c == 0
}

// AllowsZero returns whether the empty sequence is permitted.
func (c Cardinality) AllowsZero() bool { return c&CardZero != 0 }

// AllowsOne returns whether a single-item sequence is permitted.
func (c Cardinality) AllowsOne() bool { return c&CardOne != 0 }

// AllowsMany returns whether two or more items are permitted.
func (c Cardinality) AllowsMany() bool { return c&CardMany != 0 }

// Union returns the cardinality permitting everything
// permitted by either operand.
func (c Cardinality) Union(other Cardinality) Cardinality {
	return c | other
}

// Mul returns the cardinality of a sequence formed by
// producing, for each of the items counted by c, a
// sequence counted by other, and concatenating. This is
// interval arithmetic over {0, 1, many}: the result
// interval is the product of the operand intervals.
func (c Cardinality) Mul(other Cardinality) Cardinality {
	if c == Empty || other == Empty {
		return Empty
	}
	lo := minCount(c) * minCount(other)
	hi := maxCount(c) * maxCount(other)
	var out Cardinality
	if lo == 0 {
		out |= CardZero
	}
	if lo <= 1 && hi >= 1 {
		out |= CardOne
	}
	if hi >= 2 {
		out |= CardMany
	}
	return out
}

// minCount maps a cardinality to the low end of its
// count interval (0 or 1; many alone implies 2).
func minCount(c Cardinality) int {
	switch {
	case c.AllowsZero():
		return 0
	case c&CardOne != 0:
		return 1
	}
	return 2
}

// maxCount maps to the high end, with 2 standing in for
// "unbounded"; the products 2*2, 2*1 and 1*2 all land in
// the many class, which is all Mul needs.
func maxCount(c Cardinality) int {
	switch {
	case c.AllowsMany():
		return 2
	case c&CardOne != 0:
		return 1
	}
	return 0
}

func (c Cardinality) String() string {
	switch c {
	case Empty:
		return "empty-sequence()"
	case ExactlyOne:
		return "exactly-one"
	case ZeroOrOne:
		return "zero-or-one"
	case OneOrMore:
		return "one-or-more"
	case ZeroOrMore:
		return "zero-or-more"
	}
	var b strings.Builder
	if c.AllowsZero() {
		b.WriteString("zero")
	}
	if c&CardOne != 0 {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString("one")
	}
	if c.AllowsMany() {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString("many")
	}
	return b.String()
}

// Occurrence returns the conventional occurrence
// indicator suffix for the cardinality ("", "?", "+",
// or "*").
func (c Cardinality) Occurrence() string {
	switch c {
	case ExactlyOne:
		return ""
	case ZeroOrOne:
		return "?"
	case OneOrMore:
		return "+"
	default:
		return "*"
	}
}
