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

package seqtype

import (
	"github.com/pathlang/pathlang/om"
)

// ItemType is a static type over items: any item, any
// node matching a node test, or an atomic type.
//
// ItemType values are immutable; the same values may be
// consulted from any number of concurrent compilations.
type ItemType interface {
	// Matches reports whether the item is an instance
	// of the type.
	Matches(it om.Item) bool
	String() string
}

// AnyItem matches every item.
type AnyItem struct{}

func (AnyItem) Matches(om.Item) bool { return true }
func (AnyItem) String() string       { return "item()" }

// NoItem matches nothing; it is the static type of a
// provably empty sequence.
type NoItem struct{}

func (NoItem) Matches(om.Item) bool { return false }
func (NoItem) String() string       { return "empty" }

// Atomic matches atomic values of type T or a type
// derived from T.
type Atomic struct {
	T om.AtomicType
}

func (a Atomic) Matches(it om.Item) bool {
	av, ok := it.(om.AtomicValue)
	if !ok {
		return false
	}
	return av.AtomicType().Derives(a.T)
}

func (a Atomic) String() string { return "xs:" + a.T.String() }

// NodeType matches nodes that satisfy a node test.
type NodeType struct {
	Test om.NodeTest
}

// AnyNode matches every node.
func AnyNode() NodeType { return NodeType{Test: om.KindTest{K: om.AnyKind}} }

// NodeKind matches every node of the given kind.
func NodeKind(k om.NodeKind) NodeType { return NodeType{Test: om.KindTest{K: k}} }

func (n NodeType) Matches(it om.Item) bool {
	nd, ok := it.(om.Node)
	if !ok {
		return false
	}
	return n.Test.Matches(nd)
}

func (n NodeType) String() string { return n.Test.String() }

// Relation is the result of a relationship query over
// the subtype lattice.
type Relation int

const (
	// Same: the two types denote the same set of items.
	Same Relation = iota
	// Subsumes: the first type's item set strictly
	// contains the second's.
	Subsumes
	// SubsumedBy: the first type's item set is strictly
	// contained in the second's.
	SubsumedBy
	// Overlaps: the item sets intersect but neither
	// contains the other.
	Overlaps
	// Disjoint: the item sets cannot intersect.
	Disjoint
)

func (r Relation) String() string {
	switch r {
	case Same:
		return "same"
	case Subsumes:
		return "subsumes"
	case SubsumedBy:
		return "subsumed-by"
	case Overlaps:
		return "overlaps"
	default:
		return "disjoint"
	}
}

// Relationship computes the relation between two item
// types. The result is conservative: when containment
// cannot be proven the answer degrades toward Overlaps,
// never toward Disjoint, so that Disjoint answers are
// always safe to act on.
func Relationship(a, b ItemType) Relation {
	if _, ok := a.(NoItem); ok {
		if _, ok := b.(NoItem); ok {
			return Same
		}
		return SubsumedBy
	}
	if _, ok := b.(NoItem); ok {
		return Subsumes
	}
	aAny := isAnyItem(a)
	bAny := isAnyItem(b)
	switch {
	case aAny && bAny:
		return Same
	case aAny:
		return Subsumes
	case bAny:
		return SubsumedBy
	}
	an, aIsNode := a.(NodeType)
	bn, bIsNode := b.(NodeType)
	aa, aIsAtomic := a.(Atomic)
	ba, bIsAtomic := b.(Atomic)
	switch {
	case aIsNode && bIsNode:
		return nodeRelationship(an, bn)
	case aIsAtomic && bIsAtomic:
		return atomicRelationship(aa.T, ba.T)
	}
	// node vs atomic: never intersect
	return Disjoint
}

func isAnyItem(t ItemType) bool {
	_, ok := t.(AnyItem)
	return ok
}

func atomicRelationship(a, b om.AtomicType) Relation {
	switch {
	case a == b:
		return Same
	case b.Derives(a):
		return Subsumes
	case a.Derives(b):
		return SubsumedBy
	}
	return Disjoint
}

func nodeRelationship(a, b NodeType) Relation {
	ak, bk := a.Test.Kind(), b.Test.Kind()
	if ak != om.AnyKind && bk != om.AnyKind && ak != bk {
		return Disjoint
	}
	an, aNamed := a.Test.(om.NameTest)
	bn, bNamed := b.Test.(om.NameTest)
	switch {
	case aNamed && bNamed:
		if an == bn {
			return Same
		}
		return Disjoint
	case aNamed:
		// name test under a kind (or any-kind) test
		if bk == om.AnyKind || bk == ak {
			return SubsumedBy
		}
		return Disjoint
	case bNamed:
		if ak == om.AnyKind || ak == bk {
			return Subsumes
		}
		return Disjoint
	}
	// both kind tests
	switch {
	case ak == bk:
		return Same
	case ak == om.AnyKind:
		return Subsumes
	case bk == om.AnyKind:
		return SubsumedBy
	}
	return Disjoint
}

// SequenceType pairs an item type with an occurrence
// cardinality.
type SequenceType struct {
	Item ItemType
	Card Cardinality
}

// AnySequence is item()*.
func AnySequence() SequenceType {
	return SequenceType{Item: AnyItem{}, Card: ZeroOrMore}
}

// EmptySequence is empty-sequence().
func EmptySequence() SequenceType {
	return SequenceType{Item: NoItem{}, Card: Empty}
}

// Single is T with cardinality exactly-one.
func Single(t ItemType) SequenceType {
	return SequenceType{Item: t, Card: ExactlyOne}
}

// Subsumes returns whether every sequence permitted by
// other is also permitted by s.
func (s SequenceType) Subsumes(other SequenceType) bool {
	if !s.Card.Subsumes(other.Card) {
		return false
	}
	if other.Card == Empty {
		return true
	}
	switch Relationship(s.Item, other.Item) {
	case Same, Subsumes:
		return true
	}
	return false
}

func (s SequenceType) String() string {
	if s.Card == Empty {
		return "empty-sequence()"
	}
	return s.Item.String() + s.Card.Occurrence()
}
