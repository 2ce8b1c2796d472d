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
	"testing"

	"github.com/pathlang/pathlang/om"
)

func TestRelationship(t *testing.T) {
	integer := Atomic{T: om.IntegerType}
	decimal := Atomic{T: om.DecimalType}
	str := Atomic{T: om.StringType}
	anyAtomic := Atomic{T: om.AnyAtomicType}
	elemA := NodeType{Test: om.NameTest{K: om.ElementNode, Local: "a"}}
	elemB := NodeType{Test: om.NameTest{K: om.ElementNode, Local: "b"}}
	anyElem := NodeKind(om.ElementNode)
	attr := NodeKind(om.AttributeNode)

	cases := []struct {
		a, b ItemType
		want Relation
	}{
		{AnyItem{}, AnyItem{}, Same},
		{AnyItem{}, integer, Subsumes},
		{integer, AnyItem{}, SubsumedBy},
		{NoItem{}, integer, SubsumedBy},
		{integer, NoItem{}, Subsumes},
		{integer, integer, Same},
		{decimal, integer, Subsumes},
		{integer, decimal, SubsumedBy},
		{anyAtomic, str, Subsumes},
		{str, integer, Disjoint},
		{AnyNode(), anyElem, Subsumes},
		{anyElem, AnyNode(), SubsumedBy},
		{anyElem, elemA, Subsumes},
		{elemA, elemA, Same},
		{elemA, elemB, Disjoint},
		{anyElem, attr, Disjoint},
		{elemA, integer, Disjoint},
		{integer, AnyNode(), Disjoint},
	}
	for i := range cases {
		c := &cases[i]
		if got := Relationship(c.a, c.b); got != c.want {
			t.Errorf("Relationship(%s, %s) = %s, want %s", c.a, c.b, got, c.want)
		}
	}
}

func TestSequenceTypeSubsumes(t *testing.T) {
	anyNodes := SequenceType{Item: AnyNode(), Card: ZeroOrMore}
	oneElem := SequenceType{Item: NodeKind(om.ElementNode), Card: ExactlyOne}
	if !anyNodes.Subsumes(oneElem) {
		t.Error("node()* should subsume element()")
	}
	if oneElem.Subsumes(anyNodes) {
		t.Error("element() should not subsume node()*")
	}
	if !AnySequence().Subsumes(EmptySequence()) {
		t.Error("item()* should subsume empty-sequence()")
	}
	if !Single(AnyItem{}).Subsumes(Single(Atomic{T: om.BoolType})) {
		t.Error("item() should subsume xs:boolean")
	}
}
