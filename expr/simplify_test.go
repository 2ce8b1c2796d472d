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

package expr

import (
	"math"
	"math/big"
	"testing"

	"github.com/pathlang/pathlang/om"
)

func TestSimplify(t *testing.T) {
	cases := []struct {
		in, want Node
	}{
		// self::node() is the identity on either side of /
		{
			Slash(ChildStep("a"), Step(om.AxisSelf, om.KindTest{K: om.AnyKind})),
			ChildStep("a"),
		},
		{
			Slash(Step(om.AxisSelf, om.KindTest{K: om.AnyKind}), ChildStep("a")),
			ChildStep("a"),
		},
		// constant boolean predicates
		{Where(ChildStep("a"), BoolLit(true)), ChildStep("a")},
		{Where(ChildStep("a"), BoolLit(false)), EmptyLit()},
		{Where(EmptyLit(), ChildStep("a")), EmptyLit()},
		// quantifiers over a provably empty source
		{Some("v", EmptyLit(), BoolLit(true)), BoolLit(false)},
		{Every("v", EmptyLit(), BoolLit(false)), BoolLit(true)},
		// function folding over literal arguments
		{Fn(FnCount, IntSeq(1, 2, 3)), Int(3)},
		{Fn(FnExists, EmptyLit()), BoolLit(false)},
		{Fn(FnEmpty, EmptyLit()), BoolLit(true)},
		{Fn(FnHead, IntSeq(7, 8)), Int(7)},
		{Fn(FnReverse, IntSeq(1, 2, 3)), IntSeq(3, 2, 1)},
		{Fn(FnNot, BoolLit(true)), BoolLit(false)},
		{Fn(FnBoolean, Str("")), BoolLit(false)},
		{Fn(FnBoolean, Str("x")), BoolLit(true)},
		// comparison folding
		{Compare(CmpLT, Int(1), Int(2)), BoolLit(true)},
		{Compare(CmpEQ, Int(2), Double(2)), BoolLit(true)},
		{Compare(CmpEQ, EmptyLit(), Int(1)), EmptyLit()},
		{Compare(CmpNE, Double(math.NaN()), Int(1)), BoolLit(true)},
		{Compare(CmpEQ, Double(math.NaN()), Double(math.NaN())), BoolLit(false)},
		{
			Compare(CmpEQ,
				&Literal{Items: []om.Item{om.NewDecimal(big.NewRat(1, 3))}},
				&Literal{Items: []om.Item{om.NewDecimal(big.NewRat(2, 6))}}),
			BoolLit(true),
		},
		// trivial wrappers
		{&Tail{Base: ChildStep("a"), Start: 1}, ChildStep("a")},
		{&Lazy{Inner: Int(4)}, Int(4)},
		{Data(Int(1)), Int(1)},
		// folding cascades bottom-up in one pass
		{Fn(FnNot, Fn(FnEmpty, IntSeq(1))), BoolLit(true)},
	}
	for _, tc := range cases {
		in := ToString(tc.in)
		got := Simplify(tc.in, nil)
		if !Equal(got, tc.want) {
			t.Errorf("%s: got %s, want %s", in, ToString(got), ToString(tc.want))
			continue
		}
		// idempotence
		again := Simplify(got, nil)
		if !Equal(again, got) {
			t.Errorf("%s: not idempotent: %s then %s", in, ToString(got), ToString(again))
		}
	}
}

func TestSimplifyPreservesUnknowns(t *testing.T) {
	// nothing is known statically about these; they must
	// come through untouched
	keep := []Node{
		Where(ChildStep("a"), Compare(CmpEQ, Fn(FnPosition), Int(2))),
		Some("v", ChildStep("a"), BoolLit(true)),
		Fn(FnCount, ChildStep("a")),
	}
	for _, n := range keep {
		want := ToString(n)
		got := Simplify(n, nil)
		if ToString(got) != want {
			t.Errorf("got %s, want %s", ToString(got), want)
		}
	}
}
