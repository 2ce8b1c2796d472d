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
	"bytes"
	"math/big"
	"testing"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"
)

func TestEncodeRoundTrip(t *testing.T) {
	declared := LetIn("y",
		&Literal{Items: []om.Item{om.NewDecimal(big.NewRat(7, 2))}},
		Compare(CmpGE, Var("y"), Int(3)))
	declared.Binding.Declared = seqtype.SequenceType{
		Item: seqtype.Atomic{T: om.DecimalType},
		Card: seqtype.ExactlyOne,
	}
	trees := []Node{
		Slash(&Root{}, Where(ChildStep("book"),
			Compare(CmpEQ, Fn(FnPosition), Int(2)))),
		&DocSort{Inner: Slash(
			Step(om.AxisDescendantOrSelf, om.KindTest{K: om.AnyKind}),
			Step(om.AxisChild, om.NameTest{K: om.ElementNode, URI: "urn:x", Local: "b"}))},
		declared,
		Every("v", IntSeq(1, 2, 3),
			&SingletonCompare{Op: CmpLT, Left: Var("v"), Right: Int(10)}),
		Fn(FnNot, Fn(FnEmpty, &Subscript{Base: ChildStep("a"), Index: 3})),
		&Tail{Base: &ItemCheck{Inner: Var("x"), Type: seqtype.AnyNode(), Role: "arg"}, Start: 2},
		&CardinalityCheck{
			Inner: &SingletonAtomizer{Inner: &ContextItem{}, Role: "operand", AllowEmpty: true},
			Card:  seqtype.ZeroOrOne,
			Role:  "operand",
		},
		&Lazy{Inner: Data(&Literal{Items: []om.Item{om.Untyped("u"), om.Str("s"), om.Bool(true), om.Float(1.5)}})},
	}
	for _, in := range trees {
		var buf bytes.Buffer
		if err := Encode(in, &buf); err != nil {
			t.Fatalf("%s: encode: %v", ToString(in), err)
		}
		out, err := Decode(&buf)
		if err != nil {
			t.Fatalf("%s: decode: %v", ToString(in), err)
		}
		if !Equal(in, out) {
			t.Errorf("round trip changed %s into %s", ToString(in), ToString(out))
		}
	}
}

func TestDecodedTreeEvaluates(t *testing.T) {
	// a decoded tree is compilable and behaves like the
	// original
	doc := library()
	in := Where(books(), Compare(CmpEQ, ChildStep("title"), Str("A")))

	var buf bytes.Buffer
	if err := Encode(in, &buf); err != nil {
		t.Fatal(err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	items, err := evaluate(out, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].(om.Node).StringValue() != "A10" {
		t.Fatalf("decoded tree selected %v", locals(items))
	}
}

func TestEncodePreservesLocations(t *testing.T) {
	in := &AxisStep{
		Axis: om.AxisChild,
		Test: om.NameTest{K: om.ElementNode, Local: "a"},
		Loc:  Location{Line: 3, Column: 14},
	}
	var buf bytes.Buffer
	if err := Encode(in, &buf); err != nil {
		t.Fatal(err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.(*AxisStep).Loc; got != in.Loc {
		t.Errorf("location %v, want %v", got, in.Loc)
	}
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte("max-optimize-rounds: 9\ndisable-hoisting: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxOptimizeRounds != 9 || !s.DisableHoisting {
		t.Errorf("parsed %+v", s)
	}

	// unset fields take the defaults
	s, err = ParseSettings([]byte("disable-hoisting: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxOptimizeRounds != DefaultSettings().MaxOptimizeRounds {
		t.Errorf("default rounds not applied: %+v", s)
	}

	// unknown keys are configuration mistakes
	if _, err := ParseSettings([]byte("max-rounds: 9\n")); err == nil {
		t.Error("unknown key accepted")
	}
}
