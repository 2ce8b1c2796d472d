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
	"testing"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"
)

func integerOne() seqtype.SequenceType {
	return seqtype.Single(seqtype.Atomic{T: om.IntegerType})
}

func TestApplyChecksWrapping(t *testing.T) {
	// nothing is known about an unresolved variable, so an
	// atomic singleton requirement needs the full stack:
	// atomize, item check, cardinality check
	got, err := applyChecks(Var("x"), integerOne(), "arg")
	if err != nil {
		t.Fatal(err)
	}
	cc, ok := got.(*CardinalityCheck)
	if !ok {
		t.Fatalf("outer node is %s, want a cardinality check", ToString(got))
	}
	if cc.Card != seqtype.ExactlyOne {
		t.Errorf("required cardinality %s", cc.Card)
	}
	ic, ok := cc.Inner.(*ItemCheck)
	if !ok {
		t.Fatalf("inner node is %s, want an item check", ToString(cc.Inner))
	}
	if _, ok := ic.Inner.(*Atomize); !ok {
		t.Fatalf("innermost node is %s, want atomize", ToString(ic.Inner))
	}
}

func TestApplyChecksStaticallySatisfied(t *testing.T) {
	in := Int(42)
	got, err := applyChecks(in, integerOne(), "arg")
	if err != nil {
		t.Fatal(err)
	}
	if got != Node(in) {
		t.Errorf("statically satisfied input was rewritten to %s", ToString(got))
	}
}

func TestApplyChecksStaticErrors(t *testing.T) {
	// a string singleton can never be an integer
	if _, err := applyChecks(Str("x"), integerOne(), "arg"); ErrorCode(err) != ErrType {
		t.Errorf("disjoint type: got %v", err)
	}
	// the empty sequence can never satisfy exactly-one
	if _, err := applyChecks(EmptyLit(), integerOne(), "arg"); ErrorCode(err) != ErrType {
		t.Errorf("empty vs exactly-one: got %v", err)
	}
}

func TestApplyChecksCardinalityOnly(t *testing.T) {
	// item type is fine, only the occurrence needs checking
	got, err := applyChecks(IntSeq(1, 2, 3), seqtype.SequenceType{
		Item: seqtype.Atomic{T: om.IntegerType},
		Card: seqtype.OneOrMore,
	}, "arg")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*CardinalityCheck); ok {
		t.Errorf("1+ items statically satisfy one-or-more, got %s", ToString(got))
	}
	got, err = applyChecks(ChildStep("a"), seqtype.SequenceType{
		Item: seqtype.AnyNode(),
		Card: seqtype.ExactlyOne,
	}, "arg")
	if err != nil {
		t.Fatal(err)
	}
	cc, ok := got.(*CardinalityCheck)
	if !ok {
		t.Fatalf("got %s, want a cardinality check", ToString(got))
	}
	if _, ok := cc.Inner.(*AxisStep); !ok {
		t.Errorf("node requirement over a step must not insert an item check: %s", ToString(cc.Inner))
	}
}

func TestTypeCheckContext(t *testing.T) {
	empty := &StaticEnv{ContextType: seqtype.EmptySequence()}
	if _, err := typeCheck(&ContextItem{}, empty); ErrorCode(err) != ErrAbsentFocus {
		t.Errorf("context item with absent focus: got %v", err)
	}
	if _, err := typeCheck(ChildStep("a"), empty); ErrorCode(err) != ErrAbsentFocus {
		t.Errorf("step with absent focus: got %v", err)
	}

	atomicCtx := &StaticEnv{ContextType: integerOne()}
	if _, err := typeCheck(ChildStep("a"), atomicCtx); ErrorCode(err) != ErrType {
		t.Errorf("step from an atomic context: got %v", err)
	}
	if _, err := typeCheck(&Root{}, atomicCtx); ErrorCode(err) != ErrType {
		t.Errorf("root from an atomic context: got %v", err)
	}

	// text nodes have no children: the step is provably empty
	textCtx := &StaticEnv{ContextType: seqtype.Single(seqtype.NodeKind(om.TextNode))}
	got, err := typeCheck(ChildStep("a"), textCtx)
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := IsLiteral(got); !ok || len(l.Items) != 0 {
		t.Errorf("child of text node: got %s, want ()", ToString(got))
	}
}

func TestTypeCheckComparison(t *testing.T) {
	// disjoint static operand types fail compilation
	if _, err := typeCheck(Compare(CmpEQ, Str("a"), Int(1)), nil); ErrorCode(err) != ErrType {
		t.Errorf("string eq integer: got %v", err)
	}
	// a non-singleton operand gets a singleton atomizer
	got, err := typeCheck(Compare(CmpEQ, ChildStep("a"), Str("x")),
		&StaticEnv{ContextType: seqtype.Single(seqtype.AnyNode())})
	if err != nil {
		t.Fatal(err)
	}
	vc, ok := got.(*ValueCompare)
	if !ok {
		t.Fatalf("got %s", ToString(got))
	}
	sa, ok := vc.Left.(*SingletonAtomizer)
	if !ok {
		t.Fatalf("left operand is %s, want a singleton atomizer", ToString(vc.Left))
	}
	if !sa.AllowEmpty {
		t.Error("value comparison operands may be empty")
	}
	if _, ok := vc.Right.(*Literal); !ok {
		t.Errorf("atomic singleton operand was rewritten to %s", ToString(vc.Right))
	}
}

func TestTypeCheckLetDeclaredType(t *testing.T) {
	l := LetIn("x", Str("s"), Var("x"))
	l.Binding.Declared = integerOne()
	if _, err := ResolveBindings(l); err != nil {
		t.Fatal(err)
	}
	if _, err := typeCheck(l, nil); ErrorCode(err) != ErrType {
		t.Errorf("declared integer bound to a string: got %v", err)
	}
}

func TestPathTypeCheckWrapsSort(t *testing.T) {
	got, err := typeCheck(Slash(ChildStep("a"), ChildStep("b")), nil)
	if err != nil {
		t.Fatal(err)
	}
	ds, ok := got.(*DocSort)
	if !ok {
		t.Fatalf("got %s, want a document sort", ToString(got))
	}
	if _, ok := ds.Inner.(*Path); !ok {
		t.Fatalf("sort wraps %s", ToString(ds.Inner))
	}
	// atomizing steps keep start-major order: no sort
	got, err = typeCheck(Slash(ChildStep("a"), Data(&ContextItem{})), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*DocSort); ok {
		t.Errorf("atomic-valued path must not be sorted: %s", ToString(got))
	}
}
