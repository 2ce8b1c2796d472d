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

func compileRoot(t *testing.T, n Node) Node {
	t.Helper()
	c, err := Compile(n, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c.Root
}

func books() Node {
	return Slash(ChildStep("library"), ChildStep("book"))
}

func TestPositionalPredicateRewrites(t *testing.T) {
	// position() = N becomes a subscript
	root := compileRoot(t, Where(books(), Compare(CmpEQ, Fn(FnPosition), Int(2))))
	sub, ok := root.(*Subscript)
	if !ok {
		t.Fatalf("got %s, want a subscript", ToString(root))
	}
	if sub.Index != 2 {
		t.Errorf("index = %d", sub.Index)
	}

	// position() > N becomes a tail
	root = compileRoot(t, Where(books(), Compare(CmpGT, Fn(FnPosition), Int(2))))
	tl, ok := root.(*Tail)
	if !ok {
		t.Fatalf("got %s, want a tail", ToString(root))
	}
	if tl.Start != 3 {
		t.Errorf("start = %d", tl.Start)
	}

	// a constant numeric predicate is positional too
	root = compileRoot(t, Where(books(), Int(1)))
	if sub, ok := root.(*Subscript); !ok || sub.Index != 1 {
		t.Errorf("got %s, want books[1]", ToString(root))
	}

	// a constant non-integral position selects nothing
	root = compileRoot(t, Where(books(), Double(2.5)))
	if l, ok := IsLiteral(root); !ok || len(l.Items) != 0 {
		t.Errorf("got %s, want ()", ToString(root))
	}
}

func TestCountIdiom(t *testing.T) {
	cases := []struct {
		op   CmpOp
		n    int64
		want FnOp
	}{
		{CmpEQ, 0, FnEmpty},
		{CmpGT, 0, FnExists},
		{CmpNE, 0, FnExists},
		{CmpGE, 1, FnExists},
		{CmpLT, 1, FnEmpty},
		{CmpLE, 0, FnEmpty},
	}
	for _, tc := range cases {
		root := compileRoot(t, Compare(tc.op, Fn(FnCount, ChildStep("a")), Int(tc.n)))
		call, ok := root.(*Call)
		if !ok || call.Op != tc.want {
			t.Errorf("count(a) %s %d: got %s, want %s()", tc.op, tc.n, ToString(root), tc.want)
		}
	}
	// other bounds still have to count
	root := compileRoot(t, Compare(CmpEQ, Fn(FnCount, ChildStep("a")), Int(2)))
	if _, ok := root.(*SingletonCompare); !ok {
		t.Errorf("count(a) eq 2: got %s", ToString(root))
	}
}

func TestSingletonCompareLowering(t *testing.T) {
	root := compileRoot(t, Compare(CmpLT, Fn(FnPosition), Fn(FnLast)))
	if _, ok := root.(*SingletonCompare); !ok {
		t.Errorf("both operands are singletons: got %s", ToString(root))
	}
	// an operand that may be empty keeps the general form
	root = compileRoot(t, Compare(CmpEQ, ChildStep("a"), Str("x")))
	if _, ok := root.(*ValueCompare); !ok {
		t.Errorf("possibly-empty operand: got %s", ToString(root))
	}
}

func TestSortElision(t *testing.T) {
	// child composition is provably ordered: no sort at all
	root := compileRoot(t, books())
	if _, ok := root.(*Path); !ok {
		t.Fatalf("got %s, want a bare path", ToString(root))
	}

	// //b needs a sort and keeps it
	slashSlash := func() Node {
		return Slash(Step(om.AxisDescendantOrSelf, om.KindTest{K: om.AnyKind}), ChildStep("b"))
	}
	root = compileRoot(t, slashSlash())
	if _, ok := root.(*DocSort); !ok {
		t.Fatalf("got %s, want a sorted path", ToString(root))
	}

	// exists() cannot observe order or duplicates
	root = compileRoot(t, Fn(FnExists, slashSlash()))
	call := root.(*Call)
	if _, ok := call.Args[0].(*DocSort); ok {
		t.Errorf("exists(): sort not elided: %s", ToString(root))
	}

	// count() can observe duplicates, so the sort stays
	// unless the operand is duplicate-free
	root = compileRoot(t, Fn(FnCount, slashSlash()))
	call = root.(*Call)
	if _, ok := call.Args[0].(*DocSort); !ok {
		t.Errorf("count(): sort wrongly elided: %s", ToString(root))
	}
}

func TestCheckRemoval(t *testing.T) {
	// a check whose requirement the inner's static type
	// proves removes itself
	cc := &CardinalityCheck{Inner: Int(1), Card: seqtype.ExactlyOne}
	if got := cc.optimize(nil); got != Node(cc.Inner) {
		t.Errorf("got %s, want the bare inner", ToString(got))
	}
	// an undischarged check stays
	cc = &CardinalityCheck{Inner: ChildStep("a"), Card: seqtype.ExactlyOne}
	if got := cc.optimize(nil); got != Node(cc) {
		t.Errorf("got %s, want the check kept", ToString(got))
	}

	ic := &ItemCheck{Inner: Int(1), Type: seqtype.Atomic{T: om.AnyAtomicType}}
	if got := ic.optimize(nil); got != Node(ic.Inner) {
		t.Errorf("got %s, want the bare inner", ToString(got))
	}
	ic = &ItemCheck{Inner: ChildStep("a"), Type: seqtype.Atomic{T: om.IntegerType}}
	if got := ic.optimize(nil); got != Node(ic) {
		t.Errorf("got %s, want the check kept", ToString(got))
	}
}
