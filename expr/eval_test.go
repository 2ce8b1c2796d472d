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
	"github.com/pathlang/pathlang/seq"
)

func stringValues(items []om.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.(om.Node).StringValue()
	}
	return out
}

func wantStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEvalPath(t *testing.T) {
	doc := library()

	items, err := evaluate(books(), doc)
	if err != nil {
		t.Fatal(err)
	}
	wantStrings(t, locals(items), []string{"book", "book"})

	// attribute values in document order
	ids, err := evaluate(Slash(books(),
		Step(om.AxisAttribute, om.NameTest{K: om.AttributeNode, Local: "id"})), doc)
	if err != nil {
		t.Fatal(err)
	}
	wantStrings(t, stringValues(ids), []string{"b1", "b2"})

	// descendant axis spans subtrees in document order
	titles, err := evaluate(Step(om.AxisDescendant,
		om.NameTest{K: om.ElementNode, Local: "title"}), doc)
	if err != nil {
		t.Fatal(err)
	}
	wantStrings(t, stringValues(titles), []string{"B", "A", "M"})
}

func TestEvalPathDeduplicates(t *testing.T) {
	// every book's library ancestor is the same element;
	// the path result must contain it exactly once
	doc := library()
	items, err := evaluate(Slash(
		Step(om.AxisDescendant, om.NameTest{K: om.ElementNode, Local: "book"}),
		Step(om.AxisAncestor, om.NameTest{K: om.ElementNode, Local: "library"})), doc)
	if err != nil {
		t.Fatal(err)
	}
	wantStrings(t, locals(items), []string{"library"})
}

func TestEvalLastInStep(t *testing.T) {
	// last() and position() as a path step see a fully
	// defined focus even when the sort on the start was
	// elided and the start streams
	doc := library()
	items, err := evaluate(Slash(books(), Fn(FnLast)), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0] != om.Int(2) || items[1] != om.Int(2) {
		t.Fatalf("last() per book yielded %v", items)
	}

	items, err = evaluate(Slash(books(), Fn(FnPosition)), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0] != om.Int(1) || items[1] != om.Int(2) {
		t.Fatalf("position() per book yielded %v", items)
	}
}

func TestEvalFilters(t *testing.T) {
	doc := library()

	// positional selection
	items, err := evaluate(Where(books(),
		Compare(CmpEQ, Fn(FnPosition), Int(2))), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	att := items[0].(om.Node).IterateAxis(om.AxisAttribute, om.NameTest{K: om.AttributeNode, Local: "id"})
	a, _ := att.Next()
	if a.(om.Node).StringValue() != "b2" {
		t.Errorf("selected the wrong book: @id=%s", a.(om.Node).StringValue())
	}

	// boolean predicate over a child comparison
	items, err = evaluate(Where(books(),
		Compare(CmpEQ, ChildStep("title"), Str("A"))), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].(om.Node).StringValue() != "A10" {
		t.Fatalf("title predicate selected %v", locals(items))
	}

	// last() forces focus materialization and still works
	items, err = evaluate(Where(books(),
		Compare(CmpEQ, Fn(FnPosition), Fn(FnLast))), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].(om.Node).StringValue() != "A10" {
		t.Fatalf("last() predicate selected %v", locals(items))
	}

	// empty predicate result keeps nothing
	items, err = evaluate(Where(books(),
		Compare(CmpEQ, ChildStep("isbn"), Str("x"))), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %v, want nothing", locals(items))
	}
}

func TestEvalQuantifiers(t *testing.T) {
	doc := library()
	some := func(every bool, title string) Node {
		q := Some("b", books(),
			Compare(CmpEQ, Slash(Var("b"), ChildStep("title")), Str(title)))
		q.Every = every
		return q
	}
	cases := []struct {
		n    Node
		want bool
	}{
		{some(false, "A"), true},
		{some(false, "Z"), false},
		{some(true, "A"), false},
		{Every("b", books(),
			Fn(FnExists, Slash(Var("b"), ChildStep("price")))), true},
	}
	for _, tc := range cases {
		items, err := evaluate(tc.n, doc)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0] != om.Item(om.Bool(tc.want)) {
			t.Errorf("got %v, want %v", items, tc.want)
		}
	}
}

func TestEvalLetAndSubscript(t *testing.T) {
	doc := library()

	// let over a node sequence, counted twice
	l := LetIn("x", books(),
		Compare(CmpEQ, Fn(FnCount, Var("x")), Fn(FnCount, Var("x"))))
	items, err := evaluate(l, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0] != om.Item(om.Bool(true)) {
		t.Fatalf("got %v", items)
	}

	// out-of-range subscript is empty, not an error
	items, err = evaluate(Where(books(), Int(9)), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %v, want nothing", locals(items))
	}
}

func TestEvalErrors(t *testing.T) {
	// no focus established
	c, err := Compile(ChildStep("a"), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Iterate(c.NewContext())
	if ErrorCode(err) != ErrAbsentFocus {
		t.Errorf("absent focus: got %v", err)
	}

	// multi-valued atomic sequences have no boolean value
	doc := library()
	_, err = evaluate(Fn(FnBoolean, IntSeq(1, 2)), doc)
	if ErrorCode(err) != ErrBadBool {
		t.Errorf("boolean((1,2)): got %v", err)
	}

	// a multi-valued comparison operand fails with a
	// cardinality violation
	_, err = evaluate(Compare(CmpEQ,
		Slash(ChildStep("library"), ChildStep("book")),
		Str("x")), doc)
	if ErrorCode(err) != ErrType {
		t.Errorf("two books as one operand: got %v", err)
	}
}

func TestEvalRoot(t *testing.T) {
	doc := library()
	// "/" from a deep node climbs to the document
	c, err := Compile(Slash(&Root{}, ChildStep("library")), nil)
	if err != nil {
		t.Fatal(err)
	}
	// focus on an inner book element
	var book om.Item
	it := doc.kids[0].IterateAxis(om.AxisChild, om.NameTest{K: om.ElementNode, Local: "book"})
	book, _ = it.Next()
	ctx := c.NewContext().WithContextItem(book)
	out, err := c.Iterate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	items, err := seq.Expand(out)
	if err != nil {
		t.Fatal(err)
	}
	wantStrings(t, locals(items), []string{"library"})
}
