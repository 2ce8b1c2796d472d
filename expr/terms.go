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
	"strconv"
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// Literal is a constant sequence of atomic values.
type Literal struct {
	Items []om.Item
}

// Int returns an integer literal.
func Int(i int64) *Literal { return &Literal{Items: []om.Item{om.Int(i)}} }

// Double returns a double literal.
func Double(f float64) *Literal { return &Literal{Items: []om.Item{om.Float(f)}} }

// Str returns a string literal.
func Str(s string) *Literal { return &Literal{Items: []om.Item{om.Str(s)}} }

// BoolLit returns a boolean literal.
func BoolLit(b bool) *Literal { return &Literal{Items: []om.Item{om.Bool(b)}} }

// EmptyLit returns the empty-sequence literal.
func EmptyLit() *Literal { return &Literal{} }

// IntSeq returns a literal integer sequence.
func IntSeq(vals ...int64) *Literal {
	items := make([]om.Item, len(vals))
	for i, v := range vals {
		items[i] = om.Int(v)
	}
	return &Literal{Items: items}
}

// IsLiteral returns the literal form of n, if n is one.
func IsLiteral(n Node) (*Literal, bool) {
	l, ok := n.(*Literal)
	return l, ok
}

func (l *Literal) Equals(x Node) bool {
	xl, ok := x.(*Literal)
	if !ok || len(xl.Items) != len(l.Items) {
		return false
	}
	for i := range l.Items {
		if !itemEq(l.Items[i], xl.Items[i]) {
			return false
		}
	}
	return true
}

// itemEq is structural equality over literal items:
// numerically equal numbers are equal across numeric
// types, and NaN equals NaN.
func itemEq(a, b om.Item) bool {
	av, ok1 := a.(om.AtomicValue)
	bv, ok2 := b.(om.AtomicValue)
	if !ok1 || !ok2 {
		return false
	}
	af, aIsF := av.(om.Float)
	bf, bIsF := bv.(om.Float)
	if aIsF && bIsF && math.IsNaN(float64(af)) && math.IsNaN(float64(bf)) {
		return true
	}
	return om.SameValue(av, bv)
}

func (l *Literal) walk(Visitor) {}

func (l *Literal) text(dst *strings.Builder) {
	if len(l.Items) != 1 {
		dst.WriteByte('(')
	}
	for i, it := range l.Items {
		if i > 0 {
			dst.WriteString(", ")
		}
		if s, ok := it.(om.Str); ok {
			dst.WriteString(strconv.Quote(string(s)))
		} else {
			dst.WriteString(it.String())
		}
	}
	if len(l.Items) != 1 {
		dst.WriteByte(')')
	}
}

func (l *Literal) staticType() seqtype.SequenceType {
	switch len(l.Items) {
	case 0:
		return seqtype.EmptySequence()
	case 1:
		return seqtype.Single(literalItemType(l.Items[0]))
	}
	t := literalItemType(l.Items[0])
	for _, it := range l.Items[1:] {
		if literalItemType(it) != t {
			t = seqtype.Atomic{T: om.AnyAtomicType}
			break
		}
	}
	return seqtype.SequenceType{Item: t, Card: seqtype.OneOrMore}
}

func literalItemType(it om.Item) seqtype.Atomic {
	if av, ok := it.(om.AtomicValue); ok {
		return seqtype.Atomic{T: av.AtomicType()}
	}
	return seqtype.Atomic{T: om.AnyAtomicType}
}

func (l *Literal) deps() Deps { return 0 }

func (l *Literal) iterate(*Context) (om.Iterator, error) {
	return seq.Of(l.Items...), nil
}

// ContextItem is the expression ".".
type ContextItem struct {
	Loc Location

	typ seqtype.SequenceType
}

func (c *ContextItem) Equals(x Node) bool {
	_, ok := x.(*ContextItem)
	return ok
}

func (c *ContextItem) walk(Visitor) {}

func (c *ContextItem) text(dst *strings.Builder) { dst.WriteByte('.') }

func (c *ContextItem) deps() Deps { return DepContextItem }

func (c *ContextItem) staticType() seqtype.SequenceType {
	if c.typ.Item == nil {
		return seqtype.SequenceType{Item: seqtype.AnyItem{}, Card: seqtype.ExactlyOne}
	}
	return c.typ
}

func (c *ContextItem) typeCheck(env *StaticEnv) (Node, error) {
	ct := env.contextType()
	if ct.Card == seqtype.Empty {
		return nil, errStatic(ErrAbsentFocus, c, "the context item is absent here")
	}
	c.typ = seqtype.Single(ct.Item)
	return c, nil
}

func (c *ContextItem) iterate(ctx *Context) (om.Iterator, error) {
	it, err := ctx.item()
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	return seq.One(it), nil
}

// Root is the expression "/": the root node of the tree
// containing the context node.
type Root struct {
	Loc Location
}

func (r *Root) Equals(x Node) bool {
	_, ok := x.(*Root)
	return ok
}

func (r *Root) walk(Visitor) {}

func (r *Root) text(dst *strings.Builder) { dst.WriteByte('/') }

func (r *Root) deps() Deps { return DepContextItem }

func (r *Root) staticType() seqtype.SequenceType {
	return seqtype.Single(seqtype.NodeKind(om.DocumentNode))
}

func (r *Root) special() Special {
	return DocOrdered | Peer | NoDups
}

func (r *Root) typeCheck(env *StaticEnv) (Node, error) {
	ct := env.contextType()
	if ct.Card == seqtype.Empty {
		return nil, errStatic(ErrAbsentFocus, r, "the context item is absent here")
	}
	if seqtype.Relationship(ct.Item, seqtype.AnyNode()) == seqtype.Disjoint {
		return nil, errStatic(ErrType, r, "cannot select the root of a %s", ct.Item)
	}
	return r, nil
}

func (r *Root) iterate(ctx *Context) (om.Iterator, error) {
	it, err := ctx.item()
	if err != nil {
		return nil, atLoc(err, r.Loc)
	}
	node, ok := it.(om.Node)
	if !ok {
		return nil, atLoc(errDynamic(ErrType, "cannot select the root of an atomic value"), r.Loc)
	}
	anc := node.IterateAxis(om.AxisAncestorOrSelf, om.KindTest{K: om.AnyKind})
	var root om.Node
	for {
		nx, err := anc.Next()
		if err != nil {
			return nil, atLoc(err, r.Loc)
		}
		if nx == nil {
			break
		}
		root = nx.(om.Node)
	}
	if root == nil {
		root = node
	}
	return seq.One(root), nil
}

// Binding is a variable's storage slot plus its declared
// type. Bindings are owned by their declaring construct
// (Let, Quantified); variable references hold non-owning
// links resolved by ResolveBindings.
type Binding struct {
	// Name is the variable name.
	Name string
	// Declared is the required type of bound values;
	// a nil Item means no declared type.
	Declared seqtype.SequenceType
	// Slot is the local frame index, assigned during
	// binding resolution; -1 means unresolved.
	Slot int

	// inferred is the static type of the bound
	// expression, filled in during typeCheck.
	inferred seqtype.SequenceType
	// indexed marks the binding as a candidate for
	// indexed lookup; the marking must survive inlining.
	indexed bool
}

func (b *Binding) valueType() seqtype.SequenceType {
	if b.inferred.Item != nil {
		return b.inferred
	}
	if b.Declared.Item != nil {
		return b.Declared
	}
	return seqtype.AnySequence()
}

// VarRef is a reference to a variable binding.
type VarRef struct {
	Name string
	// Binding is the resolved declaration; nil until
	// ResolveBindings has run.
	Binding *Binding
	// Indexed marks this reference as the base of an
	// indexed filter; it must survive substitution.
	Indexed bool
	Loc     Location
}

// Var returns an unresolved reference to name.
func Var(name string) *VarRef { return &VarRef{Name: name} }

func (v *VarRef) Equals(x Node) bool {
	xv, ok := x.(*VarRef)
	return ok && xv.Name == v.Name
}

func (v *VarRef) walk(Visitor) {}

func (v *VarRef) text(dst *strings.Builder) {
	dst.WriteByte('$')
	dst.WriteString(v.Name)
}

func (v *VarRef) deps() Deps { return DepLocalVars }

func (v *VarRef) staticType() seqtype.SequenceType {
	if v.Binding == nil {
		return seqtype.AnySequence()
	}
	return v.Binding.valueType()
}

func (v *VarRef) iterate(ctx *Context) (om.Iterator, error) {
	if v.Binding == nil || v.Binding.Slot < 0 {
		return nil, atLoc(errDynamic(ErrUnresolvedVar, "variable $%s has no binding", v.Name), v.Loc)
	}
	s := ctx.slot(v.Binding.Slot)
	if s == nil {
		return nil, atLoc(errDynamic(ErrUnresolvedVar, "variable $%s: no slot %d in frame", v.Name, v.Binding.Slot), v.Loc)
	}
	items, err := s.value()
	if err != nil {
		return nil, atLoc(err, v.Loc)
	}
	return seq.Of(items...), nil
}
