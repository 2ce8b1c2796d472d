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
	"strconv"
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// Filter is the expression "Base[Predicate]". The
// predicate is evaluated with its focus positioned at
// each base item in turn; a numeric predicate value
// selects by position, anything else by effective
// boolean value.
type Filter struct {
	Base, Predicate Node
	Loc             Location
}

// Where filters base by pred.
func Where(base, pred Node) *Filter {
	return &Filter{Base: base, Predicate: pred}
}

func (f *Filter) Equals(x Node) bool {
	xf, ok := x.(*Filter)
	return ok && f.Base.Equals(xf.Base) && f.Predicate.Equals(xf.Predicate)
}

func (f *Filter) walk(v Visitor) {
	Walk(v, f.Base)
	Walk(v, f.Predicate)
}

func (f *Filter) rewrite(r Rewriter) Node {
	f.Base = Rewrite(r, f.Base)
	f.Predicate = Rewrite(r, f.Predicate)
	return f
}

func (f *Filter) text(dst *strings.Builder) {
	f.Base.text(dst)
	dst.WriteByte('[')
	f.Predicate.text(dst)
	dst.WriteByte(']')
}

func (f *Filter) deps() Deps {
	return Depends(f.Base) | Depends(f.Predicate)&^DepFocus
}

func (f *Filter) staticType() seqtype.SequenceType {
	base := TypeOf(f.Base)
	return seqtype.SequenceType{
		Item: base.Item,
		Card: base.Card | seqtype.CardZero,
	}
}

func (f *Filter) special() Special {
	return SpecialOf(f.Base)
}

func (f *Filter) simplify(env *StaticEnv) Node {
	if l, ok := IsLiteral(f.Predicate); ok && len(l.Items) == 1 {
		if b, ok := l.Items[0].(om.Bool); ok {
			if b {
				return f.Base
			}
			return EmptyLit()
		}
	}
	if l, ok := IsLiteral(f.Predicate); ok && len(l.Items) == 0 {
		return EmptyLit()
	}
	if l, ok := IsLiteral(f.Base); ok && len(l.Items) == 0 {
		return EmptyLit()
	}
	return f
}

func (f *Filter) typeCheck(env *StaticEnv) (Node, error) {
	base, err := typeCheck(f.Base, env)
	if err != nil {
		return nil, err
	}
	f.Base = base
	bt := TypeOf(f.Base)
	if bt.Card == seqtype.Empty {
		return EmptyLit(), nil
	}
	pred, err := typeCheck(f.Predicate, env.withContext(seqtype.Single(bt.Item)))
	if err != nil {
		return nil, err
	}
	f.Predicate = pred
	return f, nil
}

func (f *Filter) optimize(env *StaticEnv) Node {
	// a constant numeric predicate is a subscript
	if l, ok := IsLiteral(f.Predicate); ok && len(l.Items) == 1 {
		if n, ok := asNumber(l.Items[0]); ok {
			if n != float64(int(n)) || n < 1 {
				return EmptyLit()
			}
			return &Subscript{Base: f.Base, Index: int(n), Loc: f.Loc}
		}
	}
	// positional comparisons over position()
	if n, op := positionCompare(f.Predicate); op != 0 {
		switch op {
		case '=':
			return &Subscript{Base: f.Base, Index: n, Loc: f.Loc}
		case '>':
			return &Tail{Base: f.Base, Start: n + 1, Loc: f.Loc}
		}
	}
	// a filtered variable reference is a candidate for
	// indexed lookup downstream
	if v, ok := f.Base.(*VarRef); ok {
		v.Indexed = true
		if v.Binding != nil {
			v.Binding.indexed = true
		}
	}
	pred, lets := hoist(f.Predicate, env)
	f.Predicate = pred
	return wrapLets(f, lets)
}

// positionCompare recognizes predicates of the form
// position() = N and position() > N over an integer
// literal, returning the position bound and comparison,
// or op 0 when the predicate has another shape.
func positionCompare(pred Node) (n int, op byte) {
	var cmp CmpOp
	var left, right Node
	switch c := pred.(type) {
	case *ValueCompare:
		cmp, left, right = c.Op, c.Left, c.Right
	case *SingletonCompare:
		cmp, left, right = c.Op, c.Left, c.Right
	default:
		return 0, 0
	}
	call, ok := left.(*Call)
	if !ok || call.Op != FnPosition {
		return 0, 0
	}
	lit, ok := IsLiteral(right)
	if !ok || len(lit.Items) != 1 {
		return 0, 0
	}
	i, ok := lit.Items[0].(om.Int)
	if !ok || i < 1 {
		return 0, 0
	}
	switch cmp {
	case CmpEQ:
		return int(i), '='
	case CmpGT:
		return int(i), '>'
	}
	return 0, 0
}

func (f *Filter) promote(offer *Offer) Node {
	if n := offer.accept(f); n != nil {
		return n
	}
	f.Base = promote(f.Base, offer)
	return f
}

func (f *Filter) iterate(ctx *Context) (om.Iterator, error) {
	base, err := f.Base.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, f.Loc)
	}
	if Depends(f.Predicate)&DepLast != 0 {
		items, err := seq.Expand(base)
		if err != nil {
			return nil, atLoc(err, f.Loc)
		}
		base = seq.Of(items...)
	}
	focus := seq.NewFocus(base)
	sub := ctx.subFocus(focus)
	return tagged(&filterIter{f: f, focus: focus, ctx: sub}, f.Loc), nil
}

type filterIter struct {
	f     *Filter
	focus *seq.Focus
	ctx   *Context
}

func (fi *filterIter) Next() (om.Item, error) {
	for {
		it, err := fi.focus.Next()
		if err != nil || it == nil {
			return nil, err
		}
		keep, err := fi.matches()
		if err != nil {
			return nil, err
		}
		if keep {
			return it, nil
		}
	}
}

func (fi *filterIter) matches() (bool, error) {
	it, err := fi.f.Predicate.iterate(fi.ctx)
	if err != nil {
		return false, err
	}
	first, err := it.Next()
	if err != nil {
		return false, err
	}
	if first == nil {
		return false, nil
	}
	if n, isNum := asNumber(first); isNum {
		second, err := it.Next()
		if err != nil {
			return false, err
		}
		if second == nil {
			return float64(fi.focus.Position()) == n, nil
		}
	}
	// non-numeric or non-singleton: effective boolean value
	return ebv(&prepend{first: first, rest: it})
}

// prepend re-attaches an item consumed by lookahead.
type prepend struct {
	first om.Item
	rest  om.Iterator
}

func (p *prepend) Next() (om.Item, error) {
	if p.first != nil {
		it := p.first
		p.first = nil
		return it, nil
	}
	return p.rest.Next()
}

// Subscript selects the item at a fixed 1-based
// position; it is the optimized form of a positional
// filter with a constant position.
type Subscript struct {
	Base  Node
	Index int
	Loc   Location
}

func (s *Subscript) Equals(x Node) bool {
	xs, ok := x.(*Subscript)
	return ok && s.Index == xs.Index && s.Base.Equals(xs.Base)
}

func (s *Subscript) walk(v Visitor) { Walk(v, s.Base) }

func (s *Subscript) rewrite(r Rewriter) Node {
	s.Base = Rewrite(r, s.Base)
	return s
}

func (s *Subscript) text(dst *strings.Builder) {
	s.Base.text(dst)
	dst.WriteByte('[')
	dst.WriteString(strconv.Itoa(s.Index))
	dst.WriteByte(']')
}

func (s *Subscript) staticType() seqtype.SequenceType {
	return seqtype.SequenceType{
		Item: TypeOf(s.Base).Item,
		Card: seqtype.ZeroOrOne,
	}
}

func (s *Subscript) special() Special {
	return SpecialOf(s.Base) | DocOrdered | NoDups | Peer
}

func (s *Subscript) promote(offer *Offer) Node {
	if n := offer.accept(s); n != nil {
		return n
	}
	s.Base = promote(s.Base, offer)
	return s
}

func (s *Subscript) iterate(ctx *Context) (om.Iterator, error) {
	base, err := s.Base.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, s.Loc)
	}
	return tagged(seq.Range(base, s.Index, s.Index), s.Loc), nil
}

// Tail skips a fixed prefix of its base sequence,
// delivering the items from 1-based position Start on.
// Over a grounded base this is a zero-copy view.
type Tail struct {
	Base  Node
	Start int
	Loc   Location
}

func (t *Tail) Equals(x Node) bool {
	xt, ok := x.(*Tail)
	return ok && t.Start == xt.Start && t.Base.Equals(xt.Base)
}

func (t *Tail) walk(v Visitor) { Walk(v, t.Base) }

func (t *Tail) rewrite(r Rewriter) Node {
	t.Base = Rewrite(r, t.Base)
	return t
}

func (t *Tail) text(dst *strings.Builder) {
	dst.WriteString("tail(")
	t.Base.text(dst)
	dst.WriteString(", ")
	dst.WriteString(strconv.Itoa(t.Start))
	dst.WriteByte(')')
}

func (t *Tail) staticType() seqtype.SequenceType {
	base := TypeOf(t.Base)
	return seqtype.SequenceType{
		Item: base.Item,
		Card: base.Card | seqtype.CardZero,
	}
}

func (t *Tail) special() Special {
	return SpecialOf(t.Base)
}

func (t *Tail) simplify(env *StaticEnv) Node {
	if t.Start <= 1 {
		return t.Base
	}
	return t
}

func (t *Tail) promote(offer *Offer) Node {
	if n := offer.accept(t); n != nil {
		return n
	}
	t.Base = promote(t.Base, offer)
	return t
}

func (t *Tail) iterate(ctx *Context) (om.Iterator, error) {
	base, err := t.Base.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, t.Loc)
	}
	return tagged(seq.Tail(base, t.Start), t.Loc), nil
}
