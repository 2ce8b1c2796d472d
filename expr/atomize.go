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
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// Atomize replaces each node in the operand sequence by
// its typed value(s); atomic values pass through
// unchanged. Atomizing an already-atomic sequence is a
// no-op.
type Atomize struct {
	Inner Node
	Loc   Location
}

// Data atomizes inner.
func Data(inner Node) *Atomize { return &Atomize{Inner: inner} }

func (a *Atomize) Equals(x Node) bool {
	xa, ok := x.(*Atomize)
	return ok && a.Inner.Equals(xa.Inner)
}

func (a *Atomize) walk(v Visitor) { Walk(v, a.Inner) }

func (a *Atomize) rewrite(r Rewriter) Node {
	a.Inner = Rewrite(r, a.Inner)
	return a
}

func (a *Atomize) text(dst *strings.Builder) {
	dst.WriteString("data(")
	a.Inner.text(dst)
	dst.WriteByte(')')
}

func (a *Atomize) staticType() seqtype.SequenceType {
	inner := TypeOf(a.Inner)
	if t, ok := inner.Item.(seqtype.Atomic); ok {
		return seqtype.SequenceType{Item: t, Card: inner.Card}
	}
	// element atomization may produce several values
	card := inner.Card
	if card != seqtype.Empty {
		card = card.Mul(seqtype.OneOrMore)
	}
	return seqtype.SequenceType{
		Item: seqtype.Atomic{T: om.AnyAtomicType},
		Card: card,
	}
}

func (a *Atomize) simplify(env *StaticEnv) Node {
	// atomization of atomic values is the identity
	if _, ok := TypeOf(a.Inner).Item.(seqtype.Atomic); ok {
		return a.Inner
	}
	if inner, ok := a.Inner.(*Atomize); ok {
		return inner.simplify(env)
	}
	return a
}

func (a *Atomize) typeCheck(env *StaticEnv) (Node, error) {
	inner, err := typeCheck(a.Inner, env)
	if err != nil {
		return nil, err
	}
	a.Inner = inner
	if _, ok := TypeOf(a.Inner).Item.(seqtype.Atomic); ok {
		return a.Inner, nil
	}
	return a, nil
}

func (a *Atomize) promote(offer *Offer) Node {
	if n := offer.accept(a); n != nil {
		return n
	}
	a.Inner = promote(a.Inner, offer)
	return a
}

func (a *Atomize) iterate(ctx *Context) (om.Iterator, error) {
	inner, err := a.Inner.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, a.Loc)
	}
	return tagged(seq.Map(inner, atomizeItem), a.Loc), nil
}

// SingletonAtomizer fuses atomization with an
// at-most-one cardinality check, so a multi-valued
// operand fails before an intermediate sequence is
// materialized. Role names the syntactic position being
// checked, and AllowEmpty permits the empty sequence.
type SingletonAtomizer struct {
	Inner      Node
	Role       string
	AllowEmpty bool
	Loc        Location
}

func (s *SingletonAtomizer) Equals(x Node) bool {
	xs, ok := x.(*SingletonAtomizer)
	return ok && s.AllowEmpty == xs.AllowEmpty && s.Role == xs.Role &&
		s.Inner.Equals(xs.Inner)
}

func (s *SingletonAtomizer) walk(v Visitor) { Walk(v, s.Inner) }

func (s *SingletonAtomizer) rewrite(r Rewriter) Node {
	s.Inner = Rewrite(r, s.Inner)
	return s
}

func (s *SingletonAtomizer) text(dst *strings.Builder) {
	dst.WriteString("data1(")
	s.Inner.text(dst)
	dst.WriteByte(')')
}

func (s *SingletonAtomizer) required() seqtype.Cardinality {
	if s.AllowEmpty {
		return seqtype.ZeroOrOne
	}
	return seqtype.ExactlyOne
}

func (s *SingletonAtomizer) staticType() seqtype.SequenceType {
	inner := TypeOf(s.Inner)
	t, ok := inner.Item.(seqtype.Atomic)
	if !ok {
		t = seqtype.Atomic{T: om.AnyAtomicType}
	}
	return seqtype.SequenceType{Item: t, Card: s.required()}
}

func (s *SingletonAtomizer) typeCheck(env *StaticEnv) (Node, error) {
	inner, err := typeCheck(s.Inner, env)
	if err != nil {
		return nil, err
	}
	s.Inner = inner
	it := TypeOf(s.Inner)
	if !s.AllowEmpty && it.Card == seqtype.Empty {
		return nil, errStatic(ErrEmptyType, s,
			"%s: required item is absent", s.role())
	}
	return s, nil
}

func (s *SingletonAtomizer) role() string {
	if s.Role == "" {
		return "expression"
	}
	return s.Role
}

func (s *SingletonAtomizer) promote(offer *Offer) Node {
	if n := offer.accept(s); n != nil {
		return n
	}
	s.Inner = promote(s.Inner, offer)
	return s
}

func (s *SingletonAtomizer) iterate(ctx *Context) (om.Iterator, error) {
	inner, err := s.Inner.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, s.Loc)
	}
	atomized := seq.Map(inner, atomizeItem)
	return tagged(seq.Checked(atomized, s.required(), s.role()), s.Loc), nil
}
