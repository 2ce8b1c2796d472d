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
	"github.com/pathlang/pathlang/seqtype"
)

// Let binds one evaluation of Init to a variable visible
// in Body. The binding is demand-memoized at run time:
// Init is evaluated at the first reference and the value
// is retained for every later reference within the same
// frame.
//
// The optimizer decides the binding's fate statically:
// a binding with exactly one non-looping reference is
// inlined away, an unreferenced binding is dropped (its
// initializer kept behind a Lazy guard when it could
// raise a dynamic error), everything else stays
// memoized.
type Let struct {
	Binding *Binding
	Init    Node
	Body    Node
	Loc     Location
}

// LetIn binds name to init within body.
func LetIn(name string, init, body Node) *Let {
	return &Let{Binding: &Binding{Name: name, Slot: -1}, Init: init, Body: body}
}

func (l *Let) Equals(x Node) bool {
	xl, ok := x.(*Let)
	return ok && l.Binding.Name == xl.Binding.Name &&
		l.Init.Equals(xl.Init) && l.Body.Equals(xl.Body)
}

func (l *Let) walk(v Visitor) {
	Walk(v, l.Init)
	Walk(v, l.Body)
}

func (l *Let) rewrite(r Rewriter) Node {
	l.Init = Rewrite(r, l.Init)
	l.Body = Rewrite(r, l.Body)
	return l
}

func (l *Let) text(dst *strings.Builder) {
	dst.WriteString("let $")
	dst.WriteString(l.Binding.Name)
	dst.WriteString(" := ")
	l.Init.text(dst)
	dst.WriteString(" return ")
	l.Body.text(dst)
}

func (l *Let) staticType() seqtype.SequenceType { return TypeOf(l.Body) }

func (l *Let) special() Special { return SpecialOf(l.Body) }

func (l *Let) typeCheck(env *StaticEnv) (Node, error) {
	init, err := typeCheck(l.Init, env)
	if err != nil {
		return nil, err
	}
	if l.Binding.Declared.Item != nil {
		init, err = applyChecks(init, l.Binding.Declared, "value of $"+l.Binding.Name)
		if err != nil {
			return nil, err
		}
	}
	l.Init = init
	l.Binding.inferred = TypeOf(l.Init)
	body, err := typeCheck(l.Body, env)
	if err != nil {
		return nil, err
	}
	l.Body = body
	return l, nil
}

func (l *Let) optimize(env *StaticEnv) Node {
	n, looping := countRefs(l.Body, l.Binding, false)
	switch {
	case n == 0:
		if provablyErrorFree(l.Init) {
			return l.Body
		}
		if _, ok := l.Init.(*Lazy); !ok {
			l.Init = &Lazy{Inner: l.Init}
		}
		return l
	case n == 1 && !looping:
		return inline(l.Body, l.Binding, l.Init)
	}
	return l
}

func (l *Let) promote(offer *Offer) Node {
	if n := offer.accept(l); n != nil {
		return n
	}
	l.Init = promote(l.Init, offer)
	// candidates inside the body must not be hoisted
	// past this binder if they use the variable
	offer.pushBinding(l.Binding)
	l.Body = promote(l.Body, offer)
	offer.popBinding()
	return l
}

func (l *Let) iterate(ctx *Context) (om.Iterator, error) {
	s := ctx.slot(l.Binding.Slot)
	if s == nil {
		return nil, atLoc(errDynamic(ErrUnresolvedVar,
			"let $%s: no slot in frame", l.Binding.Name), l.Loc)
	}
	init := l.Init
	*s = slot{eval: func() ([]om.Item, error) {
		return evalSeq(init, ctx)
	}}
	return l.Body.iterate(ctx)
}

// countRefs counts references to b within n. looping is
// true when any reference sits in a position that is
// re-evaluated per item (a path step, a filter
// predicate, or a quantifier body).
func countRefs(n Node, b *Binding, inLoop bool) (count int, looping bool) {
	switch x := n.(type) {
	case *VarRef:
		if x.Binding == b {
			return 1, inLoop
		}
		return 0, false
	case *Path:
		return countRefs2(x.Start, x.Step, b, inLoop)
	case *Filter:
		return countRefs2(x.Base, x.Predicate, b, inLoop)
	case *Quantified:
		c1, l1 := countRefs(x.Source, b, inLoop)
		c2, l2 := countRefs(x.Body, b, true)
		return c1 + c2, l1 || l2
	}
	for _, c := range children(n) {
		cc, cl := countRefs(c, b, inLoop)
		count += cc
		looping = looping || cl
	}
	return count, looping
}

func countRefs2(plain, looped Node, b *Binding, inLoop bool) (int, bool) {
	c1, l1 := countRefs(plain, b, inLoop)
	c2, l2 := countRefs(looped, b, true)
	return c1 + c2, l1 || l2
}

// provablyErrorFree reports whether evaluating n can
// never raise a dynamic error, so that an unreferenced
// binding of n may be elided without a Lazy guard.
func provablyErrorFree(n Node) bool {
	switch n.(type) {
	case *Literal, *Lazy:
		return true
	case *VarRef:
		return true
	}
	return false
}

// inline substitutes init for the single reference to b
// within body, through an InlineVariable offer. The
// substituted tree is cloned, never aliased, and an
// indexed marking on the reference is transferred onto
// the substitute.
func inline(body Node, b *Binding, init Node) Node {
	return promote(body, &Offer{Kind: InlineVariable, Target: b, With: init})
}

// Lazy defers evaluation of its operand until the
// result is actually demanded, so that a dynamic error
// in a provably-unused position is never raised.
type Lazy struct {
	Inner Node
}

func (l *Lazy) Equals(x Node) bool {
	xl, ok := x.(*Lazy)
	return ok && l.Inner.Equals(xl.Inner)
}

func (l *Lazy) walk(v Visitor) { Walk(v, l.Inner) }

func (l *Lazy) rewrite(r Rewriter) Node {
	l.Inner = Rewrite(r, l.Inner)
	return l
}

func (l *Lazy) text(dst *strings.Builder) {
	dst.WriteString("lazy(")
	l.Inner.text(dst)
	dst.WriteByte(')')
}

func (l *Lazy) staticType() seqtype.SequenceType { return TypeOf(l.Inner) }

func (l *Lazy) special() Special { return SpecialOf(l.Inner) }

func (l *Lazy) deps() Deps { return Depends(l.Inner) }

func (l *Lazy) simplify(env *StaticEnv) Node {
	if lit, ok := IsLiteral(l.Inner); ok {
		return lit
	}
	return l
}

func (l *Lazy) promote(offer *Offer) Node {
	if n := offer.accept(l); n != nil {
		return n
	}
	l.Inner = promote(l.Inner, offer)
	return l
}

func (l *Lazy) iterate(ctx *Context) (om.Iterator, error) {
	return &lazyIter{n: l.Inner, ctx: ctx}, nil
}

type lazyIter struct {
	n    Node
	ctx  *Context
	base om.Iterator
}

func (li *lazyIter) Next() (om.Item, error) {
	if li.base == nil {
		base, err := li.n.iterate(li.ctx)
		if err != nil {
			return nil, err
		}
		li.base = base
	}
	return li.base.Next()
}
