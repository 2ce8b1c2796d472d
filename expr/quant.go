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

// Quantified is "some $v in Source satisfies Body" or,
// with Every set, "every $v in Source satisfies Body".
// Iteration stops as soon as the outcome is determined.
type Quantified struct {
	Every   bool
	Binding *Binding
	Source  Node
	Body    Node
	Loc     Location
}

// Some quantifies body existentially over source.
func Some(name string, source, body Node) *Quantified {
	return &Quantified{Binding: &Binding{Name: name, Slot: -1}, Source: source, Body: body}
}

// Every quantifies body universally over source.
func Every(name string, source, body Node) *Quantified {
	q := Some(name, source, body)
	q.Every = true
	return q
}

func (q *Quantified) Equals(x Node) bool {
	xq, ok := x.(*Quantified)
	return ok && q.Every == xq.Every && q.Binding.Name == xq.Binding.Name &&
		q.Source.Equals(xq.Source) && q.Body.Equals(xq.Body)
}

func (q *Quantified) walk(v Visitor) {
	Walk(v, q.Source)
	Walk(v, q.Body)
}

func (q *Quantified) rewrite(r Rewriter) Node {
	q.Source = Rewrite(r, q.Source)
	q.Body = Rewrite(r, q.Body)
	return q
}

func (q *Quantified) text(dst *strings.Builder) {
	if q.Every {
		dst.WriteString("every $")
	} else {
		dst.WriteString("some $")
	}
	dst.WriteString(q.Binding.Name)
	dst.WriteString(" in ")
	q.Source.text(dst)
	dst.WriteString(" satisfies ")
	q.Body.text(dst)
}

func (q *Quantified) staticType() seqtype.SequenceType {
	return seqtype.Single(seqtype.Atomic{T: om.BoolType})
}

func (q *Quantified) simplify(env *StaticEnv) Node {
	if l, ok := IsLiteral(q.Source); ok && len(l.Items) == 0 {
		// vacuous truth for every, falsity for some
		return BoolLit(q.Every)
	}
	return q
}

func (q *Quantified) typeCheck(env *StaticEnv) (Node, error) {
	src, err := typeCheck(q.Source, env)
	if err != nil {
		return nil, err
	}
	if q.Binding.Declared.Item != nil {
		src, err = applyChecks(src, seqtype.SequenceType{
			Item: q.Binding.Declared.Item,
			Card: seqtype.ZeroOrMore,
		}, "value of $"+q.Binding.Name)
		if err != nil {
			return nil, err
		}
	}
	q.Source = src
	q.Binding.inferred = seqtype.Single(TypeOf(q.Source).Item)
	body, err := typeCheck(q.Body, env)
	if err != nil {
		return nil, err
	}
	q.Body = body
	return q, nil
}

// optimize hoists subexpressions of the body that depend
// neither on the loop variable nor on the focus into
// bindings evaluated once, outside the loop.
func (q *Quantified) optimize(env *StaticEnv) Node {
	body, lets := hoist(q.Body, env, q.Binding)
	q.Body = body
	return wrapLets(q, lets)
}

func (q *Quantified) promote(offer *Offer) Node {
	if n := offer.accept(q); n != nil {
		return n
	}
	q.Source = promote(q.Source, offer)
	offer.pushBinding(q.Binding)
	q.Body = promote(q.Body, offer)
	offer.popBinding()
	return q
}

func (q *Quantified) iterate(ctx *Context) (om.Iterator, error) {
	s := ctx.slot(q.Binding.Slot)
	if s == nil {
		return nil, atLoc(errDynamic(ErrUnresolvedVar,
			"quantifier $%s: no slot in frame", q.Binding.Name), q.Loc)
	}
	src, err := q.Source.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, q.Loc)
	}
	for {
		it, err := src.Next()
		if err != nil {
			return nil, atLoc(err, q.Loc)
		}
		if it == nil {
			break
		}
		*s = slot{items: []om.Item{it}, filled: true}
		ok, err := ebvOf(q.Body, ctx)
		if err != nil {
			return nil, atLoc(err, q.Loc)
		}
		if ok != q.Every {
			// short circuit: a witness for some,
			// a counterexample for every
			return seq.One(om.Bool(!q.Every)), nil
		}
	}
	return seq.One(om.Bool(q.Every)), nil
}
