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
	"sort"
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// Path is the composition "Start/Step": Step is
// re-evaluated with its focus set to each item produced
// by Start, and the results are concatenated
// start-item-major. Raw iteration order is therefore
// generally not document order; typeCheck wraps the
// path in a DocSort, which optimize removes again when
// the static order analysis proves it redundant.
type Path struct {
	Start, Step Node
	Loc         Location
}

// Slash composes start with step.
func Slash(start, step Node) *Path {
	return &Path{Start: start, Step: step}
}

func (p *Path) Equals(x Node) bool {
	xp, ok := x.(*Path)
	return ok && p.Start.Equals(xp.Start) && p.Step.Equals(xp.Step)
}

func (p *Path) walk(v Visitor) {
	Walk(v, p.Start)
	Walk(v, p.Step)
}

func (p *Path) rewrite(r Rewriter) Node {
	p.Start = Rewrite(r, p.Start)
	p.Step = Rewrite(r, p.Step)
	return p
}

func (p *Path) text(dst *strings.Builder) {
	p.Start.text(dst)
	dst.WriteByte('/')
	p.Step.text(dst)
}

// deps absorbs the step's focus dependencies: the path
// establishes the step's focus itself, so only the
// start's focus needs still show through.
func (p *Path) deps() Deps {
	return Depends(p.Start) | Depends(p.Step)&^DepFocus
}

func (p *Path) staticType() seqtype.SequenceType {
	return seqtype.SequenceType{
		Item: TypeOf(p.Step).Item,
		Card: Card(p.Start).Mul(Card(p.Step)),
	}
}

func (p *Path) special() Special {
	if docSortNeeded(p.Start, p.Step) {
		return 0
	}
	out := DocOrdered | NoDups
	both := SpecialOf(p.Start) & SpecialOf(p.Step)
	out |= both & (Peer | Subtree)
	return out
}

func (p *Path) simplify(env *StaticEnv) Node {
	if s, ok := p.Step.(*AxisStep); ok && s.selfAny() {
		return p.Start
	}
	if s, ok := p.Start.(*AxisStep); ok && s.selfAny() {
		return p.Step
	}
	if l, ok := IsLiteral(p.Start); ok && len(l.Items) == 0 {
		return EmptyLit()
	}
	return p
}

func (p *Path) typeCheck(env *StaticEnv) (Node, error) {
	start, err := typeCheck(p.Start, env)
	if err != nil {
		return nil, err
	}
	p.Start = start
	st := TypeOf(p.Start)
	if st.Card == seqtype.Empty {
		return EmptyLit(), nil
	}
	if seqtype.Relationship(st.Item, seqtype.AnyNode()) == seqtype.Disjoint {
		return nil, errStatic(ErrType, p, "path step applied to %s", st.Item)
	}
	step, err := typeCheck(p.Step, env.withContext(seqtype.Single(st.Item)))
	if err != nil {
		return nil, err
	}
	p.Step = step
	if _, atomic := TypeOf(p.Step).Item.(seqtype.Atomic); atomic {
		// atomic results keep start-major order
		return p, nil
	}
	return &DocSort{Inner: p, Loc: p.Loc}, nil
}

func (p *Path) optimize(env *StaticEnv) Node {
	if l, ok := IsLiteral(p.Start); ok && len(l.Items) == 0 {
		return EmptyLit()
	}
	step, lets := hoist(p.Step, env)
	p.Step = step
	return wrapLets(p, lets)
}

// promote hoists candidates from the start only; the
// step sits across this path's focus boundary, so the
// offer is withheld from it. The step's own loop
// invariants are hoisted by the offer this path creates
// for itself during optimization (see hoist).
func (p *Path) promote(offer *Offer) Node {
	if n := offer.accept(p); n != nil {
		return n
	}
	p.Start = promote(p.Start, offer)
	return p
}

func (p *Path) iterate(ctx *Context) (om.Iterator, error) {
	base, err := p.Start.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, p.Loc)
	}
	if Depends(p.Step)&DepLast != 0 {
		// last() in the step needs the start count up front
		items, err := seq.Expand(base)
		if err != nil {
			return nil, atLoc(err, p.Loc)
		}
		base = seq.Of(items...)
	}
	focus := seq.NewFocus(base)
	sub := ctx.subFocus(focus)
	out := seq.Map(focus, func(om.Item) (om.Iterator, error) {
		return p.Step.iterate(sub)
	})
	return tagged(out, p.Loc), nil
}

// DocSort materializes a node sequence, sorts it into
// document order, and removes duplicate nodes.
type DocSort struct {
	Inner Node
	Loc   Location
}

func (d *DocSort) Equals(x Node) bool {
	xd, ok := x.(*DocSort)
	return ok && d.Inner.Equals(xd.Inner)
}

func (d *DocSort) walk(v Visitor) { Walk(v, d.Inner) }

func (d *DocSort) rewrite(r Rewriter) Node {
	d.Inner = Rewrite(r, d.Inner)
	return d
}

func (d *DocSort) text(dst *strings.Builder) {
	dst.WriteString("sort(")
	d.Inner.text(dst)
	dst.WriteByte(')')
}

func (d *DocSort) staticType() seqtype.SequenceType {
	return TypeOf(d.Inner)
}

func (d *DocSort) special() Special {
	out := DocOrdered | NoDups
	out |= SpecialOf(d.Inner) & (Peer | Subtree)
	return out
}

func (d *DocSort) optimize(env *StaticEnv) Node {
	const sorted = DocOrdered | NoDups
	if SpecialOf(d.Inner)&sorted == sorted {
		return d.Inner
	}
	if l, ok := IsLiteral(d.Inner); ok && len(l.Items) == 0 {
		return EmptyLit()
	}
	return d
}

func (d *DocSort) promote(offer *Offer) Node {
	if n := offer.accept(d); n != nil {
		return n
	}
	d.Inner = promote(d.Inner, offer)
	return d
}

func (d *DocSort) iterate(ctx *Context) (om.Iterator, error) {
	inner, err := d.Inner.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, d.Loc)
	}
	items, err := seq.Expand(inner)
	if err != nil {
		return nil, atLoc(err, d.Loc)
	}
	nodes := make([]om.Node, 0, len(items))
	for _, it := range items {
		n, ok := it.(om.Node)
		if !ok {
			return nil, atLoc(errDynamic(ErrType,
				"cannot sort a sequence containing an atomic value"), d.Loc)
		}
		nodes = append(nodes, n)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order(nodes[j]) < 0
	})
	out := make([]om.Item, 0, len(nodes))
	for i, n := range nodes {
		if i > 0 && nodes[i-1].Order(n) == 0 {
			continue
		}
		out = append(out, n)
	}
	return seq.Of(out...), nil
}
