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

// CardinalityCheck enforces an occurrence range at run
// time. typeCheck inserts one only where the statically
// inferred cardinality cannot prove the requirement;
// optimize removes it again when later rewrites tighten
// the inner type enough.
type CardinalityCheck struct {
	Inner Node
	Card  seqtype.Cardinality
	Role  string
	Loc   Location
}

func (c *CardinalityCheck) Equals(x Node) bool {
	xc, ok := x.(*CardinalityCheck)
	return ok && c.Card == xc.Card && c.Role == xc.Role && c.Inner.Equals(xc.Inner)
}

func (c *CardinalityCheck) walk(v Visitor) { Walk(v, c.Inner) }

func (c *CardinalityCheck) rewrite(r Rewriter) Node {
	c.Inner = Rewrite(r, c.Inner)
	return c
}

func (c *CardinalityCheck) text(dst *strings.Builder) {
	dst.WriteString("check[")
	dst.WriteString(c.Card.String())
	dst.WriteString("](")
	c.Inner.text(dst)
	dst.WriteByte(')')
}

func (c *CardinalityCheck) staticType() seqtype.SequenceType {
	inner := TypeOf(c.Inner)
	return seqtype.SequenceType{
		Item: inner.Item,
		// on success the result satisfies both
		Card: inner.Card & c.Card,
	}
}

func (c *CardinalityCheck) special() Special {
	return SpecialOf(c.Inner)
}

func (c *CardinalityCheck) role() string {
	if c.Role == "" {
		return "expression"
	}
	return c.Role
}

func (c *CardinalityCheck) optimize(env *StaticEnv) Node {
	if c.Card.Subsumes(Card(c.Inner)) {
		return c.Inner
	}
	return c
}

func (c *CardinalityCheck) promote(offer *Offer) Node {
	if n := offer.accept(c); n != nil {
		return n
	}
	c.Inner = promote(c.Inner, offer)
	return c
}

func (c *CardinalityCheck) iterate(ctx *Context) (om.Iterator, error) {
	inner, err := c.Inner.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	return tagged(seq.Checked(inner, c.Card, c.role()), c.Loc), nil
}

// ItemCheck verifies at run time that every item of the
// operand matches a required item type.
type ItemCheck struct {
	Inner Node
	Type  seqtype.ItemType
	Role  string
	Loc   Location
}

func (c *ItemCheck) Equals(x Node) bool {
	xc, ok := x.(*ItemCheck)
	return ok && c.Role == xc.Role &&
		seqtype.Relationship(c.Type, xc.Type) == seqtype.Same &&
		c.Inner.Equals(xc.Inner)
}

func (c *ItemCheck) walk(v Visitor) { Walk(v, c.Inner) }

func (c *ItemCheck) rewrite(r Rewriter) Node {
	c.Inner = Rewrite(r, c.Inner)
	return c
}

func (c *ItemCheck) text(dst *strings.Builder) {
	dst.WriteString("treat[")
	dst.WriteString(c.Type.String())
	dst.WriteString("](")
	c.Inner.text(dst)
	dst.WriteByte(')')
}

func (c *ItemCheck) staticType() seqtype.SequenceType {
	return seqtype.SequenceType{
		Item: c.Type,
		Card: Card(c.Inner),
	}
}

func (c *ItemCheck) special() Special {
	return SpecialOf(c.Inner)
}

func (c *ItemCheck) role() string {
	if c.Role == "" {
		return "expression"
	}
	return c.Role
}

func (c *ItemCheck) optimize(env *StaticEnv) Node {
	switch seqtype.Relationship(c.Type, TypeOf(c.Inner).Item) {
	case seqtype.Same, seqtype.Subsumes:
		return c.Inner
	}
	return c
}

func (c *ItemCheck) promote(offer *Offer) Node {
	if n := offer.accept(c); n != nil {
		return n
	}
	c.Inner = promote(c.Inner, offer)
	return c
}

func (c *ItemCheck) iterate(ctx *Context) (om.Iterator, error) {
	inner, err := c.Inner.iterate(ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	out := seq.Map(inner, func(it om.Item) (om.Iterator, error) {
		if !c.Type.Matches(it) {
			return nil, errDynamic(ErrType,
				"%s: %s does not match required type %s", c.role(), it, c.Type)
		}
		return seq.One(it), nil
	})
	return tagged(out, c.Loc), nil
}
