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

	"golang.org/x/exp/slices"
)

// FnOp identifies one of the built-in functions the
// optimizer understands. The full standard library is
// out of scope; these are the functions the rewrite
// rules and the runtime need.
type FnOp int

const (
	FnPosition FnOp = iota
	FnLast
	FnCount
	FnExists
	FnEmpty
	FnNot
	FnBoolean
	FnString
	FnNumber
	FnHead
	FnReverse

	maxFnOp
)

var fnNames = [maxFnOp]string{
	FnPosition: "position",
	FnLast:     "last",
	FnCount:    "count",
	FnExists:   "exists",
	FnEmpty:    "empty",
	FnNot:      "not",
	FnBoolean:  "boolean",
	FnString:   "string",
	FnNumber:   "number",
	FnHead:     "head",
	FnReverse:  "reverse",
}

func (o FnOp) String() string {
	if o < 0 || o >= maxFnOp {
		return "?"
	}
	return fnNames[o]
}

func (o FnOp) arity() int {
	switch o {
	case FnPosition, FnLast:
		return 0
	}
	return 1
}

// fnOpByName inverts fnNames; used by the decoder.
func fnOpByName(name string) (FnOp, bool) {
	i := slices.Index(fnNames[:], name)
	if i < 0 {
		return 0, false
	}
	return FnOp(i), true
}

// Call is an invocation of a built-in function.
type Call struct {
	Op   FnOp
	Args []Node
	Loc  Location
}

// Fn builds a call to op.
func Fn(op FnOp, args ...Node) *Call {
	return &Call{Op: op, Args: args}
}

func (c *Call) Equals(x Node) bool {
	xc, ok := x.(*Call)
	return ok && c.Op == xc.Op && slices.EqualFunc(c.Args, xc.Args, Equal)
}

func (c *Call) walk(v Visitor) {
	for i := range c.Args {
		Walk(v, c.Args[i])
	}
}

func (c *Call) rewrite(r Rewriter) Node {
	for i := range c.Args {
		c.Args[i] = Rewrite(r, c.Args[i])
	}
	return c
}

func (c *Call) text(dst *strings.Builder) {
	dst.WriteString(c.Op.String())
	dst.WriteByte('(')
	for i := range c.Args {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.Args[i].text(dst)
	}
	dst.WriteByte(')')
}

func (c *Call) deps() Deps {
	var out Deps
	switch c.Op {
	case FnPosition:
		out = DepPosition
	case FnLast:
		out = DepLast
	}
	for _, a := range c.Args {
		out |= Depends(a)
	}
	return out
}

func (c *Call) staticType() seqtype.SequenceType {
	switch c.Op {
	case FnPosition, FnLast, FnCount:
		return seqtype.Single(seqtype.Atomic{T: om.IntegerType})
	case FnExists, FnEmpty, FnNot, FnBoolean:
		return seqtype.Single(seqtype.Atomic{T: om.BoolType})
	case FnString:
		return seqtype.Single(seqtype.Atomic{T: om.StringType})
	case FnNumber:
		return seqtype.Single(seqtype.Atomic{T: om.DoubleType})
	case FnHead:
		arg := TypeOf(c.Args[0])
		return seqtype.SequenceType{Item: arg.Item, Card: arg.Card | seqtype.CardZero}
	case FnReverse:
		return TypeOf(c.Args[0])
	}
	return seqtype.AnySequence()
}

func (c *Call) special() Special {
	if c.Op == FnHead && len(c.Args) == 1 {
		return SpecialOf(c.Args[0]) | DocOrdered | NoDups | Peer
	}
	return 0
}

func (c *Call) simplify(env *StaticEnv) Node {
	if len(c.Args) != 1 {
		return c
	}
	l, ok := IsLiteral(c.Args[0])
	if !ok {
		return c
	}
	switch c.Op {
	case FnCount:
		return Int(int64(len(l.Items)))
	case FnExists:
		return BoolLit(len(l.Items) > 0)
	case FnEmpty:
		return BoolLit(len(l.Items) == 0)
	case FnHead:
		if len(l.Items) == 0 {
			return EmptyLit()
		}
		return &Literal{Items: l.Items[:1]}
	case FnReverse:
		if len(l.Items) < 2 {
			return c.Args[0]
		}
		out := make([]om.Item, len(l.Items))
		for i := range l.Items {
			out[len(out)-1-i] = l.Items[i]
		}
		return &Literal{Items: out}
	case FnNot, FnBoolean:
		b, err := ebv(seq.Of(l.Items...))
		if err != nil {
			return c
		}
		if c.Op == FnNot {
			b = !b
		}
		return BoolLit(b)
	}
	return c
}

func (c *Call) typeCheck(env *StaticEnv) (Node, error) {
	if len(c.Args) != c.Op.arity() {
		return nil, errStatic(ErrType, c,
			"%s expects %d argument(s), got %d", c.Op, c.Op.arity(), len(c.Args))
	}
	for i := range c.Args {
		a, err := typeCheck(c.Args[i], env)
		if err != nil {
			return nil, err
		}
		c.Args[i] = a
	}
	switch c.Op {
	case FnString, FnNumber:
		a, err := checkOperand(c.Args[0], env, "argument of "+c.Op.String()+"()")
		if err != nil {
			return nil, err
		}
		c.Args[0] = a
	}
	return c, nil
}

// optimize releases the ordering requirement on
// arguments whose value is insensitive to it.
func (c *Call) optimize(env *StaticEnv) Node {
	switch c.Op {
	case FnExists, FnEmpty:
		c.Args[0] = promote(c.Args[0], &Offer{Kind: EliminateOrder, dedupNeeded: false})
	case FnCount:
		c.Args[0] = promote(c.Args[0], &Offer{Kind: EliminateOrder, dedupNeeded: true})
	}
	return c
}

func (c *Call) promote(offer *Offer) Node {
	if n := offer.accept(c); n != nil {
		return n
	}
	for i := range c.Args {
		c.Args[i] = promote(c.Args[i], offer)
	}
	return c
}

func (c *Call) iterate(ctx *Context) (om.Iterator, error) {
	switch c.Op {
	case FnPosition:
		p, err := ctx.position()
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		return seq.One(om.Int(p)), nil
	case FnLast:
		n, err := ctx.last()
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		return seq.One(om.Int(n)), nil
	}
	arg, err := c.Args[0].iterate(ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	switch c.Op {
	case FnCount:
		n, err := seq.Count(arg)
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		return seq.One(om.Int(n)), nil
	case FnExists, FnEmpty:
		first, err := arg.Next()
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		return seq.One(om.Bool((first != nil) == (c.Op == FnExists))), nil
	case FnNot, FnBoolean:
		b, err := ebv(arg)
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		if c.Op == FnNot {
			b = !b
		}
		return seq.One(om.Bool(b)), nil
	case FnString:
		it, err := one(arg)
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		if it == nil {
			return seq.One(om.Str("")), nil
		}
		return seq.One(om.Str(stringValue(it))), nil
	case FnNumber:
		it, err := one(arg)
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		return seq.One(om.Float(numberValue(it))), nil
	case FnHead:
		first, err := arg.Next()
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		if first == nil {
			return seq.Empty(), nil
		}
		return seq.One(first), nil
	case FnReverse:
		items, err := seq.Expand(arg)
		if err != nil {
			return nil, atLoc(err, c.Loc)
		}
		out := make([]om.Item, len(items))
		for i := range items {
			out[len(out)-1-i] = items[i]
		}
		return seq.Of(out...), nil
	}
	return nil, atLoc(errDynamic(ErrType, "unknown function %s", c.Op), c.Loc)
}

func stringValue(it om.Item) string {
	if n, ok := it.(om.Node); ok {
		return n.StringValue()
	}
	return it.String()
}

func numberValue(it om.Item) float64 {
	if it == nil {
		return math.NaN()
	}
	if n, ok := asNumber(it); ok {
		return n
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(stringValue(it)), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
