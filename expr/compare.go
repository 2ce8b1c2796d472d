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
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// CmpOp is a value-comparison operator.
type CmpOp int

const (
	CmpEQ CmpOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

func (o CmpOp) String() string {
	switch o {
	case CmpEQ:
		return "eq"
	case CmpNE:
		return "ne"
	case CmpLT:
		return "lt"
	case CmpLE:
		return "le"
	case CmpGT:
		return "gt"
	default:
		return "ge"
	}
}

// result applies the operator to a three-way comparison
// outcome.
func (o CmpOp) result(c int) bool {
	switch o {
	case CmpEQ:
		return c == 0
	case CmpNE:
		return c != 0
	case CmpLT:
		return c < 0
	case CmpLE:
		return c <= 0
	case CmpGT:
		return c > 0
	default:
		return c >= 0
	}
}

// ValueCompare compares two atomized singleton operands.
// If either operand is the empty sequence the result is
// the empty sequence. NaN operands yield false for every
// operator except ne, which yields true; they never
// raise an error.
type ValueCompare struct {
	Op          CmpOp
	Left, Right Node
	Loc         Location
}

// Compare builds a value comparison.
func Compare(op CmpOp, left, right Node) *ValueCompare {
	return &ValueCompare{Op: op, Left: left, Right: right}
}

func (c *ValueCompare) Equals(x Node) bool {
	xc, ok := x.(*ValueCompare)
	return ok && c.Op == xc.Op && c.Left.Equals(xc.Left) && c.Right.Equals(xc.Right)
}

func (c *ValueCompare) walk(v Visitor) {
	Walk(v, c.Left)
	Walk(v, c.Right)
}

func (c *ValueCompare) rewrite(r Rewriter) Node {
	c.Left = Rewrite(r, c.Left)
	c.Right = Rewrite(r, c.Right)
	return c
}

func (c *ValueCompare) text(dst *strings.Builder) {
	c.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(c.Op.String())
	dst.WriteByte(' ')
	c.Right.text(dst)
}

func (c *ValueCompare) staticType() seqtype.SequenceType {
	card := seqtype.ExactlyOne
	if Card(c.Left).AllowsZero() || Card(c.Right).AllowsZero() {
		card = seqtype.ZeroOrOne
	}
	return seqtype.SequenceType{
		Item: seqtype.Atomic{T: om.BoolType},
		Card: card,
	}
}

func (c *ValueCompare) simplify(env *StaticEnv) Node {
	ll, lok := IsLiteral(c.Left)
	rl, rok := IsLiteral(c.Right)
	if lok && len(ll.Items) == 0 || rok && len(rl.Items) == 0 {
		return EmptyLit()
	}
	if lok && rok && len(ll.Items) == 1 && len(rl.Items) == 1 {
		lv, lIsA := ll.Items[0].(om.AtomicValue)
		rv, rIsA := rl.Items[0].(om.AtomicValue)
		if lIsA && rIsA {
			if b, ok := compareValues(c.Op, lv, rv); ok {
				return BoolLit(b)
			}
		}
	}
	return c
}

func (c *ValueCompare) typeCheck(env *StaticEnv) (Node, error) {
	left, err := checkOperand(c.Left, env, "left operand of '"+c.Op.String()+"'")
	if err != nil {
		return nil, err
	}
	c.Left = left
	right, err := checkOperand(c.Right, env, "right operand of '"+c.Op.String()+"'")
	if err != nil {
		return nil, err
	}
	c.Right = right
	lt, lok := TypeOf(c.Left).Item.(seqtype.Atomic)
	rt, rok := TypeOf(c.Right).Item.(seqtype.Atomic)
	if lok && rok && !comparableTypes(lt.T, rt.T) {
		return nil, errStatic(ErrType, c,
			"cannot compare %s with %s", lt, rt)
	}
	return c, nil
}

// checkOperand atomizes and singleton-checks a compare
// operand, skipping the wrappers the static types make
// redundant.
func checkOperand(n Node, env *StaticEnv, role string) (Node, error) {
	n, err := typeCheck(n, env)
	if err != nil {
		return nil, err
	}
	t := TypeOf(n)
	_, atomic := t.Item.(seqtype.Atomic)
	if atomic && seqtype.ZeroOrOne.Subsumes(t.Card) {
		return n, nil
	}
	return &SingletonAtomizer{Inner: n, Role: role, AllowEmpty: true}, nil
}

// comparableTypes reports whether two static atomic
// types can ever be compared: identical, one derived
// from the other, both numeric, or either side untyped
// or unknown.
func comparableTypes(a, b om.AtomicType) bool {
	if a == om.AnyAtomicType || b == om.AnyAtomicType {
		return true
	}
	if a == om.UntypedType {
		a = om.StringType
	}
	if b == om.UntypedType {
		b = om.StringType
	}
	if a.Numeric() && b.Numeric() {
		return true
	}
	return a.Derives(b) || b.Derives(a)
}

func (c *ValueCompare) optimize(env *StaticEnv) Node {
	if n := countIdiom(c.Op, c.Left, c.Right); n != nil {
		return n
	}
	if Card(c.Left) == seqtype.ExactlyOne && Card(c.Right) == seqtype.ExactlyOne {
		return &SingletonCompare{Op: c.Op, Left: c.Left, Right: c.Right, Loc: c.Loc}
	}
	return c
}

// countIdiom collapses comparisons of count(x) against
// small constants into existence tests, which never
// materialize or count the operand.
func countIdiom(op CmpOp, left, right Node) Node {
	call, ok := left.(*Call)
	if !ok || call.Op != FnCount {
		return nil
	}
	lit, ok := IsLiteral(right)
	if !ok || len(lit.Items) != 1 {
		return nil
	}
	n, ok := lit.Items[0].(om.Int)
	if !ok {
		return nil
	}
	arg := call.Args[0]
	switch {
	case op == CmpEQ && n == 0:
		return &Call{Op: FnEmpty, Args: []Node{arg}}
	case op == CmpGT && n == 0, op == CmpNE && n == 0, op == CmpGE && n == 1:
		return &Call{Op: FnExists, Args: []Node{arg}}
	case op == CmpLE && n == 0, op == CmpLT && n == 1:
		return &Call{Op: FnEmpty, Args: []Node{arg}}
	}
	return nil
}

func (c *ValueCompare) promote(offer *Offer) Node {
	if n := offer.accept(c); n != nil {
		return n
	}
	c.Left = promote(c.Left, offer)
	c.Right = promote(c.Right, offer)
	return c
}

func (c *ValueCompare) iterate(ctx *Context) (om.Iterator, error) {
	lv, err := evalOperand(c.Left, ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	if lv == nil {
		return seq.Empty(), nil
	}
	rv, err := evalOperand(c.Right, ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	if rv == nil {
		return seq.Empty(), nil
	}
	b, ok := compareValues(c.Op, lv, rv)
	if !ok {
		return nil, atLoc(errDynamic(ErrType,
			"cannot compare %s with %s", lv, rv), c.Loc)
	}
	return seq.One(om.Bool(b)), nil
}

func evalOperand(n Node, ctx *Context) (om.AtomicValue, error) {
	src, err := n.iterate(ctx)
	if err != nil {
		return nil, err
	}
	it, err := one(src)
	if err != nil || it == nil {
		return nil, err
	}
	av, ok := it.(om.AtomicValue)
	if !ok {
		return nil, errDynamic(ErrType, "comparison operand %s is not atomic", it)
	}
	return av, nil
}

// compareValues applies op under the value-comparison
// rules. ok is false only for genuinely incomparable
// operands; NaN comparisons are always defined.
func compareValues(op CmpOp, a, b om.AtomicValue) (result, ok bool) {
	if isNaN(a) || isNaN(b) {
		return op == CmpNE, true
	}
	c, ok := om.CompareAtomic(a, b)
	if !ok {
		return false, false
	}
	return op.result(c), true
}

func isNaN(v om.AtomicValue) bool {
	f, ok := v.(om.Float)
	return ok && math.IsNaN(float64(f))
}

// SingletonCompare is a value comparison whose operands
// are statically known to produce exactly one atomic
// value each; it always yields a boolean.
type SingletonCompare struct {
	Op          CmpOp
	Left, Right Node
	Loc         Location
}

func (c *SingletonCompare) Equals(x Node) bool {
	xc, ok := x.(*SingletonCompare)
	return ok && c.Op == xc.Op && c.Left.Equals(xc.Left) && c.Right.Equals(xc.Right)
}

func (c *SingletonCompare) walk(v Visitor) {
	Walk(v, c.Left)
	Walk(v, c.Right)
}

func (c *SingletonCompare) rewrite(r Rewriter) Node {
	c.Left = Rewrite(r, c.Left)
	c.Right = Rewrite(r, c.Right)
	return c
}

func (c *SingletonCompare) text(dst *strings.Builder) {
	c.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(c.Op.String())
	dst.WriteByte(' ')
	c.Right.text(dst)
}

func (c *SingletonCompare) staticType() seqtype.SequenceType {
	return seqtype.Single(seqtype.Atomic{T: om.BoolType})
}

func (c *SingletonCompare) simplify(env *StaticEnv) Node {
	vc := ValueCompare{Op: c.Op, Left: c.Left, Right: c.Right, Loc: c.Loc}
	if n := vc.simplify(env); n != &vc {
		return n
	}
	return c
}

func (c *SingletonCompare) promote(offer *Offer) Node {
	if n := offer.accept(c); n != nil {
		return n
	}
	c.Left = promote(c.Left, offer)
	c.Right = promote(c.Right, offer)
	return c
}

func (c *SingletonCompare) iterate(ctx *Context) (om.Iterator, error) {
	lv, err := evalOperand(c.Left, ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	rv, err := evalOperand(c.Right, ctx)
	if err != nil {
		return nil, atLoc(err, c.Loc)
	}
	if lv == nil || rv == nil {
		return nil, atLoc(errDynamic(ErrType,
			"singleton comparison operand is an empty sequence"), c.Loc)
	}
	b, ok := compareValues(c.Op, lv, rv)
	if !ok {
		return nil, atLoc(errDynamic(ErrType,
			"cannot compare %s with %s", lv, rv), c.Loc)
	}
	return seq.One(om.Bool(b)), nil
}
