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

// Package expr implements the expression tree at the
// center of the compiler: concrete path-language
// expression variants, the simplify, typeCheck,
// optimize and promote passes over them, and the lazy
// pull-based evaluation protocol they compile into.
package expr

import (
	"strings"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"

	"github.com/vmihailenco/msgpack/v5"
)

// Node is an expression tree node.
//
// A node exclusively owns its child expressions; trees
// never share mutable subtrees (inlining clones, see
// Copy). Once a tree has been handed to the runtime it
// is structurally immutable.
type Node interface {
	// Equals returns whether this node is structurally
	// equivalent to another node.
	Equals(Node) bool

	encode(dst *msgpack.Encoder) error
	walk(Visitor)
	text(dst *strings.Builder)

	// iterate begins lazy evaluation of the node
	// against the given dynamic context.
	iterate(ctx *Context) (om.Iterator, error)
}

// Equal returns whether a and b are equivalent.
// a or b may be nil.
func Equal(a, b Node) bool {
	if a == nil {
		return b == nil
	}
	return b != nil && a.Equals(b)
}

// ToString renders the expression in approximate source
// syntax for diagnostics.
func ToString(n Node) string {
	if n == nil {
		return ""
	}
	var dst strings.Builder
	n.text(&dst)
	return dst.String()
}

// Visitor is the argument to Walk.
//
// A Visitor's Visit method is invoked for each node
// encountered by Walk. If the result visitor w is not
// nil, Walk visits each of the children of the node with
// w, followed by a call of w.Visit(nil).
//
// (see also: ast.Visitor)
type Visitor interface {
	Visit(Node) Visitor
}

// Walk traverses an expression tree in depth-first order.
//
// (see also: ast.Walk)
func Walk(v Visitor, n Node) {
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

// WalkFunc adapts a function to the Visitor interface;
// traversal descends past n only when fn(n) is true.
type WalkFunc func(Node) bool

func (f WalkFunc) Visit(n Node) Visitor {
	if n == nil || !f(n) {
		return nil
	}
	return f
}

// Rewriter accepts a Node and returns a new node
// (or just its argument).
type Rewriter interface {
	// Rewrite is applied to nodes in depth-first order,
	// and each node is re-written to use the returned
	// value.
	Rewrite(Node) Node

	// Walk is called during traversal and the returned
	// Rewriter is used for all the children of the node.
	// If the returned rewriter is nil, traversal does
	// not proceed past the node.
	Walk(Node) Rewriter
}

type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies a Rewriter in
// depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	if nl, ok := n.(nonleaf); ok {
		rc := r.Walk(n)
		if rc != nil {
			n = nl.rewrite(rc)
		}
	}
	return r.Rewrite(n)
}

type childCollector struct {
	kids []Node
}

func (c *childCollector) Visit(n Node) Visitor {
	if n != nil {
		c.kids = append(c.kids, n)
	}
	return nil
}

// children returns the direct child expressions of n.
func children(n Node) []Node {
	c := &childCollector{}
	n.walk(c)
	return c.kids
}

// Deps is the set of dynamic-context dependencies of an
// expression.
type Deps uint8

const (
	// DepContextItem: the expression reads the focus item.
	DepContextItem Deps = 1 << iota
	// DepPosition: the expression reads the focus position.
	DepPosition
	// DepLast: the expression reads the focus size.
	DepLast
	// DepLocalVars: the expression reads local variable slots.
	DepLocalVars
)

// DepFocus covers every dependency on the evaluation focus.
const DepFocus = DepContextItem | DepPosition | DepLast

// OnFocus returns whether any focus dependency is present.
func (d Deps) OnFocus() bool { return d&DepFocus != 0 }

type depender interface {
	deps() Deps
}

// Depends computes the dynamic-context dependencies of
// n. Nodes that establish a new focus for some of their
// children implement deps() and absorb those children's
// focus bits; for every other node the result is the
// union over its direct children.
func Depends(n Node) Deps {
	if d, ok := n.(depender); ok {
		return d.deps()
	}
	var out Deps
	for _, c := range children(n) {
		out |= Depends(c)
	}
	return out
}

// DependsOnBinding returns whether any variable
// reference within n is bound to b.
func DependsOnBinding(n Node, b *Binding) bool {
	found := false
	Walk(WalkFunc(func(x Node) bool {
		if v, ok := x.(*VarRef); ok && v.Binding == b {
			found = true
		}
		return !found
	}), n)
	return found
}

// Special is the set of order-related properties of a
// node-sequence-valued expression, used to decide when
// an explicit document sort can be elided.
type Special uint8

const (
	// DocOrdered: results are delivered in document order.
	DocOrdered Special = 1 << iota
	// Peer: no result node is an ancestor of another.
	Peer
	// NoDups: results contain no duplicate nodes.
	NoDups
	// Subtree: every result node lies within the subtree
	// of the context item the expression was applied to.
	Subtree
)

type specialer interface {
	special() Special
}

// SpecialOf returns the order properties of n. The
// default is the empty set, which is always safe: it
// only ever forces a sort that was not needed.
func SpecialOf(n Node) Special {
	if s, ok := n.(specialer); ok {
		return s.special()
	}
	return 0
}

type typer interface {
	staticType() seqtype.SequenceType
}

// TypeOf returns the inferred static type of n. Nodes
// that cannot see their context yet report item()*.
func TypeOf(n Node) seqtype.SequenceType {
	if t, ok := n.(typer); ok {
		return t.staticType()
	}
	return seqtype.AnySequence()
}

// Card returns the static cardinality of n.
func Card(n Node) seqtype.Cardinality {
	return TypeOf(n).Card
}

// Iterate begins evaluation of a compiled expression
// against ctx and returns the result iterator.
func Iterate(n Node, ctx *Context) (om.Iterator, error) {
	return n.iterate(ctx)
}

// EvaluateItem evaluates n and returns the first item of
// the result, or nil for the empty sequence. Callers must
// know the cardinality is bounded at one; extra items are
// not pulled, so streaming cardinality checks on n do not
// fire.
func EvaluateItem(n Node, ctx *Context) (om.Item, error) {
	it, err := n.iterate(ctx)
	if err != nil {
		return nil, err
	}
	return it.Next()
}
