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
)

// tnode is a minimal in-memory document tree used to
// exercise paths, filters, and quantifiers in tests.
type tnode struct {
	kind   om.NodeKind
	local  string
	val    string
	parent *tnode
	attrs  []*tnode
	kids   []*tnode
	pos    int // preorder document position
}

func elemNode(local string, kids ...*tnode) *tnode {
	n := &tnode{kind: om.ElementNode, local: local}
	for _, k := range kids {
		k.parent = n
		if k.kind == om.AttributeNode {
			n.attrs = append(n.attrs, k)
		} else {
			n.kids = append(n.kids, k)
		}
	}
	return n
}

func attrNode(local, val string) *tnode {
	return &tnode{kind: om.AttributeNode, local: local, val: val}
}

func textNode(val string) *tnode {
	return &tnode{kind: om.TextNode, val: val}
}

// docNode roots the given children in a document node and
// assigns document positions to the whole tree.
func docNode(kids ...*tnode) *tnode {
	d := &tnode{kind: om.DocumentNode}
	for _, k := range kids {
		k.parent = d
		d.kids = append(d.kids, k)
	}
	pos := 0
	d.number(&pos)
	return d
}

func (n *tnode) number(pos *int) {
	n.pos = *pos
	*pos++
	for _, a := range n.attrs {
		a.pos = *pos
		*pos++
	}
	for _, k := range n.kids {
		k.number(pos)
	}
}

func (n *tnode) String() string {
	switch n.kind {
	case om.ElementNode:
		return "<" + n.local + ">"
	case om.AttributeNode:
		return "@" + n.local
	case om.DocumentNode:
		return "document"
	default:
		return "text(" + n.val + ")"
	}
}

func (n *tnode) Kind() om.NodeKind { return n.kind }

func (n *tnode) Name() (string, string) {
	switch n.kind {
	case om.ElementNode, om.AttributeNode:
		return "", n.local
	}
	return "", ""
}

func (n *tnode) StringValue() string {
	switch n.kind {
	case om.TextNode, om.AttributeNode:
		return n.val
	}
	var sb strings.Builder
	var visit func(*tnode)
	visit = func(x *tnode) {
		if x.kind == om.TextNode {
			sb.WriteString(x.val)
		}
		for _, k := range x.kids {
			visit(k)
		}
	}
	visit(n)
	return sb.String()
}

func (n *tnode) TypedValue() []om.AtomicValue {
	return []om.AtomicValue{om.Untyped(n.StringValue())}
}

func (n *tnode) Order(other om.Node) int {
	o := other.(*tnode)
	return n.pos - o.pos
}

func (n *tnode) root() *tnode {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// descendants appends the element and text subtree of n
// (excluding n and attributes) in document order.
func (n *tnode) descendants(dst []*tnode) []*tnode {
	for _, k := range n.kids {
		dst = append(dst, k)
		dst = k.descendants(dst)
	}
	return dst
}

func (n *tnode) isDescendantOf(a *tnode) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

func (n *tnode) IterateAxis(axis om.Axis, test om.NodeTest) om.Iterator {
	var nodes []*tnode
	switch axis {
	case om.AxisSelf:
		nodes = []*tnode{n}
	case om.AxisChild:
		nodes = n.kids
	case om.AxisAttribute:
		nodes = n.attrs
	case om.AxisParent:
		if n.parent != nil {
			nodes = []*tnode{n.parent}
		}
	case om.AxisDescendant:
		nodes = n.descendants(nil)
	case om.AxisDescendantOrSelf:
		nodes = append([]*tnode{n}, n.descendants(nil)...)
	case om.AxisAncestor:
		for p := n.parent; p != nil; p = p.parent {
			nodes = append(nodes, p)
		}
	case om.AxisAncestorOrSelf:
		for p := n; p != nil; p = p.parent {
			nodes = append(nodes, p)
		}
	case om.AxisFollowingSibling, om.AxisPrecedingSibling:
		if n.parent != nil {
			sibs := n.parent.kids
			for i, s := range sibs {
				if s != n {
					continue
				}
				if axis == om.AxisFollowingSibling {
					nodes = sibs[i+1:]
				} else {
					for j := i - 1; j >= 0; j-- {
						nodes = append(nodes, sibs[j])
					}
				}
				break
			}
		}
	case om.AxisFollowing:
		all := n.root().descendants(nil)
		for _, x := range all {
			if x.pos > n.pos && !x.isDescendantOf(n) {
				nodes = append(nodes, x)
			}
		}
	case om.AxisPreceding:
		all := n.root().descendants(nil)
		for i := len(all) - 1; i >= 0; i-- {
			x := all[i]
			if x.pos < n.pos && !n.isDescendantOf(x) && x != n {
				nodes = append(nodes, x)
			}
		}
	}
	var out []om.Item
	for _, x := range nodes {
		if test == nil || test.Matches(x) {
			out = append(out, x)
		}
	}
	return seq.Of(out...)
}

var _ om.Node = &tnode{}

// library is the shared test document:
//
//	<library>
//	  <book id="b1"><title>B</title><price>30</price></book>
//	  <book id="b2"><title>A</title><price>10</price></book>
//	  <magazine><title>M</title></magazine>
//	</library>
func library() *tnode {
	return docNode(
		elemNode("library",
			elemNode("book",
				attrNode("id", "b1"),
				elemNode("title", textNode("B")),
				elemNode("price", textNode("30")),
			),
			elemNode("book",
				attrNode("id", "b2"),
				elemNode("title", textNode("A")),
				elemNode("price", textNode("10")),
			),
			elemNode("magazine",
				elemNode("title", textNode("M")),
			),
		),
	)
}

// evaluate compiles root and runs it with doc as the
// context item, returning the materialized result.
func evaluate(root Node, doc om.Node) ([]om.Item, error) {
	c, err := Compile(root, nil)
	if err != nil {
		return nil, err
	}
	ctx := c.NewContext().WithContextItem(doc)
	it, err := c.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Expand(it)
}

// locals returns the local names of a node result, for
// compact assertions.
func locals(items []om.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		n := it.(om.Node)
		_, out[i] = n.Name()
		if out[i] == "" {
			out[i] = n.Kind().String()
		}
	}
	return out
}
