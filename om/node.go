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

package om

// NodeKind identifies the kind of a node.
type NodeKind uint8

const (
	// AnyKind matches every node kind in a test.
	AnyKind NodeKind = iota
	DocumentNode
	ElementNode
	AttributeNode
	TextNode
	CommentNode
	ProcessingInstructionNode
	NamespaceNode
)

func (k NodeKind) String() string {
	switch k {
	case AnyKind:
		return "node()"
	case DocumentNode:
		return "document-node()"
	case ElementNode:
		return "element()"
	case AttributeNode:
		return "attribute()"
	case TextNode:
		return "text()"
	case CommentNode:
		return "comment()"
	case ProcessingInstructionNode:
		return "processing-instruction()"
	case NamespaceNode:
		return "namespace-node()"
	default:
		return "?"
	}
}

// Axis is a navigational relationship from a context
// node to related nodes.
type Axis uint8

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisDescendantOrSelf
	AxisAttribute
	AxisSelf
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding

	maxAxis
)

func (a Axis) String() string {
	switch a {
	case AxisChild:
		return "child"
	case AxisDescendant:
		return "descendant"
	case AxisDescendantOrSelf:
		return "descendant-or-self"
	case AxisAttribute:
		return "attribute"
	case AxisSelf:
		return "self"
	case AxisParent:
		return "parent"
	case AxisAncestor:
		return "ancestor"
	case AxisAncestorOrSelf:
		return "ancestor-or-self"
	case AxisFollowingSibling:
		return "following-sibling"
	case AxisPrecedingSibling:
		return "preceding-sibling"
	case AxisFollowing:
		return "following"
	case AxisPreceding:
		return "preceding"
	default:
		return "?"
	}
}

// Forward returns whether the axis delivers nodes in
// document order (as opposed to reverse document order).
func (a Axis) Forward() bool {
	switch a {
	case AxisAncestor, AxisAncestorOrSelf, AxisPreceding, AxisPrecedingSibling, AxisParent:
		return false
	}
	return true
}

// Peer returns whether no node delivered by the axis can
// be an ancestor of another node delivered by it. Peer
// sequences stay duplicate-free under subtree navigation,
// which is what permits sort elision in path composition.
func (a Axis) Peer() bool {
	switch a {
	case AxisChild, AxisAttribute, AxisSelf, AxisParent,
		AxisFollowingSibling, AxisPrecedingSibling:
		return true
	}
	return false
}

// Subtree returns whether every node delivered by the
// axis lies within the subtree rooted at the origin.
func (a Axis) Subtree() bool {
	switch a {
	case AxisChild, AxisDescendant, AxisDescendantOrSelf, AxisAttribute, AxisSelf:
		return true
	}
	return false
}

// PrincipalKind returns the node kind selected by a name
// test on this axis.
func (a Axis) PrincipalKind() NodeKind {
	if a == AxisAttribute {
		return AttributeNode
	}
	return ElementNode
}

// NodeTest filters the nodes delivered by an axis.
type NodeTest interface {
	// Matches reports whether the test accepts n.
	Matches(n Node) bool
	// Kind returns the node kind the test can accept,
	// or AnyKind when any kind may match.
	Kind() NodeKind
	String() string
}

// KindTest matches nodes by kind alone.
type KindTest struct {
	K NodeKind
}

func (t KindTest) Matches(n Node) bool {
	return t.K == AnyKind || n.Kind() == t.K
}

func (t KindTest) Kind() NodeKind { return t.K }

func (t KindTest) String() string { return t.K.String() }

// NameTest matches nodes by kind and expanded name.
type NameTest struct {
	K          NodeKind
	URI, Local string
}

func (t NameTest) Matches(n Node) bool {
	if n.Kind() != t.K {
		return false
	}
	uri, local := n.Name()
	return uri == t.URI && local == t.Local
}

func (t NameTest) Kind() NodeKind { return t.K }

func (t NameTest) String() string {
	if t.URI == "" {
		return t.Local
	}
	return "{" + t.URI + "}" + t.Local
}

// Node is the capability interface for any concrete tree
// implementation. The compiler and evaluator depend only
// on this interface, never on a concrete document model.
type Node interface {
	Item
	// Kind returns the node kind.
	Kind() NodeKind
	// Name returns the expanded name of the node;
	// both parts are empty for unnamed kinds.
	Name() (uri, local string)
	// StringValue returns the string value of the node.
	StringValue() string
	// TypedValue returns the result of atomizing the
	// node: one or more atomic values per the node-kind
	// rules (text and document nodes yield exactly one
	// untyped or typed value; comments and processing
	// instructions yield a string).
	TypedValue() []AtomicValue
	// IterateAxis returns an iterator over the nodes
	// reachable along axis that satisfy test. Iteration
	// order is axis order (document order for forward
	// axes, reverse document order otherwise).
	IterateAxis(axis Axis, test NodeTest) Iterator
	// Order compares the document position of the node
	// against other: negative when the node precedes
	// other, zero when they are the same node, positive
	// when it follows. Nodes from distinct trees order
	// by an arbitrary but stable tiebreak.
	Order(other Node) int
}
