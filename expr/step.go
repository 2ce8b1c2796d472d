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

// AxisStep selects nodes related to the context node
// along an axis, filtered by a node test.
type AxisStep struct {
	Axis om.Axis
	Test om.NodeTest
	Loc  Location
}

// Step returns an axis step over test; a nil test means
// every node on the axis.
func Step(axis om.Axis, test om.NodeTest) *AxisStep {
	if test == nil {
		test = om.KindTest{K: axis.PrincipalKind()}
	}
	return &AxisStep{Axis: axis, Test: test}
}

// ChildStep selects child elements by local name.
func ChildStep(local string) *AxisStep {
	return Step(om.AxisChild, om.NameTest{K: om.ElementNode, Local: local})
}

func (s *AxisStep) Equals(x Node) bool {
	xs, ok := x.(*AxisStep)
	return ok && xs.Axis == s.Axis && xs.Test == s.Test
}

func (s *AxisStep) walk(Visitor) {}

func (s *AxisStep) text(dst *strings.Builder) {
	dst.WriteString(s.Axis.String())
	dst.WriteString("::")
	dst.WriteString(s.Test.String())
}

func (s *AxisStep) deps() Deps { return DepContextItem }

func (s *AxisStep) staticType() seqtype.SequenceType {
	card := seqtype.ZeroOrMore
	switch s.Axis {
	case om.AxisSelf, om.AxisParent:
		card = seqtype.ZeroOrOne
	case om.AxisAttribute:
		if _, named := s.Test.(om.NameTest); named {
			// attribute names are unique per element
			card = seqtype.ZeroOrOne
		}
	}
	return seqtype.SequenceType{
		Item: seqtype.NodeType{Test: s.Test},
		Card: card,
	}
}

func (s *AxisStep) special() Special {
	var out Special
	if s.Axis.Forward() {
		out |= DocOrdered
	}
	// a single axis traversal never repeats a node
	out |= NoDups
	if s.Axis.Peer() {
		out |= Peer
	}
	if s.Axis.Subtree() {
		out |= Subtree
	}
	return out
}

// selfAny returns whether the step is self::node(),
// which is the identity over any node context.
func (s *AxisStep) selfAny() bool {
	if s.Axis != om.AxisSelf {
		return false
	}
	kt, ok := s.Test.(om.KindTest)
	return ok && kt.K == om.AnyKind
}

func (s *AxisStep) typeCheck(env *StaticEnv) (Node, error) {
	ct := env.contextType()
	if ct.Card == seqtype.Empty {
		return nil, errStatic(ErrAbsentFocus, s, "axis step with no context item")
	}
	if seqtype.Relationship(ct.Item, seqtype.AnyNode()) == seqtype.Disjoint {
		return nil, errStatic(ErrType, s, "%s axis cannot start from %s", s.Axis, ct.Item)
	}
	if kind, known := contextNodeKind(ct.Item); known {
		// leaf kinds have no children or attributes
		switch s.Axis {
		case om.AxisChild, om.AxisDescendant, om.AxisAttribute:
			switch kind {
			case om.TextNode, om.CommentNode, om.ProcessingInstructionNode, om.AttributeNode, om.NamespaceNode:
				return EmptyLit(), nil
			}
		}
	}
	return s, nil
}

func contextNodeKind(t seqtype.ItemType) (om.NodeKind, bool) {
	nt, ok := t.(seqtype.NodeType)
	if !ok {
		return om.AnyKind, false
	}
	k := nt.Test.Kind()
	return k, k != om.AnyKind
}

func (s *AxisStep) iterate(ctx *Context) (om.Iterator, error) {
	it, err := ctx.item()
	if err != nil {
		return nil, atLoc(err, s.Loc)
	}
	node, ok := it.(om.Node)
	if !ok {
		return nil, atLoc(errDynamic(ErrType,
			"the context item for the %s axis is not a node", s.Axis), s.Loc)
	}
	return node.IterateAxis(s.Axis, s.Test), nil
}

var _ typer = &AxisStep{}

// docSortNeeded decides whether composing start/step
// results requires an explicit sort or deduplication.
// It must only ever answer false when the concatenated
// output is provably in document order with no
// duplicates.
func docSortNeeded(start, step Node) bool {
	ss := SpecialOf(start)
	ps := SpecialOf(step)
	if seqtype.ZeroOrOne.Subsumes(Card(start)) {
		// at most one start item: step order is output order
		const want = DocOrdered | NoDups
		return ps&want != want
	}
	const wantStart = DocOrdered | Peer | NoDups
	const wantStep = DocOrdered | Subtree | NoDups
	return ss&wantStart != wantStart || ps&wantStep != wantStep
}
