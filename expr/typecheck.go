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
	"github.com/pathlang/pathlang/seqtype"
)

// typeChecker is implemented by variants that need more
// than plain child recursion when checking types: nodes
// that change the static context for some children, nodes
// that insert coercions around their operands, and nodes
// whose check can fail outright.
type typeChecker interface {
	typeCheck(env *StaticEnv) (Node, error)
}

// TypeCheck verifies n against env, inserting the runtime
// checks (ItemCheck, CardinalityCheck, Atomize) that the
// static types cannot discharge, and replacing expressions
// whose static type is provably empty. It reports a
// StaticError for expressions that can never succeed.
func TypeCheck(n Node, env *StaticEnv) (Node, error) {
	return typeCheck(n, env)
}

func typeCheck(n Node, env *StaticEnv) (Node, error) {
	if n == nil {
		return nil, nil
	}
	if tc, ok := n.(typeChecker); ok {
		return tc.typeCheck(env)
	}
	if nl, ok := n.(nonleaf); ok {
		cc := &childChecker{env: env}
		n = nl.rewrite(cc)
		if cc.err != nil {
			return nil, cc.err
		}
	}
	return n, nil
}

// childChecker adapts typeCheck to the Rewriter shape so
// that nodes without their own typeCheck method still get
// every child checked under the unchanged environment.
// Walk returns nil: recursion happens through typeCheck,
// not through Rewrite's own descent.
type childChecker struct {
	env *StaticEnv
	err error
}

func (c *childChecker) Walk(Node) Rewriter { return nil }

func (c *childChecker) Rewrite(n Node) Node {
	if c.err != nil {
		return n
	}
	out, err := typeCheck(n, c.env)
	if err != nil {
		c.err = err
		return n
	}
	return out
}

// applyChecks coerces n to the required sequence type,
// wrapping it in just the checks the static type of n
// leaves undecided. role names the value in error
// messages ("value of $x", "left operand of =").
//
// A requirement that n provably cannot meet is a static
// error; a requirement n provably meets inserts nothing.
func applyChecks(n Node, required seqtype.SequenceType, role string) (Node, error) {
	actual := TypeOf(n)

	// Atomic requirements atomize node inputs first, so
	// the item check below sees the typed values.
	if _, wantAtomic := required.Item.(seqtype.Atomic); wantAtomic {
		if mayContainNodes(actual.Item) {
			n = &Atomize{Inner: n}
			actual = TypeOf(n)
		}
	}

	rel := seqtype.Relationship(required.Item, actual.Item)
	if rel == seqtype.Disjoint && !actual.Card.AllowsZero() {
		return nil, errStatic(ErrType, n,
			"%s: %s can never match required type %s", role, actual, required)
	}
	switch rel {
	case seqtype.Same, seqtype.Subsumes:
		// statically satisfied
	default:
		n = &ItemCheck{Inner: n, Type: required.Item, Role: role}
	}
	if !required.Card.Subsumes(actual.Card) {
		if required.Card&actual.Card == 0 {
			return nil, errStatic(ErrType, n,
				"%s: cardinality %s can never satisfy %s",
				role, actual.Card.Occurrence(), required.Card.Occurrence())
		}
		n = &CardinalityCheck{Inner: n, Card: required.Card, Role: role}
	}
	return n, nil
}

func mayContainNodes(t seqtype.ItemType) bool {
	switch t.(type) {
	case seqtype.Atomic, seqtype.NoItem:
		return false
	}
	return true
}
