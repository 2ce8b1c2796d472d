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

// simplifier is implemented by variants that have
// canonicalizing rewrites: constant folding, empty
// propagation, and removal of trivial wrappers. A
// simplify method must be conservative (it preserves
// semantics exactly, including which errors can occur)
// and idempotent once its children are simplified.
type simplifier interface {
	simplify(env *StaticEnv) Node
}

type simplifyrw struct {
	env *StaticEnv
}

func (s simplifyrw) Walk(n Node) Rewriter { return s }

func (s simplifyrw) Rewrite(n Node) Node {
	if sp, ok := n.(simplifier); ok {
		return sp.simplify(s.env)
	}
	return n
}

// Simplify canonicalizes the tree bottom-up. Since each
// node's rewrite fires after its children have been
// rewritten, a single traversal reaches the fixed point.
func Simplify(n Node, env *StaticEnv) Node {
	return Rewrite(simplifyrw{env: env}, n)
}
