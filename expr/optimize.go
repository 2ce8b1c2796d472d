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

// optimizer is implemented by variants with rewrites that
// are only profitable, not canonical: predicate-to-index
// conversion, sort elision, binding disposition, and
// subexpression hoisting. Unlike simplify rewrites, these
// may not expose new simplify opportunities until the
// next round.
type optimizer interface {
	optimize(env *StaticEnv) Node
}

type optimizerw struct {
	env *StaticEnv
}

func (o optimizerw) Walk(n Node) Rewriter { return o }

func (o optimizerw) Rewrite(n Node) Node {
	if op, ok := n.(optimizer); ok {
		return op.optimize(o.env)
	}
	return n
}

// Optimize interleaves simplify and optimize passes until
// the tree stops changing or the configured round limit
// is reached. The limit bounds pathological rewrite
// interplay; a converged tree exits early.
func Optimize(n Node, env *StaticEnv) Node {
	rounds := env.settings().MaxOptimizeRounds
	for i := 0; i < rounds; i++ {
		before := Copy(n)
		n = Simplify(n, env)
		n = Rewrite(optimizerw{env: env}, n)
		if Equal(before, n) {
			break
		}
	}
	return n
}
