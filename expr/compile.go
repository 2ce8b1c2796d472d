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
	"github.com/google/uuid"

	"github.com/pathlang/pathlang/om"
)

// Compiled is an expression that has passed the whole
// pipeline and is ready to evaluate. It is immutable and
// safe for concurrent evaluation; each evaluation takes
// its own frame via NewContext.
type Compiled struct {
	// ID uniquely names this compilation, for tracing
	// and plan-cache bookkeeping.
	ID uuid.UUID
	// Root is the rewritten expression tree.
	Root Node
	// FrameSize is the number of variable slots an
	// evaluation frame must provide.
	FrameSize int
}

// Compile runs the full pipeline over root: binding
// resolution, simplification, type checking, optimization,
// and final slot assignment. root is consumed; it must
// not be reused or evaluated afterwards.
func Compile(root Node, env *StaticEnv) (*Compiled, error) {
	if _, err := ResolveBindings(root); err != nil {
		return nil, err
	}
	root = Simplify(root, env)
	root, err := typeCheck(root, env)
	if err != nil {
		return nil, err
	}
	root = Optimize(root, env)
	// optimization introduces and removes bindings, so
	// slots are renumbered from scratch
	frame := assignSlots(root)
	return &Compiled{ID: uuid.New(), Root: root, FrameSize: frame}, nil
}

// NewContext returns a fresh evaluation frame sized for
// this compilation.
func (c *Compiled) NewContext() *Context {
	return NewContext(c.FrameSize)
}

// Iterate begins evaluation against ctx.
func (c *Compiled) Iterate(ctx *Context) (om.Iterator, error) {
	return c.Root.iterate(ctx)
}

// ResolveBindings resolves every variable reference in n
// to its innermost enclosing declaration and assigns each
// declaration a distinct frame slot. It returns the frame
// size. A reference with no visible declaration is a
// static error.
func ResolveBindings(n Node) (int, error) {
	r := &resolver{}
	if err := r.resolve(n); err != nil {
		return 0, err
	}
	return r.next, nil
}

type resolver struct {
	scope []*Binding
	next  int
}

func (r *resolver) lookup(name string) *Binding {
	for i := len(r.scope) - 1; i >= 0; i-- {
		if r.scope[i].Name == name {
			return r.scope[i]
		}
	}
	return nil
}

func (r *resolver) declare(b *Binding) {
	b.Slot = r.next
	r.next++
	r.scope = append(r.scope, b)
}

func (r *resolver) retract() {
	r.scope = r.scope[:len(r.scope)-1]
}

func (r *resolver) resolve(n Node) error {
	switch x := n.(type) {
	case *VarRef:
		b := r.lookup(x.Name)
		if b == nil {
			return errStatic(ErrUnresolvedVar, x, "$%s is not declared", x.Name)
		}
		x.Binding = b
		if x.Indexed {
			b.indexed = true
		}
		return nil
	case *Let:
		if err := r.resolve(x.Init); err != nil {
			return err
		}
		r.declare(x.Binding)
		err := r.resolve(x.Body)
		r.retract()
		return err
	case *Quantified:
		if err := r.resolve(x.Source); err != nil {
			return err
		}
		r.declare(x.Binding)
		err := r.resolve(x.Body)
		r.retract()
		return err
	}
	for _, c := range children(n) {
		if err := r.resolve(c); err != nil {
			return err
		}
	}
	return nil
}

// assignSlots renumbers binding slots after optimization.
// References share the binding pointer with their
// declaration, so renumbering the declaration renumbers
// every reference.
func assignSlots(n Node) int {
	next := 0
	Walk(WalkFunc(func(x Node) bool {
		switch x := x.(type) {
		case *Let:
			x.Binding.Slot = next
			next++
		case *Quantified:
			x.Binding.Slot = next
			next++
		}
		return true
	}), n)
	return next
}
