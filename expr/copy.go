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
	"golang.org/x/exp/slices"
)

// Copy deep-copies an expression tree.
//
// Bindings declared inside the copied tree are cloned and
// every reference to them is remapped to the clone, so
// the copy never aliases the original's binder state.
// References to bindings declared outside the tree keep
// the original pointer: they must keep resolving to the
// same enclosing declaration.
func Copy(n Node) Node {
	return copyNode(n, make(map[*Binding]*Binding))
}

func copyBinding(b *Binding, remap map[*Binding]*Binding) *Binding {
	nb := &Binding{
		Name:     b.Name,
		Declared: b.Declared,
		Slot:     b.Slot,
		inferred: b.inferred,
		indexed:  b.indexed,
	}
	remap[b] = nb
	return nb
}

func copyNode(n Node, remap map[*Binding]*Binding) Node {
	if n == nil {
		return nil
	}
	switch x := n.(type) {
	case *Literal:
		return &Literal{Items: slices.Clone(x.Items)}
	case *ContextItem:
		c := *x
		return &c
	case *Root:
		r := *x
		return &r
	case *VarRef:
		v := *x
		if nb, ok := remap[v.Binding]; ok {
			v.Binding = nb
		}
		return &v
	case *AxisStep:
		s := *x
		return &s
	case *Path:
		return &Path{
			Start: copyNode(x.Start, remap),
			Step:  copyNode(x.Step, remap),
			Loc:   x.Loc,
		}
	case *DocSort:
		return &DocSort{Inner: copyNode(x.Inner, remap), Loc: x.Loc}
	case *Filter:
		return &Filter{
			Base:      copyNode(x.Base, remap),
			Predicate: copyNode(x.Predicate, remap),
			Loc:       x.Loc,
		}
	case *Subscript:
		return &Subscript{Base: copyNode(x.Base, remap), Index: x.Index, Loc: x.Loc}
	case *Tail:
		return &Tail{Base: copyNode(x.Base, remap), Start: x.Start, Loc: x.Loc}
	case *Atomize:
		return &Atomize{Inner: copyNode(x.Inner, remap), Loc: x.Loc}
	case *SingletonAtomizer:
		return &SingletonAtomizer{
			Inner:      copyNode(x.Inner, remap),
			Role:       x.Role,
			AllowEmpty: x.AllowEmpty,
			Loc:        x.Loc,
		}
	case *ItemCheck:
		return &ItemCheck{
			Inner: copyNode(x.Inner, remap),
			Type:  x.Type,
			Role:  x.Role,
			Loc:   x.Loc,
		}
	case *CardinalityCheck:
		return &CardinalityCheck{
			Inner: copyNode(x.Inner, remap),
			Card:  x.Card,
			Role:  x.Role,
			Loc:   x.Loc,
		}
	case *Let:
		// init is copied before the binding is remapped:
		// the initializer cannot see its own binding
		init := copyNode(x.Init, remap)
		nb := copyBinding(x.Binding, remap)
		return &Let{
			Binding: nb,
			Init:    init,
			Body:    copyNode(x.Body, remap),
			Loc:     x.Loc,
		}
	case *Lazy:
		return &Lazy{Inner: copyNode(x.Inner, remap)}
	case *Quantified:
		src := copyNode(x.Source, remap)
		nb := copyBinding(x.Binding, remap)
		return &Quantified{
			Every:   x.Every,
			Binding: nb,
			Source:  src,
			Body:    copyNode(x.Body, remap),
			Loc:     x.Loc,
		}
	case *ValueCompare:
		return &ValueCompare{
			Op:    x.Op,
			Left:  copyNode(x.Left, remap),
			Right: copyNode(x.Right, remap),
			Loc:   x.Loc,
		}
	case *SingletonCompare:
		return &SingletonCompare{
			Op:    x.Op,
			Left:  copyNode(x.Left, remap),
			Right: copyNode(x.Right, remap),
			Loc:   x.Loc,
		}
	case *Call:
		args := make([]Node, len(x.Args))
		for i := range x.Args {
			args[i] = copyNode(x.Args[i], remap)
		}
		return &Call{Op: x.Op, Args: args, Loc: x.Loc}
	}
	// every variant is handled above; reaching here means
	// a new variant was added without updating Copy
	panic("expr.Copy: unhandled node type")
}
