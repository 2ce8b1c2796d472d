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
	"strconv"
	"sync/atomic"
)

// OfferKind selects the tree edit an Offer proposes.
type OfferKind int

const (
	// HoistFocusIndependent hoists subexpressions with
	// no focus dependency into bindings outside the
	// repeatedly-evaluated position the offer came from.
	HoistFocusIndependent OfferKind = iota
	// InlineVariable substitutes a clone of a bound
	// expression for references to its binding.
	InlineVariable
	// EliminateOrder releases the document-order
	// requirement on the subtree, removing sorts whose
	// output order (and optionally deduplication) the
	// consumer cannot observe.
	EliminateOrder
)

// Offer is a transient proposal for a tree edit,
// created and discarded within a single optimize pass.
//
// An offer is never forwarded across a focus boundary:
// each node's promote method hands the offer only to the
// children it evaluates under its own focus. Hoisting
// out of a deeper loop is the business of the offer that
// deeper loop creates for itself.
type Offer struct {
	Kind OfferKind

	// Target/With describe an InlineVariable edit.
	Target *Binding
	With   Node

	// dedupNeeded keeps duplicate elimination alive
	// when only the ordering is released.
	dedupNeeded bool

	// bindings declared between the offer's origin and
	// the current position; a hoist candidate may not
	// depend on any of them.
	bindings []*Binding

	// lets are the hoisted bindings accumulated so far,
	// deduplicated by structural fingerprint.
	lets   []*Let
	hashes []uint64
}

func (o *Offer) pushBinding(b *Binding) {
	o.bindings = append(o.bindings, b)
}

func (o *Offer) popBinding() {
	o.bindings = o.bindings[:len(o.bindings)-1]
}

// hoistSerial numbers generated binding names so they
// stay unique under concurrent compilations.
var hoistSerial uint64

func nextHoistName() string {
	return "hoist#" + strconv.FormatUint(atomic.AddUint64(&hoistSerial, 1), 10)
}

// accept tests whether n itself satisfies a hoist
// offer's criteria, and if so returns the variable
// reference that replaces it; nil means "not a
// candidate, keep forwarding". Identical candidates
// (by fingerprint, confirmed structurally) share one
// hoisted binding.
func (o *Offer) accept(n Node) Node {
	if o.Kind != HoistFocusIndependent || !hoistWorthy(n) {
		return nil
	}
	if Depends(n).OnFocus() {
		return nil
	}
	for _, b := range o.bindings {
		if DependsOnBinding(n, b) {
			return nil
		}
	}
	h := Fingerprint(n)
	for i := range o.lets {
		if o.hashes[i] == h && o.lets[i].Init.Equals(n) {
			return &VarRef{Name: o.lets[i].Binding.Name, Binding: o.lets[i].Binding}
		}
	}
	b := &Binding{Name: nextHoistName(), Slot: -1}
	o.lets = append(o.lets, &Let{Binding: b, Init: n})
	o.hashes = append(o.hashes, h)
	return &VarRef{Name: b.Name, Binding: b}
}

// hoistWorthy excludes expressions that are as cheap as
// the variable reference that would replace them.
func hoistWorthy(n Node) bool {
	switch n.(type) {
	case *Literal, *VarRef, *ContextItem, *Root, *Lazy:
		return false
	}
	return true
}

type promoter interface {
	promote(*Offer) Node
}

// promote dispatches an offer to n. Variants with
// children implement promoter and control which children
// may see the offer; leaves resolve here.
func promote(n Node, o *Offer) Node {
	if n == nil {
		return nil
	}
	switch o.Kind {
	case EliminateOrder:
		if d, ok := n.(*DocSort); ok {
			if !o.dedupNeeded || SpecialOf(d.Inner)&NoDups != 0 {
				return promote(d.Inner, o)
			}
		}
		return n
	case InlineVariable:
		if v, ok := n.(*VarRef); ok {
			if v.Binding != o.Target {
				return n
			}
			repl := Copy(o.With)
			if v.Indexed {
				markIndexed(repl)
			}
			return repl
		}
	}
	if p, ok := n.(promoter); ok {
		return p.promote(o)
	}
	return n
}

// markIndexed transfers an indexed-variable marking onto
// an inlined substitute, so downstream index-based
// filter optimizations keep firing after inlining.
func markIndexed(n Node) {
	if v, ok := n.(*VarRef); ok {
		v.Indexed = true
		if v.Binding != nil {
			v.Binding.indexed = true
		}
	}
}

// hoist runs a hoist offer over a loop body. loopVars
// are the bindings the loop itself declares; anything
// depending on them stays put.
func hoist(body Node, env *StaticEnv, loopVars ...*Binding) (Node, []*Let) {
	if env.settings().DisableHoisting {
		return body, nil
	}
	offer := &Offer{Kind: HoistFocusIndependent}
	for _, b := range loopVars {
		offer.pushBinding(b)
	}
	body = promote(body, offer)
	return body, offer.lets
}

// wrapLets nests n inside the hoisted bindings,
// innermost-first.
func wrapLets(n Node, lets []*Let) Node {
	for i := len(lets) - 1; i >= 0; i-- {
		lets[i].Body = n
		n = lets[i]
	}
	return n
}
