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
	"math"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
)

// evalSeq evaluates n and materializes the result.
func evalSeq(n Node, ctx *Context) ([]om.Item, error) {
	it, err := n.iterate(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Expand(it)
}

// ebv computes the effective boolean value of a
// sequence: false for empty, true when the first item is
// a node, the obvious value for singleton booleans,
// strings (non-empty) and numbers (non-zero, non-NaN).
// Anything else has no defined boolean value.
func ebv(src om.Iterator) (bool, error) {
	first, err := src.Next()
	if err != nil {
		return false, err
	}
	if first == nil {
		return false, nil
	}
	if _, ok := first.(om.Node); ok {
		return true, nil
	}
	second, err := src.Next()
	if err != nil {
		return false, err
	}
	if second != nil {
		return false, errDynamic(ErrBadBool,
			"effective boolean value of a sequence of more than one atomic value")
	}
	switch v := first.(type) {
	case om.Bool:
		return bool(v), nil
	case om.Str:
		return v != "", nil
	case om.Untyped:
		return v != "", nil
	case om.Int:
		return v != 0, nil
	case om.Float:
		f := float64(v)
		return f != 0 && !math.IsNaN(f), nil
	case om.Decimal:
		return v.Rat != nil && v.Rat.Sign() != 0, nil
	}
	return false, errDynamic(ErrBadBool,
		"effective boolean value of %s", first)
}

// one pulls the only item of src and verifies that no
// second item follows; nil means the empty sequence.
// Pulling past the first item is what arms the streaming
// cardinality checks on singleton positions.
func one(src om.Iterator) (om.Item, error) {
	first, err := src.Next()
	if err != nil || first == nil {
		return nil, err
	}
	second, err := src.Next()
	if err != nil {
		return nil, err
	}
	if second != nil {
		return nil, errDynamic(ErrType,
			"a sequence of more than one item is not allowed here")
	}
	return first, nil
}

// ebvOf evaluates n and takes its effective boolean value.
func ebvOf(n Node, ctx *Context) (bool, error) {
	it, err := n.iterate(ctx)
	if err != nil {
		return false, err
	}
	return ebv(it)
}

// atomizeItem maps one item to its typed value(s):
// atomic values pass through unchanged, nodes are
// replaced by their typed values.
func atomizeItem(it om.Item) (om.Iterator, error) {
	switch v := it.(type) {
	case om.Node:
		vals := v.TypedValue()
		items := make([]om.Item, len(vals))
		for i := range vals {
			items[i] = vals[i]
		}
		return seq.Of(items...), nil
	case om.AtomicValue:
		return seq.One(v), nil
	}
	return nil, errDynamic(ErrType, "cannot atomize %s", it)
}

// asNumber returns the numeric value of a singleton
// predicate result, if it is one.
func asNumber(it om.Item) (float64, bool) {
	switch v := it.(type) {
	case om.Int:
		return float64(v), true
	case om.Float:
		return float64(v), true
	case om.Decimal:
		if v.Rat == nil {
			return 0, true
		}
		f, _ := v.Rat.Float64()
		return f, true
	}
	return 0, false
}
