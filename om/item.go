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

// Package om defines the object model consumed by the
// expression compiler and evaluator: items (atomic values
// and nodes), the primitive atomic-type lattice, axes,
// node tests, and the pull-based sequence iterator protocol.
//
// The package deliberately knows nothing about any concrete
// document representation; nodes are consumed strictly
// through the Node capability interface.
package om

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Item is a member of a sequence: either an
// atomic value or a node.
type Item interface {
	// String returns a human-readable rendering
	// of the item for diagnostics.
	String() string
}

// AtomicType identifies one of the primitive (or
// primitive-derived) atomic types. The lattice is
// fixed at compile time and never mutated.
type AtomicType uint8

const (
	// AnyAtomicType is the root of the atomic lattice.
	AnyAtomicType AtomicType = iota
	// UntypedType is untypedAtomic: a value carrying
	// no type annotation (typically from schemaless nodes).
	UntypedType
	// StringType is the string type.
	StringType
	// BoolType is the boolean type.
	BoolType
	// DoubleType is the 64-bit binary float type.
	DoubleType
	// DecimalType is the arbitrary-precision decimal type.
	DecimalType
	// IntegerType is the integer type, derived from decimal.
	IntegerType

	maxAtomicType
)

// Parent returns the immediate supertype of t within
// the atomic lattice, or AnyAtomicType at the root.
func (t AtomicType) Parent() AtomicType {
	if t == IntegerType {
		return DecimalType
	}
	return AnyAtomicType
}

// Derives returns whether t is base or derives
// (transitively) from base.
func (t AtomicType) Derives(base AtomicType) bool {
	for {
		if t == base {
			return true
		}
		if t == AnyAtomicType {
			return false
		}
		t = t.Parent()
	}
}

// Numeric returns whether values of this type
// participate in numeric comparison and arithmetic.
func (t AtomicType) Numeric() bool {
	switch t {
	case DoubleType, DecimalType, IntegerType:
		return true
	}
	return false
}

func (t AtomicType) String() string {
	switch t {
	case AnyAtomicType:
		return "anyAtomic"
	case UntypedType:
		return "untypedAtomic"
	case StringType:
		return "string"
	case BoolType:
		return "boolean"
	case DoubleType:
		return "double"
	case DecimalType:
		return "decimal"
	case IntegerType:
		return "integer"
	default:
		return "?"
	}
}

// AtomicValue is an Item carrying an atomic value.
type AtomicValue interface {
	Item
	// AtomicType returns the dynamic type of the value.
	AtomicType() AtomicType
}

// Int is an integer atomic value.
type Int int64

// Float is a double atomic value.
type Float float64

// Decimal is an arbitrary-precision decimal atomic value.
type Decimal struct {
	Rat *big.Rat
}

// Str is a string atomic value.
type Str string

// Bool is a boolean atomic value.
type Bool bool

// Untyped is an atomic value with no type annotation;
// it is compared as a string by value comparisons.
type Untyped string

func (i Int) AtomicType() AtomicType     { return IntegerType }
func (f Float) AtomicType() AtomicType   { return DoubleType }
func (d Decimal) AtomicType() AtomicType { return DecimalType }
func (s Str) AtomicType() AtomicType     { return StringType }
func (b Bool) AtomicType() AtomicType    { return BoolType }
func (u Untyped) AtomicType() AtomicType { return UntypedType }

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

func (f Float) String() string {
	if math.IsInf(float64(f), 1) {
		return "INF"
	}
	if math.IsInf(float64(f), -1) {
		return "-INF"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func (d Decimal) String() string {
	if d.Rat == nil {
		return "0"
	}
	if d.Rat.IsInt() {
		return d.Rat.Num().String()
	}
	f, _ := d.Rat.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (s Str) String() string     { return string(s) }
func (u Untyped) String() string { return string(u) }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// NewDecimal constructs a Decimal from a rational.
func NewDecimal(r *big.Rat) Decimal { return Decimal{Rat: r} }

// rat converts any numeric atomic to an exact rational.
func rat(v AtomicValue) (*big.Rat, bool) {
	switch v := v.(type) {
	case Int:
		return new(big.Rat).SetInt64(int64(v)), true
	case Decimal:
		if v.Rat == nil {
			return new(big.Rat), true
		}
		return v.Rat, true
	case Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(f), true
	}
	return nil, false
}

// CompareAtomic compares two atomic values of comparable
// types and returns -1, 0, or +1. The second return value
// is false when the values are not comparable under the
// value-comparison rules (disjoint types) or when either
// operand is NaN; NaN never compares equal to anything,
// including itself.
func CompareAtomic(a, b AtomicValue) (int, bool) {
	at, bt := a.AtomicType(), b.AtomicType()
	// untyped is compared as string
	if at == UntypedType {
		at = StringType
	}
	if bt == UntypedType {
		bt = StringType
	}
	switch {
	case at.Numeric() && bt.Numeric():
		af, aIsF := a.(Float)
		bf, bIsF := b.(Float)
		if (aIsF && math.IsNaN(float64(af))) || (bIsF && math.IsNaN(float64(bf))) {
			return 0, false
		}
		if aIsF || bIsF {
			x, y := toFloat(a), toFloat(b)
			switch {
			case x < y:
				return -1, true
			case x > y:
				return +1, true
			}
			return 0, true
		}
		ar, _ := rat(a)
		br, _ := rat(b)
		return ar.Cmp(br), true
	case at == StringType && bt == StringType:
		return strings.Compare(atomicString(a), atomicString(b)), true
	case at == BoolType && bt == BoolType:
		x, y := a.(Bool), b.(Bool)
		switch {
		case x == y:
			return 0, true
		case !bool(x):
			return -1, true
		}
		return +1, true
	}
	return 0, false
}

func toFloat(v AtomicValue) float64 {
	switch v := v.(type) {
	case Int:
		return float64(v)
	case Float:
		return float64(v)
	case Decimal:
		if v.Rat == nil {
			return 0
		}
		f, _ := v.Rat.Float64()
		return f
	}
	return math.NaN()
}

func atomicString(v AtomicValue) string {
	switch v := v.(type) {
	case Str:
		return string(v)
	case Untyped:
		return string(v)
	}
	return v.String()
}

// SameValue reports whether a and b are the same atomic
// value, with numeric comparison across numeric types.
// Unlike CompareAtomic it never treats values of disjoint
// types as equal, and NaN is not the same value as NaN.
func SameValue(a, b AtomicValue) bool {
	c, ok := CompareAtomic(a, b)
	return ok && c == 0
}
