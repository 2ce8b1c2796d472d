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

import (
	"math"
	"math/big"
	"testing"
)

func TestDerives(t *testing.T) {
	cases := []struct {
		t, base AtomicType
		want    bool
	}{
		{IntegerType, DecimalType, true},
		{IntegerType, AnyAtomicType, true},
		{DecimalType, IntegerType, false},
		{StringType, AnyAtomicType, true},
		{StringType, UntypedType, false},
		{UntypedType, UntypedType, true},
		{BoolType, DoubleType, false},
	}
	for i := range cases {
		c := &cases[i]
		if got := c.t.Derives(c.base); got != c.want {
			t.Errorf("%s derives %s: got %v", c.t, c.base, got)
		}
	}
}

func TestCompareAtomic(t *testing.T) {
	nan := Float(math.NaN())
	third := NewDecimal(big.NewRat(1, 3))
	cases := []struct {
		a, b AtomicValue
		cmp  int
		ok   bool
	}{
		{Int(1), Int(2), -1, true},
		{Int(2), Int(2), 0, true},
		{Int(3), Float(2.5), 1, true},
		{Float(1.5), Int(2), -1, true},
		// exact rational comparison without float rounding
		{third, NewDecimal(big.NewRat(1, 3)), 0, true},
		{third, NewDecimal(big.NewRat(2, 3)), -1, true},
		{Int(0), third, -1, true},
		// NaN compares with nothing, itself included
		{nan, nan, 0, false},
		{nan, Int(1), 0, false},
		{Int(1), nan, 0, false},
		// untyped compares as string
		{Untyped("abc"), Str("abd"), -1, true},
		{Str("x"), Untyped("x"), 0, true},
		{Str("b"), Str("a"), 1, true},
		{Bool(false), Bool(true), -1, true},
		{Bool(true), Bool(false), 1, true},
		{Bool(true), Bool(true), 0, true},
		{Bool(false), Bool(false), 0, true},
		// disjoint types never compare
		{Str("1"), Int(1), 0, false},
		{Bool(true), Int(1), 0, false},
	}
	for i := range cases {
		c := &cases[i]
		got, ok := CompareAtomic(c.a, c.b)
		if ok != c.ok {
			t.Errorf("compare(%s, %s): comparable=%v, want %v", c.a, c.b, ok, c.ok)
			continue
		}
		if ok && sign(got) != c.cmp {
			t.Errorf("compare(%s, %s) = %d, want %d", c.a, c.b, got, c.cmp)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestSameValue(t *testing.T) {
	if !SameValue(Int(2), Float(2)) {
		t.Error("2 and 2.0e0 should be the same value")
	}
	if SameValue(Str("2"), Int(2)) {
		t.Error("\"2\" and 2 are not the same value")
	}
	nan := Float(math.NaN())
	if SameValue(nan, nan) {
		t.Error("NaN is not the same value as NaN")
	}
}
