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
	"bytes"
	"testing"
)

// FuzzDecodeSimplify decodes arbitrary bytes as an
// expression tree; anything that decodes must simplify
// without panicking, and simplification must be
// idempotent.
func FuzzDecodeSimplify(f *testing.F) {
	seeds := []Node{
		Int(1),
		Slash(&Root{}, Where(ChildStep("book"),
			Compare(CmpEQ, Fn(FnPosition), Int(2)))),
		LetIn("x", IntSeq(1, 2, 3), Fn(FnCount, Var("x"))),
		Some("v", ChildStep("a"),
			Compare(CmpLT, Var("v"), Int(10))),
		Fn(FnNot, Fn(FnEmpty, &Tail{Base: ChildStep("a"), Start: 2})),
	}
	for _, n := range seeds {
		var buf bytes.Buffer
		if err := Encode(n, &buf); err != nil {
			f.Fatal(err)
		}
		f.Add(buf.Bytes())
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		n, err := Decode(bytes.NewReader(data))
		if err != nil {
			return
		}
		once := Simplify(Copy(n), nil)
		twice := Simplify(Copy(once), nil)
		if !Equal(once, twice) {
			t.Errorf("simplify not idempotent: %s then %s",
				ToString(once), ToString(twice))
		}
	})
}
