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
	"strings"
	"testing"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"

	"github.com/vmihailenco/msgpack/v5"
)

// claims is a node with arbitrary order properties, for
// exercising the sort analysis off the beaten track of
// the built-in variants.
type claims struct {
	bits Special
	card seqtype.Cardinality
}

func (c *claims) Equals(x Node) bool {
	xc, ok := x.(*claims)
	return ok && xc == c
}

func (c *claims) encode(*msgpack.Encoder) error { return nil }

func (c *claims) walk(Visitor) {}

func (c *claims) text(dst *strings.Builder) { dst.WriteString("claims") }

func (c *claims) iterate(*Context) (om.Iterator, error) {
	return nil, errDynamic(ErrType, "not evaluable")
}

func (c *claims) special() Special { return c.bits }

func (c *claims) staticType() seqtype.SequenceType {
	return seqtype.SequenceType{Item: seqtype.AnyNode(), Card: c.card}
}

func TestDocSortNeeded(t *testing.T) {
	const sorted = DocOrdered | NoDups
	cases := []struct {
		name        string
		start, step *claims
		want        bool
	}{
		{
			name:  "single start, ordered dup-free step",
			start: &claims{card: seqtype.ZeroOrOne},
			step:  &claims{bits: sorted, card: seqtype.ZeroOrMore},
			want:  false,
		},
		{
			// ordered alone does not prove dedup is redundant
			name:  "single start, ordered step with duplicates",
			start: &claims{card: seqtype.ZeroOrOne},
			step:  &claims{bits: DocOrdered, card: seqtype.ZeroOrMore},
			want:  true,
		},
		{
			name:  "single start, dup-free unordered step",
			start: &claims{card: seqtype.ZeroOrOne},
			step:  &claims{bits: NoDups, card: seqtype.ZeroOrMore},
			want:  true,
		},
		{
			name:  "many starts, full properties",
			start: &claims{bits: sorted | Peer, card: seqtype.ZeroOrMore},
			step:  &claims{bits: sorted | Subtree, card: seqtype.ZeroOrMore},
			want:  false,
		},
		{
			name:  "many starts, step not confined to subtrees",
			start: &claims{bits: sorted | Peer, card: seqtype.ZeroOrMore},
			step:  &claims{bits: sorted, card: seqtype.ZeroOrMore},
			want:  true,
		},
		{
			name:  "many starts, step ordered but duplicating",
			start: &claims{bits: sorted | Peer, card: seqtype.ZeroOrMore},
			step:  &claims{bits: DocOrdered | Subtree, card: seqtype.ZeroOrMore},
			want:  true,
		},
		{
			name:  "many overlapping starts",
			start: &claims{bits: sorted, card: seqtype.ZeroOrMore},
			step:  &claims{bits: sorted | Subtree, card: seqtype.ZeroOrMore},
			want:  true,
		},
	}
	for _, c := range cases {
		if got := docSortNeeded(c.start, c.step); got != c.want {
			t.Errorf("%s: docSortNeeded = %v, want %v", c.name, got, c.want)
		}
	}
}
