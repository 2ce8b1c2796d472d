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
	"fmt"
	"io"
	"math/big"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seqtype"

	"github.com/vmihailenco/msgpack/v5"
)

// Every node serializes as a msgpack array whose first
// element is a short tag followed by the node's fields.
// Locations are compilation diagnostics, not semantics,
// and are carried so a deserialized tree reports errors
// identically to the original.
//
// Bindings are serialized by name: Encode before binding
// resolution round-trips exactly, and Encode after
// resolution round-trips up to slot numbers, which
// ResolveBindings reassigns.

// Encode serializes n to dst.
func Encode(n Node, dst io.Writer) error {
	return n.encode(msgpack.NewEncoder(dst))
}

func encodeLoc(e *msgpack.Encoder, loc Location) error {
	if err := e.EncodeInt(int64(loc.Line)); err != nil {
		return err
	}
	return e.EncodeInt(int64(loc.Column))
}

func encodeItem(e *msgpack.Encoder, it om.Item) error {
	if err := e.EncodeArrayLen(2); err != nil {
		return err
	}
	switch v := it.(type) {
	case om.Int:
		if err := e.EncodeString("int"); err != nil {
			return err
		}
		return e.EncodeInt(int64(v))
	case om.Float:
		if err := e.EncodeString("dbl"); err != nil {
			return err
		}
		return e.EncodeFloat64(float64(v))
	case om.Decimal:
		if err := e.EncodeString("dec"); err != nil {
			return err
		}
		r := v.Rat
		if r == nil {
			r = new(big.Rat)
		}
		return e.EncodeString(r.RatString())
	case om.Str:
		if err := e.EncodeString("str"); err != nil {
			return err
		}
		return e.EncodeString(string(v))
	case om.Bool:
		if err := e.EncodeString("bool"); err != nil {
			return err
		}
		return e.EncodeBool(bool(v))
	case om.Untyped:
		if err := e.EncodeString("untyped"); err != nil {
			return err
		}
		return e.EncodeString(string(v))
	}
	// nodes are bound to a live document and have no
	// wire form; they cannot occur in compiled trees
	return fmt.Errorf("expr: cannot serialize item %T", it)
}

func encodeTest(e *msgpack.Encoder, test om.NodeTest) error {
	if err := e.EncodeArrayLen(3); err != nil {
		return err
	}
	switch t := test.(type) {
	case om.KindTest:
		if err := e.EncodeUint8(uint8(t.K)); err != nil {
			return err
		}
		if err := e.EncodeNil(); err != nil {
			return err
		}
		return e.EncodeNil()
	case om.NameTest:
		if err := e.EncodeUint8(uint8(t.K)); err != nil {
			return err
		}
		if err := e.EncodeString(t.URI); err != nil {
			return err
		}
		return e.EncodeString(t.Local)
	}
	return fmt.Errorf("expr: cannot serialize node test %T", test)
}

func encodeItemType(e *msgpack.Encoder, t seqtype.ItemType) error {
	switch t := t.(type) {
	case seqtype.AnyItem:
		if err := e.EncodeArrayLen(1); err != nil {
			return err
		}
		return e.EncodeString("any")
	case seqtype.NoItem:
		if err := e.EncodeArrayLen(1); err != nil {
			return err
		}
		return e.EncodeString("none")
	case seqtype.Atomic:
		if err := e.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := e.EncodeString("atomic"); err != nil {
			return err
		}
		return e.EncodeUint8(uint8(t.T))
	case seqtype.NodeType:
		if err := e.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := e.EncodeString("node"); err != nil {
			return err
		}
		return encodeTest(e, t.Test)
	}
	return fmt.Errorf("expr: cannot serialize item type %T", t)
}

func encodeSeqType(e *msgpack.Encoder, t seqtype.SequenceType) error {
	if t.Item == nil {
		return e.EncodeNil()
	}
	if err := e.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := encodeItemType(e, t.Item); err != nil {
		return err
	}
	return e.EncodeUint8(uint8(t.Card))
}

func encodeHead(e *msgpack.Encoder, tag string, fields int) error {
	if err := e.EncodeArrayLen(fields + 1); err != nil {
		return err
	}
	return e.EncodeString(tag)
}

func (l *Literal) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "lit", 1); err != nil {
		return err
	}
	if err := e.EncodeArrayLen(len(l.Items)); err != nil {
		return err
	}
	for i := range l.Items {
		if err := encodeItem(e, l.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *ContextItem) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "ctx", 2); err != nil {
		return err
	}
	return encodeLoc(e, c.Loc)
}

func (r *Root) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "root", 2); err != nil {
		return err
	}
	return encodeLoc(e, r.Loc)
}

func (v *VarRef) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "var", 4); err != nil {
		return err
	}
	if err := e.EncodeString(v.Name); err != nil {
		return err
	}
	if err := e.EncodeBool(v.Indexed); err != nil {
		return err
	}
	return encodeLoc(e, v.Loc)
}

func (s *AxisStep) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "step", 4); err != nil {
		return err
	}
	if err := e.EncodeUint8(uint8(s.Axis)); err != nil {
		return err
	}
	if err := encodeTest(e, s.Test); err != nil {
		return err
	}
	return encodeLoc(e, s.Loc)
}

func (p *Path) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "path", 4); err != nil {
		return err
	}
	if err := p.Start.encode(e); err != nil {
		return err
	}
	if err := p.Step.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, p.Loc)
}

func (d *DocSort) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "sort", 3); err != nil {
		return err
	}
	if err := d.Inner.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, d.Loc)
}

func (f *Filter) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "filter", 4); err != nil {
		return err
	}
	if err := f.Base.encode(e); err != nil {
		return err
	}
	if err := f.Predicate.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, f.Loc)
}

func (s *Subscript) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "sub", 4); err != nil {
		return err
	}
	if err := s.Base.encode(e); err != nil {
		return err
	}
	if err := e.EncodeInt(int64(s.Index)); err != nil {
		return err
	}
	return encodeLoc(e, s.Loc)
}

func (t *Tail) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "tail", 4); err != nil {
		return err
	}
	if err := t.Base.encode(e); err != nil {
		return err
	}
	if err := e.EncodeInt(int64(t.Start)); err != nil {
		return err
	}
	return encodeLoc(e, t.Loc)
}

func (a *Atomize) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "data", 3); err != nil {
		return err
	}
	if err := a.Inner.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, a.Loc)
}

func (s *SingletonAtomizer) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "data1", 5); err != nil {
		return err
	}
	if err := s.Inner.encode(e); err != nil {
		return err
	}
	if err := e.EncodeString(s.Role); err != nil {
		return err
	}
	if err := e.EncodeBool(s.AllowEmpty); err != nil {
		return err
	}
	return encodeLoc(e, s.Loc)
}

func (c *ItemCheck) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "treat", 5); err != nil {
		return err
	}
	if err := c.Inner.encode(e); err != nil {
		return err
	}
	if err := encodeItemType(e, c.Type); err != nil {
		return err
	}
	if err := e.EncodeString(c.Role); err != nil {
		return err
	}
	return encodeLoc(e, c.Loc)
}

func (c *CardinalityCheck) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "check", 5); err != nil {
		return err
	}
	if err := c.Inner.encode(e); err != nil {
		return err
	}
	if err := e.EncodeUint8(uint8(c.Card)); err != nil {
		return err
	}
	if err := e.EncodeString(c.Role); err != nil {
		return err
	}
	return encodeLoc(e, c.Loc)
}

func (l *Let) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "let", 6); err != nil {
		return err
	}
	if err := e.EncodeString(l.Binding.Name); err != nil {
		return err
	}
	if err := encodeSeqType(e, l.Binding.Declared); err != nil {
		return err
	}
	if err := l.Init.encode(e); err != nil {
		return err
	}
	if err := l.Body.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, l.Loc)
}

func (l *Lazy) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "lazy", 1); err != nil {
		return err
	}
	return l.Inner.encode(e)
}

func (q *Quantified) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "quant", 7); err != nil {
		return err
	}
	if err := e.EncodeBool(q.Every); err != nil {
		return err
	}
	if err := e.EncodeString(q.Binding.Name); err != nil {
		return err
	}
	if err := encodeSeqType(e, q.Binding.Declared); err != nil {
		return err
	}
	if err := q.Source.encode(e); err != nil {
		return err
	}
	if err := q.Body.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, q.Loc)
}

func (c *ValueCompare) encode(e *msgpack.Encoder) error {
	return encodeCompare(e, "cmp", uint8(c.Op), c.Left, c.Right, c.Loc)
}

func (c *SingletonCompare) encode(e *msgpack.Encoder) error {
	return encodeCompare(e, "cmp1", uint8(c.Op), c.Left, c.Right, c.Loc)
}

func encodeCompare(e *msgpack.Encoder, tag string, op uint8, left, right Node, loc Location) error {
	if err := encodeHead(e, tag, 5); err != nil {
		return err
	}
	if err := e.EncodeUint8(op); err != nil {
		return err
	}
	if err := left.encode(e); err != nil {
		return err
	}
	if err := right.encode(e); err != nil {
		return err
	}
	return encodeLoc(e, loc)
}

func (c *Call) encode(e *msgpack.Encoder) error {
	if err := encodeHead(e, "call", 4); err != nil {
		return err
	}
	if err := e.EncodeString(c.Op.String()); err != nil {
		return err
	}
	if err := e.EncodeArrayLen(len(c.Args)); err != nil {
		return err
	}
	for i := range c.Args {
		if err := c.Args[i].encode(e); err != nil {
			return err
		}
	}
	return encodeLoc(e, c.Loc)
}
