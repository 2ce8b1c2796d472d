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
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Decode deserializes an expression tree produced by
// Encode. Variable references come back unresolved;
// run ResolveBindings before evaluating the result.
func Decode(src io.Reader) (Node, error) {
	return decodeNode(msgpack.NewDecoder(src))
}

func decodeLoc(d *msgpack.Decoder) (Location, error) {
	line, err := d.DecodeInt()
	if err != nil {
		return Location{}, err
	}
	col, err := d.DecodeInt()
	if err != nil {
		return Location{}, err
	}
	return Location{Line: line, Column: col}, nil
}

func decodeItem(d *msgpack.Decoder) (om.Item, error) {
	if err := wantLen(d, 2); err != nil {
		return nil, err
	}
	tag, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	switch tag {
	case "int":
		i, err := d.DecodeInt64()
		return om.Int(i), err
	case "dbl":
		f, err := d.DecodeFloat64()
		return om.Float(f), err
	case "dec":
		s, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, fmt.Errorf("expr: bad decimal %q", s)
		}
		return om.NewDecimal(r), nil
	case "str":
		s, err := d.DecodeString()
		return om.Str(s), err
	case "bool":
		b, err := d.DecodeBool()
		return om.Bool(b), err
	case "untyped":
		s, err := d.DecodeString()
		return om.Untyped(s), err
	}
	return nil, fmt.Errorf("expr: unknown item tag %q", tag)
}

func decodeTest(d *msgpack.Decoder) (om.NodeTest, error) {
	if err := wantLen(d, 3); err != nil {
		return nil, err
	}
	k, err := d.DecodeUint8()
	if err != nil {
		return nil, err
	}
	if isNil(d) {
		if err := d.DecodeNil(); err != nil {
			return nil, err
		}
		if err := d.DecodeNil(); err != nil {
			return nil, err
		}
		return om.KindTest{K: om.NodeKind(k)}, nil
	}
	uri, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	local, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	return om.NameTest{K: om.NodeKind(k), URI: uri, Local: local}, nil
}

func decodeItemType(d *msgpack.Decoder) (seqtype.ItemType, error) {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	tag, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	switch {
	case tag == "any" && n == 1:
		return seqtype.AnyItem{}, nil
	case tag == "none" && n == 1:
		return seqtype.NoItem{}, nil
	case tag == "atomic" && n == 2:
		t, err := d.DecodeUint8()
		return seqtype.Atomic{T: om.AtomicType(t)}, err
	case tag == "node" && n == 2:
		test, err := decodeTest(d)
		if err != nil {
			return nil, err
		}
		return seqtype.NodeType{Test: test}, nil
	}
	return nil, fmt.Errorf("expr: unknown item type tag %q/%d", tag, n)
}

func decodeSeqType(d *msgpack.Decoder) (seqtype.SequenceType, error) {
	if isNil(d) {
		return seqtype.SequenceType{}, d.DecodeNil()
	}
	if err := wantLen(d, 2); err != nil {
		return seqtype.SequenceType{}, err
	}
	item, err := decodeItemType(d)
	if err != nil {
		return seqtype.SequenceType{}, err
	}
	card, err := d.DecodeUint8()
	if err != nil {
		return seqtype.SequenceType{}, err
	}
	return seqtype.SequenceType{Item: item, Card: seqtype.Cardinality(card)}, nil
}

func isNil(d *msgpack.Decoder) bool {
	c, err := d.PeekCode()
	return err == nil && c == msgpcode.Nil
}

func wantLen(d *msgpack.Decoder, n int) error {
	got, err := d.DecodeArrayLen()
	if err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("expr: array length %d, expected %d", got, n)
	}
	return nil
}

func decodeNode(d *msgpack.Decoder) (Node, error) {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	tag, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	fields := n - 1
	switch tag {
	case "lit":
		return decodeLiteral(d, fields)
	case "ctx":
		loc, err := decodeLoc(d)
		return &ContextItem{Loc: loc}, err
	case "root":
		loc, err := decodeLoc(d)
		return &Root{Loc: loc}, err
	case "var":
		return decodeVarRef(d, fields)
	case "step":
		return decodeStep(d, fields)
	case "path":
		start, step, loc, err := decodePair(d, fields, 4)
		return &Path{Start: start, Step: step, Loc: loc}, err
	case "sort":
		inner, err := decodeNode(d)
		if err != nil {
			return nil, err
		}
		loc, err := decodeLoc(d)
		return &DocSort{Inner: inner, Loc: loc}, err
	case "filter":
		base, pred, loc, err := decodePair(d, fields, 4)
		return &Filter{Base: base, Predicate: pred, Loc: loc}, err
	case "sub":
		base, i, loc, err := decodeNodeInt(d, fields)
		return &Subscript{Base: base, Index: i, Loc: loc}, err
	case "tail":
		base, i, loc, err := decodeNodeInt(d, fields)
		return &Tail{Base: base, Start: i, Loc: loc}, err
	case "data":
		inner, err := decodeNode(d)
		if err != nil {
			return nil, err
		}
		loc, err := decodeLoc(d)
		return &Atomize{Inner: inner, Loc: loc}, err
	case "data1":
		return decodeSingletonAtomizer(d, fields)
	case "treat":
		return decodeItemCheck(d, fields)
	case "check":
		return decodeCardinalityCheck(d, fields)
	case "let":
		return decodeLet(d, fields)
	case "lazy":
		inner, err := decodeNode(d)
		return &Lazy{Inner: inner}, err
	case "quant":
		return decodeQuantified(d, fields)
	case "cmp", "cmp1":
		return decodeCompare(d, tag, fields)
	case "call":
		return decodeCall(d, fields)
	}
	return nil, fmt.Errorf("expr: unknown node tag %q", tag)
}

func decodeLiteral(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 1 {
		return nil, fmt.Errorf("expr: lit: %d fields", fields)
	}
	n, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	items := make([]om.Item, n)
	for i := range items {
		items[i], err = decodeItem(d)
		if err != nil {
			return nil, err
		}
	}
	return &Literal{Items: items}, nil
}

func decodeVarRef(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 4 {
		return nil, fmt.Errorf("expr: var: %d fields", fields)
	}
	name, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	indexed, err := d.DecodeBool()
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &VarRef{Name: name, Indexed: indexed, Loc: loc}, err
}

func decodeStep(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 4 {
		return nil, fmt.Errorf("expr: step: %d fields", fields)
	}
	axis, err := d.DecodeUint8()
	if err != nil {
		return nil, err
	}
	test, err := decodeTest(d)
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &AxisStep{Axis: om.Axis(axis), Test: test, Loc: loc}, err
}

func decodePair(d *msgpack.Decoder, fields, want int) (a, b Node, loc Location, err error) {
	if fields != want {
		return nil, nil, loc, fmt.Errorf("expr: %d fields, expected %d", fields, want)
	}
	if a, err = decodeNode(d); err != nil {
		return
	}
	if b, err = decodeNode(d); err != nil {
		return
	}
	loc, err = decodeLoc(d)
	return
}

func decodeNodeInt(d *msgpack.Decoder, fields int) (base Node, i int, loc Location, err error) {
	if fields != 4 {
		return nil, 0, loc, fmt.Errorf("expr: %d fields, expected 4", fields)
	}
	if base, err = decodeNode(d); err != nil {
		return
	}
	if i, err = d.DecodeInt(); err != nil {
		return
	}
	loc, err = decodeLoc(d)
	return
}

func decodeSingletonAtomizer(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 5 {
		return nil, fmt.Errorf("expr: data1: %d fields", fields)
	}
	inner, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	role, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	allowEmpty, err := d.DecodeBool()
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &SingletonAtomizer{Inner: inner, Role: role, AllowEmpty: allowEmpty, Loc: loc}, err
}

func decodeItemCheck(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 5 {
		return nil, fmt.Errorf("expr: treat: %d fields", fields)
	}
	inner, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	typ, err := decodeItemType(d)
	if err != nil {
		return nil, err
	}
	role, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &ItemCheck{Inner: inner, Type: typ, Role: role, Loc: loc}, err
}

func decodeCardinalityCheck(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 5 {
		return nil, fmt.Errorf("expr: check: %d fields", fields)
	}
	inner, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	card, err := d.DecodeUint8()
	if err != nil {
		return nil, err
	}
	role, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &CardinalityCheck{
		Inner: inner,
		Card:  seqtype.Cardinality(card),
		Role:  role,
		Loc:   loc,
	}, err
}

func decodeLet(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 6 {
		return nil, fmt.Errorf("expr: let: %d fields", fields)
	}
	name, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	declared, err := decodeSeqType(d)
	if err != nil {
		return nil, err
	}
	init, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	body, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &Let{
		Binding: &Binding{Name: name, Declared: declared, Slot: -1},
		Init:    init,
		Body:    body,
		Loc:     loc,
	}, err
}

func decodeQuantified(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 7 {
		return nil, fmt.Errorf("expr: quant: %d fields", fields)
	}
	every, err := d.DecodeBool()
	if err != nil {
		return nil, err
	}
	name, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	declared, err := decodeSeqType(d)
	if err != nil {
		return nil, err
	}
	source, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	body, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	return &Quantified{
		Every:   every,
		Binding: &Binding{Name: name, Declared: declared, Slot: -1},
		Source:  source,
		Body:    body,
		Loc:     loc,
	}, err
}

func decodeCompare(d *msgpack.Decoder, tag string, fields int) (Node, error) {
	if fields != 5 {
		return nil, fmt.Errorf("expr: %s: %d fields", tag, fields)
	}
	op, err := d.DecodeUint8()
	if err != nil {
		return nil, err
	}
	left, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	right, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	loc, err := decodeLoc(d)
	if tag == "cmp1" {
		return &SingletonCompare{Op: CmpOp(op), Left: left, Right: right, Loc: loc}, err
	}
	return &ValueCompare{Op: CmpOp(op), Left: left, Right: right, Loc: loc}, err
}

func decodeCall(d *msgpack.Decoder, fields int) (Node, error) {
	if fields != 4 {
		return nil, fmt.Errorf("expr: call: %d fields", fields)
	}
	name, err := d.DecodeString()
	if err != nil {
		return nil, err
	}
	op, ok := fnOpByName(name)
	if !ok {
		return nil, fmt.Errorf("expr: unknown function %q", name)
	}
	n, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	args := make([]Node, n)
	for i := range args {
		args[i], err = decodeNode(d)
		if err != nil {
			return nil, err
		}
	}
	loc, err := decodeLoc(d)
	return &Call{Op: op, Args: args, Loc: loc}, err
}
