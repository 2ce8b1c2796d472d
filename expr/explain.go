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
	"strings"
)

// Explain writes an indented rendering of a compiled tree
// to dst, one node per line, annotated with the inferred
// type and the order properties the optimizer acted on.
func Explain(n Node, dst io.Writer) {
	explain(n, dst, 0)
}

func explain(n Node, dst io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(dst, "%s%s  :: %s%s\n", indent, label(n), TypeOf(n), annotations(n))
	for _, c := range children(n) {
		explain(c, dst, depth+1)
	}
}

func label(n Node) string {
	switch x := n.(type) {
	case *Literal:
		return ToString(x)
	case *ContextItem:
		return "context-item"
	case *Root:
		return "root"
	case *VarRef:
		if x.Indexed {
			return "$" + x.Name + " (indexed)"
		}
		return "$" + x.Name
	case *AxisStep:
		return x.Axis.String() + "::" + x.Test.String()
	case *Path:
		return "path"
	case *DocSort:
		return "doc-sort"
	case *Filter:
		return "filter"
	case *Subscript:
		return fmt.Sprintf("subscript %d", x.Index)
	case *Tail:
		return fmt.Sprintf("tail %d", x.Start)
	case *Atomize:
		return "atomize"
	case *SingletonAtomizer:
		return "atomize-single"
	case *ItemCheck:
		return "treat as " + x.Type.String()
	case *CardinalityCheck:
		return "check " + x.Card.Occurrence()
	case *Let:
		return "let $" + x.Binding.Name + " slot=" + fmt.Sprint(x.Binding.Slot)
	case *Lazy:
		return "lazy"
	case *Quantified:
		if x.Every {
			return "every $" + x.Binding.Name
		}
		return "some $" + x.Binding.Name
	case *ValueCompare:
		return "compare " + x.Op.String()
	case *SingletonCompare:
		return "compare1 " + x.Op.String()
	case *Call:
		return x.Op.String() + "()"
	}
	return fmt.Sprintf("%T", n)
}

func annotations(n Node) string {
	var sb strings.Builder
	if s := SpecialOf(n); s != 0 {
		sb.WriteString("  [")
		sep := ""
		for _, f := range []struct {
			bit  Special
			name string
		}{
			{DocOrdered, "ordered"},
			{Peer, "peer"},
			{NoDups, "nodups"},
			{Subtree, "subtree"},
		} {
			if s&f.bit != 0 {
				sb.WriteString(sep)
				sb.WriteString(f.name)
				sep = ","
			}
		}
		sb.WriteByte(']')
	}
	if d := Depends(n); d.OnFocus() {
		sb.WriteString("  {focus}")
	}
	return sb.String()
}
