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
	"errors"
	"fmt"

	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
)

// Stable error codes. Static codes abort compilation;
// dynamic codes surface during iteration and let callers
// distinguish an empty result from a type violation from
// an undefined focus.
const (
	// ErrAbsentFocus: evaluation requires a context item
	// and none is established.
	ErrAbsentFocus = "XPDY0002"
	// ErrType: a value does not match a required type or
	// cardinality (static or dynamic).
	ErrType = "XPTY0004"
	// ErrEmptyType: the expression's static type is
	// empty where a non-empty sequence is required.
	ErrEmptyType = "XPST0005"
	// ErrUnresolvedVar: a variable reference has no
	// visible declaration.
	ErrUnresolvedVar = "XPST0008"
	// ErrBadBool: the argument of an effective boolean
	// value test has no defined boolean value.
	ErrBadBool = "FORG0006"
)

// Location is an optional source reference carried by
// expression nodes and attached to dynamic errors.
// The zero value means "unknown".
type Location struct {
	Line, Column int
}

func (l Location) known() bool { return l.Line != 0 }

func (l Location) String() string {
	if !l.known() {
		return "?"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// StaticError is raised during simplify, typeCheck, or
// optimize and indicates the expression can never
// succeed. It always aborts compilation of the
// enclosing unit.
type StaticError struct {
	Code string
	At   Node
	Msg  string
}

func (e *StaticError) Error() string {
	if e.At != nil {
		return fmt.Sprintf("%s: %q: %s", e.Code, ToString(e.At), e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func errStatic(code string, at Node, format string, args ...interface{}) *StaticError {
	return &StaticError{Code: code, At: at, Msg: fmt.Sprintf(format, args...)}
}

// DynamicError is raised during iteration and propagates
// up through the iterator chain unchanged, except that
// the first enclosing expression carrying a source
// location attaches it; once attached it is never
// overwritten.
type DynamicError struct {
	Code string
	Msg  string
	Loc  Location
}

func (e *DynamicError) Error() string {
	if e.Loc.known() {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Loc, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func errDynamic(code, format string, args ...interface{}) *DynamicError {
	return &DynamicError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// atLoc tags err with loc unless some deeper layer
// already attached one. Cardinality errors coming out of
// the seq package are adopted into DynamicError here so
// they carry a code and can be tagged.
func atLoc(err error, loc Location) error {
	if err == nil {
		return nil
	}
	var ce *seq.CardinalityError
	if errors.As(err, &ce) {
		err = &DynamicError{Code: ce.Code(), Msg: ce.Error()}
	}
	var de *DynamicError
	if errors.As(err, &de) {
		if !de.Loc.known() && loc.known() {
			de.Loc = loc
		}
	}
	return err
}

// locIter tags every error escaping base with loc,
// unless a deeper layer attached a location first.
type locIter struct {
	base om.Iterator
	loc  Location
}

func tagged(base om.Iterator, loc Location) om.Iterator {
	if !loc.known() {
		return base
	}
	return &locIter{base: base, loc: loc}
}

func (l *locIter) Next() (om.Item, error) {
	it, err := l.base.Next()
	if err != nil {
		return nil, atLoc(err, l.loc)
	}
	return it, nil
}

// ErrorCode extracts the stable code from a compilation
// or evaluation error, or "" when it has none.
func ErrorCode(err error) string {
	var se *StaticError
	if errors.As(err, &se) {
		return se.Code
	}
	var de *DynamicError
	if errors.As(err, &de) {
		return de.Code
	}
	var ce *seq.CardinalityError
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
