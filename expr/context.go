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
	"github.com/pathlang/pathlang/om"
	"github.com/pathlang/pathlang/seq"
	"github.com/pathlang/pathlang/seqtype"
)

// StaticEnv is the read-only static context consumed
// during compilation: the declared type of the context
// item, namespace bindings, the default collation, and
// the optimizer settings.
type StaticEnv struct {
	// ContextType is the declared static type of the
	// context item; the zero value means "unknown item,
	// possibly absent".
	ContextType seqtype.SequenceType
	// Namespaces maps prefixes to URIs for name
	// resolution in the front end; the compiler itself
	// only carries it through.
	Namespaces map[string]string
	// DefaultCollation names the collation for string
	// comparison. Only codepoint collation is built in.
	DefaultCollation string
	// Settings tunes the optimizer; nil means defaults.
	Settings *Settings
}

func (e *StaticEnv) settings() *Settings {
	if e == nil || e.Settings == nil {
		return &defaultSettings
	}
	e.Settings.fill()
	return e.Settings
}

func (e *StaticEnv) contextType() seqtype.SequenceType {
	if e == nil || e.ContextType.Item == nil {
		return seqtype.SequenceType{Item: seqtype.AnyItem{}, Card: seqtype.ZeroOrOne}
	}
	return e.ContextType
}

// withContext returns a copy of e whose context item
// type is t; used when a subexpression establishes a
// new focus.
func (e *StaticEnv) withContext(t seqtype.SequenceType) *StaticEnv {
	var cp StaticEnv
	if e != nil {
		cp = *e
	}
	cp.ContextType = t
	return &cp
}

// slot is the run-time cell behind a memoized variable
// binding. eval runs at most once; its result (or error)
// is retained for every subsequent reference.
type slot struct {
	items  []om.Item
	err    error
	filled bool
	eval   func() ([]om.Item, error)
}

func (s *slot) value() ([]om.Item, error) {
	if !s.filled {
		s.filled = true
		if s.eval != nil {
			s.items, s.err = s.eval()
			s.eval = nil
		}
	}
	return s.items, s.err
}

// Context is a dynamic evaluation frame: the focus plus
// the local variable slots. A Context is confined to one
// logical thread of control; concurrent evaluations of
// the same compiled expression each take their own frame
// via Compiled.NewContext.
type Context struct {
	focus *seq.Focus
	slots []*slot
}

// NewContext returns a fresh evaluation frame with room
// for frameSize local variables and no focus.
func NewContext(frameSize int) *Context {
	slots := make([]*slot, frameSize)
	for i := range slots {
		slots[i] = &slot{}
	}
	return &Context{slots: slots}
}

// WithContextItem returns a frame focused on a single
// item, sharing local variable slots with c.
func (c *Context) WithContextItem(it om.Item) *Context {
	return c.subFocus(seq.SingletonFocus(it))
}

// subFocus returns a frame with a new focus; slots are
// shared, which is safe because slot numbering is unique
// within a compiled unit.
func (c *Context) subFocus(f *seq.Focus) *Context {
	cc := *c
	cc.focus = f
	return &cc
}

// item returns the context item, or an absent-focus
// error when no focus is established.
func (c *Context) item() (om.Item, error) {
	if c == nil || c.focus == nil || c.focus.Current() == nil {
		return nil, errDynamic(ErrAbsentFocus, "the context item is absent")
	}
	return c.focus.Current(), nil
}

// position returns the 1-based focus position.
func (c *Context) position() (int, error) {
	if c == nil || c.focus == nil || c.focus.Position() == 0 {
		return 0, errDynamic(ErrAbsentFocus, "the context position is absent")
	}
	return c.focus.Position(), nil
}

// last returns the focus size. Expressions that establish
// a focus ground their input up front whenever the body
// depends on the size, so a defined focus always reports
// it here.
func (c *Context) last() (int, error) {
	if c == nil || c.focus == nil {
		return 0, errDynamic(ErrAbsentFocus, "the context size is absent")
	}
	if n := c.focus.Last(); n >= 0 {
		return n, nil
	}
	return 0, errDynamic(ErrAbsentFocus, "the context size is not available")
}

func (c *Context) slot(i int) *slot {
	if c == nil || i < 0 || i >= len(c.slots) {
		return nil
	}
	return c.slots[i]
}
