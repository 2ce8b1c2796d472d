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

	"sigs.k8s.io/yaml"
)

// Settings tunes the optimizer. The zero value of any
// field means "use the default"; a nil *Settings means
// all defaults.
type Settings struct {
	// MaxOptimizeRounds bounds the simplify/optimize
	// fixpoint iteration per compilation.
	MaxOptimizeRounds int `json:"max-optimize-rounds"`
	// DisableHoisting turns off loop-invariant hoisting,
	// which is occasionally useful when diagnosing a
	// miscompiled expression.
	DisableHoisting bool `json:"disable-hoisting"`
}

var defaultSettings = Settings{
	MaxOptimizeRounds: 5,
}

// DefaultSettings returns a copy of the default
// optimizer settings.
func DefaultSettings() *Settings {
	s := defaultSettings
	return &s
}

func (s *Settings) fill() {
	if s.MaxOptimizeRounds <= 0 {
		s.MaxOptimizeRounds = defaultSettings.MaxOptimizeRounds
	}
}

// ParseSettings reads settings from YAML (or JSON)
// configuration text.
func ParseSettings(buf []byte) (*Settings, error) {
	s := new(Settings)
	if err := yaml.UnmarshalStrict(buf, s); err != nil {
		return nil, fmt.Errorf("parsing optimizer settings: %w", err)
	}
	s.fill()
	return s, nil
}
