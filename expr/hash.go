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
	"github.com/dchest/siphash"
)

// fingerprint keys; fixed so fingerprints are stable
// across processes.
const (
	fpk0 = 0x7061746865787072 // "pathexpr"
	fpk1 = 0x66696e6765727072 // "fingerpr"
)

// Fingerprint returns a structural hash of n: equal trees
// hash equally. The converse does not hold, so callers
// deduplicating by fingerprint confirm with Equals.
func Fingerprint(n Node) uint64 {
	return siphash.Hash(fpk0, fpk1, []byte(ToString(n)))
}
