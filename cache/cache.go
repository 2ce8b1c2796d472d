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

// Package cache memoizes compiled expressions keyed by
// their source text, so that hot expressions skip the
// compilation pipeline. Entries are stored serialized and
// compressed; a hit pays one decode instead of a full
// compile.
package cache

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/pathlang/pathlang/compr"
	"github.com/pathlang/pathlang/expr"
)

// Key identifies a cache entry. Keys hash the full
// compilation input: callers compiling the same source
// under different static environments must mix a
// discriminator into the source string.
type Key [blake2b.Size256]byte

// KeyOf derives the cache key for source.
func KeyOf(source string) Key {
	return blake2b.Sum256([]byte(source))
}

type entry struct {
	id   uuid.UUID
	blob []byte // compressed tree encoding
	size int    // uncompressed size
}

// Cache is a bounded, thread-safe plan cache.
type Cache struct {
	lock    sync.Mutex
	entries map[Key]*entry
	max     int
	hits    int64
	misses  int64

	comp compr.Compressor
	dec  compr.Decompressor
}

// New returns a cache bounded at maxEntries.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Cache{
		entries: make(map[Key]*entry),
		max:     maxEntries,
		comp:    compr.Compression("zstd"),
		dec:     compr.Decompression("zstd"),
	}
}

// Put stores a compiled expression under the key of its
// source text.
func (c *Cache) Put(source string, compiled *expr.Compiled) error {
	var raw bytes.Buffer
	if err := expr.Encode(compiled.Root, &raw); err != nil {
		return fmt.Errorf("cache: encoding plan: %w", err)
	}
	e := &entry{
		id:   compiled.ID,
		blob: c.comp.Compress(raw.Bytes(), nil),
		size: raw.Len(),
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.entries[KeyOf(source)]; !ok && len(c.entries) >= c.max {
		c.evict()
	}
	c.entries[KeyOf(source)] = e
	return nil
}

// evict drops one entry; called with the lock held.
// Eviction order is arbitrary: the cache is a memo, not
// an LRU, and the bound only caps memory.
func (c *Cache) evict() {
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}

// Get returns the compiled expression stored for source,
// or ok=false on a miss. The returned plan is freshly
// reconstructed and independently evaluable.
func (c *Cache) Get(source string) (*expr.Compiled, bool, error) {
	c.lock.Lock()
	e, ok := c.entries[KeyOf(source)]
	if !ok {
		c.misses++
		c.lock.Unlock()
		return nil, false, nil
	}
	c.hits++
	c.lock.Unlock()

	raw := make([]byte, e.size)
	if err := c.dec.Decompress(e.blob, raw); err != nil {
		return nil, false, fmt.Errorf("cache: decompressing plan: %w", err)
	}
	root, err := expr.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("cache: decoding plan: %w", err)
	}
	frame, err := expr.ResolveBindings(root)
	if err != nil {
		return nil, false, fmt.Errorf("cache: relinking plan: %w", err)
	}
	return &expr.Compiled{ID: e.id, Root: root, FrameSize: frame}, true, nil
}

// Len returns the number of cached plans.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.hits, c.misses
}
