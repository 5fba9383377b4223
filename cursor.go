// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openmap

// Cursor is a forward-only iterator over the entries of a Map in slot order.
// A Cursor cannot be restarted. The Map must not gain keys or be resized
// while a Cursor over it is in use: Next panics if it has been.
type Cursor[K comparable, V any] struct {
	m     *Map[K, V]
	gen   uint64
	index int
}

// Iter returns a Cursor positioned before the first slot of the map.
func (m *Map[K, V]) Iter() *Cursor[K, V] {
	return &Cursor[K, V]{m: m, gen: m.gen}
}

// Next advances to the next occupied slot and returns its key and value. It
// returns ok=false once every slot has been visited.
func (c *Cursor[K, V]) Next() (key K, value V, ok bool) {
	if c.gen != c.m.gen {
		panic("openmap: map modified during iteration")
	}
	for c.index < len(c.m.slots) {
		s := &c.m.slots[c.index]
		c.index++
		if s.occupied {
			return s.key, s.value, true
		}
	}
	return key, value, false
}
