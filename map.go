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

// package openmap is a small open-addressing hash table using linear
// probing. See https://en.wikipedia.org/wiki/Linear_probing.
//
// # Layout
//
// A Map is a single array of slots. Each slot holds an occupied flag, a key
// and a value. All entries live directly in the array; there is no chaining.
// The home slot of a key is hash(key) mod N where N is the number of slots.
// N is not restricted to powers of two: the map starts at whatever capacity
// the caller asks for and grows to 2N+1, so after the first resize the slot
// count is always odd, which reduces the periodic clustering an even modulus
// produces with hashes like the identity hash used for integers.
//
// # Probing
//
// Lookup starts at the home slot and walks forward one slot at a time,
// wrapping from the last slot to the first, for at most N steps. It stops at
// the first unoccupied slot (the key is absent) or at the first occupied slot
// holding the key (the key is present). Insertion of a new key walks the
// same sequence and claims the first unoccupied slot.
//
// Entries are never removed, so a slot that becomes occupied stays occupied
// until the array is replaced by a resize. That is what makes "stop at the
// first unoccupied slot" a correct proof of absence without tombstones.
//
// # Growth
//
// Before a new key is inserted the map checks whether used >= N/2. If so it
// allocates a fresh array of 2N+1 slots (3 for an empty map) and re-inserts
// every entry, each at the first free slot of its probe sequence for the
// new N. The check happens before the insertion, so the load factor is at
// most 1/2 whenever Put returns. Lookups degrade towards O(N) as the load
// factor approaches that bound; growth is amortized O(1) per insertion.
//
// # Hashing
//
// Keys are hashed by their Hash method if they implement Hashable, by a
// function supplied with WithHash, or by one of the builtin mappings for Go's
// primitive types (djb2 for strings, the value itself for integers, the bit
// pattern for floats). These are placement hashes and offer no protection
// against adversarial keys.
//
// A Map is NOT goroutine-safe.
package openmap

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	debug      = false
	invariants = false

	// defaultCapacity is the number of slots allocated by NewDefault.
	defaultCapacity = 64
)

// Slot holds a key and value along with whether the slot is in use. The key
// and value of an unoccupied slot are zero and never compared.
type Slot[K comparable, V any] struct {
	occupied bool
	key      K
	value    V
}

// Map is an unordered map from keys to values with Put, Get, GetMut, Iter
// and All operations. There is no Delete.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	// The hash function for keys of type K. Resolved once at construction.
	hash hashFn[K]
	// The allocator to use for the slots slice. Nil once the map is closed.
	allocator Allocator[K, V]
	// Receives a record on each resize. May be nil.
	logger *slog.Logger
	// slots is the table itself. Its length is the capacity of the map.
	slots []Slot[K, V]
	// The number of occupied slots (i.e. the number of entries in the map).
	used int
	// gen is incremented on every structural change (a new key or a resize)
	// and is used by Cursor to detect modification during iteration.
	gen uint64
}

// New constructs a new Map with exactly capacity slots. If capacity is 0 the
// map starts out with no slots and grows on the first insert; lookups on
// such a map report every key as absent. New panics if capacity is negative
// or if no hash function is known for K.
func New[K comparable, V any](capacity int, options ...option[K, V]) *Map[K, V] {
	if capacity < 0 {
		panic(fmt.Sprintf("openmap: negative capacity %d", capacity))
	}

	m := &Map[K, V]{
		allocator: defaultAllocator[K, V]{},
	}

	for _, op := range options {
		op.apply(m)
	}
	if m.hash == nil {
		m.hash = mustHasher[K]()
	}
	if m.allocator == nil {
		m.allocator = defaultAllocator[K, V]{}
	}

	if capacity > 0 {
		m.slots = m.allocator.AllocSlots(capacity)
	}

	m.checkInvariants()
	return m
}

// NewDefault constructs a new Map with 64 slots.
func NewDefault[K comparable, V any](options ...option[K, V]) *Map[K, V] {
	return New[K, V](defaultCapacity, options...)
}

// Empty constructs a new Map with no slots. Sizing is deferred until the
// first insert.
func Empty[K comparable, V any](options ...option[K, V]) *Map[K, V] {
	return New[K, V](0, options...)
}

// Close closes the map, releasing its slots back to its configured
// allocator. It is unnecessary to close a map using the default allocator. A
// closed map reports every key as absent and panics on Put. Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	if m.allocator != nil && len(m.slots) > 0 {
		m.allocator.FreeSlots(m.slots)
	}
	m.slots = nil
	m.used = 0
	m.gen++
	m.allocator = nil
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.used
}

// IsEmpty returns true if the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.used == 0
}

// Capacity returns the number of slots allocated by the map, occupied or not.
func (m *Map[K, V]) Capacity() int {
	return len(m.slots)
}

// Index returns the slot index holding key, or ok=false if the key is not
// present.
func (m *Map[K, V]) Index(key K) (index int, ok bool) {
	n := uintptr(len(m.slots))
	if n == 0 {
		return -1, false
	}

	i := m.hash(&key) % n
	if debug {
		fmt.Printf("index(%v): home=%d capacity=%d\n", key, i, n)
	}

	for p := uintptr(0); p < n; p++ {
		s := &m.slots[i]
		if !s.occupied || s.key == key {
			break
		}
		if debug {
			fmt.Printf("index(skipping): index=%d key=%v\n", i, s.key)
		}
		if i++; i == n {
			i = 0
		}
	}

	if s := &m.slots[i]; s.occupied && s.key == key {
		return int(i), true
	}
	if debug {
		fmt.Printf("index(not-found): index=%d\n", i)
	}
	return -1, false
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i, ok := m.Index(key)
	if !ok {
		return value, false
	}
	return m.slots[i].value, true
}

// GetMut returns a pointer to the value stored for key, or ok=false if the
// key is not present. The pointer is invalidated by the next Put of a key
// that is not already present, since that Put may resize the map.
func (m *Map[K, V]) GetMut(key K) (value *V, ok bool) {
	i, ok := m.Index(key)
	if !ok {
		return nil, false
	}
	return &m.slots[i].value, true
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	// Put is find composed with uncheckedPut. Overwriting an existing value
	// is not a structural change: the key stays where it is and used is
	// unchanged.
	if v, ok := m.GetMut(key); ok {
		if debug {
			fmt.Printf("put(updating): key=%v\n", key)
		}
		*v = value
		return
	}

	// The load factor check happens before the insertion. An empty map has
	// used == 0 >= 0/2 and therefore always grows here.
	if m.used >= len(m.slots)/2 {
		m.resize()
	}
	m.uncheckedPut(key, value)
	m.used++
	m.gen++
	m.checkInvariants()
}

// uncheckedPut inserts an entry known not to be in the table into the first
// unoccupied slot of its probe sequence. Used by Put after it has failed to
// find an existing entry to overwrite, and by resize.
func (m *Map[K, V]) uncheckedPut(key K, value V) {
	n := uintptr(len(m.slots))
	i := m.hash(&key) % n
	for p := uintptr(0); p < n; p++ {
		s := &m.slots[i]
		if !s.occupied {
			s.occupied = true
			s.key = key
			s.value = value
			if debug {
				fmt.Printf("put(inserting): index=%d used=%d\n", i, m.used+1)
			}
			return
		}
		if i++; i == n {
			i = 0
		}
	}
	panic(fmt.Sprintf("openmap: no unoccupied slot for %v\n%s", key, m.DebugString()))
}

// resize allocates a new slot array of 2N+1 slots, uncheckedPuts each entry
// of the old array into it (we know that no entry is present twice) and
// releases the old array.
func (m *Map[K, V]) resize() {
	if m.allocator == nil {
		panic("openmap: use of closed Map")
	}

	oldSlots := m.slots
	newCapacity := 2*len(oldSlots) + 1
	// Growing an empty map to a single slot would leave it full after the
	// insert that triggered the resize.
	for m.used >= newCapacity/2 {
		newCapacity = 2*newCapacity + 1
	}
	m.slots = m.allocator.AllocSlots(newCapacity)
	m.gen++

	if debug {
		fmt.Printf("resize: capacity=%d->%d used=%d\n", len(oldSlots), newCapacity, m.used)
	}

	for i := range oldSlots {
		if s := &oldSlots[i]; s.occupied {
			m.uncheckedPut(s.key, s.value)
		}
	}

	if len(oldSlots) > 0 {
		m.allocator.FreeSlots(oldSlots)
	}

	if m.logger != nil {
		m.logger.Debug("openmap: resized",
			"from", len(oldSlots), "to", newCapacity, "used", m.used)
	}
}

// All calls yield sequentially for each key and value present in the map, in
// slot order. If yield returns false, iteration stops. Inserting a new key
// from within yield panics; overwriting the value of an existing key is
// allowed.
//
// All conforms to the range-over-func signature:
//
//	for k, v := range m.All {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	c := m.Iter()
	for {
		k, v, ok := c.Next()
		if !ok || !yield(k, v) {
			return
		}
	}
}

// DebugString returns a dump of every slot in the map, one per line.
func (m *Map[K, V]) DebugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d\n", len(m.slots), m.used)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: %v=%v [home=%d]\n",
			i, s.key, s.value, m.hash(&s.key)%uintptr(len(m.slots)))
	}
	return buf.String()
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		// Every occupied slot must be the one Index finds for its key.
		var used int
		for i := range m.slots {
			s := &m.slots[i]
			if !s.occupied {
				continue
			}
			used++
			if s.key != s.key {
				// NaN. Never equal to itself so Index cannot find it.
				continue
			}
			if j, ok := m.Index(s.key); !ok || j != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v found at %d (ok=%t)\n%s",
					i, s.key, j, ok, m.DebugString()))
			}
		}

		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, m.used, m.DebugString()))
		}

		if 2*m.used > len(m.slots) {
			panic(fmt.Sprintf("invariant failed: used=%d exceeds half of capacity=%d\n%s",
				m.used, len(m.slots), m.DebugString()))
		}
	}
}
