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

import (
	"fmt"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Hashable is implemented by key types that know how to place themselves in
// a Map. The returned value is a placement hash: it must be deterministic,
// but it need not be uniformly distributed or collision resistant. Key types
// outside of the builtin primitives implement Hashable (or are given a hash
// function via WithHash) in order to be used as Map keys.
type Hashable interface {
	Hash() uintptr
}

// hashFn computes the placement hash of the key pointed to by key.
type hashFn[K comparable] func(key *K) uintptr

// HashString hashes s using the djb2 function (h = h*33 + b, seeded with
// 5381). Arithmetic wraps on overflow.
func HashString(s string) uintptr {
	h := uintptr(5381)
	for i := 0; i < len(s); i++ {
		h = (h << 5) + h + uintptr(s[i])
	}
	return h
}

// HashRune returns the code point of r.
func HashRune(r rune) uintptr { return uintptr(r) }

// HashBool returns 1 for true and 0 for false.
func HashBool(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}

// HashInt8 returns v sign-extended and reinterpreted as a uintptr.
func HashInt8(v int8) uintptr { return uintptr(v) }

// HashInt16 returns v sign-extended and reinterpreted as a uintptr.
func HashInt16(v int16) uintptr { return uintptr(v) }

// HashInt32 returns v sign-extended and reinterpreted as a uintptr.
func HashInt32(v int32) uintptr { return uintptr(v) }

// HashInt returns v reinterpreted as a uintptr.
func HashInt(v int) uintptr { return uintptr(v) }

// HashInt64 returns the absolute value of v as a uintptr. The absolute value
// wraps, so math.MinInt64 hashes to 1<<63 and v and -v share a home slot.
func HashInt64(v int64) uintptr {
	if v < 0 {
		v = -v
	}
	return uintptr(v)
}

// HashUint8 returns v zero-extended to a uintptr.
func HashUint8(v uint8) uintptr { return uintptr(v) }

// HashUint16 returns v zero-extended to a uintptr.
func HashUint16(v uint16) uintptr { return uintptr(v) }

// HashUint32 returns v zero-extended to a uintptr.
func HashUint32(v uint32) uintptr { return uintptr(v) }

// HashUint64 returns v as a uintptr, truncated on 32-bit platforms.
func HashUint64(v uint64) uintptr { return uintptr(v) }

// HashUint returns v as a uintptr.
func HashUint(v uint) uintptr { return uintptr(v) }

// HashUintptr returns v unchanged.
func HashUintptr(v uintptr) uintptr { return v }

// HashFloat32 returns the IEEE 754 bit pattern of v. +0 and -0 hash
// differently and every NaN payload hashes to its own bits.
func HashFloat32(v float32) uintptr { return uintptr(math.Float32bits(v)) }

// HashFloat64 returns the IEEE 754 bit pattern of v, truncated to the width
// of uintptr on 32-bit platforms.
func HashFloat64(v float64) uintptr { return uintptr(math.Float64bits(v)) }

// XXString is a string key hashed with xxHash64 rather than djb2. It spreads
// long keys that share a prefix more evenly, at a higher per-key cost.
type XXString string

// Hash implements Hashable.
func (s XXString) Hash() uintptr {
	return uintptr(xxhash.Sum64String(string(s)))
}

// defaultHasher returns the hash function used for keys of type K when no
// WithHash option is supplied. Types implementing Hashable take precedence
// over the builtin mappings so that a named type can override how its
// underlying primitive is placed, and an interface K embedding Hashable
// hashes each key through its dynamic type.
func defaultHasher[K comparable]() hashFn[K] {
	// Check the type rather than a value: the zero value of an interface K
	// is nil and would never satisfy Hashable.
	if reflect.TypeFor[K]().Implements(reflect.TypeFor[Hashable]()) {
		return func(key *K) uintptr {
			return any(*key).(Hashable).Hash()
		}
	}

	var zero K
	var f any
	switch any(zero).(type) {
	case string:
		f = func(k *string) uintptr { return HashString(*k) }
	case bool:
		f = func(k *bool) uintptr { return HashBool(*k) }
	case int8:
		f = func(k *int8) uintptr { return HashInt8(*k) }
	case int16:
		f = func(k *int16) uintptr { return HashInt16(*k) }
	case int32:
		f = func(k *int32) uintptr { return HashRune(*k) }
	case int:
		f = func(k *int) uintptr { return HashInt(*k) }
	case int64:
		f = func(k *int64) uintptr { return HashInt64(*k) }
	case uint8:
		f = func(k *uint8) uintptr { return HashUint8(*k) }
	case uint16:
		f = func(k *uint16) uintptr { return HashUint16(*k) }
	case uint32:
		f = func(k *uint32) uintptr { return HashUint32(*k) }
	case uint:
		f = func(k *uint) uintptr { return HashUint(*k) }
	case uint64:
		f = func(k *uint64) uintptr { return HashUint64(*k) }
	case uintptr:
		f = func(k *uintptr) uintptr { return HashUintptr(*k) }
	case float32:
		f = func(k *float32) uintptr { return HashFloat32(*k) }
	case float64:
		f = func(k *float64) uintptr { return HashFloat64(*k) }
	default:
		return nil
	}
	return f.(func(*K) uintptr)
}

// mustHasher is defaultHasher, panicking if K has no known hash.
func mustHasher[K comparable]() hashFn[K] {
	h := defaultHasher[K]()
	if h == nil {
		var zero K
		panic(fmt.Sprintf("openmap: no hash function for key type %T: "+
			"implement Hashable or use WithHash", zero))
	}
	return h
}
