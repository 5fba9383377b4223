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
	"strconv"
	"testing"
)

// BenchmarkSequential inserts and then looks up 1M sequential uint64 keys,
// each mapped to itself.
func BenchmarkSequential(b *testing.B) {
	const n = 1_000_000
	b.Run("impl=runtimeMap", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			m := make(map[uint64]uint64)
			for k := uint64(0); k < n; k++ {
				m[k] = k
			}
			for k := uint64(0); k < n; k++ {
				if m[k] != k {
					b.Fatalf("key %d: got %d", k, m[k])
				}
			}
		}
	})
	b.Run("impl=openMap", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			m := NewDefault[uint64, uint64]()
			for k := uint64(0); k < n; k++ {
				m.Put(k, k)
			}
			for k := uint64(0); k < n; k++ {
				if v, _ := m.Get(k); v != k {
					b.Fatalf("key %d: got %d", k, v)
				}
			}
		}
	})
}

// BenchmarkGet looks up keys 0..n-1 (hit) or n..2n-1 (miss) in a map
// holding keys 0..n-1.
func BenchmarkGet(b *testing.B) {
	for _, hit := range []bool{true, false} {
		name := "miss"
		if hit {
			name = "hit"
		}
		b.Run(name, func(b *testing.B) {
			for _, n := range []int{64, 4096, 1 << 16} {
				lookups := make([]uint64, n)
				for i := range lookups {
					lookups[i] = uint64(i)
					if !hit {
						lookups[i] += uint64(n)
					}
				}

				b.Run("impl=runtimeMap/len="+strconv.Itoa(n), func(b *testing.B) {
					m := make(map[uint64]uint64, n)
					for k := 0; k < n; k++ {
						m[uint64(k)] = uint64(k)
					}
					b.ResetTimer()
					var found int
					for i := 0; i < b.N; i++ {
						if _, ok := m[lookups[i%n]]; ok {
							found++
						}
					}
					checkFound(b, hit, found)
				})

				b.Run("impl=openMap/len="+strconv.Itoa(n), func(b *testing.B) {
					m := Empty[uint64, uint64]()
					for k := 0; k < n; k++ {
						m.Put(uint64(k), uint64(k))
					}
					b.ResetTimer()
					var found int
					for i := 0; i < b.N; i++ {
						if _, ok := m.Get(lookups[i%n]); ok {
							found++
						}
					}
					checkFound(b, hit, found)
				})
			}
		})
	}
}

func checkFound(b *testing.B, hit bool, found int) {
	b.StopTimer()
	want := 0
	if hit {
		want = b.N
	}
	if found != want {
		b.Fatalf("found %d of %d lookups, want %d", found, b.N, want)
	}
}
