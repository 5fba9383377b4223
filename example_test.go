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

package openmap_test

import (
	"fmt"

	"github.com/cockroachdb/openmap"
)

func Example() {
	days := openmap.New[uint8, string](7)
	days.Put(1, "Monday")
	days.Put(2, "Tuesday")
	days.Put(3, "Wednesday")
	days.Put(4, "Thursday")
	days.Put(5, "Friday")
	days.Put(6, "Saturday")
	days.Put(7, "Sunday")

	fmt.Println(days.Get(1))
	fmt.Println(days.Len(), days.Capacity())

	// Small integers hash to themselves, so slot order is key order here.
	for k, v := range days.All {
		fmt.Printf("%d: %s\n", k, v)
	}
	// Output:
	// Monday true
	// 7 15
	// 1: Monday
	// 2: Tuesday
	// 3: Wednesday
	// 4: Thursday
	// 5: Friday
	// 6: Saturday
	// 7: Sunday
}

func ExampleMap_GetMut() {
	counts := openmap.NewDefault[string, int]()
	for _, w := range []string{"a", "b", "a", "c", "a"} {
		if n, ok := counts.GetMut(w); ok {
			*n++
		} else {
			counts.Put(w, 1)
		}
	}
	fmt.Println(counts.Get("a"))
	fmt.Println(counts.Len())
	// Output:
	// 3 true
	// 3
}

func ExampleMap_Iter() {
	m := openmap.New[int, string](5)
	m.Put(2, "two")
	m.Put(0, "zero")

	c := m.Iter()
	for k, v, ok := c.Next(); ok; k, v, ok = c.Next() {
		fmt.Println(k, v)
	}
	// Output:
	// 0 zero
	// 2 two
}
