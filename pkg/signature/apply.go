// Copyright 2025 walteh LLC
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

package signature

// ✍️ Routine records one applied patch: the replacement bytes actually
// written and the offset they were written at.
type Routine struct {
	Bytes  []byte
	Offset int
}

// 🩹 Apply overwrites each matched region in buf with its signature's
// replacement bytes and returns the patched copy plus one Routine per
// match, in ascending offset order. Pure: buf is not mutated, no I/O.
// Bytes outside matched regions are byte-for-byte identical to the input.
func Apply(buf []byte, matches []Match) ([]byte, []Routine) {
	patched := append([]byte(nil), buf...)
	routines := make([]Routine, 0, len(matches))
	for _, m := range matches {
		copy(patched[m.Offset:], m.Signature.Replace)
		routines = append(routines, Routine{
			Bytes:  append([]byte(nil), m.Signature.Replace...),
			Offset: m.Offset,
		})
	}
	return patched, routines
}
