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

// 🎯 Match is an occurrence of a signature at a byte offset.
// Offset+sig.Len() never exceeds the scanned buffer's length.
type Match struct {
	Signature Signature
	Offset    int
}

// 🔍 Scan scans buf left to right against the catalog and returns matches
// in ascending offset order. Pure: no mutation, no I/O.
//
// Matching policy: non-overlapping (a match at offset K of length L resumes
// the scan at K+L), catalog declaration order breaks ties at the same
// offset, and a signature longer than the remaining buffer is skipped.
func Scan(buf []byte, catalog []Signature) []Match {
	var matches []Match
	for off := 0; off < len(buf); {
		sig, ok := matchAt(buf, off, catalog)
		if !ok {
			off++
			continue
		}
		matches = append(matches, Match{Signature: sig, Offset: off})
		off += sig.Len()
	}
	return matches
}

// matchAt tries every catalog signature at off, in declaration order.
func matchAt(buf []byte, off int, catalog []Signature) (Signature, bool) {
	for _, sig := range catalog {
		if matchPattern(buf[off:], sig.Match) {
			return sig, true
		}
	}
	return Signature{}, false
}

func matchPattern(buf []byte, pattern []int16) bool {
	if len(pattern) > len(buf) {
		return false
	}
	for i, p := range pattern {
		if p == Wildcard {
			continue
		}
		if buf[i] != byte(p) {
			return false
		}
	}
	return true
}
