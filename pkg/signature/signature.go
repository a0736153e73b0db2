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

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🃏 Wildcard marks a match position that accepts any byte value. Wildcards
// model instruction operands (register selection, relative displacements)
// that vary across compilations while the opcode skeleton is stable.
const Wildcard int16 = -1

// 🔏 Signature is one patchable routine: a named pair of equal-length byte
// patterns. Match may contain wildcards; Replace is always concrete bytes.
type Signature struct {
	Name    string  // Routine name, for reporting
	Match   []int16 // Byte values 0x00-0xFF, or Wildcard
	Replace []byte  // Written over the matched region
}

// 📏 Len returns the pattern length in bytes.
func (s Signature) Len() int {
	return len(s.Match)
}

// 🔍 Validate checks the signature's structural invariants.
func (s Signature) Validate() error {
	if s.Name == "" {
		return errors.New("signature name is required")
	}
	if len(s.Match) == 0 {
		return errors.Errorf("signature %q: empty match pattern", s.Name)
	}
	if len(s.Match) != len(s.Replace) {
		return errors.Errorf("signature %q: match is %d bytes but replacement is %d, patches must not change file size",
			s.Name, len(s.Match), len(s.Replace))
	}
	for i, b := range s.Match {
		if b != Wildcard && (b < 0 || b > 0xFF) {
			return errors.Errorf("signature %q: match byte %d out of range: %d", s.Name, i, b)
		}
	}
	return nil
}

// 📝 String renders the signature as "name: match -> replace".
func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteString(": ")
	for i, b := range s.Match {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if b == Wildcard {
			sb.WriteString("??")
		} else {
			fmt.Fprintf(&sb, "%02X", b)
		}
	}
	sb.WriteString(" -> ")
	for i, b := range s.Replace {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// 🏭 Parse builds a signature from hex pattern strings, e.g.
// Parse("gate", "3C 00 ?? 05", "3C 00 EB 05"). Wildcards ("??") are only
// valid in the match pattern.
func Parse(name, match, replace string) (Signature, error) {
	m, err := ParsePattern(match)
	if err != nil {
		return Signature{}, errors.Errorf("signature %q: parsing match: %w", name, err)
	}
	r, err := ParseBytes(replace)
	if err != nil {
		return Signature{}, errors.Errorf("signature %q: parsing replacement: %w", name, err)
	}
	sig := Signature{Name: name, Match: m, Replace: r}
	if err := sig.Validate(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// 🔢 ParsePattern parses a whitespace-separated hex pattern that may
// contain "??" wildcards.
func ParsePattern(pattern string) ([]int16, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return nil, errors.New("empty pattern")
	}
	out := make([]int16, 0, len(fields))
	for _, f := range fields {
		if f == "??" {
			out = append(out, Wildcard)
			continue
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, errors.Errorf("bad pattern byte %q: %w", f, err)
		}
		out = append(out, int16(v))
	}
	return out, nil
}

// 🔢 ParseBytes parses a whitespace-separated hex byte string; no wildcards.
func ParseBytes(pattern string) ([]byte, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return nil, errors.New("empty pattern")
	}
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		if f == "??" {
			return nil, errors.New("wildcards are not allowed in replacement bytes")
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, errors.Errorf("bad byte %q: %w", f, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// mustSignature is for the built-in catalog only; it panics on malformed
// patterns, which the catalog test guards against.
func mustSignature(name, match, replace string) Signature {
	sig, err := Parse(name, match, replace)
	if err != nil {
		panic(err)
	}
	return sig
}
