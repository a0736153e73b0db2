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

// Package machofile recognizes dynamic-library containers by magic number
// only. Patching locates routines by raw byte offsets, so no load commands,
// sections, or symbols are ever parsed.
package machofile

import (
	"encoding/binary"

	"gitlab.com/tozd/go/errors"
)

// ❌ ErrNotLibrary is returned for buffers that do not start with a
// recognized container magic.
var ErrNotLibrary = errors.New("not a recognized dynamic library container")

// 🧲 Mach-O magic numbers, both byte orders.
const (
	Magic32    uint32 = 0xfeedface
	Magic64    uint32 = 0xfeedfacf
	Cigam32    uint32 = 0xcefaedfe
	Cigam64    uint32 = 0xcffaedfe
	MagicFat   uint32 = 0xcafebabe
	MagicFat64 uint32 = 0xcafebabf
	CigamFat   uint32 = 0xbebafeca
	CigamFat64 uint32 = 0xbfbafeca
)

// elfMagic is \x7fELF; .so inputs are accepted alongside Mach-O.
var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// 🔍 Recognize reports whether buf looks like a Mach-O (thin or
// fat/universal) or ELF container. This is a magic-only sanity check.
func Recognize(buf []byte) error {
	if len(buf) < 4 {
		return errors.Errorf("%w: %d bytes is too short for a header", ErrNotLibrary, len(buf))
	}
	if [4]byte(buf[:4]) == elfMagic {
		return nil
	}
	switch binary.BigEndian.Uint32(buf[:4]) {
	case Magic32, Magic64, Cigam32, Cigam64,
		MagicFat, MagicFat64, CigamFat, CigamFat64:
		return nil
	}
	return errors.Errorf("%w: magic %#08x", ErrNotLibrary, binary.BigEndian.Uint32(buf[:4]))
}
