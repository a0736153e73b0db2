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

package machofile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/libpatch/pkg/machofile"
	"gitlab.com/tozd/go/errors"
)

// 🧪 TestRecognize tests magic-number recognition for every accepted
// container form plus the rejection cases
func TestRecognize(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		wantErr bool
	}{
		{name: "macho_64_le", header: []byte{0xCF, 0xFA, 0xED, 0xFE}},
		{name: "macho_64_be", header: []byte{0xFE, 0xED, 0xFA, 0xCF}},
		{name: "macho_32_le", header: []byte{0xCE, 0xFA, 0xED, 0xFE}},
		{name: "macho_32_be", header: []byte{0xFE, 0xED, 0xFA, 0xCE}},
		{name: "fat", header: []byte{0xCA, 0xFE, 0xBA, 0xBE}},
		{name: "fat_swapped", header: []byte{0xBE, 0xBA, 0xFE, 0xCA}},
		{name: "fat_64", header: []byte{0xCA, 0xFE, 0xBA, 0xBF}},
		{name: "elf", header: []byte{0x7F, 'E', 'L', 'F'}},
		{name: "text_file", header: []byte("#!/b"), wantErr: true},
		{name: "zeroes", header: []byte{0x00, 0x00, 0x00, 0x00}, wantErr: true},
		{name: "too_short", header: []byte{0xCF, 0xFA}, wantErr: true},
		{name: "empty", header: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append(tt.header, make([]byte, 32)...)
			if tt.name == "too_short" || tt.name == "empty" {
				buf = tt.header
			}
			err := machofile.Recognize(buf)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, machofile.ErrNotLibrary))
				return
			}
			require.NoError(t, err)
		})
	}
}
