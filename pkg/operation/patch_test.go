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

package operation_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/libpatch/pkg/machofile"
	"github.com/walteh/libpatch/pkg/operation"
	"github.com/walteh/libpatch/pkg/signature"
	"gitlab.com/tozd/go/errors"
)

// 🛠️ fakeTool records invocations and optionally fails, standing in for
// the codesign and xattr collaborators
type fakeTool struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeTool) record(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return f.err
}

func (f *fakeTool) Sign(ctx context.Context, path string) error  { return f.record(path) }
func (f *fakeTool) Clear(ctx context.Context, path string) error { return f.record(path) }

func (f *fakeTool) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// 🧪 testContext returns a context carrying a test logger
func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 libraryBuffer builds a Mach-O-magic buffer of the given size
func libraryBuffer(size int) []byte {
	buf := make([]byte, size)
	copy(buf, []byte{0xCF, 0xFA, 0xED, 0xFE})
	return buf
}

// 🧪 writeLibrary writes a library buffer into a temp dir
func writeLibrary(t *testing.T, buf []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libcapability.dylib")
	require.NoError(t, os.WriteFile(path, buf, 0755))
	return path
}

// 🧪 gateSignature returns the jne capability gate used across these tests
func gateSignature(t *testing.T) signature.Signature {
	t.Helper()
	sig, err := signature.Parse("capability-gate-jne", "3C 00 75 05", "3C 00 EB 05")
	require.NoError(t, err)
	return sig
}

// 🧪 TestPatchFileNoMatches tests that a clean library is a no-op: no
// report, no writes, no tool invocations
func TestPatchFileNoMatches(t *testing.T) {
	buf := libraryBuffer(512)
	path := writeLibrary(t, buf)
	signer := &fakeTool{}
	xattr := &fakeTool{}

	op, err := operation.NewPatchOperation(path, operation.Options{
		Sign:       true,
		ClearXattr: true,
		Catalog:    []signature.Signature{gateSignature(t)},
		Signer:     signer,
		Xattr:      xattr,
	})
	require.NoError(t, err)

	report, err := op.Execute(testContext(t))
	require.NoError(t, err)
	assert.Nil(t, report)

	// No sibling, no backup, no tool calls, original untouched.
	assert.NoFileExists(t, path+".patched")
	assert.NoFileExists(t, path+".bak")
	assert.Zero(t, signer.callCount())
	assert.Zero(t, xattr.callCount())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf, content)
}

// 🧪 TestPatchFileDryRun tests that dry-run computes the full report with
// zero side effects
func TestPatchFileDryRun(t *testing.T) {
	buf := libraryBuffer(512)
	copy(buf[100:], []byte{0x3C, 0x00, 0x75, 0x05})
	path := writeLibrary(t, buf)
	signer := &fakeTool{}
	xattr := &fakeTool{}

	op, err := operation.NewPatchOperation(path, operation.Options{
		DryRun:     true,
		Sign:       true,
		ClearXattr: true,
		Catalog:    []signature.Signature{gateSignature(t)},
		Signer:     signer,
		Xattr:      xattr,
	})
	require.NoError(t, err)

	report, err := op.Execute(testContext(t))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, path, report.OriginalPath)
	assert.Equal(t, path+".patched", report.PatchedPath)
	require.Len(t, report.Routines, 1)
	assert.Equal(t, 100, report.Routines[0].Offset)

	assert.NoFileExists(t, path+".patched")
	assert.Zero(t, signer.callCount())
	assert.Zero(t, xattr.callCount())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf, content)
}

// 🧪 TestPatchFileSibling tests the concrete scenario: the jne gate at
// offset 0x1040 in a >4KiB buffer produces a .patched sibling and one
// routine record with the replacement bytes
func TestPatchFileSibling(t *testing.T) {
	buf := libraryBuffer(8192)
	copy(buf[0x1040:], []byte{0x3C, 0x00, 0x75, 0x05})
	path := writeLibrary(t, buf)

	op, err := operation.NewPatchOperation(path, operation.Options{
		Catalog: []signature.Signature{gateSignature(t)},
	})
	require.NoError(t, err)

	report, err := op.Execute(testContext(t))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, path+".patched", report.PatchedPath)
	require.Len(t, report.Routines, 1)
	assert.Equal(t, 4160, report.Routines[0].Offset)
	assert.Equal(t, []byte{0x3C, 0x00, 0xEB, 0x05}, report.Routines[0].Bytes)

	// Original never mutated in sibling mode.
	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf, original)

	patched, err := os.ReadFile(path + ".patched")
	require.NoError(t, err)
	require.Len(t, patched, len(buf))
	assert.Equal(t, []byte{0x3C, 0x00, 0xEB, 0x05}, patched[0x1040:0x1044])
	assert.Equal(t, buf[:0x1040], patched[:0x1040])
	assert.Equal(t, buf[0x1044:], patched[0x1044:])
}

// 🧪 TestPatchFileInPlaceWithBackup tests that the .bak copy is
// byte-identical to the pre-patch original and the original is overwritten
func TestPatchFileInPlaceWithBackup(t *testing.T) {
	buf := libraryBuffer(512)
	copy(buf[64:], []byte{0x3C, 0x00, 0x75, 0x05})
	path := writeLibrary(t, buf)

	op, err := operation.NewPatchOperation(path, operation.Options{
		InPlace: true,
		Backup:  true,
		Catalog: []signature.Signature{gateSignature(t)},
	})
	require.NoError(t, err)

	report, err := op.Execute(testContext(t))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, path, report.PatchedPath)

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, buf, backup)

	patched, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3C, 0x00, 0xEB, 0x05}, patched[64:68])
	assert.NoFileExists(t, path+".patched")
}

// 🧪 TestPatchFileToolInvocations tests that sign and xattr run against the
// destination and that their failures do not fail the task
func TestPatchFileToolInvocations(t *testing.T) {
	tests := []struct {
		name      string
		signerErr error
		xattrErr  error
	}{
		{name: "both_succeed"},
		{name: "signer_fails", signerErr: errors.New("codesign exploded")},
		{name: "xattr_fails", xattrErr: errors.New("xattr exploded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := libraryBuffer(256)
			copy(buf[32:], []byte{0x3C, 0x00, 0x75, 0x05})
			path := writeLibrary(t, buf)
			signer := &fakeTool{err: tt.signerErr}
			xattr := &fakeTool{err: tt.xattrErr}

			op, err := operation.NewPatchOperation(path, operation.Options{
				Sign:       true,
				ClearXattr: true,
				Catalog:    []signature.Signature{gateSignature(t)},
				Signer:     signer,
				Xattr:      xattr,
			})
			require.NoError(t, err)

			report, err := op.Execute(testContext(t))
			require.NoError(t, err, "tool failures are warnings, not task failures")
			require.NotNil(t, report)

			// Tools ran against the destination, patched output kept.
			dest := path + ".patched"
			assert.Equal(t, []string{dest}, signer.calls)
			assert.Equal(t, []string{dest}, xattr.calls)
			assert.FileExists(t, dest)
		})
	}
}

// 🧪 TestPatchFileFormatError tests rejection of non-library content
func TestPatchFileFormatError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notalib.dylib")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0755))

	op, err := operation.NewPatchOperation(path, operation.Options{
		Catalog: signature.Catalog(),
	})
	require.NoError(t, err)

	_, err = op.Execute(testContext(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, machofile.ErrNotLibrary))
}

// 🧪 TestPatchFileMissing tests the read failure path
func TestPatchFileMissing(t *testing.T) {
	op, err := operation.NewPatchOperation(filepath.Join(t.TempDir(), "gone.dylib"), operation.Options{
		Catalog: signature.Catalog(),
	})
	require.NoError(t, err)

	_, err = op.Execute(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

// 🧪 TestNewPatchOperationValidation tests constructor validation
func TestNewPatchOperationValidation(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		opts          operation.Options
		expectedError string
	}{
		{
			name:          "missing_path",
			opts:          operation.Options{Catalog: signature.Catalog()},
			expectedError: "path is required",
		},
		{
			name:          "missing_catalog",
			path:          "lib.dylib",
			expectedError: "signature catalog is required",
		},
		{
			name:          "missing_signer",
			path:          "lib.dylib",
			opts:          operation.Options{Sign: true, Catalog: signature.Catalog()},
			expectedError: "signer is required",
		},
		{
			name:          "missing_xattr_clearer",
			path:          "lib.dylib",
			opts:          operation.Options{ClearXattr: true, Catalog: signature.Catalog()},
			expectedError: "xattr clearer is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := operation.NewPatchOperation(tt.path, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
