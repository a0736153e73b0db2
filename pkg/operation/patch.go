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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/libpatch/pkg/machofile"
	"github.com/walteh/libpatch/pkg/signature"
	"gitlab.com/tozd/go/errors"
)

// 🩹 patchOperation implements the per-file patch workflow
type patchOperation struct {
	path string
	opts Options
}

func (op *patchOperation) Path() string {
	return op.path
}

// 🏃 Execute runs the workflow: read, container check, scan, apply, backup,
// atomic write, sign, clear xattrs. A file with no matches is a no-op:
// nil report, no writes, no tool invocations.
func (op *patchOperation) Execute(ctx context.Context) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	// Read the whole file; patching is offset-based over the full buffer
	buf, err := os.ReadFile(op.path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", op.path, err)
	}

	// Magic-only container check
	if err := machofile.Recognize(buf); err != nil {
		return nil, errors.Errorf("checking %s: %w", op.path, err)
	}

	matches := signature.Scan(buf, op.opts.Catalog)
	if len(matches) == 0 {
		logger.Debug().Str("file", op.path).Msg("no known routines found")
		return nil, nil
	}

	// Resolve destination: original path in-place, .patched sibling otherwise
	dest := op.path
	if !op.opts.InPlace {
		dest = op.path + ".patched"
	}

	patched, routines := signature.Apply(buf, matches)
	report := &Report{
		OriginalPath: op.path,
		PatchedPath:  dest,
		Routines:     routines,
	}

	if op.opts.DryRun {
		logger.Info().
			Str("file", op.path).
			Str("destination", dest).
			Int("routines", len(routines)).
			Msg("dry run, skipping write")
		return report, nil
	}

	info, err := os.Stat(op.path)
	if err != nil {
		return nil, errors.Errorf("stat %s: %w", op.path, err)
	}
	mode := info.Mode().Perm()

	// Backup the unmodified original before the destination is overwritten
	if op.opts.InPlace && op.opts.Backup {
		if err := os.WriteFile(op.path+".bak", buf, mode); err != nil {
			return nil, errors.Errorf("writing backup for %s: %w", op.path, err)
		}
	}

	if err := writeFileAtomic(dest, patched, mode); err != nil {
		return nil, errors.Errorf("writing %s: %w", dest, err)
	}

	// Tool failures after a successful write are warnings, not failures
	if op.opts.Sign {
		if err := op.opts.Signer.Sign(ctx, dest); err != nil {
			logger.Warn().Err(err).Str("file", dest).Msg("re-signing failed, patched output kept")
		}
	}
	if op.opts.ClearXattr {
		if err := op.opts.Xattr.Clear(ctx, dest); err != nil {
			logger.Warn().Err(err).Str("file", dest).Msg("clearing extended attributes failed, patched output kept")
		}
	}

	logger.Info().
		Str("file", op.path).
		Str("destination", dest).
		Int("routines", len(routines)).
		Msg("patched")
	return report, nil
}

// 💾 writeFileAtomic writes data to a temp file in the destination
// directory and renames it into place, so a crash mid-write cannot leave a
// half-written file observable under the final name.
func writeFileAtomic(dest string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".libpatch-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("renaming into place: %w", err)
	}
	return nil
}
