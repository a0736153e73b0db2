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
	"os/exec"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ✍️ CodesignTool signs files with an ad-hoc identity via the external
// codesign utility.
type CodesignTool struct{}

func (CodesignTool) Sign(ctx context.Context, path string) error {
	out, err := exec.CommandContext(ctx, "codesign", "-f", "-s", "-", path).CombinedOutput()
	if err != nil {
		return errors.Errorf("codesign %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// 🧹 XattrTool clears extended attributes via the external xattr utility.
type XattrTool struct{}

func (XattrTool) Clear(ctx context.Context, path string) error {
	out, err := exec.CommandContext(ctx, "xattr", "-c", path).CombinedOutput()
	if err != nil {
		return errors.Errorf("xattr -c %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}
