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

package log_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/walteh/libpatch/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 🧪 TestLogFileOutcome tests the per-file console lines
func TestLogFileOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, zerolog.Disabled)

	logger.LogFileOutcome(log.FileOutcome{
		Path:     "lib/libgraphics.dylib",
		Dest:     "lib/libgraphics.dylib.patched",
		Outcome:  log.OutcomePatched,
		Routines: 2,
	})
	logger.LogFileOutcome(log.FileOutcome{
		Path:    "lib/libother.dylib",
		Outcome: log.OutcomeUnchanged,
	})
	logger.LogFileOutcome(log.FileOutcome{
		Path:    "lib/broken.dylib",
		Outcome: log.OutcomeFailed,
		Err:     errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "libgraphics.dylib")
	assert.Contains(t, out, "patched")
	assert.Contains(t, out, "2 routines")
	assert.Contains(t, out, "no known routines")
	assert.Contains(t, out, "boom")
}

// 🧪 TestSummary tests the batch summary line
func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, zerolog.Disabled)

	logger.Summary(3, 2, 1)

	out := buf.String()
	assert.Contains(t, out, "3 patched")
	assert.Contains(t, out, "2 unchanged")
	assert.Contains(t, out, "1 failed")
}
