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
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏁 Result is one settled task: the operation's path, its report (nil for
// a no-op), and its error (nil on success).
type Result struct {
	Path   string
	Report *Report
	Err    error
}

// 🏃 Runner executes operations under a fixed concurrency cap
type Runner struct {
	logger *zerolog.Logger
	jobs   int
}

// 🏗️ NewRunner creates a new runner; jobs must be a positive integer
func NewRunner(logger *zerolog.Logger, jobs int) (*Runner, error) {
	if jobs <= 0 {
		return nil, errors.Errorf("jobs must be a positive integer, got %d", jobs)
	}
	return &Runner{
		logger: logger,
		jobs:   jobs,
	}, nil
}

// 🏃 Run pulls operations from ops until it is closed and executes at most
// `jobs` concurrently. Operations are pulled on demand — a new one is
// requested only when a worker frees up — so the source sequence is never
// materialized eagerly. Every operation is started exactly once; a failing
// operation never cancels or delays its siblings. Run returns after the
// channel is drained and every started operation has settled.
func (r *Runner) Run(ctx context.Context, ops <-chan Operation) []Result {
	var (
		mu      sync.Mutex
		results []Result
	)

	g := new(errgroup.Group)
	for i := 0; i < r.jobs; i++ {
		g.Go(func() error {
			for op := range ops {
				report, err := op.Execute(ctx)
				if err != nil {
					r.logger.Error().Err(err).Str("file", op.Path()).Msg("patch task failed")
				}
				mu.Lock()
				results = append(results, Result{Path: op.Path(), Report: report, Err: err})
				mu.Unlock()
			}
			// Task errors are carried in Results, never through the group,
			// so one failure cannot affect sibling workers.
			return nil
		})
	}
	_ = g.Wait()

	return results
}
