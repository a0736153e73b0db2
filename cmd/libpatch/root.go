package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/libpatch/pkg/config"
	"github.com/walteh/libpatch/pkg/log"
	"github.com/walteh/libpatch/pkg/operation"
	"github.com/walteh/libpatch/pkg/signature"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
	inPlace    bool
	dryRun     bool
	backup     bool
	sign       bool
	clearXattr bool
	recursive  bool
	jobs       int
	excludes   []string
)

// newRootCmd creates the libpatch root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libpatch [paths...]",
		Short: "Patch capability-check routines inside dynamic libraries",
		Long: `libpatch locates known capability-check routines inside dynamic-library
files and overwrites them with same-length replacements, so a library built
for one execution environment's capability checks runs unmodified-in-size
on another.

By default each patched file is written next to the original with a
.patched suffix; --in-place overwrites the original instead (optionally
after a .bak backup). Files with no known routines are left untouched.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (.yaml or .hcl)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "overwrite originals instead of writing .patched siblings")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report what would be patched without writing anything")
	cmd.Flags().BoolVarP(&backup, "backup", "b", false, "write a .bak copy before an in-place overwrite")
	cmd.Flags().BoolVarP(&sign, "sign", "s", false, "re-sign patched files with codesign")
	cmd.Flags().BoolVar(&clearXattr, "clear-xattr", true, "clear extended attributes on patched files")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan directory arguments for library files")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "maximum number of files patched concurrently")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "glob patterns of file names to skip when scanning")

	return cmd
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Level {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog
	return level
}

// runRoot validates configuration, expands inputs, and drives the runner
func runRoot(cmd *cobra.Command, args []string) error {
	level := setupLogging()
	zlog := *zerolog.DefaultContextLogger
	ctx := zlog.WithContext(cmd.Context())

	// Configuration errors are fatal to the whole run, before any task starts.
	if len(args) == 0 {
		return errors.New("at least one input path is required")
	}

	catalog := signature.Catalog()
	if configFile != "" {
		cfg, err := config.Load(ctx, configFile)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		applyConfig(cmd, cfg)
		userSigs, err := cfg.CompiledSignatures()
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		// Built-ins keep priority; user signatures follow in file order.
		catalog = append(catalog, userSigs...)
	}

	if jobs <= 0 {
		return errors.Errorf("jobs must be a positive integer, got %d", jobs)
	}

	paths, err := collectInputs(args, recursive, excludes)
	if err != nil {
		return err
	}

	console := log.New(os.Stdout, level)
	console.Header(describeRun(len(paths)))

	opts := operation.Options{
		DryRun:     dryRun,
		InPlace:    inPlace,
		Backup:     backup,
		Sign:       sign,
		ClearXattr: clearXattr,
		Catalog:    catalog,
		Signer:     operation.CodesignTool{},
		Xattr:      operation.XattrTool{},
	}

	runner, err := operation.NewRunner(&zlog, jobs)
	if err != nil {
		return err
	}

	results := runner.Run(ctx, produceOperations(ctx, paths, opts))
	return report(console, results)
}

// applyConfig fills in file values for flags the user did not set
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if !f.Changed("in-place") {
		inPlace = cfg.InPlace
	}
	if !f.Changed("dry-run") {
		dryRun = cfg.DryRun
	}
	if !f.Changed("backup") {
		backup = cfg.Backup
	}
	if !f.Changed("sign") {
		sign = cfg.Sign
	}
	if !f.Changed("clear-xattr") {
		clearXattr = cfg.ShouldClearXattr()
	}
	if !f.Changed("jobs") && cfg.Jobs > 0 {
		jobs = cfg.Jobs
	}
	excludes = append(excludes, cfg.Exclude...)
}

// produceOperations feeds one operation per path into an unbuffered
// channel; the runner pulls them on demand so the list is never queued up
// inside the scheduler.
func produceOperations(ctx context.Context, paths []string, opts operation.Options) <-chan operation.Operation {
	logger := zerolog.Ctx(ctx)
	ops := make(chan operation.Operation)
	go func() {
		defer close(ops)
		for _, path := range paths {
			op, err := operation.NewPatchOperation(path, opts)
			if err != nil {
				// Options were validated up front; only an empty path could
				// land here, and collectInputs never produces one.
				logger.Error().Err(err).Str("file", path).Msg("skipping file")
				continue
			}
			ops <- op
		}
	}()
	return ops
}

// report logs every settled task and the batch summary
func report(console *log.Logger, results []operation.Result) error {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	var patched, unchanged, failed int
	for _, res := range results {
		outcome := log.FileOutcome{Path: res.Path}
		switch {
		case res.Err != nil:
			failed++
			outcome.Outcome = log.OutcomeFailed
			outcome.Err = res.Err
		case res.Report == nil:
			unchanged++
			outcome.Outcome = log.OutcomeUnchanged
		default:
			patched++
			outcome.Outcome = log.OutcomePatched
			if dryRun {
				outcome.Outcome = log.OutcomeDryRun
			}
			outcome.Dest = res.Report.PatchedPath
			outcome.Routines = len(res.Report.Routines)
		}
		console.LogFileOutcome(outcome)
	}

	console.Summary(patched, unchanged, failed)
	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// describeRun builds the header line
func describeRun(files int) string {
	switch {
	case dryRun:
		return fmt.Sprintf("dry run over %d files", files)
	case inPlace:
		return fmt.Sprintf("patching %d files in place", files)
	default:
		return fmt.Sprintf("patching %d files to .patched siblings", files)
	}
}
