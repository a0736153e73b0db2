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

package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 45 // Base width for file path
	modeWidth  = 10 // Width for destination mode
)

// 🎯 Outcome is the settled state of one file's patch task.
type Outcome string

const (
	OutcomePatched   Outcome = "patched"
	OutcomeDryRun    Outcome = "would patch"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// 🎯 FileOutcome represents one file's patch result for logging
type FileOutcome struct {
	Path     string  // Original file path
	Dest     string  // Destination path, empty when nothing was written
	Outcome  Outcome // Settled outcome
	Routines int     // Number of routines patched (or that would be)
	Err      error   // Set when Outcome is OutcomeFailed
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatFileOutcome formats one file result for display
func (l *Logger) formatFileOutcome(o FileOutcome) string {
	var symbol rune
	var symbolColor color.Attribute
	switch o.Outcome {
	case OutcomePatched:
		symbol = '✓'
		symbolColor = color.FgGreen
	case OutcomeDryRun:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case OutcomeFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	detail := fmt.Sprintf("%d routines", o.Routines)
	if o.Outcome == OutcomeUnchanged {
		detail = "no known routines"
	}
	if o.Err != nil {
		detail = o.Err.Error()
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, o.Path),
		fmt.Sprintf("%-*s", modeWidth, string(o.Outcome)),
		color.New(color.Faint).Sprint(detail))
}

// 📝 LogFileOutcome logs one settled file task
func (l *Logger) LogFileOutcome(o FileOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatFileOutcome(o))

	ev := l.zlog.Info()
	if o.Outcome == OutcomeFailed {
		ev = l.zlog.Error().Err(o.Err)
	}
	ev.
		Str("file", o.Path).
		Str("destination", o.Dest).
		Str("outcome", string(o.Outcome)).
		Int("routines", o.Routines).
		Msg("file patch outcome")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("libpatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Summary logs the end-of-batch counts
func (l *Logger) Summary(patched, unchanged, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "\n%s %s %s\n",
		color.New(color.FgGreen).Sprintf("%d patched", patched),
		color.New(color.FgYellow).Sprintf("%d unchanged", unchanged),
		color.New(color.FgRed).Sprintf("%d failed", failed))
	l.zlog.Info().
		Int("patched", patched).
		Int("unchanged", unchanged).
		Int("failed", failed).
		Msg("batch complete")
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
