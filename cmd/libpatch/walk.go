package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚫 defaultExcludes keeps our own outputs out of a rescan.
var defaultExcludes = []string{"*.patched", "*.bak"}

// collectInputs expands arguments into candidate files. Explicit file
// arguments are taken as-is; directory arguments require --recursive and
// are filtered through the library-name allow-list and exclude patterns.
func collectInputs(args []string, recursive bool, excludePatterns []string) ([]string, error) {
	patterns := append(append([]string(nil), defaultExcludes...), excludePatterns...)

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		if !recursive {
			return nil, errors.Errorf("%s is a directory, pass --recursive to scan it", arg)
		}
		found, err := scanDir(arg, patterns)
		if err != nil {
			return nil, errors.Errorf("scanning %s: %w", arg, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// scanDir walks root for library-looking regular files. Symlinks are not
// followed.
func scanDir(root string, excludePatterns []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if !allowedLibraryName(name) || isExcluded(name, excludePatterns) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// allowedLibraryName is the extension allow-list: extensionless files and
// known dynamic-library extensions. The container magic check downstream
// rejects anything that slipped through.
func allowedLibraryName(name string) bool {
	switch filepath.Ext(name) {
	case "", ".dylib", ".so":
		return true
	}
	return false
}

// isExcluded checks a file name against the exclude patterns
func isExcluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			zerolog.Ctx(context.Background()).Debug().Str("pattern", pattern).Str("file", name).Err(err).Msg("bad exclude pattern")
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
