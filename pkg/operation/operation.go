// Package operation provides the per-file patch workflow and bounded runner
package operation

import (
	"context"

	"github.com/walteh/libpatch/pkg/signature"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one deferred file-processing unit. It is owned by the
// caller until handed to the Runner and executed at most once.
type Operation interface {
	// Path returns the original file path this operation patches
	Path() string
	// Execute runs the workflow; a nil report with nil error means no
	// known routine was found and nothing was touched
	Execute(ctx context.Context) (*Report, error)
}

// ✍️ Signer re-signs a file after patching. Failure is non-fatal.
type Signer interface {
	Sign(ctx context.Context, path string) error
}

// 🧹 XattrClearer removes extended attributes from a file, avoiding stale
// quarantine or signature metadata on the patched output. Failure is
// non-fatal.
type XattrClearer interface {
	Clear(ctx context.Context, path string) error
}

// 📋 Report describes one successfully patched (or dry-run previewed) file.
// Routines is ordered by ascending offset. Immutable after creation.
type Report struct {
	OriginalPath string
	PatchedPath  string
	Routines     []signature.Routine
}

// 🔧 Options contains configuration and collaborators for patch operations
type Options struct {
	// DryRun computes the report without any disk writes or tool calls
	DryRun bool
	// InPlace overwrites the original instead of writing a .patched sibling
	InPlace bool
	// Backup writes a .bak copy of the original before an in-place
	// overwrite; it has no effect when InPlace is false
	Backup bool
	// Sign re-signs the destination after writing
	Sign bool
	// ClearXattr strips extended attributes from the destination
	ClearXattr bool

	// Catalog is the signature list, in priority order
	Catalog []signature.Signature
	// Signer is required when Sign is set
	Signer Signer
	// Xattr is required when ClearXattr is set
	Xattr XattrClearer
}

// 🏭 NewPatchOperation creates the patch operation for one file
func NewPatchOperation(path string, opts Options) (Operation, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if len(opts.Catalog) == 0 {
		return nil, errors.New("signature catalog is required")
	}
	if opts.Sign && opts.Signer == nil {
		return nil, errors.New("signer is required when signing is enabled")
	}
	if opts.ClearXattr && opts.Xattr == nil {
		return nil, errors.New("xattr clearer is required when clearing is enabled")
	}
	return &patchOperation{path: path, opts: opts}, nil
}
