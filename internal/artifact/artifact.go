// Package artifact manages the on-disk scratch area a conversion run
// needs: a working tree for `cvs co`/delta extraction, and the staging
// copies spec.md §4.6/§5 describe for the dumpfile and live-load paths.
//
// Grounded in the teacher's MkdirAll-then-shutil.CopyTree/Copy discipline
// for moving whole subtrees around (surgeon/reposurgeon.go's preservation
// logic around line 8285), generalized from "restore a preservation set"
// to "stage and later discard a scratch directory". Each run gets a
// unique scratch directory name via google/uuid rather than relying on
// ioutil.TempDir's random suffix, so a failed run's directory is easy to
// correlate with its log.
//
// SPDX-License-Identifier: BSD-2-Clause
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	shutil "github.com/termie/go-shutil"
)

const userReadWriteSearchMode = 0755

// Area is one conversion run's scratch directory.
type Area struct {
	Root string
}

// New creates a fresh scratch directory under base (os.TempDir() when base
// is empty), named with a run-unique uuid.
func New(base string) (*Area, error) {
	if base == "" {
		base = os.TempDir()
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("artifact: generating scratch-dir id: %w", err)
	}
	root := filepath.Join(base, "cvs2svn-"+id.String())
	if err := os.MkdirAll(root, userReadWriteSearchMode); err != nil {
		return nil, fmt.Errorf("artifact: creating scratch dir %s: %w", root, err)
	}
	return &Area{Root: root}, nil
}

// Path joins elem onto the scratch area's root.
func (a *Area) Path(elem ...string) string {
	return filepath.Join(append([]string{a.Root}, elem...)...)
}

// Mkdir creates a subdirectory of the scratch area.
func (a *Area) Mkdir(rel string) (string, error) {
	p := a.Path(rel)
	if err := os.MkdirAll(p, userReadWriteSearchMode); err != nil {
		return "", fmt.Errorf("artifact: mkdir %s: %w", p, err)
	}
	return p, nil
}

// CopyTree stages src (a directory) at rel inside the scratch area,
// preserving the teacher's "copy file or copy tree" branch (shutil.Copy
// vs shutil.CopyTree).
func (a *Area) CopyTree(src, rel string) error {
	dst := a.Path(rel)
	if err := os.MkdirAll(filepath.Dir(dst), userReadWriteSearchMode); err != nil {
		return fmt.Errorf("artifact: preparing %s: %w", dst, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("artifact: stat %s: %w", src, err)
	}
	if info.IsDir() {
		if err := shutil.CopyTree(src, dst, nil); err != nil {
			return fmt.Errorf("artifact: copying tree %s -> %s: %w", src, dst, err)
		}
		return nil
	}
	if err := shutil.Copy(src, dst, false); err != nil {
		return fmt.Errorf("artifact: copying %s -> %s: %w", src, dst, err)
	}
	return nil
}

// Close removes the entire scratch area, unless keep is true, in which case
// it is left in place for postmortem inspection (the caller passes true
// when the conversion failed).
func (a *Area) Close(keep bool) error {
	if keep {
		return nil
	}
	return os.RemoveAll(a.Root)
}
