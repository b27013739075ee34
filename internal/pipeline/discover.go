// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// Discover returns the paths, relative to sourceRoot and in lexical order,
// of every file under sourceRoot whose name ends in ext. Symlinks to regular
// files are included; symlinked directories are not descended. When
// outputRoot lies strictly inside sourceRoot its subtree is not descended,
// so earlier outputs are never treated as sources. Unreadable directories
// and broken links are skipped and reported as IOErrors.
func Discover(fs afero.Fs, sourceRoot, outputRoot, ext string) ([]string, []*types.IOError) {
	var rels []string
	var errs []*types.IOError

	source := filepath.Clean(sourceRoot)
	nestedRel := nestedOutput(source, outputRoot)

	_ = afero.Walk(fs, source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, &types.IOError{Path: path, Op: "walk", Err: err})
			if info != nil && info.IsDir() && path != source {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), ext) && !info.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			errs = append(errs, &types.IOError{Path: path, Op: "walk", Err: relErr})
			return nil
		}
		if info.IsDir() {
			if nestedRel != "" && rel == nestedRel {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := fs.Stat(path)
			if statErr != nil {
				errs = append(errs, &types.IOError{Path: path, Op: "stat", Err: statErr})
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})

	return rels, errs
}

// nestedOutput returns outputRoot relative to source when it lies strictly
// inside it, or "" otherwise. Both roots are compared in absolute form.
func nestedOutput(source, outputRoot string) string {
	if outputRoot == "" {
		return ""
	}
	absSource, err := filepath.Abs(source)
	if err != nil {
		return ""
	}
	absOut, err := filepath.Abs(outputRoot)
	if err != nil {
		return ""
	}
	if !isWithin(absSource, absOut) {
		return ""
	}
	rel, err := filepath.Rel(absSource, absOut)
	if err != nil {
		return ""
	}
	return rel
}

// isWithin reports whether path lies inside dir.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
