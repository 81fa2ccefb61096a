// Package fsutil holds the filesystem helpers shared by the artifact
// detokenizer, the variable registry and the injection engine: a
// deterministic, glob-filtered traversal and atomic file replacement.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/ngssc/internal/errors"
)

// Filter decides whether a file takes part in a traversal.
type Filter struct {
	patterns []string
}

// NewFilter creates a filter matching any of the doublestar patterns,
// evaluated against the slash separated path relative to the traversal root.
// A filter without patterns matches every file.
func NewFilter(patterns ...string) (*Filter, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid file pattern: "+pattern)
		}
	}
	return &Filter{patterns: patterns}, nil
}

// Match reports whether the relative path matches the filter.
func (f *Filter) Match(rel string) bool {
	if f == nil || len(f.patterns) == 0 {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range f.patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}

// Files returns the regular files below root accepted by filter, in lexical
// order. If root is a file it is returned as the only element regardless of
// the filter.
func Files(root string, filter *Filter) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileRead, root)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if filter.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileRead, root)
	}
	return files, nil
}

// ReadFile reads path, mapping a missing file to the not found error.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileRead, path)
	}
	return data, nil
}

// WriteFile atomically replaces path with data, keeping the permissions of
// an existing file.
func WriteFile(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := writeFile(path, data, perm); err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileWrite, path)
	}
	return nil
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
