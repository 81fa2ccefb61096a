// Package registry discovers the environment variables a deployment needs by
// scanning built artifacts for runtime lookup expressions.
package registry

import (
	"github.com/conneroisu/ngssc/internal/fsutil"
	"github.com/conneroisu/ngssc/internal/types"
)

// DefaultArtifactPatterns selects the script assets of a build.
var DefaultArtifactPatterns = []string{"**/*.js", "**/*.mjs"}

// VariableRegistry computes the VariableSet of a file or directory tree.
type VariableRegistry struct {
	variant types.Variant
	filter  *fsutil.Filter
}

// New creates a registry for the variant. Without patterns the default
// artifact patterns apply.
func New(variant types.Variant, patterns ...string) (*VariableRegistry, error) {
	if err := variant.Validate(); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		patterns = DefaultArtifactPatterns
	}
	filter, err := fsutil.NewFilter(patterns...)
	if err != nil {
		return nil, err
	}
	return &VariableRegistry{variant: variant, filter: filter}, nil
}

// Discover scans path. A file is scanned directly; a directory is traversed
// recursively in lexical order, keeping the first discovery order of names
// across all files. Finding nothing yields an empty set.
func (r *VariableRegistry) Discover(path string) (*types.VariableSet, error) {
	files, err := fsutil.Files(path, r.filter)
	if err != nil {
		return nil, err
	}

	set := types.NewVariableSet()
	for _, file := range files {
		content, err := fsutil.ReadFile(file)
		if err != nil {
			return nil, err
		}
		set.Merge(r.Extract(string(content)))
	}
	return set, nil
}

// Extract returns the variables referenced by runtime lookups in text.
func (r *VariableRegistry) Extract(text string) *types.VariableSet {
	set := types.NewVariableSet()
	for _, m := range r.variant.LookupPattern().FindAllStringSubmatch(text, -1) {
		for _, group := range m[1:] {
			if group != "" {
				set.Add(group)
				break
			}
		}
	}
	return set
}
