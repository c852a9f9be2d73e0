package kizu

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
)

// DiscoverSpecFiles expands every glob and returns the union of the matched
// files as sorted absolute paths. Directories never match. Patterns support
// "**" for any number of path segments.
func DiscoverSpecFiles(globs []string) ([]string, error) {
	found := mapset.NewThreadUnsafeSet[string]()
	for _, pattern := range globs {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", m, err)
			}
			found.Add(abs)
		}
	}
	files := found.ToSlice()
	sort.Strings(files)
	return files, nil
}
