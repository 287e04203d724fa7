package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExpandPatterns turns trace arguments into file paths. Each glob expands
// to its sorted matches, argument order is kept and duplicates are dropped.
// Arguments matching nothing are kept literally so opening them reports a
// proper SourceUnavailableError. Matched directories are skipped.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid trace pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		sort.Strings(matches)
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				continue
			}
			add(match)
		}
	}

	return result, nil
}
