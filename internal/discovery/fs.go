package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is searched for suite files when none are given explicitly.
const DefaultDir = ".phrasereport"

// ErrNoSuites indicates that no suite files were found during discovery.
var ErrNoSuites = errors.New("no suites discovered")

// Suites returns suite file paths. Explicit paths are validated and returned in
// the order given; a directory contributes its *.yml and *.yaml files sorted
// lexicographically. Without explicit paths DefaultDir under root is used.
func Suites(root string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	paths, err := globDir(root, filepath.Join(root, DefaultDir))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoSuites
	}
	return paths, nil
}

func globDir(root, dir string) ([]string, error) {
	matches := make(map[string]struct{})
	for _, ext := range []string{"*.yml", "*.yaml"} {
		pattern := filepath.Join(dir, ext)
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range found {
			matches[m] = struct{}{}
		}
	}

	paths := make([]string, 0, len(matches))
	for p := range matches {
		paths = append(paths, mustRelOrClean(root, p))
	}
	sort.Strings(paths)
	return paths, nil
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	add := func(rel string) {
		if _, ok := seen[rel]; ok {
			return
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}

	for _, input := range explicit {
		cleaned := input
		if !filepath.IsAbs(cleaned) {
			cleaned = filepath.Join(root, cleaned)
		}
		info, err := os.Stat(cleaned)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("suite %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			paths, err := globDir(root, cleaned)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				add(p)
			}
			continue
		}
		add(mustRelOrClean(root, cleaned))
	}
	if len(resolved) == 0 {
		return nil, ErrNoSuites
	}
	return resolved, nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
