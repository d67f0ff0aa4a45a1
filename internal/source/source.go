// Package source finds the Turtle fact files under a set of roots and
// watches them for changes.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Ext is the extension of fact files.
const Ext = ".ttl"

// Patterns ignored under every root in addition to its .gitignore.
var defaultIgnorePatterns = []string{
	".git/",
	".lineage/",
	"node_modules/",
}

// IsSource reports whether path names a fact file.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Ext)
}

// Walk returns the fact files under each root, sorted and without
// duplicates. A root may also name a single file, which is returned as is.
// Paths matching the root's .gitignore are skipped.
func Walk(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, root := range roots {
		found, err := walkRoot(root)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func walkRoot(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		return []string{filepath.Clean(root)}, nil
	}

	matcher, err := loadMatcher(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if ignored(matcher, root, path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSource(path) || ignored(matcher, root, path, false) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", root, err)
	}
	return paths, nil
}

// loadMatcher builds a matcher from the default patterns and root/.gitignore.
func loadMatcher(root string) (gitignore.Matcher, error) {
	patterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns))
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("source: read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}

func ignored(m gitignore.Matcher, root, path string, isDir bool) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return m.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}
