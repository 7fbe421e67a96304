package watcher

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Ignore decides which paths are skipped, following .gitignore semantics.
// The last matching rule wins, so negated rules can re-include paths.
type Ignore struct {
	rules []ignoreRule
}

type ignoreRule struct {
	parts    []string
	negate   bool
	dirOnly  bool
	anchored bool
	base     string // directory the pattern is relative to
}

// NewIgnore returns a matcher with patterns relative to base, usually the
// project directory holding the config file.
func NewIgnore(base string, patterns []string) *Ignore {
	abs, err := filepath.Abs(base)
	if err != nil {
		abs = filepath.Clean(base)
	}
	ig := &Ignore{}
	for _, p := range patterns {
		if r, ok := parseRule(p, abs); ok {
			ig.rules = append(ig.rules, r)
		}
	}
	return ig
}

// LoadGitignore walks roots and adds the rules of every .gitignore found.
// Unreadable entries are skipped.
func (ig *Ignore) LoadGitignore(roots ...string) error {
	for _, root := range roots {
		err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if info.Name() == ".git" || ig.Match(p, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if info.Name() == ".gitignore" {
				rules, loadErr := loadGitignoreFile(p)
				if loadErr == nil {
					ig.rules = append(ig.rules, rules...)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether p should be skipped. isDir tells whether p names a
// directory, which directory-only rules need.
func (ig *Ignore) Match(p string, isDir bool) bool {
	if ig == nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	ignored := false
	for _, r := range ig.rules {
		if r.match(abs, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func loadGitignoreFile(name string) ([]ignoreRule, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base, err := filepath.Abs(filepath.Dir(name))
	if err != nil {
		return nil, err
	}
	var rules []ignoreRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if r, ok := parseRule(scanner.Text(), base); ok {
			rules = append(rules, r)
		}
	}
	return rules, scanner.Err()
}

func parseRule(pattern, base string) (ignoreRule, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return ignoreRule{}, false
	}
	r := ignoreRule{base: base}
	if strings.HasPrefix(pattern, "!") {
		r.negate = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimRight(pattern, "/")
	}
	// A slash anywhere but the end ties the pattern to its base directory.
	r.anchored = strings.Contains(pattern, "/")
	r.parts = splitPath(pattern)
	return r, len(r.parts) > 0
}

func (r ignoreRule) match(abs string, isDir bool) bool {
	rel, err := filepath.Rel(r.base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	comps := splitPath(rel)
	rest := 0
	if r.dirOnly && !isDir {
		rest = 1
	}
	if r.anchored {
		return matchParts(r.parts, comps, rest)
	}
	for i := range comps {
		if matchParts(r.parts, comps[i:], rest) {
			return true
		}
	}
	return false
}

// matchParts reports whether parts matches a leading run of comps that
// leaves at least rest components unmatched. A "**" part matches any
// number of components.
func matchParts(parts, comps []string, rest int) bool {
	if len(parts) == 0 {
		return len(comps) >= rest
	}
	if parts[0] == "**" {
		for i := 0; i <= len(comps); i++ {
			if matchParts(parts[1:], comps[i:], rest) {
				return true
			}
		}
		return false
	}
	if len(comps) == 0 {
		return false
	}
	if ok, _ := path.Match(parts[0], comps[0]); !ok {
		return false
	}
	return matchParts(parts[1:], comps[1:], rest)
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
