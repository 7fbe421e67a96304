// Package gitutil finds the files a change touches so lint runs can be
// limited to them.
package gitutil

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// Status is the kind of change git reports for a file.
type Status string

const (
	Added     Status = "added"
	Modified  Status = "modified"
	Deleted   Status = "deleted"
	Renamed   Status = "renamed"
	Untracked Status = "untracked"
)

// ChangedFile is a file that differs from the comparison base.
type ChangedFile struct {
	Path   string // absolute
	Status Status
}

// TopLevel returns the root directory of the repository containing path.
func TopLevel(path string) (string, error) {
	root, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("find repository root: %w", err)
	}
	return filepath.FromSlash(root), nil
}

// DefaultBranch checks whether the repository uses "main" or "master" as
// its default branch.
func DefaultBranch(repoPath string) (string, error) {
	for _, name := range []string{"main", "master"} {
		if _, err := runGit(repoPath, "rev-parse", "--verify", "refs/heads/"+name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no default branch found (tried main and master)")
}

// ChangedFiles lists the files that differ from base: committed changes
// since the merge-base with base, staged and unstaged changes, and
// untracked files. An empty base compares against HEAD only. Deleted files
// are omitted.
func ChangedFiles(repoPath, base string) ([]ChangedFile, error) {
	root, err := TopLevel(repoPath)
	if err != nil {
		return nil, err
	}

	status := make(map[string]Status)
	if base != "" {
		mergeBase, err := runGit(root, "merge-base", base, "HEAD")
		if err != nil {
			return nil, fmt.Errorf("merge-base with %s: %w", base, err)
		}
		out, err := runGit(root, "diff", "--name-status", mergeBase+"..HEAD")
		if err != nil {
			return nil, err
		}
		mergeStatus(status, parseNameStatus(out))
	}

	if _, err := runGit(root, "rev-parse", "--verify", "HEAD"); err == nil {
		out, err := runGit(root, "diff", "--name-status", "HEAD")
		if err != nil {
			return nil, err
		}
		mergeStatus(status, parseNameStatus(out))
	} else {
		out, err := runGit(root, "diff", "--cached", "--name-status")
		if err != nil {
			return nil, err
		}
		mergeStatus(status, parseNameStatus(out))
	}

	untracked, err := runGit(root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(untracked, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			status[line] = Untracked
		}
	}

	var files []ChangedFile
	for path, s := range status {
		if s == Deleted {
			continue
		}
		files = append(files, ChangedFile{Path: filepath.Join(root, filepath.FromSlash(path)), Status: s})
	}
	slices.SortFunc(files, func(a, b ChangedFile) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// mergeStatus records later statuses over earlier ones.
func mergeStatus(dst, src map[string]Status) {
	for path, s := range src {
		dst[path] = s
	}
}

// parseNameStatus parses "git diff --name-status" output into a map of path -> status.
func parseNameStatus(output string) map[string]Status {
	result := make(map[string]Status)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		code := parts[0]
		path := parts[len(parts)-1] // for renames this is the new path

		switch {
		case strings.HasPrefix(code, "A"):
			result[path] = Added
		case strings.HasPrefix(code, "D"):
			result[path] = Deleted
		case strings.HasPrefix(code, "R"):
			result[path] = Renamed
		default:
			result[path] = Modified
		}
	}
	return result
}

// runGit executes a git command in the given repository path and returns trimmed stdout.
func runGit(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}
