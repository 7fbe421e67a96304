// Package diff produces unified diffs of rewritten files using the system
// 'diff' tool.
package diff

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
)

// Diff returns the unified diff of old and new, or nil when they are equal.
// The header names both sides by path.
func Diff(path string, old, new []byte) ([]byte, error) {
	if bytes.Equal(old, new) {
		return nil, nil
	}
	f1, err := writeTempFile(old)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f1)

	f2, err := writeTempFile(new)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f2)

	// diff exits 1 when the inputs differ.
	data, err := exec.Command("diff", "-u", f1, f2).CombinedOutput()
	if err != nil && len(data) == 0 {
		return nil, fmt.Errorf("diff %s: %w", path, err)
	}

	// Replace the two temp-file header lines.
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return data, nil
	}
	j := bytes.IndexByte(data[i+1:], '\n')
	if j < 0 {
		return data, nil
	}
	start := i + 1 + j + 1
	if start >= len(data) || data[start] != '@' {
		return data, nil
	}
	header := fmt.Sprintf("--- a/%s\n+++ b/%s\n", path, path)
	return append([]byte(header), data[start:]...), nil
}

func writeTempFile(data []byte) (string, error) {
	file, err := os.CreateTemp("", "arelcop-diff")
	if err != nil {
		return "", err
	}
	_, err = file.Write(data)
	if err1 := file.Close(); err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

var (
	headerColor = color.New(color.Bold)
	hunkColor   = color.New(color.FgCyan)
	addColor    = color.New(color.FgGreen)
	delColor    = color.New(color.FgRed)
)

// Print writes a unified diff to w, coloring it unless color output is
// disabled (color.NoColor is set when stdout is not a terminal).
func Print(w io.Writer, d []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(d))
	sc.Buffer(make([]byte, 0, 64*1024), len(d)+1)
	for sc.Scan() {
		line := sc.Text()
		var err error
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			_, err = headerColor.Fprintln(w, line)
		case strings.HasPrefix(line, "@@"):
			_, err = hunkColor.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			_, err = addColor.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			_, err = delColor.Fprintln(w, line)
		default:
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return err
		}
	}
	return sc.Err()
}
