package syntax

import (
	"sort"
	"unicode/utf8"
)

// File is a parsed compilation unit together with its source text.
type File struct {
	Path   string
	Source []byte
	Root   *Node

	// HasErrors is set when the parser had to recover from syntax errors.
	HasErrors bool

	lines []int
}

// NewFile wraps a parsed tree.
func NewFile(path string, src []byte, root *Node) *File {
	f := &File{Path: path, Source: src, Root: root}
	f.lines = append(f.lines, 0)
	for i, b := range src {
		if b == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// Text returns the source text covered by n.
func (f *File) Text(n *Node) string {
	if n == nil {
		return ""
	}
	return f.Slice(n.Span)
}

// Slice returns the source text covered by s, clamped to the file.
func (f *File) Slice(s Span) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(f.Source) {
		end = len(f.Source)
	}
	if start >= end {
		return ""
	}
	return string(f.Source[start:end])
}

// Position is a 1-based line and column. Columns count characters, not bytes.
type Position struct {
	Line   int `json:"line" yaml:"line" msgpack:"l"`
	Column int `json:"column" yaml:"column" msgpack:"c"`
}

// Position converts a byte offset to a line and column.
func (f *File) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Source) {
		offset = len(f.Source)
	}
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	col := utf8.RuneCount(f.Source[f.lines[i]:offset]) + 1
	return Position{Line: i + 1, Column: col}
}

// Line returns the text of the given 1-based line without its newline.
func (f *File) Line(line int) string {
	if line < 1 || line > len(f.lines) {
		return ""
	}
	start := f.lines[line-1]
	end := len(f.Source)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	if end > start && f.Source[end-1] == '\r' {
		end--
	}
	return string(f.Source[start:end])
}

// Calls returns every call node of the file in pre-order.
func (f *File) Calls() []*Node {
	var calls []*Node
	Walk(f.Root, func(n *Node) bool {
		if n.Kind == KindCall {
			calls = append(calls, n)
		}
		return true
	})
	return calls
}
