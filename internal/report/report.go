// Package report renders lint and fix results.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.yaml.in/yaml/v3"

	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/runner"
)

// Format is an output format.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Document is the structured form of a run.
type Document struct {
	Files   []*runner.FileResult `json:"files" yaml:"files"`
	Summary runner.Summary       `json:"summary" yaml:"summary"`
}

// Write renders results in the given format.
func Write(w io.Writer, format Format, results []*runner.FileResult) error {
	doc := Document{Files: results, Summary: runner.Summarize(results)}
	if doc.Files == nil {
		doc.Files = []*runner.FileResult{}
	}
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case Text, "":
		return NewTextWriter(w).Write(results)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// TextWriter prints offenses the way RuboCop's default formatter does:
// a location line, the source line and a caret underline.
type TextWriter struct {
	w           io.Writer
	path        lipgloss.Style
	severity    lipgloss.Style
	correctable lipgloss.Style
	caret       lipgloss.Style
	failure     lipgloss.Style
}

// NewTextWriter creates a TextWriter. Styling is dropped when w is not a
// terminal.
func NewTextWriter(w io.Writer) *TextWriter {
	r := lipgloss.NewRenderer(w)
	return &TextWriter{
		w:           w,
		path:        r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#5FD7FF"}),
		severity:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		correctable: r.NewStyle().Foreground(lipgloss.Color("3")),
		caret:       r.NewStyle().Foreground(lipgloss.Color("1")),
		failure:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// Write prints every offense and error followed by the summary line.
func (t *TextWriter) Write(results []*runner.FileResult) error {
	var buf bytes.Buffer
	for _, res := range results {
		for _, d := range res.Diagnostics {
			t.offense(&buf, res, d)
		}
		if res.Err != nil {
			fmt.Fprintf(&buf, "%s: %s %s\n", t.path.Render(res.Path), t.failure.Render("E:"), res.Err)
		}
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString(SummaryLine(runner.Summarize(results)))
	buf.WriteByte('\n')
	_, err := t.w.Write(buf.Bytes())
	return err
}

func (t *TextWriter) offense(buf *bytes.Buffer, res *runner.FileResult, d rules.Diagnostic) {
	loc := fmt.Sprintf("%s:%d:%d:", res.Path, d.Position.Line, d.Position.Column)
	fmt.Fprintf(buf, "%s %s ", t.path.Render(loc), t.severity.Render("C:"))
	if d.HasFix {
		buf.WriteString(t.correctable.Render("[Correctable]"))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(buf, "%s: %s\n", d.Rule, d.Message)

	line, indent, width, ok := Snippet(res.Source, d.Span.Start, d.Span.End)
	if !ok {
		return
	}
	buf.WriteString(line)
	buf.WriteByte('\n')
	buf.WriteString(indent)
	buf.WriteString(t.caret.Render(strings.Repeat("^", width)))
	buf.WriteByte('\n')
}

// Snippet returns the source line containing offset start, the whitespace
// that lines a caret up under start, and the display width of the part of
// [start, end) on that line (at least 1).
func Snippet(src []byte, start, end int) (line, indent string, width int, ok bool) {
	if start < 0 || start > len(src) || end < start {
		return "", "", 0, false
	}
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	lineEnd := len(src)
	if i := bytes.IndexByte(src[start:], '\n'); i >= 0 {
		lineEnd = start + i
	}
	line = strings.TrimRight(string(src[lineStart:lineEnd]), "\r")

	var b strings.Builder
	for _, r := range string(src[lineStart:start]) {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	indent = b.String()

	if end > lineEnd {
		end = lineEnd
	}
	width = runewidth.StringWidth(strings.TrimRight(string(src[start:end]), "\r"))
	if width < 1 {
		width = 1
	}
	return line, indent, width, true
}

// SummaryLine formats the closing totals.
func SummaryLine(s runner.Summary) string {
	parts := []string{
		plural(s.Files, "file") + " inspected",
		plural(s.Offenses, "offense") + " detected",
	}
	if s.Correctable > 0 {
		parts = append(parts, plural(s.Correctable, "offense")+" autocorrectable")
	}
	if s.Corrected > 0 {
		parts = append(parts, plural(s.Corrected, "offense")+" corrected")
	}
	if s.Errors > 0 {
		parts = append(parts, plural(s.Errors, "error")+" occurred")
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	if n == 0 {
		return "no " + word + "s"
	}
	return fmt.Sprintf("%d %ss", n, word)
}
