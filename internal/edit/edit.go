// Package edit queues text replacements against an original buffer and
// materializes them in one step.
package edit

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned when two edits touch the same bytes.
var ErrOverlap = errors.New("overlapping edits")

// Edit replaces the half-open byte range [Start, End) of the original text
// with Text. Start == End is an insertion.
type Edit struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Text  string `json:"text" yaml:"text"`
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)=%q", e.Start, e.End, e.Text)
}

// Conflicts reports whether a and b cannot both be applied. Two insertions
// never conflict; an insertion conflicts with a replacement only when it
// falls inside the replaced range.
func Conflicts(a, b Edit) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start < a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// A Buffer is a queue of edits to apply to a fixed original text.
// All positions are offsets into the original text.
type Buffer struct {
	old []byte
	q   []Edit
}

// NewBuffer returns a buffer over data. The caller must not modify data
// while the buffer is in use.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{old: data}
}

// Insert queues s for insertion at pos.
func (b *Buffer) Insert(pos int, s string) {
	b.Replace(pos, pos, s)
}

// Replace queues replacement of [start, end) with s.
func (b *Buffer) Replace(start, end int, s string) {
	if start < 0 || start > end || end > len(b.old) {
		panic(fmt.Sprintf("invalid edit position [%d,%d) for text of length %d", start, end, len(b.old)))
	}
	b.q = append(b.q, Edit{Start: start, End: end, Text: s})
}

// Edits returns the queued edits ordered by position. Insertions at the
// same offset keep the order in which they were queued.
func (b *Buffer) Edits() []Edit {
	out := append([]Edit(nil), b.q...)
	sortEdits(out)
	return out
}

// Bytes returns the text with all queued edits applied. It panics if two
// edits overlap.
func (b *Buffer) Bytes() []byte {
	out, err := Apply(b.old, b.q)
	if err != nil {
		panic(err)
	}
	return out
}

// Apply applies non-overlapping edits to src left to right and returns the
// new text. src is not modified.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sortEdits(sorted)

	var out []byte
	offset := 0
	for i, e := range sorted {
		if e.Start < 0 || e.Start > e.End || e.End > len(src) {
			return nil, fmt.Errorf("edit %s out of range for text of length %d", e, len(src))
		}
		if e.Start < offset {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, sorted[i-1], e)
		}
		out = append(out, src[offset:e.Start]...)
		out = append(out, e.Text...)
		offset = e.End
	}
	out = append(out, src[offset:]...)
	return out, nil
}

func sortEdits(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End < edits[j].End
	})
}
