package engine

import (
	"errors"
	"fmt"

	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// ErrNotConverged is returned when fixing a file keeps producing edits.
var ErrNotConverged = errors.New("fixes did not converge")

// DefaultMaxPasses bounds the fix loop.
const DefaultMaxPasses = 10

// ParseFunc re-parses rewritten source between passes.
type ParseFunc func(src []byte) (*syntax.File, error)

// FixResult is the outcome of fixing one file.
type FixResult struct {
	Source    []byte
	Passes    int
	Corrected int
	// Remaining are the diagnostics of the final text.
	Remaining []rules.Diagnostic
}

// Changed reports whether any edit was applied.
func (r *FixResult) Changed() bool { return r.Passes > 0 }

// Fix runs passes over f, applying each pass's edits and re-parsing, until
// a pass produces no edits. Nested matches that were deferred because an
// enclosing call was rewritten are fixed by later passes.
func (e *Engine) Fix(f *syntax.File, parse ParseFunc, maxPasses int) (*FixResult, error) {
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}
	out := &FixResult{Source: f.Source}
	seen := map[string]bool{string(f.Source): true}
	for out.Passes < maxPasses {
		res := e.Run(f)
		if len(res.Edits) == 0 {
			out.Remaining = res.Diagnostics
			return out, nil
		}
		src := res.Output()
		if seen[string(src)] {
			out.Remaining = res.Diagnostics
			return out, fmt.Errorf("%s: %w", f.Path, ErrNotConverged)
		}
		seen[string(src)] = true

		next, err := parse(src)
		if err != nil {
			return out, fmt.Errorf("re-parse after pass %d: %w", out.Passes+1, err)
		}
		out.Source = src
		out.Passes++
		out.Corrected += res.Applied
		f = next
	}
	res := e.Run(f)
	out.Remaining = res.Diagnostics
	if len(res.Edits) > 0 {
		return out, fmt.Errorf("%s: %w after %d passes", f.Path, ErrNotConverged, maxPasses)
	}
	return out, nil
}
