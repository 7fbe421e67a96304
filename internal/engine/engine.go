// Package engine runs the rule set over a parsed file.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// Result is the outcome of one pass over a file.
type Result struct {
	Diagnostics []rules.Diagnostic
	// Edits are mutually non-overlapping and ordered by position.
	Edits []edit.Edit
	// Applied counts the diagnostics whose fix is included in Edits.
	Applied int

	buf *edit.Buffer
}

// Output returns the file text with Edits applied.
func (r *Result) Output() []byte {
	if r.buf == nil {
		return nil
	}
	return r.buf.Bytes()
}

// Engine applies an ordered rule list to call nodes.
type Engine struct {
	rules    []rules.Rule
	config   *rules.Config
	resolver rules.ClassHierarchyResolver
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report recovered rule failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRules replaces the default rule list.
func WithRules(rs []rules.Rule) Option {
	return func(e *Engine) { e.rules = rs }
}

// New creates an engine with the default rules.
func New(cfg *rules.Config, resolver rules.ClassHierarchyResolver, opts ...Option) *Engine {
	e := &Engine{
		rules:    rules.Default(),
		config:   cfg,
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rules returns the rules the engine runs, in precedence order.
func (e *Engine) Rules() []rules.Rule { return e.rules }

// Run visits every call node of f in pre-order. The first rule that
// matches a node wins. A node's edits are kept only if they do not overlap
// edits already accepted in this pass; the diagnostic is reported either
// way and the fix is picked up by the next pass.
func (e *Engine) Run(f *syntax.File) *Result {
	ctx := &rules.Context{File: f, Config: e.config, Resolver: e.resolver}
	res := &Result{buf: edit.NewBuffer(f.Source)}
	var accepted []edit.Edit
	for _, n := range f.Calls() {
		for _, r := range e.rules {
			m, ok := e.match(r, ctx, n)
			if !ok {
				continue
			}
			d := rules.Diagnostic{
				Rule:     r.Name,
				Span:     n.Extent(),
				Position: f.Position(n.Span.Start),
				Message:  r.Message(m),
			}
			if edits, ok := e.rewrite(r, ctx, m); ok {
				d.HasFix = true
				if !conflictsWith(accepted, edits) {
					for _, ed := range edits {
						res.buf.Replace(ed.Start, ed.End, ed.Text)
					}
					accepted = append(accepted, edits...)
					res.Applied++
				}
			}
			res.Diagnostics = append(res.Diagnostics, d)
			break
		}
	}
	res.Edits = res.buf.Edits()
	return res
}

// match runs a matcher, treating a panic as no match.
func (e *Engine) match(r rules.Rule, ctx *rules.Context, n *syntax.Node) (m *rules.Match, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Warn("rule matcher failed", "rule", r.Name, "file", ctx.File.Path,
				"offset", n.Span.Start, "error", fmt.Sprint(p))
			m, ok = nil, false
		}
	}()
	return r.Match(ctx, n)
}

// rewrite runs a rewriter, degrading a panic or an edit outside the call's
// extent to a diagnostic without a fix.
func (e *Engine) rewrite(r rules.Rule, ctx *rules.Context, m *rules.Match) (edits []edit.Edit, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Warn("rule rewrite failed", "rule", r.Name, "file", ctx.File.Path,
				"offset", m.Call.Extent.Start, "error", fmt.Sprint(p))
			edits, ok = nil, false
		}
	}()
	if r.Rewrite == nil {
		return nil, false
	}
	edits, ok = r.Rewrite(ctx, m)
	if !ok || len(edits) == 0 {
		return nil, false
	}
	for i, ed := range edits {
		if !m.Call.Extent.Contains(syntax.Span{Start: ed.Start, End: ed.End}) {
			e.logger.Warn("rule produced edit outside call", "rule", r.Name, "file", ctx.File.Path, "edit", ed.String())
			return nil, false
		}
		for _, other := range edits[:i] {
			if edit.Conflicts(ed, other) {
				return nil, false
			}
		}
	}
	return edits, true
}

func conflictsWith(accepted, edits []edit.Edit) bool {
	for _, a := range accepted {
		for _, b := range edits {
			if edit.Conflicts(a, b) {
				return true
			}
		}
	}
	return false
}
