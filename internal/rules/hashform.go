package rules

import (
	"slices"
	"strings"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/match"
	"github.com/imyousuf/arelcop/internal/syntax"
)

var (
	// find(:all), find(:first) with or without options.
	findPattern = match.CallPattern{
		Method: match.Name("find"),
		Args: []match.Pattern{
			match.Literal("finder", syntax.KindSymbol, "all", "first"),
			match.Opt(match.Kind("hash", syntax.KindHash)),
		},
	}

	// count("column", options) and count(:column, options).
	countColumnPattern = match.CallPattern{
		Method: match.Name("count"),
		Args: []match.Pattern{
			match.Kind("column", syntax.KindString, syntax.KindSymbol),
			match.Kind("hash", syntax.KindHash),
		},
	}

	// all(options), first(options), count(options).
	optionsPattern = match.CallPattern{
		Method: match.Name("all", "first", "count"),
		Args:   []match.Pattern{match.Kind("hash", syntax.KindHash)},
	}
)

// HashFormQuery flags finder calls that take their query as an options
// hash.
var HashFormQuery = Rule{
	Name:        "hash_form_query",
	Description: "Replaces all/find/first/count option hashes with chained query methods.",
	Match:       matchHashForm,
	Message: func(m *Match) string {
		return "Use `arel` instead of `" + m.Call.Method + "`."
	},
	Rewrite: rewriteHashForm,
}

func matchHashForm(ctx *Context, n *syntax.Node) (*Match, bool) {
	for _, p := range []match.CallPattern{findPattern, countColumnPattern, optionsPattern} {
		caps, ok := p.Match(n)
		if !ok {
			continue
		}
		m := &Match{Call: NewCall(ctx.File, n), Captures: caps}
		if h := caps.Node("hash"); h != nil {
			entries, ok := HashEntries(ctx.File, h)
			if !ok {
				return nil, false
			}
			m.Entries = entries
		}
		return m, true
	}
	return nil, false
}

func rewriteHashForm(ctx *Context, m *Match) ([]edit.Edit, bool) {
	method := m.Call.Method
	if finder := m.Captures.Node("finder"); finder != nil {
		method = finder.Value
	}

	var frags []string
	switch {
	case m.Captures.Node("hash") == nil && m.Captures.Node("finder") != nil:
		// find(:all) and find(:first) become the bare relation call.
		frags = []string{method}
	case len(m.Entries) == 0:
		return nil, false
	default:
		frags = fragments(m.Entries)
		switch method {
		case "first":
			frags = firstTail(m.Entries, frags)
		case "count":
			if col := m.Captures.Node("column"); col != nil {
				frags = append(frags, "count("+ctx.File.Text(col)+")")
			} else {
				frags = append(frags, "count")
			}
		}
	}
	return m.Call.replaceWith(m.Call.Prefix + strings.Join(frags, ".")), true
}

// firstTail turns the first where(...) fragment into find_by(...) in
// place when it ends the chain. find_by returns a record, so when other
// fragments follow the condition, or there is none, first is appended.
func firstTail(entries []HashEntry, frags []string) []string {
	for i, e := range entries {
		if MethodFor(e.Key) != "where" {
			continue
		}
		if i != len(frags)-1 {
			break
		}
		out := slices.Clone(frags)
		out[i] = "find_by(" + e.Value + ")"
		return out
	}
	return append(frags, "first")
}
