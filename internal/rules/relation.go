package rules

import (
	"strings"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/match"
	"github.com/imyousuf/arelcop/internal/syntax"
)

var hasManyPattern = match.CallPattern{
	Method: match.Name("has_many"),
	Args: []match.Pattern{
		match.Kind("name", syntax.KindSymbol),
		match.Kind("hash", syntax.KindHash),
	},
}

// RelationOptions flags has_many declarations that pass query options in
// the options hash instead of a scope lambda.
var RelationOptions = Rule{
	Name:        "relation_options",
	Description: "Moves has_many query options into a scope lambda.",
	Match:       matchRelation,
	Message: func(*Match) string {
		return "Use `arel` instead of hash with options."
	},
	Rewrite: rewriteRelation,
}

func matchRelation(ctx *Context, n *syntax.Node) (*Match, bool) {
	caps, ok := hasManyPattern.Match(n)
	if !ok {
		return nil, false
	}
	entries, ok := HashEntries(ctx.File, caps.Node("hash"))
	if !ok {
		return nil, false
	}
	convertible := false
	for _, e := range entries {
		if !ctx.Config.excluded(e.Key) {
			convertible = true
			break
		}
	}
	if !convertible {
		return nil, false
	}
	return &Match{Call: NewCall(ctx.File, n), Captures: caps, Entries: entries}, true
}

func rewriteRelation(ctx *Context, m *Match) ([]edit.Edit, bool) {
	var scope, kept []string
	for _, e := range m.Entries {
		if ctx.Config.excluded(e.Key) {
			kept = append(kept, e.Source)
		} else {
			scope = append(scope, e.Fragment())
		}
	}
	if len(scope) == 0 {
		return nil, false
	}

	var b strings.Builder
	b.WriteString(m.Call.Prefix)
	b.WriteString("has_many ")
	b.WriteString(ctx.File.Text(m.Captures.Node("name")))
	b.WriteString(", -> { ")
	b.WriteString(strings.Join(scope, "."))
	b.WriteString(" }")
	if len(kept) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(kept, ", "))
	}
	return m.Call.replaceWith(b.String()), true
}
