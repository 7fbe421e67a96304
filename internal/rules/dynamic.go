package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/match"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// finderFamily describes one dynamic finder prefix.
type finderFamily struct {
	prefix string
	static string
	// chainHash chains a trailing options hash after the static call.
	// Families without it ignore calls that pass any hash.
	chainHash bool
	// bang is set when the static method has a bang variant.
	bang bool
}

// DynamicFindAllBy flags find_all_by_* finders.
var DynamicFindAllBy = dynamicRule("dynamic_find_all_by",
	"Replaces find_all_by_* finders with where.",
	finderFamily{prefix: "find_all_by_", static: "where", chainHash: true})

// DynamicFindOrInitializeBy flags find_or_initialize_by_* finders.
var DynamicFindOrInitializeBy = dynamicRule("dynamic_find_or_initialize_by",
	"Replaces find_or_initialize_by_* finders with find_or_initialize_by.",
	finderFamily{prefix: "find_or_initialize_by_", static: "find_or_initialize_by"})

// DynamicFindOrCreateBy flags find_or_create_by_* finders.
var DynamicFindOrCreateBy = dynamicRule("dynamic_find_or_create_by",
	"Replaces find_or_create_by_* finders with find_or_create_by.",
	finderFamily{prefix: "find_or_create_by_", static: "find_or_create_by", bang: true})

func dynamicRule(name, desc string, fam finderFamily) Rule {
	pattern := match.CallPattern{
		Method: match.NameRegexp(regexp.MustCompile(`^` + regexp.QuoteMeta(fam.prefix) + `(.+?)(!)?$`)),
		Rest:   true,
	}
	return Rule{
		Name:        name,
		Description: desc,
		Match: func(ctx *Context, n *syntax.Node) (*Match, bool) {
			return fam.match(ctx, pattern, n)
		},
		Message: func(m *Match) string {
			return fmt.Sprintf("Use `%s` instead of dynamic `%s`.", m.Static, m.Call.Method)
		},
		Rewrite: fam.rewrite,
	}
}

func (fam finderFamily) match(ctx *Context, p match.CallPattern, n *syntax.Node) (*Match, bool) {
	caps, ok := p.Match(n)
	if !ok {
		return nil, false
	}
	call := NewCall(ctx.File, n)
	if n.Receiver() == nil && (ctx.Resolver == nil || !ctx.Resolver.InheritsRecordBase(ctx.File, n)) {
		return nil, false
	}
	if ctx.Config.allowedMethod(call.Method) || (call.Receiver != "" && ctx.Config.allowedReceiver(call.Receiver)) {
		return nil, false
	}
	if ctx.Config.reserved(call.Method) {
		return nil, false
	}
	for i, a := range call.Args {
		switch {
		case a.Is(syntax.KindSplat, syntax.KindForwardArgs):
			return nil, false
		case a.Kind == syntax.KindHash && (i == 0 || !fam.chainHash):
			return nil, false
		}
	}

	var columns []string
	for _, c := range strings.Split(caps.Text["method.1"], "_and_") {
		if c != "" {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return nil, false
	}

	static := fam.static
	if caps.Text["method.2"] == "!" && fam.bang {
		static += "!"
	}
	return &Match{Call: call, Captures: caps, Static: static, Columns: columns}, true
}

func (fam finderFamily) rewrite(ctx *Context, m *Match) ([]edit.Edit, bool) {
	if strings.HasSuffix(m.Call.Method, "!") && !fam.bang {
		return nil, false
	}
	args := m.Call.Args
	var chained []string
	if h := m.Call.Hash; h != nil {
		if args[len(args)-1] != h {
			return nil, false
		}
		entries, ok := HashEntries(ctx.File, h)
		if !ok || len(entries) == 0 {
			return nil, false
		}
		chained = fragments(entries)
		args = args[:len(args)-1]
	}
	if len(args) == 0 || len(m.Columns) != len(args) {
		return nil, false
	}
	for _, a := range args {
		if a.Kind == syntax.KindBlockPass {
			return nil, false
		}
	}

	if chained == nil {
		// Keep the call's layout: rename the method and label each argument.
		method := m.Call.Node.Method()
		b := edit.NewBuffer(ctx.File.Source)
		b.Replace(method.Span.Start, method.Span.End, m.Static)
		for i, a := range args {
			b.Insert(a.Span.Start, m.Columns[i]+": ")
		}
		return b.Edits(), true
	}

	pairs := make([]string, len(args))
	for i, a := range args {
		pairs[i] = m.Columns[i] + ": " + ctx.File.Text(a)
	}
	text := m.Call.Prefix + m.Static + "(" + strings.Join(pairs, ", ") + ")." + strings.Join(chained, ".")
	return m.Call.replaceWith(text), true
}
