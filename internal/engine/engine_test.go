package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/hierarchy"
	"github.com/imyousuf/arelcop/internal/parser/ruby"
	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
)

func parse(t *testing.T, src string) *syntax.File {
	t.Helper()
	f, err := ruby.NewParser().ParseFile("test.rb", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func reparse(src []byte) (*syntax.File, error) {
	return ruby.NewParser().ParseFile("test.rb", src)
}

// methodRule matches calls to name and hands them to rewrite.
func methodRule(name string, rewrite func(*rules.Context, *rules.Match) ([]edit.Edit, bool)) rules.Rule {
	return rules.Rule{
		Name: name,
		Match: func(ctx *rules.Context, n *syntax.Node) (*rules.Match, bool) {
			if n.MethodName() != name {
				return nil, false
			}
			return &rules.Match{Call: rules.NewCall(ctx.File, n)}, true
		},
		Message: func(*rules.Match) string { return name },
		Rewrite: rewrite,
	}
}

type diag struct {
	Rule   string
	Line   int
	HasFix bool
}

func summarize(ds []rules.Diagnostic) []diag {
	var out []diag
	for _, d := range ds {
		out = append(out, diag{Rule: d.Rule, Line: d.Position.Line, HasFix: d.HasFix})
	}
	return out
}

func TestRunIsolatesMatcherPanic(t *testing.T) {
	boom := rules.Rule{
		Name: "boom",
		Match: func(_ *rules.Context, n *syntax.Node) (*rules.Match, bool) {
			if n.MethodName() == "explode" {
				panic("matcher bug")
			}
			return nil, false
		},
		Message: func(*rules.Match) string { return "" },
	}
	e := New(&rules.Config{}, hierarchy.New(), WithRules([]rules.Rule{boom, rules.HashFormQuery}))

	res := e.Run(parse(t, "explode(1)\nUser.all(:conditions => 'x')\n"))

	want := []diag{{Rule: "hash_form_query", Line: 2, HasFix: true}}
	if diff := cmp.Diff(want, summarize(res.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	if len(res.Edits) != 1 {
		t.Errorf("edits = %d, want 1", len(res.Edits))
	}
}

func TestRunRewritePanicDegradesToDiagnostic(t *testing.T) {
	r := methodRule("broken", func(*rules.Context, *rules.Match) ([]edit.Edit, bool) {
		panic("rewrite bug")
	})
	e := New(nil, nil, WithRules([]rules.Rule{r}))

	res := e.Run(parse(t, "broken(1)\nbroken(2)\n"))

	want := []diag{{Rule: "broken", Line: 1}, {Rule: "broken", Line: 2}}
	if diff := cmp.Diff(want, summarize(res.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	if len(res.Edits) != 0 {
		t.Errorf("edits = %v, want none", res.Edits)
	}
}

func TestRunRejectsEditOutsideCall(t *testing.T) {
	r := methodRule("greedy", func(_ *rules.Context, m *rules.Match) ([]edit.Edit, bool) {
		return []edit.Edit{{Start: m.Call.Extent.Start, End: m.Call.Extent.End + 1, Text: "x"}}, true
	})
	e := New(nil, nil, WithRules([]rules.Rule{r}))

	res := e.Run(parse(t, "greedy(1)\n"))
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].HasFix {
		t.Fatalf("diagnostics = %+v, want one without fix", res.Diagnostics)
	}
	if len(res.Edits) != 0 {
		t.Errorf("edits = %v, want none", res.Edits)
	}
}

func TestRunDefersNestedEdits(t *testing.T) {
	e := New(&rules.Config{}, hierarchy.New())
	f := parse(t, "User.all(:conditions => { :id => Post.first(:conditions => 'x') })\n")

	res := e.Run(f)
	if len(res.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %d, want 2", len(res.Diagnostics))
	}
	if res.Applied != 1 || len(res.Edits) != 1 {
		t.Errorf("applied = %d, edits = %d, want 1 and 1", res.Applied, len(res.Edits))
	}
	for i := 1; i < len(res.Edits); i++ {
		if edit.Conflicts(res.Edits[i-1], res.Edits[i]) {
			t.Errorf("edits %v and %v overlap", res.Edits[i-1], res.Edits[i])
		}
	}

	fixed, err := e.Fix(f, reparse, DefaultMaxPasses)
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if got, want := string(fixed.Source), "User.where({ :id => Post.find_by('x') })\n"; got != want {
		t.Errorf("Fix() = %q, want %q", got, want)
	}
	if fixed.Passes != 2 || fixed.Corrected != 2 {
		t.Errorf("passes = %d, corrected = %d, want 2 and 2", fixed.Passes, fixed.Corrected)
	}
	if len(fixed.Remaining) != 0 {
		t.Errorf("remaining = %+v, want none", fixed.Remaining)
	}
}

func TestRunKeepsDisjointEditsInOnePass(t *testing.T) {
	e := New(&rules.Config{}, hierarchy.New())
	src := "User.find_or_create_by_name(Post.find_or_create_by_title(t))\n"
	res := e.Run(parse(t, src))

	if res.Applied != 2 {
		t.Fatalf("applied = %d, want 2", res.Applied)
	}
	want := "User.find_or_create_by(name: Post.find_or_create_by(title: t))\n"
	if got := string(res.Output()); got != want {
		t.Errorf("Output() = %q, want %q", got, want)
	}
	out, err := edit.Apply([]byte(src), res.Edits)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != want {
		t.Errorf("Apply(Edits) = %q, want %q", out, want)
	}
}

func TestRunOutputWithoutEdits(t *testing.T) {
	e := New(&rules.Config{}, hierarchy.New())
	src := "User.where(id: 1)\n"
	res := e.Run(parse(t, src))
	if len(res.Edits) != 0 {
		t.Fatalf("edits = %v, want none", res.Edits)
	}
	if got := string(res.Output()); got != src {
		t.Errorf("Output() = %q, want %q", got, src)
	}
}

func TestFixDetectsLoop(t *testing.T) {
	r := methodRule("same", func(ctx *rules.Context, m *rules.Match) ([]edit.Edit, bool) {
		return []edit.Edit{{Start: m.Call.Extent.Start, End: m.Call.Extent.End, Text: ctx.File.Slice(m.Call.Extent)}}, true
	})
	e := New(nil, nil, WithRules([]rules.Rule{r}))

	_, err := e.Fix(parse(t, "same(1)\n"), reparse, 5)
	if !errors.Is(err, ErrNotConverged) {
		t.Fatalf("Fix() error = %v, want ErrNotConverged", err)
	}
}

func TestFixUnchangedSource(t *testing.T) {
	e := New(&rules.Config{}, hierarchy.New())
	fixed, err := e.Fix(parse(t, "User.where(id: 1).first\n"), reparse, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fixed.Changed() {
		t.Errorf("Changed() = true for clean source")
	}
}
