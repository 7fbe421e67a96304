package ruby

import (
	"testing"

	"github.com/imyousuf/arelcop/internal/syntax"
)

func parse(t *testing.T, src string) *syntax.File {
	t.Helper()
	f, err := NewParser().ParseFile("test.rb", []byte(src))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	return f
}

func firstCall(t *testing.T, f *syntax.File, method string) *syntax.Node {
	t.Helper()
	for _, c := range f.Calls() {
		if c.MethodName() == method {
			return c
		}
	}
	t.Fatalf("no call to %s", method)
	return nil
}

func TestParseCallWithHashRockets(t *testing.T) {
	f := parse(t, "User.all(:include => :component, :conditions => ['a = ?', 1])\n")
	call := firstCall(t, f, "all")

	if got := f.Text(call.Receiver()); got != "User" {
		t.Errorf("receiver = %q, want %q", got, "User")
	}
	args := call.Args()
	if len(args) != 1 || args[0].Kind != syntax.KindHash {
		t.Fatalf("args = %d, want a single hash", len(args))
	}
	pairs := args[0].Children
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	for i, want := range []string{"include", "conditions"} {
		key := pairs[i].Field(syntax.RoleKey)
		if key.Kind != syntax.KindSymbol || key.Value != want {
			t.Errorf("pair %d key = %s %q, want symbol %q", i, key.Kind, key.Value, want)
		}
	}
	if got := f.Text(pairs[1].Field(syntax.RoleValue)); got != "['a = ?', 1]" {
		t.Errorf("value = %q", got)
	}
	if got := f.Text(args[0]); got != ":include => :component, :conditions => ['a = ?', 1]" {
		t.Errorf("synthetic hash text = %q", got)
	}
}

func TestParseCommandWithKeywordArgs(t *testing.T) {
	f := parse(t, "has_many :things, class_name: 'C', conditions: 'x'\n")
	call := firstCall(t, f, "has_many")

	if call.Receiver() != nil {
		t.Error("unexpected receiver")
	}
	args := call.Args()
	if len(args) != 2 {
		t.Fatalf("args = %d, want 2", len(args))
	}
	if args[0].Kind != syntax.KindSymbol || args[0].Value != "things" {
		t.Errorf("first arg = %s %q, want symbol things", args[0].Kind, args[0].Value)
	}
	if args[1].Kind != syntax.KindHash || len(args[1].Children) != 2 {
		t.Fatalf("second arg = %s with %d children, want hash of 2", args[1].Kind, len(args[1].Children))
	}
	if got := args[1].Children[0].Field(syntax.RoleKey).Value; got != "class_name" {
		t.Errorf("first key = %q, want class_name", got)
	}
}

func TestParseArgumentKinds(t *testing.T) {
	f := parse(t, "User.find_all_by_a(*rest, \"s\", \"#{x}\", :\"q\", &blk)\n")
	call := firstCall(t, f, "find_all_by_a")
	args := call.Args()

	want := []struct {
		kind  syntax.Kind
		value string
	}{
		{syntax.KindSplat, ""},
		{syntax.KindString, "s"},
		{syntax.KindOther, ""},
		{syntax.KindSymbol, "q"},
		{syntax.KindBlockPass, ""},
	}
	if len(args) != len(want) {
		t.Fatalf("args = %d, want %d", len(args), len(want))
	}
	for i, w := range want {
		if args[i].Kind != w.kind || args[i].Value != w.value {
			t.Errorf("arg %d = %s %q, want %s %q", i, args[i].Kind, args[i].Value, w.kind, w.value)
		}
	}
}

func TestParseSafeNavigationAndBlock(t *testing.T) {
	src := "user&.find_or_create_by_name(name) { |u| u.save }\n"
	f := parse(t, src)
	call := firstCall(t, f, "find_or_create_by_name")

	if got := f.Slice(call.Extent()); got != "user&.find_or_create_by_name(name)" {
		t.Errorf("extent = %q", got)
	}
	if call.Field(syntax.RoleBlock) == nil {
		t.Error("block not attached to call")
	}
	if got := f.Slice(syntax.Span{Start: call.Receiver().Span.End, End: call.Method().Span.Start}); got != "&." {
		t.Errorf("operator = %q, want &.", got)
	}
}

func TestParseClassSuperclass(t *testing.T) {
	src := `module Shop
  class Order < ActiveRecord::Base
    def go
      find_or_create_by_name(name)
    end
  end
end
`
	f := parse(t, src)
	call := firstCall(t, f, "find_or_create_by_name")

	class := call.Enclosing(syntax.KindClass)
	if class == nil {
		t.Fatal("no enclosing class")
	}
	if got := f.Text(class.Field(syntax.RoleName)); got != "Order" {
		t.Errorf("class name = %q, want Order", got)
	}
	if got := f.Text(class.Field(syntax.RoleSuperclass)); got != "ActiveRecord::Base" {
		t.Errorf("superclass = %q, want ActiveRecord::Base", got)
	}
	if mod := class.Enclosing(syntax.KindModule); mod == nil || f.Text(mod.Field(syntax.RoleName)) != "Shop" {
		t.Error("module Shop not found above class")
	}
}

func TestParseSkipsComments(t *testing.T) {
	src := "User.find_or_initialize_by_a_and_b(\n  a, # first\n  b\n)\n"
	f := parse(t, src)
	call := firstCall(t, f, "find_or_initialize_by_a_and_b")
	if n := len(call.Args()); n != 2 {
		t.Errorf("args = %d, want 2", n)
	}
	if f.HasErrors {
		t.Error("HasErrors = true for valid source")
	}
}
