package rules_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/imyousuf/arelcop/internal/engine"
	"github.com/imyousuf/arelcop/internal/hierarchy"
	"github.com/imyousuf/arelcop/internal/parser/ruby"
	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// TestGolden runs every archive in testdata. The archive comment holds rule
// configuration as "key: a,b" lines; input.rb is linted, the offenses file
// lists the expected diagnostics, and output.rb (when present) is the fully
// corrected text.
func TestGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test cases")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			var input, wantOffenses, wantOutput []byte
			hasOutput := false
			for _, f := range ar.Files {
				switch f.Name {
				case "input.rb":
					input = f.Data
				case "offenses":
					wantOffenses = f.Data
				case "output.rb":
					wantOutput = f.Data
					hasOutput = true
				default:
					t.Fatalf("unexpected archive file %s", f.Name)
				}
			}

			cfg := parseConfig(t, string(ar.Comment))
			eng := engine.New(cfg, hierarchy.New())
			f := parseRuby(t, input)

			res := eng.Run(f)
			cmp(t, "offenses", formatDiagnostics(res.Diagnostics), wantOffenses)

			fixed, err := eng.Fix(f, reparse, engine.DefaultMaxPasses)
			if err != nil {
				t.Fatalf("Fix() error = %v", err)
			}
			if !hasOutput {
				cmp(t, "output", fixed.Source, input)
				return
			}
			cmp(t, "output", fixed.Source, wantOutput)

			// Re-running over the corrected text reports nothing further.
			again := eng.Run(parseRuby(t, fixed.Source))
			if len(again.Diagnostics) > 0 {
				t.Errorf("corrected text still has offenses:\n%s", formatDiagnostics(again.Diagnostics))
			}
		})
	}
}

func parseRuby(t *testing.T, src []byte) *syntax.File {
	t.Helper()
	f, err := ruby.NewParser().ParseFile("input.rb", src)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func reparse(src []byte) (*syntax.File, error) {
	return ruby.NewParser().ParseFile("input.rb", src)
}

func parseConfig(t *testing.T, comment string) *rules.Config {
	t.Helper()
	cfg := &rules.Config{}
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			t.Fatalf("bad config line %q", line)
		}
		list := strings.Split(strings.TrimSpace(value), ",")
		switch strings.TrimSpace(key) {
		case "allowed_methods":
			cfg.AllowedMethods = list
		case "allowed_receivers":
			cfg.AllowedReceivers = list
		case "reserved_methods":
			cfg.ReservedMethods = list
		case "excluded_keys":
			cfg.ExcludedKeys = list
		default:
			t.Fatalf("unknown config key %q", key)
		}
	}
	return cfg
}

func formatDiagnostics(diags []rules.Diagnostic) []byte {
	var buf bytes.Buffer
	for _, d := range diags {
		fix := ""
		if d.HasFix {
			fix = "[Correctable] "
		}
		fmt.Fprintf(&buf, "%d:%d: %s%s: %s\n", d.Position.Line, d.Position.Column, fix, d.Rule, d.Message)
	}
	return buf.Bytes()
}

func cmp(t *testing.T, name string, have, want []byte) {
	t.Helper()
	have = bytes.TrimSpace(have)
	want = bytes.TrimSpace(want)
	if !bytes.Equal(have, want) {
		t.Errorf("%s:\n%s", name, have)
		t.Errorf("want:\n%s", want)
	}
}
