package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command in a fresh project directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
	t.Setenv("ARELCOP_CACHE_ENABLED", "false")
	return dir
}

func TestLintReportsOffenses(t *testing.T) {
	project(t, map[string]string{
		"app/models/user.rb": "class User < ApplicationRecord\n  def self.admins\n    find_all_by_role('admin')\n  end\nend\n",
		"app/models/post.rb": "Post.where(id: 1)\n",
	})

	out, err := execute(t, "lint")
	if !errors.Is(err, ErrOffenses) {
		t.Fatalf("lint error = %v, want ErrOffenses\n%s", err, out)
	}
	for _, want := range []string{
		"app/models/user.rb:3:5: C: [Correctable] dynamic_find_all_by: Use `where` instead of dynamic `find_all_by_role`.",
		"2 files inspected, 1 offense detected, 1 offense autocorrectable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("lint output missing %q:\n%s", want, out)
		}
	}
}

func TestLintCleanProject(t *testing.T) {
	project(t, map[string]string{"app/models/post.rb": "Post.where(id: 1)\n"})

	out, err := execute(t, "lint", "app")
	if err != nil {
		t.Fatalf("lint error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 file inspected, no offenses detected") {
		t.Errorf("lint output = %q", out)
	}
}

func TestFixRewritesFiles(t *testing.T) {
	dir := project(t, map[string]string{
		"lib/report.rb": "User.all(:conditions => { :active => true }, :order => 'name')\n",
	})

	out, err := execute(t, "fix")
	if err != nil {
		t.Fatalf("fix error = %v\n%s", err, out)
	}
	got, err := os.ReadFile(filepath.Join(dir, "lib/report.rb"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "User.where({ :active => true }).order('name')\n"; string(got) != want {
		t.Errorf("fixed file = %q, want %q", got, want)
	}
	if !strings.Contains(out, "1 offense corrected") {
		t.Errorf("fix output = %q", out)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := project(t, nil)

	if out, err := execute(t, "init"); err != nil {
		t.Fatalf("init error = %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".arelcop.yaml"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "record_bases:") {
		t.Errorf("config content:\n%s", data)
	}

	if _, err := execute(t, "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v, want already exists", err)
	}
}

func TestRulesLists(t *testing.T) {
	project(t, nil)
	out, err := execute(t, "rules")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"hash_form_query", "relation_options", "dynamic_find_or_create_by"} {
		if !strings.Contains(out, name) {
			t.Errorf("rules output missing %s:\n%s", name, out)
		}
	}
	want := "Inspects ruby files: .gemspec, .jbuilder, .rake, .rb, .ru, Gemfile, Rakefile, Guardfile, Capfile\n"
	if !strings.Contains(out, want) {
		t.Errorf("rules output missing %q:\n%s", want, out)
	}
}

func TestConfigShowsFileTypes(t *testing.T) {
	project(t, nil)
	out, err := execute(t, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, ".gemspec, .jbuilder, .rake, .rb, .ru") {
		t.Errorf("config output missing file types:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "arelcop version dev\n") {
		t.Errorf("version output = %q", out)
	}
}
