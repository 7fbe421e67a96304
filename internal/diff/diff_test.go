package diff

import (
	"bytes"
	"os/exec"
	"testing"

	"github.com/fatih/color"
)

const (
	path    = "app/models/user.rb"
	oldText = "class User\n  all(:conditions => 'x')\nend\n"
	newText = "class User\n  where('x')\nend\n"
	want    = "--- a/app/models/user.rb\n+++ b/app/models/user.rb\n@@ -1,3 +1,3 @@\n class User\n-  all(:conditions => 'x')\n+  where('x')\n end\n"
)

func TestDiff(t *testing.T) {
	if _, err := exec.LookPath("diff"); err != nil {
		t.Skip("diff not installed")
	}
	out, err := Diff(path, []byte(oldText), []byte(newText))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != want {
		t.Errorf("Diff: have:\n%s", out)
		t.Errorf("Diff: want:\n%s", want)
	}
}

func TestDiffEqual(t *testing.T) {
	out, err := Diff(path, []byte(oldText), []byte(oldText))
	if err != nil || out != nil {
		t.Errorf("Diff of equal inputs = %q, %v, want nil", out, err)
	}
}

func TestPrintWithoutColor(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	if err := Print(&buf, []byte(want)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != want {
		t.Errorf("Print() = %q, want %q", buf.String(), want)
	}
}
