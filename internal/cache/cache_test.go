package cache

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	key := Key("fp", []byte("User.all(:conditions => 'x')\n"))

	if _, err := s.Get(key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() on empty cache error = %v, want ErrMiss", err)
	}

	want := []rules.Diagnostic{{
		Rule:     "hash_form_query",
		Span:     syntax.Span{Start: 0, End: 28},
		Position: syntax.Position{Line: 1, Column: 1},
		Message:  "Use `arel` instead of `all`.",
		HasFix:   true,
	}}
	if err := s.Put(key, want); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
	if n, err := s.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v, want 1", n, err)
	}
}

func TestClear(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error: %v", err)
	}
	defer s.Close()

	for _, src := range []string{"a", "b", "c"} {
		if err := s.Put(Key("fp", []byte(src)), nil); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n, _ := s.Len(); n != 0 {
		t.Errorf("Len() after Clear = %d, want 0", n)
	}
}

func TestKeyDependsOnFingerprintAndContent(t *testing.T) {
	base := string(Key("fp", []byte("x")))
	if string(Key("fp", []byte("x"))) != base {
		t.Error("Key() is not deterministic")
	}
	if string(Key("other", []byte("x"))) == base {
		t.Error("Key() ignores the fingerprint")
	}
	if string(Key("fp", []byte("y"))) == base {
		t.Error("Key() ignores the content")
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint("v1", rules.Names(), &rules.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fingerprint("v1", rules.Names(), &rules.Config{ReservedMethods: []string{"find_by_x"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("Fingerprint() ignores the rule configuration")
	}
	c, _ := Fingerprint("v2", rules.Names(), &rules.Config{}, nil)
	if a == c {
		t.Error("Fingerprint() ignores the version")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if _, err := s.Get([]byte("k")); !errors.Is(err, ErrMiss) {
		t.Errorf("nil Get() error = %v, want ErrMiss", err)
	}
	if err := s.Put([]byte("k"), nil); err != nil {
		t.Errorf("nil Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}
