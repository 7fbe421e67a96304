package hierarchy

import (
	"testing"

	"github.com/imyousuf/arelcop/internal/parser/ruby"
	"github.com/imyousuf/arelcop/internal/syntax"
)

func callIn(t *testing.T, src, method string) (*syntax.File, *syntax.Node) {
	t.Helper()
	f, err := ruby.NewParser().ParseFile("model.rb", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range f.Calls() {
		if c.MethodName() == method {
			return f, c
		}
	}
	t.Fatalf("no call to %s", method)
	return nil, nil
}

func TestInheritsRecordBase(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		bases []string
		want  bool
	}{
		{
			name: "application record",
			src:  "class User < ApplicationRecord\n  def x\n    target(1)\n  end\nend\n",
			want: true,
		},
		{
			name: "active record base",
			src:  "class User < ActiveRecord::Base\n  target(1)\nend\n",
			want: true,
		},
		{
			name: "top level constant",
			src:  "class User < ::ActiveRecord::Base\n  target(1)\nend\n",
			want: true,
		},
		{
			name: "no superclass",
			src:  "class User\n  target(1)\nend\n",
			want: false,
		},
		{
			name: "unrelated superclass",
			src:  "class User < Foo\n  target(1)\nend\n",
			want: false,
		},
		{
			name: "outside any class",
			src:  "target(1)\n",
			want: false,
		},
		{
			name: "transitive local class",
			src:  "class Base < ApplicationRecord\nend\nclass Admin < Base\n  target(1)\nend\n",
			want: true,
		},
		{
			name: "superclass cycle",
			src:  "class A < B\nend\nclass B < A\n  target(1)\nend\n",
			want: false,
		},
		{
			name: "nested in model",
			src:  "class User < ApplicationRecord\n  class Helper\n    target(1)\n  end\nend\n",
			want: true,
		},
		{
			name:  "custom base",
			src:   "class User < Sequel::Model\n  target(1)\nend\n",
			bases: []string{"Sequel::Model"},
			want:  true,
		},
		{
			name:  "custom base replaces defaults",
			src:   "class User < ApplicationRecord\n  target(1)\nend\n",
			bases: []string{"Sequel::Model"},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, call := callIn(t, tt.src, "target")
			if got := New(tt.bases...).InheritsRecordBase(f, call); got != tt.want {
				t.Errorf("InheritsRecordBase() = %v, want %v", got, tt.want)
			}
		})
	}
}
