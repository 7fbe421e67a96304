// Package hierarchy answers whether code runs inside an ActiveRecord model.
package hierarchy

import (
	"strings"

	"github.com/imyousuf/arelcop/internal/syntax"
)

// DefaultBases are the superclasses that make a class a record.
var DefaultBases = []string{"ApplicationRecord", "ActiveRecord::Base"}

// Resolver looks at the classes enclosing a call. A class is a record if
// its superclass is one of the bases, or is a class defined in the same
// file that is itself a record.
type Resolver struct {
	bases map[string]bool
}

// New returns a resolver for the given base class names. With no names the
// defaults are used.
func New(bases ...string) *Resolver {
	if len(bases) == 0 {
		bases = DefaultBases
	}
	r := &Resolver{bases: make(map[string]bool, len(bases))}
	for _, b := range bases {
		r.bases[normalize(b)] = true
	}
	return r
}

// InheritsRecordBase reports whether any class enclosing call inherits a
// record base.
func (r *Resolver) InheritsRecordBase(f *syntax.File, call *syntax.Node) bool {
	var local map[string]*syntax.Node
	for class := call.Enclosing(syntax.KindClass); class != nil; class = class.Enclosing(syntax.KindClass) {
		if local == nil {
			local = localClasses(f)
		}
		if r.isRecord(f, class, local) {
			return true
		}
	}
	return false
}

func (r *Resolver) isRecord(f *syntax.File, class *syntax.Node, local map[string]*syntax.Node) bool {
	seen := map[string]bool{}
	for class != nil {
		super := superclassName(f, class)
		if super == "" {
			return false
		}
		if r.bases[super] {
			return true
		}
		if seen[super] {
			return false
		}
		seen[super] = true
		class = local[super]
	}
	return false
}

// localClasses indexes the classes defined in f by their short and
// qualified names.
func localClasses(f *syntax.File) map[string]*syntax.Node {
	out := map[string]*syntax.Node{}
	syntax.Walk(f.Root, func(n *syntax.Node) bool {
		if n.Kind != syntax.KindClass {
			return true
		}
		name := normalize(f.Text(n.Field(syntax.RoleName)))
		if name == "" {
			return true
		}
		if _, ok := out[name]; !ok {
			out[name] = n
		}
		if q := qualifiedName(f, n); q != name {
			if _, ok := out[q]; !ok {
				out[q] = n
			}
		}
		return true
	})
	return out
}

func qualifiedName(f *syntax.File, class *syntax.Node) string {
	parts := []string{normalize(f.Text(class.Field(syntax.RoleName)))}
	for p := class.Enclosing(syntax.KindClass, syntax.KindModule); p != nil; p = p.Enclosing(syntax.KindClass, syntax.KindModule) {
		parts = append([]string{normalize(f.Text(p.Field(syntax.RoleName)))}, parts...)
	}
	return strings.Join(parts, "::")
}

func superclassName(f *syntax.File, class *syntax.Node) string {
	sc := class.Field(syntax.RoleSuperclass)
	if sc == nil {
		return ""
	}
	return normalize(f.Text(sc))
}

func normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "<")
	name = strings.TrimSpace(name)
	return strings.TrimPrefix(name, "::")
}
