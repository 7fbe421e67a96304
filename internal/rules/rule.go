// Package rules holds the rule families that detect hash-keyed query idioms
// and derive their chained-method rewrites.
package rules

import (
	"slices"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/match"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// Diagnostic describes one offense.
type Diagnostic struct {
	Rule     string          `json:"rule" yaml:"rule" msgpack:"rule"`
	Span     syntax.Span     `json:"span" yaml:"span" msgpack:"span"`
	Position syntax.Position `json:"position" yaml:"position" msgpack:"pos"`
	Message  string          `json:"message" yaml:"message" msgpack:"msg"`
	HasFix   bool            `json:"correctable" yaml:"correctable" msgpack:"fix"`
}

// ClassHierarchyResolver answers whether a receiver-less call is made from
// inside a class that inherits from a recognized record base class.
type ClassHierarchyResolver interface {
	InheritsRecordBase(f *syntax.File, call *syntax.Node) bool
}

// Config is the resolved per-run rule configuration. Empty lists mean no
// exclusions.
type Config struct {
	AllowedMethods   []string
	AllowedReceivers []string
	ReservedMethods  []string
	// ExcludedKeys are the relation options kept as a trailing hash. Nil
	// selects DefaultExcludedKeys.
	ExcludedKeys []string
}

// DefaultExcludedKeys are has_many options that have no scope method.
var DefaultExcludedKeys = []string{
	"as",
	"class_name",
	"dependent",
	"extend",
	"foreign_key",
	"polymorphic",
	"through",
}

func (c *Config) excluded(key string) bool {
	if c == nil || c.ExcludedKeys == nil {
		return slices.Contains(DefaultExcludedKeys, key)
	}
	return slices.Contains(c.ExcludedKeys, key)
}

func (c *Config) allowedMethod(name string) bool {
	return c != nil && slices.Contains(c.AllowedMethods, name)
}

func (c *Config) allowedReceiver(src string) bool {
	return c != nil && slices.Contains(c.AllowedReceivers, src)
}

func (c *Config) reserved(name string) bool {
	return c != nil && slices.Contains(c.ReservedMethods, name)
}

// Context carries what a rule may consult besides the node itself.
type Context struct {
	File     *syntax.File
	Config   *Config
	Resolver ClassHierarchyResolver
}

// Match is a call accepted by a rule, with what the rule derived from it.
type Match struct {
	Call     Call
	Captures match.Captures
	Entries  []HashEntry

	// Static is the replacement method a dynamic finder maps to.
	Static string
	// Columns are the column names encoded in a dynamic finder's name.
	Columns []string
}

// Rule is one idiom family: a matcher, a message builder and a rewriter.
type Rule struct {
	Name        string
	Description string

	// Match classifies a call node. Refinement failures report false.
	Match func(ctx *Context, n *syntax.Node) (*Match, bool)
	// Message formats the diagnostic text for a match.
	Message func(m *Match) string
	// Rewrite returns edits within the call's extent, or false when the
	// match cannot be fixed automatically.
	Rewrite func(ctx *Context, m *Match) ([]edit.Edit, bool)
}

// Default returns the rules in precedence order.
func Default() []Rule {
	return []Rule{
		HashFormQuery,
		RelationOptions,
		DynamicFindAllBy,
		DynamicFindOrInitializeBy,
		DynamicFindOrCreateBy,
	}
}

// Names returns the names of the default rules.
func Names() []string {
	var names []string
	for _, r := range Default() {
		names = append(names, r.Name)
	}
	return names
}

// Select returns the default rules minus the disabled ones.
func Select(disabled []string) []Rule {
	var out []Rule
	for _, r := range Default() {
		if !slices.Contains(disabled, r.Name) {
			out = append(out, r)
		}
	}
	return out
}
