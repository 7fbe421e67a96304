package rules

import (
	"strings"

	"github.com/imyousuf/arelcop/internal/edit"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// methodMapping renames legacy option keys to their query methods.
var methodMapping = map[string]string{
	"conditions": "where",
	"include":    "includes",
}

// MethodFor returns the query method for a legacy option key. Keys without
// a mapping are used verbatim.
func MethodFor(key string) string {
	if m, ok := methodMapping[key]; ok {
		return m
	}
	return key
}

// HashEntry is one literal-keyed pair of a hash argument.
type HashEntry struct {
	Key    string
	Value  string
	Source string
}

// Fragment renders the entry as a chained method call.
func (e HashEntry) Fragment() string {
	return MethodFor(e.Key) + "(" + e.Value + ")"
}

// HashEntries extracts the pairs of a hash node in source order. It reports
// false when any element is not a pair with a literal key, such as a
// double-splat.
func HashEntries(f *syntax.File, hash *syntax.Node) ([]HashEntry, bool) {
	if !hash.Is(syntax.KindHash) {
		return nil, false
	}
	entries := make([]HashEntry, 0, len(hash.Children))
	for _, pair := range hash.Children {
		if pair.Kind != syntax.KindPair {
			return nil, false
		}
		key, value := pair.Field(syntax.RoleKey), pair.Field(syntax.RoleValue)
		if !key.Is(syntax.KindSymbol, syntax.KindString) || value == nil || key.Value == "" {
			return nil, false
		}
		entries = append(entries, HashEntry{
			Key:    key.Value,
			Value:  f.Text(value),
			Source: f.Text(pair),
		})
	}
	return entries, true
}

func fragments(entries []HashEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Fragment()
	}
	return out
}

// Call is the derived view of a call node that rewrites are built from.
type Call struct {
	Node *syntax.Node
	// Prefix is the source from the start of the call up to the method
	// name: the receiver and operator with their original layout.
	Prefix   string
	Receiver string
	Operator string
	Method   string
	Args     []*syntax.Node
	// Hash is the first hash argument, if any.
	Hash   *syntax.Node
	Extent syntax.Span
}

// NewCall derives the call view of n.
func NewCall(f *syntax.File, n *syntax.Node) Call {
	c := Call{
		Node:   n,
		Method: n.MethodName(),
		Args:   n.Args(),
		Extent: n.Extent(),
	}
	if recv := n.Receiver(); recv != nil {
		c.Receiver = f.Text(recv)
		if m := n.Method(); m != nil {
			c.Prefix = f.Slice(syntax.Span{Start: n.Span.Start, End: m.Span.Start})
			c.Operator = strings.TrimSpace(f.Slice(syntax.Span{Start: recv.Span.End, End: m.Span.Start}))
		}
	}
	for _, a := range c.Args {
		if a.Kind == syntax.KindHash {
			c.Hash = a
			break
		}
	}
	return c
}

// replaceWith returns the single edit replacing the whole call.
func (c Call) replaceWith(text string) []edit.Edit {
	return []edit.Edit{{Start: c.Extent.Start, End: c.Extent.End, Text: text}}
}
