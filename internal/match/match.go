// Package match implements declarative structural matching over call nodes.
//
// A CallPattern describes the receiver, method name and argument shapes a
// call must have. Matching never evaluates argument values; on success it
// returns the sub-nodes bound by name.
package match

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/imyousuf/arelcop/internal/syntax"
)

// Presence constrains whether a call has an explicit receiver.
type Presence int

const (
	Any Presence = iota
	Present
	Absent
)

// Captures maps binding names to the nodes they matched. Regexp submatches
// of a method pattern are stored under the binding name followed by the
// group index, e.g. "method.1".
type Captures struct {
	Nodes map[string]*syntax.Node
	Text  map[string]string
}

// Node returns the node bound to name, or nil.
func (c Captures) Node(name string) *syntax.Node { return c.Nodes[name] }

// Pattern constrains a single node.
type Pattern struct {
	// Kinds lists acceptable kinds. Empty accepts any kind.
	Kinds []syntax.Kind
	// Values lists acceptable Value strings. Empty accepts any value.
	Values []string
	// Regexp, if set, must match Value.
	Regexp *regexp.Regexp
	// Bind names the capture for the matched node.
	Bind string
	// Optional patterns may be skipped when matching an argument list.
	Optional bool
}

// CallPattern describes a call shape.
type CallPattern struct {
	Receiver Presence
	Method   Pattern
	Args     []Pattern
	// Rest accepts any number of further arguments after Args.
	Rest bool
}

// Kind returns a pattern accepting any of the given kinds.
func Kind(bind string, kinds ...syntax.Kind) Pattern {
	return Pattern{Kinds: kinds, Bind: bind}
}

// Literal returns a pattern accepting a node of kind k whose value is one
// of values.
func Literal(bind string, k syntax.Kind, values ...string) Pattern {
	return Pattern{Kinds: []syntax.Kind{k}, Values: values, Bind: bind}
}

// Name returns a method-name pattern accepting the given names.
func Name(names ...string) Pattern {
	return Pattern{Values: names, Bind: "method"}
}

// NameRegexp returns a method-name pattern matching re.
func NameRegexp(re *regexp.Regexp) Pattern {
	return Pattern{Regexp: re, Bind: "method"}
}

// Opt marks p optional.
func Opt(p Pattern) Pattern {
	p.Optional = true
	return p
}

// Match reports whether n has the shape described by p and returns the
// bound captures.
func (p CallPattern) Match(n *syntax.Node) (Captures, bool) {
	caps := Captures{Nodes: map[string]*syntax.Node{}, Text: map[string]string{}}
	if n == nil || n.Kind != syntax.KindCall {
		return caps, false
	}
	recv := n.Receiver()
	switch p.Receiver {
	case Present:
		if recv == nil {
			return caps, false
		}
	case Absent:
		if recv != nil {
			return caps, false
		}
	}
	if recv != nil {
		caps.Nodes["receiver"] = recv
	}

	m := n.Method()
	if m == nil || !p.Method.accepts(m, caps) {
		return caps, false
	}
	if !matchArgs(p.Args, n.Args(), p.Rest, caps) {
		return caps, false
	}
	return caps, true
}

func (p Pattern) accepts(n *syntax.Node, caps Captures) bool {
	if len(p.Kinds) > 0 && !n.Is(p.Kinds...) {
		return false
	}
	if len(p.Values) > 0 && !slices.Contains(p.Values, n.Value) {
		return false
	}
	if p.Regexp != nil {
		sub := p.Regexp.FindStringSubmatch(n.Value)
		if sub == nil {
			return false
		}
		if p.Bind != "" {
			for i, s := range sub[1:] {
				caps.Text[p.Bind+"."+strconv.Itoa(i+1)] = s
			}
		}
	}
	if p.Bind != "" {
		caps.Nodes[p.Bind] = n
	}
	return true
}

// matchArgs is a small backtracking descent over the argument list so an
// optional pattern can be skipped when the remaining arguments need it.
func matchArgs(pats []Pattern, args []*syntax.Node, rest bool, caps Captures) bool {
	if len(pats) == 0 {
		return rest || len(args) == 0
	}
	p := pats[0]
	if len(args) > 0 {
		trial := caps.clone()
		if p.accepts(args[0], trial) && matchArgs(pats[1:], args[1:], rest, trial) {
			caps.merge(trial)
			return true
		}
	}
	if p.Optional {
		return matchArgs(pats[1:], args, rest, caps)
	}
	return false
}

func (c Captures) clone() Captures {
	out := Captures{Nodes: make(map[string]*syntax.Node, len(c.Nodes)), Text: make(map[string]string, len(c.Text))}
	for k, v := range c.Nodes {
		out.Nodes[k] = v
	}
	for k, v := range c.Text {
		out.Text[k] = v
	}
	return out
}

func (c Captures) merge(o Captures) {
	for k, v := range o.Nodes {
		c.Nodes[k] = v
	}
	for k, v := range o.Text {
		c.Text[k] = v
	}
}
