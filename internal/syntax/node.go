// Package syntax defines the read-only syntax tree the rule engine works on.
// Language parsers translate their concrete trees into these nodes once per
// file; nothing downstream mutates them.
package syntax

// Kind classifies a node.
type Kind string

const (
	KindProgram     Kind = "program"
	KindCall        Kind = "call"
	KindIdentifier  Kind = "identifier"
	KindConstant    Kind = "constant"
	KindScope       Kind = "scope_resolution"
	KindArguments   Kind = "arguments"
	KindHash        Kind = "hash"
	KindPair        Kind = "pair"
	KindSymbol      Kind = "symbol"
	KindString      Kind = "string"
	KindSplat       Kind = "splat"
	KindHashSplat   Kind = "hash_splat"
	KindForwardArgs Kind = "forward_args"
	KindBlockPass   Kind = "block_pass"
	KindBlock       Kind = "block"
	KindClass       Kind = "class"
	KindModule      Kind = "module"
	KindSuperclass  Kind = "superclass"
	KindLambda      Kind = "lambda"
	KindError       Kind = "error"
	KindOther       Kind = "other"
)

// Role describes the position a node occupies in its parent.
type Role string

const (
	RoleNone       Role = ""
	RoleReceiver   Role = "receiver"
	RoleOperator   Role = "operator"
	RoleMethod     Role = "method"
	RoleArguments  Role = "arguments"
	RoleBlock      Role = "block"
	RoleKey        Role = "key"
	RoleValue      Role = "value"
	RoleName       Role = "name"
	RoleSuperclass Role = "superclass"
	RoleBody       Role = "body"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int `json:"start" yaml:"start" msgpack:"s"`
	End   int `json:"end" yaml:"end" msgpack:"e"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Node is one element of a parsed file.
//
// Value holds the normalized literal text where the kind has one: the name
// of an identifier or constant, a symbol without its colon, the contents of
// a plain string, or the key name of a pair.
type Node struct {
	Kind     Kind
	Role     Role
	Span     Span
	Value    string
	Children []*Node
	Parent   *Node
}

// Add appends c as a child of n in the given role.
func (n *Node) Add(role Role, c *Node) *Node {
	c.Role = role
	c.Parent = n
	n.Children = append(n.Children, c)
	return c
}

// Field returns the first child with the given role, or nil.
func (n *Node) Field(role Role) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Role == role {
			return c
		}
	}
	return nil
}

// Is reports whether n is non-nil and has one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// Receiver returns the receiver of a call, or nil.
func (n *Node) Receiver() *Node { return n.Field(RoleReceiver) }

// Method returns the method name node of a call.
func (n *Node) Method() *Node { return n.Field(RoleMethod) }

// MethodName returns the called method's name, or "" if n is not a call.
func (n *Node) MethodName() string {
	if m := n.Method(); m != nil {
		return m.Value
	}
	return ""
}

// Args returns the arguments of a call in source order. Bare trailing
// keyword pairs are grouped into a single hash argument by the parser.
func (n *Node) Args() []*Node {
	if a := n.Field(RoleArguments); a != nil {
		return a.Children
	}
	return nil
}

// Extent is the span of a call expression without any attached block.
// Rewrites replace exactly this range so a trailing block survives.
func (n *Node) Extent() Span {
	if n.Kind != KindCall {
		return n.Span
	}
	s := Span{Start: n.Span.Start, End: n.Span.Start}
	for _, c := range n.Children {
		if c.Role == RoleBlock {
			continue
		}
		if c.Span.End > s.End {
			s.End = c.Span.End
		}
	}
	return s
}

// Enclosing returns the nearest ancestor of one of the given kinds.
func (n *Node) Enclosing(kinds ...Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
