package ruby

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/imyousuf/arelcop/internal/parser"
	"github.com/imyousuf/arelcop/internal/syntax"
)

// RubyParser builds syntax trees from Ruby source using tree-sitter.
type RubyParser struct{}

// NewParser creates a new Ruby parser.
func NewParser() *RubyParser {
	return &RubyParser{}
}

func (p *RubyParser) Language() parser.Language {
	return parser.LangRuby
}

func (p *RubyParser) Extensions() []string {
	return parser.FileExtensions[parser.LangRuby]
}

func (p *RubyParser) ParseFile(filePath string, content []byte) (*syntax.File, error) {
	sitterParser := sitter.NewParser()
	defer sitterParser.Close()
	sitterParser.SetLanguage(ruby.GetLanguage())

	tree, err := sitterParser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	c := &converter{content: content}
	root := tree.RootNode()
	f := syntax.NewFile(filePath, content, c.convert(root))
	f.HasErrors = root.HasError()
	return f, nil
}

// converter translates tree-sitter nodes into syntax nodes.
type converter struct {
	content []byte
}

var kinds = map[string]syntax.Kind{
	"program":             syntax.KindProgram,
	"call":                syntax.KindCall,
	"identifier":          syntax.KindIdentifier,
	"constant":            syntax.KindConstant,
	"scope_resolution":    syntax.KindScope,
	"argument_list":       syntax.KindArguments,
	"hash":                syntax.KindHash,
	"pair":                syntax.KindPair,
	"simple_symbol":       syntax.KindSymbol,
	"hash_key_symbol":     syntax.KindSymbol,
	"delimited_symbol":    syntax.KindSymbol,
	"string":              syntax.KindString,
	"splat_argument":      syntax.KindSplat,
	"hash_splat_argument": syntax.KindHashSplat,
	"forward_argument":    syntax.KindForwardArgs,
	"block_argument":      syntax.KindBlockPass,
	"block":               syntax.KindBlock,
	"do_block":            syntax.KindBlock,
	"class":               syntax.KindClass,
	"module":              syntax.KindModule,
	"lambda":              syntax.KindLambda,
	"ERROR":               syntax.KindError,
}

func (c *converter) convert(n *sitter.Node) *syntax.Node {
	out := &syntax.Node{Kind: syntax.KindOther, Span: c.span(n)}
	if k, ok := kinds[n.Type()]; ok {
		out.Kind = k
	}

	switch n.Type() {
	case "call":
		c.addField(out, n, "receiver", syntax.RoleReceiver)
		c.addField(out, n, "method", syntax.RoleMethod)
		c.addField(out, n, "arguments", syntax.RoleArguments)
		c.addField(out, n, "block", syntax.RoleBlock)
		return out
	case "argument_list":
		c.convertArguments(out, n)
		return out
	case "pair":
		c.addField(out, n, "key", syntax.RoleKey)
		c.addField(out, n, "value", syntax.RoleValue)
		return out
	case "class", "module":
		name := n.ChildByFieldName("name")
		super := n.ChildByFieldName("superclass")
		if name != nil {
			out.Add(syntax.RoleName, c.convert(name))
		}
		if super != nil {
			// The superclass node includes the "<" token; keep the expression.
			if expr := firstNamed(super); expr != nil {
				out.Add(syntax.RoleSuperclass, c.convert(expr))
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if sameNode(child, name) || sameNode(child, super) || child.Type() == "comment" {
				continue
			}
			out.Add(syntax.RoleBody, c.convert(child))
		}
		return out
	case "identifier", "constant", "scope_resolution", "hash_key_symbol":
		out.Value = n.Content(c.content)
		return out
	case "simple_symbol":
		out.Value = strings.TrimPrefix(n.Content(c.content), ":")
		return out
	case "string", "delimited_symbol":
		value, plain := c.literalContents(n)
		if !plain {
			out.Kind = syntax.KindOther
		}
		out.Value = value
		return out
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out.Add(syntax.RoleNone, c.convert(child))
	}
	return out
}

func (c *converter) addField(out *syntax.Node, n *sitter.Node, field string, role syntax.Role) {
	if child := n.ChildByFieldName(field); child != nil {
		out.Add(role, c.convert(child))
	}
}

// convertArguments converts an argument list, grouping each run of bare
// key/value pairs into one synthetic hash node.
func (c *converter) convertArguments(out *syntax.Node, n *sitter.Node) {
	var hash *syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "comment":
			continue
		case "pair", "hash_splat_argument":
			if hash == nil {
				hash = out.Add(syntax.RoleNone, &syntax.Node{Kind: syntax.KindHash, Span: c.span(child)})
			}
			hash.Add(syntax.RoleNone, c.convert(child))
			hash.Span.End = c.span(child).End
		default:
			hash = nil
			out.Add(syntax.RoleNone, c.convert(child))
		}
	}
}

// literalContents returns the text of a string or quoted symbol. It reports
// false when the literal contains interpolation.
func (c *converter) literalContents(n *sitter.Node) (string, bool) {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "string_content", "escape_sequence":
			b.WriteString(child.Content(c.content))
		default:
			return "", false
		}
	}
	return b.String(), true
}

func (c *converter) span(n *sitter.Node) syntax.Span {
	start, err := safecast.Conv[int](n.StartByte())
	if err != nil {
		panic(fmt.Errorf("node offset overflow: %w", err))
	}
	end, err := safecast.Conv[int](n.EndByte())
	if err != nil {
		panic(fmt.Errorf("node offset overflow: %w", err))
	}
	return syntax.Span{Start: start, End: end}
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
