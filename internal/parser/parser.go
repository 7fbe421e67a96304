package parser

import "github.com/imyousuf/arelcop/internal/syntax"

// Language represents a supported source language.
type Language string

const (
	LangRuby Language = "ruby"
)

// FileExtensions maps each language to its recognized file extensions.
var FileExtensions = map[Language][]string{
	LangRuby: {".rb", ".rake", ".ru", ".gemspec", ".jbuilder"},
}

// FileNames maps each language to extension-less file names it owns.
var FileNames = map[Language][]string{
	LangRuby: {"Gemfile", "Rakefile", "Guardfile", "Capfile"},
}

// Parser defines the interface for language-specific parsers.
type Parser interface {
	// Language returns which language this parser handles.
	Language() Language

	// Extensions returns the file extensions this parser can handle.
	Extensions() []string

	// ParseFile parses the given file content into a syntax tree.
	ParseFile(filePath string, content []byte) (*syntax.File, error)
}
