package parser

import (
	"path/filepath"
	"sort"
	"sync"
)

// Registry manages a collection of language parsers.
type Registry struct {
	mu        sync.RWMutex
	parsers   map[Language]Parser
	extIndex  map[string]Parser
	nameIndex map[string]Parser
	order     []Language
}

// NewRegistry creates a new parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[Language]Parser),
		extIndex:  make(map[string]Parser),
		nameIndex: make(map[string]Parser),
		order:     make([]Language, 0),
	}
}

// Register adds a parser to the registry, indexing it by language, file
// extensions and well-known file names.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lang := p.Language()
	if _, exists := r.parsers[lang]; !exists {
		r.order = append(r.order, lang)
	}
	r.parsers[lang] = p
	for _, ext := range p.Extensions() {
		r.extIndex[ext] = p
	}
	for _, name := range FileNames[lang] {
		r.nameIndex[name] = p
	}
}

// GetByExtension retrieves a parser by file extension (e.g. ".rb").
func (r *Registry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.extIndex[ext]
	return p, ok
}

// ForPath returns the parser for a file path, looking at the extension and
// then the base name.
func (r *Registry) ForPath(path string) (Parser, bool) {
	if p, ok := r.GetByExtension(filepath.Ext(path)); ok {
		return p, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.nameIndex[filepath.Base(path)]
	return p, ok
}

// All returns all registered parsers in registration order.
func (r *Registry) All() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Parser, len(r.order))
	for i, lang := range r.order {
		result[i] = r.parsers[lang]
	}
	return result
}

// SupportedExtensions returns all file extensions that have a registered
// parser, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extIndex))
	for ext := range r.extIndex {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
