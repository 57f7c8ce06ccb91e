package parsing

import (
	"log/slog"
	"sort"
)

// Collision records an extension claimed by more than one parser.
type Collision struct {
	Extension string
	Previous  string
	Winner    string
}

// Registry keeps a mapping from file extensions to parser implementations.
type Registry struct {
	parsers    map[string]Parser
	collisions []Collision
	logger     *slog.Logger
}

// NewRegistry builds the extension map; on collision the later parser wins.
func NewRegistry(logger *slog.Logger, parsers ...Parser) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{parsers: map[string]Parser{}, logger: logger}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register adds p for each extension it advertises, replacing earlier claims.
func (r *Registry) Register(p Parser) {
	if p == nil {
		return
	}
	if r.parsers == nil {
		r.parsers = map[string]Parser{}
	}
	for _, raw := range p.Extensions() {
		ext := NormalizeExtension(raw)
		if ext == "" {
			continue
		}
		if prev, ok := r.parsers[ext]; ok {
			r.collisions = append(r.collisions, Collision{Extension: ext, Previous: prev.Name(), Winner: p.Name()})
			r.logger.Warn("overwriting parser for extension",
				"extension", ext, "previous", prev.Name(), "parser", p.Name())
		}
		r.parsers[ext] = p
	}
}

// Lookup returns the parser for ext; ok is false when the extension is unsupported.
func (r *Registry) Lookup(ext string) (Parser, bool) {
	p, ok := r.parsers[NormalizeExtension(ext)]
	return p, ok
}

// Len reports how many extensions are registered.
func (r *Registry) Len() int {
	return len(r.parsers)
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Collisions returns every overwrite recorded while building the registry.
func (r *Registry) Collisions() []Collision {
	return append([]Collision(nil), r.collisions...)
}
