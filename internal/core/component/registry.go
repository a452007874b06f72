package component

import (
	"sort"
	"strconv"
)

// Registry holds the definition table of every component type and the
// counter used to name components added at runtime. It is filled at startup
// and read-only afterwards, apart from the counter.
type Registry struct {
	defs  map[string]*Table
	added int
}

func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Table, 32),
	}
}

// Register installs def as the definition of typ, replacing any previous one.
func (r *Registry) Register(typ string, def *Table) {
	r.defs[typ] = def
}

// Lookup returns the definition for typ, or false if typ is unregistered.
func (r *Registry) Lookup(typ string) (*Table, bool) {
	def, ok := r.defs[typ]
	return def, ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NextName synthesizes a fresh component name ("r0", "r1", ...). Names are
// never handed out twice, whichever actor asks.
func (r *Registry) NextName() string {
	name := "r" + strconv.Itoa(r.added)
	r.added++
	return name
}
