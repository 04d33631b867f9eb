package dict

import (
	"sync"
)

// Registry names dictionaries for regularizers.  It is safe for
// concurrent use.
type Registry struct {
	sync.RWMutex
	dicts map[string]*Dictionary
}

func NewRegistry() *Registry {
	return &Registry{dicts: make(map[string]*Dictionary)}
}

// Add registers d by its name, replacing any dictionary of the same
// name.
func (r *Registry) Add(d *Dictionary) {
	r.Lock()
	defer r.Unlock()
	r.dicts[d.Name()] = d
}

// Dictionary returns nil if name is not registered.
func (r *Registry) Dictionary(name string) *Dictionary {
	r.RLock()
	defer r.RUnlock()
	return r.dicts[name]
}

func (r *Registry) Remove(name string) {
	r.Lock()
	defer r.Unlock()
	delete(r.dicts, name)
}
