package lookup

import "sort"

// Scopes is the chain of mappings default resolution searches.
type Scopes interface {
	Lookup(name string) (any, bool)
	Names() []string
}

// Chain searches its mappings in order; the first mapping holding the name
// wins. Renders build it as model first, engine globals second.
type Chain []map[string]any

// Lookup returns the first value stored under name.
func (c Chain) Lookup(name string) (any, bool) {
	for _, scope := range c {
		if scope == nil {
			continue
		}
		if value, ok := scope[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Names returns the union of keys across the chain, sorted.
func (c Chain) Names() []string {
	seen := make(map[string]struct{})
	for _, scope := range c {
		for key := range scope {
			seen[key] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for key := range seen {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
