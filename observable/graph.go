package observable

import "slices"

// graph maps a base key to the keys that depend on it. cacheable indexes the
// dependents that hold a cacheable descriptor; it stays nil until one exists.
type graph struct {
	dependents map[string][]string
	cacheable  map[string][]string
	shared     bool
}

var emptyGraph = &graph{shared: true}

func (g *graph) clone() *graph {
	c := &graph{dependents: make(map[string][]string, len(g.dependents))}
	for base, keys := range g.dependents {
		c.dependents[base] = slices.Clone(keys)
	}
	if g.cacheable != nil {
		c.cacheable = make(map[string][]string, len(g.cacheable))
		for base, keys := range g.cacheable {
			c.cacheable[base] = slices.Clone(keys)
		}
	}
	return c
}

// register appends key to the dependents of every base. Repeated
// registration is not deduplicated.
func (g *graph) register(key string, cacheable bool, bases ...string) {
	if g.dependents == nil {
		g.dependents = map[string][]string{}
	}
	for _, base := range bases {
		g.dependents[base] = append(g.dependents[base], key)
		if !cacheable {
			continue
		}
		if g.cacheable == nil {
			g.cacheable = map[string][]string{}
		}
		g.cacheable[base] = append(g.cacheable[base], key)
	}
}
