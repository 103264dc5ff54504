package observable

// Template declares properties, defaults and self-observers once for many
// objects. Objects created from a template share its dependency graph and
// observer registry until they modify their own.
type Template struct {
	props     map[string]*Computed
	values    map[string]any
	graph     *graph
	observers *registry
}

func NewTemplate() *Template {
	return &Template{
		props:     map[string]*Computed{},
		values:    map[string]any{},
		graph:     &graph{},
		observers: &registry{},
	}
}

// Define declares a computed property; each object gets its own copy.
func (t *Template) Define(key string, computed *Computed) *Template {
	t.props[key] = computed
	if len(computed.dependentKeys) > 0 {
		t.graph.register(key, computed.cacheable, computed.dependentKeys...)
	}
	return t
}

func (t *Template) Value(key string, value any) *Template {
	t.values[key] = value
	return t
}

// Observe registers method on key for every object; sender is the object.
func (t *Template) Observe(key string, method Method) *Template {
	t.observers.add(key, nil, method)
	return t
}

func (t *Template) New(opts ...Option) *Object {
	t.graph.shared = true
	t.observers.shared = true
	o := New(opts...)
	o.graph = t.graph
	o.observers = t.observers
	for key, computed := range t.props {
		o.props[key] = computed.clone()
	}
	for key, value := range t.values {
		if _, ok := o.values[key]; !ok {
			o.values[key] = value
		}
	}
	return o
}
