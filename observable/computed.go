package observable

// ComputedFunc produces a computed property's value. On Get it is called with
// isSet false and value nil; on Set it receives the value being set and
// returns the value to cache.
type ComputedFunc func(o *Object, key string, value any, isSet bool) any

// Computed is a function-backed property. It owns its cache slot and the
// last value passed to Set, so two properties never share cached state.
type Computed struct {
	fn            ComputedFunc
	dependentKeys []string
	cacheable     bool
	volatile      bool

	cache  any
	cached bool

	lastInput    any
	hasLastInput bool
}

// Property returns a computed property backed by fn that depends on
// dependentKeys.
func Property(fn ComputedFunc, dependentKeys ...string) *Computed {
	return &Computed{fn: fn, dependentKeys: dependentKeys}
}

// Getter returns a read-only computed property. Setting it re-evaluates fn
// and ignores the value.
func Getter(fn func(o *Object) any, dependentKeys ...string) *Computed {
	return Property(func(o *Object, key string, value any, isSet bool) any {
		return fn(o)
	}, dependentKeys...)
}

// Cacheable marks the property's result as cacheable until a dependency changes.
func (c *Computed) Cacheable() *Computed {
	c.cacheable = true
	return c
}

// Volatile makes Set re-invoke the function even when the value equals the
// last value set.
func (c *Computed) Volatile() *Computed {
	c.volatile = true
	return c
}

func (c *Computed) IsCacheable() bool {
	return c != nil && c.cacheable
}

func (c *Computed) IsVolatile() bool {
	return c != nil && c.volatile
}

func (c *Computed) DependentKeys() []string {
	return c.dependentKeys
}

// invalidate clears both the cached result and the last-input record.
func (c *Computed) invalidate() {
	c.cache, c.cached = nil, false
	c.lastInput, c.hasLastInput = nil, false
}

// clone copies the descriptor with empty slots.
func (c *Computed) clone() *Computed {
	return &Computed{
		fn:            c.fn,
		dependentKeys: c.dependentKeys,
		cacheable:     c.cacheable,
		volatile:      c.volatile,
	}
}
