package observable

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/stateforward/go-statechart/pkg/set"
)

// AllKeys as a changed key means every observed key changed. As an observer
// key it registers a listener for every key.
const AllKeys = "*"

// UnknownFunc handles Get (isSet false) and Set (isSet true) of keys that
// hold neither a value nor a computed property.
type UnknownFunc func(o *Object, key string, value any, isSet bool) any

type Option func(*Object)

// WithContext sets the observation context consulted for suspension.
func WithContext(ctx *Context) Option {
	return func(o *Object) {
		o.ctx = ctx
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Object) {
		o.logger = logger
	}
}

// WithReceiver sets the value that computed functions and observers act on.
func WithReceiver(receiver any) Option {
	return func(o *Object) {
		o.receiver = receiver
	}
}

func WithUnknownProperty(fn UnknownFunc) Option {
	return func(o *Object) {
		o.unknown = fn
	}
}

// WithPropertyObserver installs a catch-all hook invoked for every changed
// key after the key's observers.
func WithPropertyObserver(method Method) Option {
	return func(o *Object) {
		o.hook = method
	}
}

func WithValues(values map[string]any) Option {
	return func(o *Object) {
		for key, value := range values {
			o.values[key] = value
		}
	}
}

type Object struct {
	receiver any
	ctx      *Context
	logger   *slog.Logger

	values map[string]any
	props  map[string]*Computed
	silent *set.Set[string]

	observers *registry
	graph     *graph
	chains    map[string][]*chain

	unknown UnknownFunc
	hook    Method

	level     int
	pending   *set.Set[string]
	revision  uint64
	revisions map[string]uint64
}

func New(opts ...Option) *Object {
	o := &Object{
		values:    map[string]any{},
		props:     map[string]*Computed{},
		observers: emptyRegistry,
		graph:     emptyGraph,
		pending:   set.New[string](),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.ctx == nil {
		o.ctx = DefaultContext()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func (o *Object) Receiver() any {
	if o == nil {
		return nil
	}
	return o.receiver
}

func (o *Object) Context() *Context {
	if o == nil {
		return nil
	}
	return o.ctx
}

func (o *Object) ownObservers() *registry {
	if o.observers.shared {
		o.observers = o.observers.clone()
	}
	return o.observers
}

func (o *Object) ownGraph() *graph {
	if o.graph.shared {
		o.graph = o.graph.clone()
	}
	return o.graph
}

// Define stores a computed property under key and registers its dependent keys.
func (o *Object) Define(key string, computed *Computed) *Object {
	if o == nil || computed == nil {
		return o
	}
	o.props[key] = computed
	if len(computed.dependentKeys) > 0 {
		o.RegisterDependentKey(key, computed.dependentKeys)
	}
	return o
}

// Computed returns the descriptor stored under key, if any.
func (o *Object) Computed(key string) *Computed {
	if o == nil {
		return nil
	}
	return o.props[key]
}

// RegisterDependentKey declares that key must be invalidated whenever any of
// dependsOn changes. dependsOn holds strings or []string.
func (o *Object) RegisterDependentKey(key string, dependsOn ...any) *Object {
	bases := make([]string, 0, len(dependsOn))
	for _, dependency := range dependsOn {
		switch dependency := dependency.(type) {
		case string:
			bases = append(bases, dependency)
		case []string:
			bases = append(bases, dependency...)
		default:
			o.logger.Warn("observable: dependent key must be a string or []string", "key", key, "dependency", dependency)
		}
	}
	o.ownGraph().register(key, o.props[key].IsCacheable(), bases...)
	return o
}

// SetAutomaticNotification enables or disables the will/did notifications
// that Set issues for key.
func (o *Object) SetAutomaticNotification(key string, enabled bool) *Object {
	if o.silent == nil {
		o.silent = set.New[string]()
	}
	if enabled {
		o.silent.Remove(key)
	} else {
		o.silent.Add(key)
	}
	return o
}

func (o *Object) Get(key string) any {
	if o == nil {
		return nil
	}
	if computed, ok := o.props[key]; ok {
		if computed.cacheable && computed.cached {
			return computed.cache
		}
		value := computed.fn(o, key, nil, false)
		if computed.cacheable {
			computed.cache, computed.cached = value, true
		}
		return value
	}
	if value, ok := o.values[key]; ok {
		return value
	}
	if o.unknown != nil {
		return o.unknown(o, key, nil, false)
	}
	return nil
}

func (o *Object) Set(key string, value any) *Object {
	if o == nil {
		return nil
	}
	computed, isComputed := o.props[key]
	if isComputed && !computed.volatile && computed.hasLastInput && identical(computed.lastInput, value) {
		return o
	}
	notify := !o.silent.Contains(key)
	if notify {
		o.PropertyWillChange(key)
	}
	switch _, stored := o.values[key]; {
	case isComputed:
		result := computed.fn(o, key, value, true)
		computed.lastInput, computed.hasLastInput = value, true
		if computed.cacheable {
			computed.cache, computed.cached = result, true
		}
	case !stored && o.unknown != nil:
		o.unknown(o, key, value, true)
	default:
		o.values[key] = value
	}
	if notify {
		o.didChange(key)
	} else {
		o.invalidateDependents(key)
	}
	return o
}

// SetIfChanged sets key only when value is not identical to the current value.
func (o *Object) SetIfChanged(key string, value any) *Object {
	if identical(o.Get(key), value) {
		return o
	}
	return o.Set(key, value)
}

// invalidateDependents clears every cacheable descriptor reachable from key
// through the dependency graph.
func (o *Object) invalidateDependents(key string) {
	if len(o.graph.dependents[key]) == 0 {
		return
	}
	visited := set.New(key)
	for base := range visited.Items() {
		for _, dependent := range o.graph.cacheable[base] {
			if computed := o.props[dependent]; computed != nil {
				computed.invalidate()
			}
		}
		visited.Add(o.graph.dependents[base]...)
	}
}

func (o *Object) invalidateAll() {
	for _, computed := range o.props {
		if computed.cacheable {
			computed.invalidate()
		}
	}
}

// PropertyWillChange is called before a key changes. Observers are only
// notified after the change, so it has no effect beyond marking the call site.
func (o *Object) PropertyWillChange(key string) *Object {
	return o
}

// PropertyDidChange records a change of key and notifies its observers, now
// or when the current batch or suspension ends. A cacheable computed key
// loses its cached value.
func (o *Object) PropertyDidChange(key string) *Object {
	if o == nil {
		return nil
	}
	if computed := o.props[key]; computed.IsCacheable() {
		computed.invalidate()
	}
	return o.didChange(key)
}

func (o *Object) didChange(key string) *Object {
	o.revision++
	if o.revisions == nil {
		o.revisions = map[string]uint64{}
	}
	o.revisions[key] = o.revision
	if key == AllKeys {
		o.invalidateAll()
	} else {
		o.invalidateDependents(key)
	}
	if o.level > 0 {
		o.pending.Add(key)
		return o
	}
	if o.ctx.Suspended() {
		o.pending.Add(key)
		o.ctx.enqueue(o)
		return o
	}
	o.flush(key)
	return o
}

func (o *Object) NotifyPropertyChange(key string) *Object {
	o.PropertyWillChange(key)
	return o.PropertyDidChange(key)
}

// AllPropertiesDidChange notifies every observed key and clears every cache.
func (o *Object) AllPropertiesDidChange() *Object {
	return o.NotifyPropertyChange(AllKeys)
}

func (o *Object) BeginPropertyChanges() *Object {
	o.level++
	return o
}

func (o *Object) EndPropertyChanges() *Object {
	if o.level == 0 {
		o.logger.Warn("observable: EndPropertyChanges without BeginPropertyChanges")
		return o
	}
	o.level--
	if o.level > 0 || o.pending.Size() == 0 {
		return o
	}
	if o.ctx.Suspended() {
		o.ctx.enqueue(o)
		return o
	}
	o.flush()
	return o
}

// Batch runs fn between BeginPropertyChanges and EndPropertyChanges. The
// batch is closed even if fn panics.
func (o *Object) Batch(fn func()) {
	o.BeginPropertyChanges()
	defer o.EndPropertyChanges()
	fn()
}

func (o *Object) Revision() uint64 {
	if o == nil {
		return 0
	}
	return o.revision
}

// PropertyRevision is the object revision at which key last changed.
func (o *Object) PropertyRevision(key string) uint64 {
	if o == nil {
		return 0
	}
	return o.revisions[key]
}

// ChangedSince reports whether key changed after revision.
func (o *Object) ChangedSince(key string, revision uint64) bool {
	return o.PropertyRevision(key) > revision
}

// AddObserver registers target.method for key. A key containing dots installs
// a chain observer. Adding the same (target, method) twice has no effect;
// method values of target are the same method, closures are compared by
// identity. Targets must be comparable: pointers, or structs of comparable
// fields.
func (o *Object) AddObserver(key string, target any, method Method) *Object {
	if o == nil {
		return nil
	}
	if method == nil {
		o.logger.Warn("observable: observer has no method", "key", key)
		return o
	}
	if !identifiable(target) {
		o.logger.Warn("observable: observer target is not comparable, pass a pointer", "key", key, "target", fmt.Sprintf("%T", target))
		return o
	}
	if strings.Contains(key, ".") {
		o.addChain(key, target, method)
		return o
	}
	o.ownObservers().add(key, target, method)
	return o
}

func (o *Object) RemoveObserver(key string, target any, method Method) *Object {
	if o == nil {
		return nil
	}
	if method == nil {
		o.logger.Warn("observable: observer has no method", "key", key)
		return o
	}
	if strings.Contains(key, ".") {
		o.removeChain(key, target, method)
		return o
	}
	if !o.observers.has(key) {
		return o
	}
	o.ownObservers().remove(key, target, method)
	return o
}

// HasObserverFor reports whether key has a direct observer or a chain.
func (o *Object) HasObserverFor(key string) bool {
	if o == nil {
		return false
	}
	return o.observers.has(key) || len(o.chains[key]) > 0
}

// ObservedKeys returns the keys with direct observers, in registration order.
func (o *Object) ObservedKeys() []string {
	if o == nil {
		return nil
	}
	return o.observers.keys()
}
