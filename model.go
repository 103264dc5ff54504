package statechart

import (
	"fmt"
	"maps"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/stateforward/go-statechart/embedded"
	"github.com/stateforward/go-statechart/kinds"
	"github.com/stateforward/go-statechart/observable"
)

type Element = embedded.Element

// Model is a declared statechart. Elements are indexed by qualified name
// ("/a/b"); the root state is "/".
type Model struct {
	state
	namespace map[string]embedded.NamedElement
	elements  []RedefinableElement
	errors    []error
}

func (model *Model) Namespace() map[string]embedded.NamedElement {
	return model.namespace
}

// Push defers partial until the current declaration pass completes.
func (model *Model) Push(partial RedefinableElement) {
	model.elements = append(model.elements, partial)
}

// Errors returns the declaration errors recorded while the model was built.
func (model *Model) Errors() []error {
	return model.errors
}

// fork returns a model sharing model's declarations whose namespace can be
// extended without touching model.
func (model *Model) fork() *Model {
	return &Model{
		state:     model.state,
		namespace: maps.Clone(model.namespace),
	}
}

func (model *Model) fail(err error) {
	model.errors = append(model.errors, err)
}

type RedefinableElement = func(model *Model, stack []embedded.Element) embedded.Element

/******* Vertex *******/

type vertex struct {
	element
	transitions []string
}

func (vertex *vertex) Transitions() []string {
	return vertex.transitions
}

/******* State *******/

type state struct {
	vertex
	initial    string
	concurrent bool
	substates  []string
	history    string
	entry      string
	exit       string
	handlers   []string
	observers  []string
	unknown    string
}

func (state *state) Initial() string {
	return state.initial
}

func (state *state) Concurrent() bool {
	return state.concurrent
}

func (state *state) Substates() []string {
	return state.substates
}

func (state *state) History() string {
	return state.history
}

func (state *state) Entry() string {
	return state.entry
}

func (state *state) Exit() string {
	return state.exit
}

func (state *state) Handlers() []string {
	return state.handlers
}

/******* History *******/

type history struct {
	element
	defaultState string
	recursive    bool
}

func (history *history) Default() string {
	return history.defaultState
}

func (history *history) Recursive() bool {
	return history.recursive
}

/******* Behaviors *******/

// Action is an entry or exit hook. Returning a non-nil *Async suspends the
// transition until ResumeGotoState is called.
type Action func(ctx *Context) *Async

// HandlerFunc handles an event and reports whether it was handled.
type HandlerFunc func(ctx *Context) bool

// ObserveFunc is called when an observed path changes while its state is
// entered.
type ObserveFunc func(ctx *Context, sender *observable.Object, key string)

// Always adapts fn into a handler that always reports the event handled.
func Always(fn func(ctx *Context)) HandlerFunc {
	return func(ctx *Context) bool {
		fn(ctx)
		return true
	}
}

type behavior struct {
	element
	action Action
}

type handler struct {
	element
	fn       HandlerFunc
	events   []string
	patterns []*regexp.Regexp
}

func (handler *handler) Events() []string {
	return handler.events
}

type observer struct {
	element
	fn    ObserveFunc
	paths []string
}

/******* Routes *******/

type route struct {
	element
	event  string
	source string
	target string
	paths  struct {
		source string
		target string
	}
}

func (route *route) Source() string {
	if route.paths.source != "" {
		return route.paths.source
	}
	return route.source
}

func (route *route) Target() string {
	if route.paths.target != "" {
		return route.paths.target
	}
	return route.target
}

func (route *route) Events() []string {
	return []string{route.event}
}

/******* DSL *******/

func apply(model *Model, stack []embedded.Element, partials ...RedefinableElement) {
	for _, partial := range partials {
		partial(model, stack)
	}
}

func Define[T interface{ RedefinableElement | string }](nameOrRedefinableElement T, redefinableElements ...RedefinableElement) *Model {
	name := "/"
	switch any(nameOrRedefinableElement).(type) {
	case string:
		name = path.Join(name, any(nameOrRedefinableElement).(string))
	case RedefinableElement:
		redefinableElements = append([]RedefinableElement{any(nameOrRedefinableElement).(RedefinableElement)}, redefinableElements...)
	}
	model := &Model{
		state: state{
			vertex: vertex{element: element{kind: kinds.State, qualifiedName: "/", id: name}},
		},
		namespace: map[string]embedded.NamedElement{},
		elements:  redefinableElements,
	}
	model.build([]embedded.Element{&model.state})
	return model
}

func (model *Model) build(stack []embedded.Element) {
	for len(model.elements) > 0 {
		elements := model.elements
		model.elements = []RedefinableElement{}
		apply(model, stack, elements...)
	}
}

func find(stack []embedded.Element, maybeKinds ...uint64) embedded.Element {
	for i := len(stack) - 1; i >= 0; i-- {
		if kinds.IsKind(stack[i].Kind(), maybeKinds...) {
			return stack[i]
		}
	}
	return nil
}

func get[T embedded.Element](model *Model, name string) T {
	var zero T
	if name == "" {
		return zero
	}
	if name == "/" {
		if typed, ok := any(&model.state).(T); ok {
			return typed
		}
		return zero
	}
	if element, ok := model.namespace[name]; ok {
		typed, ok := element.(T)
		if ok {
			return typed
		}
	}
	return zero
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/.*")
}

// declare registers element under its qualified name, failing on collisions.
func declare(model *Model, element embedded.NamedElement) bool {
	if existing, ok := model.namespace[element.QualifiedName()]; ok {
		model.fail(fmt.Errorf("%w: %s is already declared as a %s", ErrDuplicateName, element.QualifiedName(), kindName(existing.Kind())))
		return false
	}
	model.namespace[element.QualifiedName()] = element
	return true
}

func enclosing(model *Model, stack []embedded.Element, what string) *state {
	owner, ok := find(stack, kinds.State).(*state)
	if !ok {
		model.fail(fmt.Errorf("%w: %s must be declared within a state", ErrInvalidDeclaration, what))
		return nil
	}
	return owner
}

func State(name string, partialElements ...RedefinableElement) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "state "+name)
		if owner == nil {
			return nil
		}
		if !validName(name) {
			model.fail(fmt.Errorf("%w: invalid state name %q", ErrInvalidDeclaration, name))
			return nil
		}
		element := &state{
			vertex: vertex{element: element{kind: kinds.State, qualifiedName: path.Join(owner.QualifiedName(), name)}},
		}
		if !declare(model, element) {
			return nil
		}
		owner.substates = append(owner.substates, element.QualifiedName())
		stack = append(stack, element)
		apply(model, stack, partialElements...)
		return element
	}
}

// Initial names the substate, or history node, entered by default.
func Initial(name string) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "initial "+name)
		if owner == nil {
			return nil
		}
		if owner.initial != "" {
			model.fail(fmt.Errorf("%w: %s already has initial substate %s", ErrInvalidDeclaration, owner.QualifiedName(), owner.initial))
			return nil
		}
		owner.initial = path.Join(owner.QualifiedName(), name)
		return owner
	}
}

// Concurrent makes the substates of the enclosing state orthogonal regions.
func Concurrent() RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "concurrent")
		if owner == nil {
			return nil
		}
		owner.concurrent = true
		return owner
	}
}

// History declares a history node that re-enters the last exited substate
// of its owner, or defaultState on the first visit.
func History(name string, defaultState string, maybeRecursive ...bool) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "history "+name)
		if owner == nil {
			return nil
		}
		if !validName(name) {
			model.fail(fmt.Errorf("%w: invalid history name %q", ErrInvalidDeclaration, name))
			return nil
		}
		if owner.history != "" {
			model.fail(fmt.Errorf("%w: %s already has history node %s", ErrInvalidDeclaration, owner.QualifiedName(), owner.history))
			return nil
		}
		element := &history{
			element:   element{kind: kinds.History, qualifiedName: path.Join(owner.QualifiedName(), name)},
			recursive: len(maybeRecursive) > 0 && maybeRecursive[0],
		}
		if defaultState != "" {
			element.defaultState = path.Join(owner.QualifiedName(), defaultState)
		}
		if !declare(model, element) {
			return nil
		}
		owner.history = element.QualifiedName()
		return element
	}
}

func Entry(fn Action) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "entry")
		if owner == nil {
			return nil
		}
		element := &behavior{
			element: element{kind: kinds.Entry, qualifiedName: path.Join(owner.QualifiedName(), ".entry")},
			action:  fn,
		}
		model.namespace[element.QualifiedName()] = element
		owner.entry = element.QualifiedName()
		return element
	}
}

func Exit(fn Action) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "exit")
		if owner == nil {
			return nil
		}
		element := &behavior{
			element: element{kind: kinds.Exit, qualifiedName: path.Join(owner.QualifiedName(), ".exit")},
			action:  fn,
		}
		model.namespace[element.QualifiedName()] = element
		owner.exit = element.QualifiedName()
		return element
	}
}

// On handles the event with the same name.
func On(name string, fn HandlerFunc) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "event "+name)
		if owner == nil {
			return nil
		}
		if !validName(name) {
			model.fail(fmt.Errorf("%w: invalid event name %q", ErrInvalidDeclaration, name))
			return nil
		}
		element := &handler{
			element: element{kind: kinds.Method, qualifiedName: path.Join(owner.QualifiedName(), name)},
			fn:      fn,
			events:  []string{name},
		}
		if !declare(model, element) {
			return nil
		}
		owner.handlers = append(owner.handlers, element.QualifiedName())
		return element
	}
}

// Handler registers fn under name for a set of literal event names or for
// every event matching one of the patterns.
func Handler[T interface{ string | *regexp.Regexp }](name string, fn HandlerFunc, triggers ...T) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "handler "+name)
		if owner == nil {
			return nil
		}
		if !validName(name) {
			model.fail(fmt.Errorf("%w: invalid handler name %q", ErrInvalidDeclaration, name))
			return nil
		}
		element := &handler{
			element: element{kind: kinds.Handler, qualifiedName: path.Join(owner.QualifiedName(), name)},
			fn:      fn,
		}
		for _, trigger := range triggers {
			switch trigger := any(trigger).(type) {
			case string:
				element.events = append(element.events, trigger)
			case *regexp.Regexp:
				element.kind = kinds.Pattern
				element.patterns = append(element.patterns, trigger)
			}
		}
		if !declare(model, element) {
			return nil
		}
		owner.handlers = append(owner.handlers, element.QualifiedName())
		return element
	}
}

// Observe calls fn whenever one of paths changes while the state is entered.
// Paths beginning with "." are relative to the state's own attributes, other
// paths are resolved against the statechart owner.
func Observe(name string, fn ObserveFunc, paths ...string) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "observe "+name)
		if owner == nil {
			return nil
		}
		if !validName(name) {
			model.fail(fmt.Errorf("%w: invalid observer name %q", ErrInvalidDeclaration, name))
			return nil
		}
		element := &observer{
			element: element{kind: kinds.Observe, qualifiedName: path.Join(owner.QualifiedName(), name)},
			fn:      fn,
			paths:   paths,
		}
		if !declare(model, element) {
			return nil
		}
		owner.observers = append(owner.observers, element.QualifiedName())
		return element
	}
}

// Unknown handles events nothing else on the state handles.
func Unknown(fn HandlerFunc) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "unknown")
		if owner == nil {
			return nil
		}
		element := &handler{
			element: element{kind: kinds.Handler, qualifiedName: path.Join(owner.QualifiedName(), ".unknown")},
			fn:      fn,
		}
		model.namespace[element.QualifiedName()] = element
		owner.unknown = element.QualifiedName()
		return element
	}
}

// Route maps event to transitions written as "source -> target". The first
// pair whose source is entered is taken.
func Route(event string, transitions ...string) RedefinableElement {
	return func(model *Model, stack []embedded.Element) embedded.Element {
		owner := enclosing(model, stack, "route "+event)
		if owner == nil {
			return nil
		}
		var last embedded.Element
		for _, transition := range transitions {
			source, target, ok := strings.Cut(transition, "->")
			source, target = strings.TrimSpace(source), strings.TrimSpace(target)
			if !ok || source == "" || target == "" || strings.Contains(target, "->") {
				model.fail(fmt.Errorf("%w: route %q for %s must be written as \"source -> target\"", ErrInvalidDeclaration, transition, event))
				continue
			}
			element := &route{
				element: element{kind: kinds.Route, qualifiedName: path.Join(owner.QualifiedName(), ".route"+strconv.Itoa(len(owner.transitions)))},
				event:   event,
				source:  source,
				target:  target,
			}
			model.namespace[element.QualifiedName()] = element
			owner.transitions = append(owner.transitions, element.QualifiedName())
			model.Push(func(model *Model, stack []embedded.Element) embedded.Element {
				element.paths.source = resolve(model, owner, source)
				element.paths.target = resolve(model, owner, target)
				return element
			})
			last = element
		}
		return last
	}
}

// resolve finds the qualified name of the unique state whose path ends with
// name, searching from scope outward.
func resolve(model *Model, scope *state, name string) string {
	suffix := "/" + strings.ReplaceAll(strings.Trim(name, "./"), ".", "/")
	for qualifiedName := scope.QualifiedName(); ; qualifiedName = path.Dir(qualifiedName) {
		prefix := strings.TrimSuffix(qualifiedName, "/") + "/"
		match := ""
		for candidate, element := range model.namespace {
			if !kinds.IsKind(element.Kind(), kinds.State, kinds.History) || !strings.HasPrefix(candidate, prefix) || !strings.HasSuffix(candidate, suffix) {
				continue
			}
			if match != "" {
				return ""
			}
			match = candidate
		}
		if match != "" || qualifiedName == "/" {
			return match
		}
	}
}

func kindName(kind uint64) string {
	switch {
	case kinds.IsKind(kind, kinds.History):
		return "history"
	case kinds.IsKind(kind, kinds.State):
		return "state"
	case kinds.IsKind(kind, kinds.Observe):
		return "observer"
	case kinds.IsKind(kind, kinds.Handler):
		return "handler"
	case kinds.IsKind(kind, kinds.Route):
		return "route"
	}
	return "element"
}
