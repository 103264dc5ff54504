// Package definition loads statechart declarations from YAML.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	statechart "github.com/stateforward/go-statechart"
)

// Definition is the root of a YAML statechart document.
type Definition struct {
	// Name identifies the statechart; it becomes the model id.
	Name string `yaml:"name"`

	// Initial names the substate of the root entered by default.
	Initial string `yaml:"initial,omitempty"`

	// Concurrent makes the root states orthogonal regions.
	Concurrent bool `yaml:"concurrent,omitempty"`

	States []State  `yaml:"states,omitempty"`
	Routes []Route  `yaml:"routes,omitempty"`
	On     Handlers `yaml:"on,omitempty"`
}

// State declares a state and its substates.
type State struct {
	Name       string   `yaml:"name"`
	Initial    string   `yaml:"initial,omitempty"`
	Concurrent bool     `yaml:"concurrent,omitempty"`
	History    *History `yaml:"history,omitempty"`
	States     []State  `yaml:"states,omitempty"`
	Routes     []Route  `yaml:"routes,omitempty"`

	// On maps event names to the state entered when the event is handled
	// while this state is current.
	On Handlers `yaml:"on,omitempty"`
}

// History declares the history node of a state.
type History struct {
	Name      string `yaml:"name"`
	Default   string `yaml:"default,omitempty"`
	Recursive bool   `yaml:"recursive,omitempty"`
}

// Route maps an event to "source -> target" transitions.
type Route struct {
	Event       string   `yaml:"event"`
	Transitions []string `yaml:"transitions"`
}

// Handlers maps event names to target states.
type Handlers map[string]string

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a definition, rejecting unknown fields.
func Parse(data []byte) (*Definition, error) {
	var definition Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&definition); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := definition.validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return &definition, nil
}

func (definition *Definition) validate() error {
	if definition.Name == "" {
		return errors.New("name is required")
	}
	var errs []error
	for _, route := range definition.Routes {
		errs = append(errs, route.validate("/"))
	}
	for _, state := range definition.States {
		errs = append(errs, state.validate("/"))
	}
	return errors.Join(errs...)
}

func (state *State) validate(owner string) error {
	if state.Name == "" {
		return fmt.Errorf("state in %s: name is required", owner)
	}
	qualifiedName := strings.TrimSuffix(owner, "/") + "/" + state.Name
	var errs []error
	if state.History != nil && state.History.Name == "" {
		errs = append(errs, fmt.Errorf("history of %s: name is required", qualifiedName))
	}
	for _, route := range state.Routes {
		errs = append(errs, route.validate(qualifiedName))
	}
	for _, substate := range state.States {
		errs = append(errs, substate.validate(qualifiedName))
	}
	return errors.Join(errs...)
}

func (route *Route) validate(owner string) error {
	if route.Event == "" {
		return fmt.Errorf("route in %s: event is required", owner)
	}
	if len(route.Transitions) == 0 {
		return fmt.Errorf("route %s in %s: transitions list is required and must be non-empty", route.Event, owner)
	}
	return nil
}

// Model declares the statechart described by definition. Declaration errors
// recorded by the model are returned joined.
func (definition *Definition) Model() (*statechart.Model, error) {
	partials := []statechart.RedefinableElement{}
	if definition.Concurrent {
		partials = append(partials, statechart.Concurrent())
	}
	for i := range definition.States {
		partials = append(partials, definition.States[i].partial())
	}
	if definition.Initial != "" {
		partials = append(partials, statechart.Initial(definition.Initial))
	}
	partials = append(partials, routes(definition.Routes)...)
	partials = append(partials, definition.On.partials()...)
	model := statechart.Define(definition.Name, partials...)
	if err := errors.Join(model.Errors()...); err != nil {
		return model, fmt.Errorf("failed to declare %s: %w", definition.Name, err)
	}
	return model, nil
}

func (state *State) partial() statechart.RedefinableElement {
	partials := []statechart.RedefinableElement{}
	if state.Concurrent {
		partials = append(partials, statechart.Concurrent())
	}
	for i := range state.States {
		partials = append(partials, state.States[i].partial())
	}
	if state.History != nil {
		partials = append(partials, statechart.History(state.History.Name, state.History.Default, state.History.Recursive))
	}
	if state.Initial != "" {
		partials = append(partials, statechart.Initial(state.Initial))
	}
	partials = append(partials, routes(state.Routes)...)
	partials = append(partials, state.On.partials()...)
	return statechart.State(state.Name, partials...)
}

func routes(routes []Route) []statechart.RedefinableElement {
	partials := make([]statechart.RedefinableElement, 0, len(routes))
	for _, route := range routes {
		partials = append(partials, statechart.Route(route.Event, route.Transitions...))
	}
	return partials
}

// partials declares one handler per event, in event name order.
func (handlers Handlers) partials() []statechart.RedefinableElement {
	events := make([]string, 0, len(handlers))
	for event := range handlers {
		events = append(events, event)
	}
	slices.Sort(events)
	partials := make([]statechart.RedefinableElement, 0, len(events))
	for _, event := range events {
		target := handlers[event]
		partials = append(partials, statechart.On(event, func(ctx *statechart.Context) bool {
			return ctx.GotoState(target, ctx.Event().Data())
		}))
	}
	return partials
}
