// Package plantuml renders a declared statechart as a PlantUML state diagram.
package plantuml

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/stateforward/go-statechart/embedded"
	"github.com/stateforward/go-statechart/kinds"
)

func idFromQualifiedName(qualifiedName string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.TrimPrefix(qualifiedName, "/"), "-", "_"), "/", ".")
}

type generator struct {
	builder strings.Builder
	model   embedded.Model
	routes  []embedded.Transition
}

func (g *generator) line(depth int, format string, args ...any) {
	g.builder.WriteString(strings.Repeat(" ", depth*2))
	fmt.Fprintf(&g.builder, format, args...)
	g.builder.WriteByte('\n')
}

func (g *generator) lookup(qualifiedName string) embedded.NamedElement {
	if qualifiedName == "" {
		return nil
	}
	return g.model.Namespace()[qualifiedName]
}

// collect gathers the routes declared on state in declaration order.
func (g *generator) collect(state embedded.State) {
	for _, qualifiedName := range state.Transitions() {
		if transition, ok := g.lookup(qualifiedName).(embedded.Transition); ok {
			g.routes = append(g.routes, transition)
		}
	}
}

// body writes the substates, initial arrow and history of state.
func (g *generator) body(depth int, state embedded.State) {
	if initial := g.lookup(state.Initial()); initial != nil {
		target := initial.QualifiedName()
		if kinds.IsKind(initial.Kind(), kinds.History) {
			g.line(depth, "[*] --> %s", g.historyMarker(initial))
		} else {
			g.line(depth, "[*] --> %s", idFromQualifiedName(target))
		}
	}
	for i, qualifiedName := range state.Substates() {
		substate, ok := g.lookup(qualifiedName).(embedded.State)
		if !ok {
			continue
		}
		if i > 0 && state.Concurrent() {
			g.line(depth, "--")
		}
		g.state(depth, substate)
	}
	if history, ok := g.lookup(state.History()).(embedded.History); ok && history.Default() != "" {
		g.line(depth, "%s --> %s", g.historyMarker(history), idFromQualifiedName(history.Default()))
	}
}

func (g *generator) historyMarker(element embedded.NamedElement) string {
	if history, ok := element.(embedded.History); ok && history.Recursive() {
		return "[H*]"
	}
	return "[H]"
}

func (g *generator) state(depth int, state embedded.State) {
	id := idFromQualifiedName(state.QualifiedName())
	g.collect(state)
	if len(state.Substates()) > 0 {
		g.line(depth, "state %s {", id)
		g.body(depth+1, state)
		g.line(depth, "}")
	} else {
		g.line(depth, "state %s", id)
	}
	if state.Entry() != "" {
		g.line(depth, "state %s: entry", id)
	}
	for _, qualifiedName := range state.Handlers() {
		element := g.lookup(qualifiedName)
		if element == nil {
			continue
		}
		label := element.Name()
		if handler, ok := element.(interface{ Events() []string }); ok && !slices.Equal(handler.Events(), []string{label}) && len(handler.Events()) > 0 {
			label = fmt.Sprintf("%s / %s", strings.Join(handler.Events(), "|"), label)
		}
		g.line(depth, "state %s: %s", id, label)
	}
	if state.Exit() != "" {
		g.line(depth, "state %s: exit", id)
	}
}

func (g *generator) route(depth int, transition embedded.Transition) {
	source, target := transition.Source(), transition.Target()
	if !strings.HasPrefix(source, "/") || !strings.HasPrefix(target, "/") {
		return
	}
	targetId := idFromQualifiedName(target)
	if element := g.lookup(target); element != nil && kinds.IsKind(element.Kind(), kinds.History) {
		targetId = idFromQualifiedName(path.Dir(target)) + g.historyMarker(element)
	}
	g.line(depth, "%s --> %s : %s", idFromQualifiedName(source), targetId, strings.Join(transition.Events(), "|"))
}

// Generate writes the PlantUML diagram of model to writer. States are
// rendered in declaration order, concurrent regions are separated by "--"
// and routes are drawn as labelled arrows after the states.
func Generate(writer io.Writer, model embedded.Model) error {
	g := &generator{model: model}
	g.line(0, "@startuml %s", strings.TrimPrefix(model.Id(), "/"))
	if root, ok := model.(embedded.State); ok {
		g.collect(root)
		g.body(1, root)
	}
	for _, transition := range g.routes {
		g.route(1, transition)
	}
	g.line(0, "@enduml")
	_, err := io.WriteString(writer, g.builder.String())
	return err
}
