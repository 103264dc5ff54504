package statechart

import (
	"context"
	"fmt"
	"strings"

	"github.com/stateforward/go-statechart/observable"
)

// TryToHandleEvent offers event to node alone and reports whether it was
// handled.
func (node *Node) TryToHandleEvent(event Event) bool {
	if node == nil || event == nil {
		return false
	}
	return node.tryToHandleEvent(node.chart, event)
}

func (node *Node) tryToHandleEvent(ctx context.Context, event Event) bool {
	name := event.Name()
	if node.internal.Contains(name) {
		node.chart.logWarning("state can not handle event, the name belongs to a handler", "state", node.QualifiedName(), "event", name, "error", ErrReservedEvent)
		return false
	}
	if fn, ok := node.methods[name]; ok {
		return node.invoke(ctx, fn, event)
	}
	if fn, ok := node.strings[name]; ok {
		return node.invoke(ctx, fn, event)
	}
	for _, pattern := range node.patterns {
		if pattern.expression.MatchString(name) {
			return node.invoke(ctx, pattern.fn, event)
		}
	}
	if node.unknown != nil {
		return node.invoke(ctx, node.unknown, event)
	}
	return false
}

func (node *Node) invoke(ctx context.Context, fn HandlerFunc, event Event) bool {
	sc := node.chart
	var end func(...any)
	if sc.trace != nil {
		end = sc.trace(ctx, "tryToHandleEvent", node, event)
	}
	handled := fn(sc.newContext(ctx, node, event, event.Data()))
	if end != nil {
		end(handled)
	}
	sc.logTrace("state tried to handle event", "event", "state", node.QualifiedName(), "event", event.Name(), "handled", handled)
	return handled
}

// compile turns the node's routes into literal event handlers.
func (sc *Statechart) compile(node *Node, decl *state) {
	routes := map[string][]*route{}
	var events []string
	for _, qualifiedName := range decl.transitions {
		route := get[*route](sc.declarations(), qualifiedName)
		if route == nil {
			continue
		}
		if _, ok := routes[route.event]; !ok {
			events = append(events, route.event)
		}
		routes[route.event] = append(routes[route.event], route)
	}
	for _, event := range events {
		if _, ok := node.strings[event]; ok {
			sc.logWarning("route ignored, event already has a handler", "state", node.QualifiedName(), "event", event)
			continue
		}
		node.strings[event] = node.route(routes[event])
	}
}

func (node *Node) route(routes []*route) HandlerFunc {
	return func(ctx *Context) bool {
		for _, route := range routes {
			source := node.GetState(route.Source())
			if source == nil {
				node.chart.logError("invalid route source", fmt.Errorf("%w: %s", ErrStateNotFound, route.Source()), "state", node.QualifiedName(), "event", route.event)
				continue
			}
			if !source.isEntered() {
				continue
			}
			target := node.GetState(route.Target())
			if target == nil {
				node.chart.logError("invalid route target", fmt.Errorf("%w: %s", ErrStateNotFound, route.Target()), "state", node.QualifiedName(), "event", route.event)
				return false
			}
			return node.chart.gotoState(ctx, target, source, false, ctx.Data())
		}
		return false
	}
}

// binding attaches an observe handler to its paths while the node is
// entered.
type binding struct {
	node     *Node
	observer *observer
}

func (binding *binding) resolve(path string) (*observable.Object, string) {
	if strings.HasPrefix(path, ".") {
		return binding.node.object, path[1:]
	}
	return binding.node.chart.owner, path
}

func (binding *binding) attach() {
	for _, path := range binding.observer.paths {
		object, key := binding.resolve(path)
		object.AddObserver(key, binding, binding.changed)
	}
}

func (binding *binding) detach() {
	for _, path := range binding.observer.paths {
		object, key := binding.resolve(path)
		object.RemoveObserver(key, binding, binding.changed)
	}
}

func (binding *binding) changed(sender *observable.Object, key string, revision uint64) {
	sc := binding.node.chart
	binding.observer.fn(sc.newContext(sc, binding.node, sc.event, nil), sender, key)
}
