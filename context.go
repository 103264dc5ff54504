package statechart

import "context"

// Context is passed to actions, handlers and observe handlers.
type Context struct {
	subcontext
	statechart *Statechart
	node       *Node
	event      Event
	data       any
}

func (sc *Statechart) newContext(ctx context.Context, node *Node, event Event, data any) *Context {
	return &Context{subcontext: ctx, statechart: sc, node: node, event: event, data: data}
}

func (ctx *Context) Statechart() *Statechart {
	return ctx.statechart
}

// State is the state the action or handler belongs to.
func (ctx *Context) State() *Node {
	return ctx.node
}

// Event is the event being dispatched, if any.
func (ctx *Context) Event() Event {
	return ctx.event
}

func (ctx *Context) Data() any {
	return ctx.data
}

// GotoState transitions from the context's state to target.
func (ctx *Context) GotoState(target any, maybeData ...any) bool {
	return ctx.statechart.gotoState(ctx, target, ctx.node, false, first(maybeData))
}

func (ctx *Context) GotoHistoryState(target any, recursive bool, maybeData ...any) bool {
	return ctx.statechart.gotoHistoryState(ctx, target, ctx.node, recursive, first(maybeData))
}

func (ctx *Context) SendEvent(name string, maybeData ...any) bool {
	return ctx.statechart.SendEvent(name, maybeData...)
}

func (ctx *Context) PerformAsync(action AsyncFunc, args ...any) *Async {
	return PerformAsync(action, args...)
}

func (ctx *Context) ResumeGotoState() bool {
	return ctx.statechart.ResumeGotoState()
}
