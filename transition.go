package statechart

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-statechart/pkg/set"
	"github.com/stateforward/go-statechart/pkg/telemetry"
)

type request struct {
	ctx        context.Context
	target     *Node
	from       *Node
	useHistory bool
	data       any
	event      Event
	terminate  bool
}

type stepKind int

const (
	exitStep stepKind = iota
	enterStep
)

type step struct {
	kind stepKind
	node *Node
	leaf bool
}

// transition is a planned list of exit and enter steps. cursor is the step
// being run; awaiting is set while that step waits on ResumeGotoState.
type transition struct {
	*request
	ctx      context.Context
	span     oteltrace.Span
	end      func(...any)
	done     func(...any)
	steps    []step
	cursor   int
	awaiting *Async
	exited   []*Node
	entered  []*Node
}

// GotoState exits the states between the current state relative to from and
// the common ancestor with target, then enters down to target. With
// useHistory, default entries below target follow recorded history.
func (sc *Statechart) GotoState(target any, from any, useHistory bool, data any) bool {
	if sc == nil {
		return false
	}
	ctx, span := telemetry.Start(sc, sc.tracer, "statechart.GotoState", attribute.String("statechart.target", fmt.Sprint(target)))
	defer span.End()
	return sc.gotoState(ctx, target, from, useHistory, data)
}

// GotoHistoryState goes to the substate target exited last, or to target
// itself when it has no history yet.
func (sc *Statechart) GotoHistoryState(target any, from any, recursive bool, data any) bool {
	if sc == nil {
		return false
	}
	ctx, span := telemetry.Start(sc, sc.tracer, "statechart.GotoHistoryState", attribute.String("statechart.target", fmt.Sprint(target)))
	defer span.End()
	return sc.gotoHistoryState(ctx, target, from, recursive, data)
}

// ResumeGotoState continues the suspended transition.
func (sc *Statechart) ResumeGotoState() bool {
	if sc == nil {
		return false
	}
	t := sc.transition
	if t == nil || t.awaiting == nil {
		sc.logError("can not resume transition", ErrNotSuspended)
		return false
	}
	_, span := telemetry.Start(t.ctx, sc.tracer, "statechart.ResumeGotoState", attribute.String("statechart.async", t.awaiting.Id()))
	defer span.End()
	if sc.trace != nil {
		defer sc.trace(t.ctx, "resumeGotoState", t.awaiting)()
	}
	sc.logTrace("transition resumed", "resume", "state", t.steps[t.cursor].node.QualifiedName())
	t.awaiting = nil
	sc.commit(t, t.steps[t.cursor])
	sc.run(t)
	return true
}

func (sc *Statechart) gotoState(ctx context.Context, target any, from any, useHistory bool, data any) bool {
	if sc.Suspended() {
		sc.logError("can not go to state", ErrTransitionSuspended, "target", fmt.Sprint(target))
		return false
	}
	fromNode, ok := sc.from(from)
	if !ok {
		sc.logError("can not go to state", fmt.Errorf("%w: %v", ErrStateNotFound, from), "target", fmt.Sprint(target))
		return false
	}
	targetNode := fromNode.GetState(target)
	if targetNode == nil {
		sc.logError("can not go to state", fmt.Errorf("%w: %v", ErrStateNotFound, target), "from", fromNode.QualifiedName())
		return false
	}
	if targetNode.isHistory() {
		resolved, recursive := targetNode.resolveHistory()
		if resolved == nil {
			resolved = targetNode.Parent()
		}
		targetNode, useHistory = resolved, useHistory || recursive
	}
	request := &request{ctx: ctx, target: targetNode, from: fromNode, useHistory: useHistory, data: data, event: sc.event}
	if sc.transition != nil {
		sc.logTrace("transition queued", "queue", "target", targetNode.QualifiedName())
		sc.requests.Push(request)
		return true
	}
	return sc.begin(request)
}

// begin plans request and starts it. A request that can not be planned is
// logged and nothing is exited.
func (sc *Statechart) begin(request *request) bool {
	steps, err := sc.plan(request)
	if err != nil {
		sc.logError("can not go to state", err)
		return false
	}
	sc.start(request, steps)
	return true
}

func (sc *Statechart) gotoHistoryState(ctx context.Context, target any, from any, recursive bool, data any) bool {
	fromNode, ok := sc.from(from)
	if !ok {
		sc.logError("can not go to history state", fmt.Errorf("%w: %v", ErrStateNotFound, from), "target", fmt.Sprint(target))
		return false
	}
	targetNode := fromNode.GetState(target)
	if targetNode == nil {
		sc.logError("can not go to history state", fmt.Errorf("%w: %v", ErrStateNotFound, target), "from", fromNode.QualifiedName())
		return false
	}
	if sc.trace != nil {
		defer sc.trace(ctx, "gotoHistoryState", targetNode)()
	}
	if recorded := targetNode.HistoryState(); recorded != nil && !targetNode.isHistory() {
		targetNode = recorded
	}
	return sc.gotoState(ctx, targetNode, fromNode, recursive, data)
}

func (sc *Statechart) from(from any) (*Node, bool) {
	switch from := from.(type) {
	case nil:
		return sc.Root(), true
	case *Node:
		if from == nil {
			return sc.Root(), true
		}
		return from, from.chart == sc
	}
	node := sc.GetState(from)
	return node, node != nil
}

func (sc *Statechart) start(request *request, steps []step) {
	t := &transition{request: request}
	fields := []attribute.KeyValue{attribute.Bool("statechart.terminate", request.terminate)}
	if request.target != nil {
		fields = append(fields, attribute.String("statechart.target", request.target.QualifiedName()))
	}
	t.ctx, t.span = telemetry.Start(request.ctx, sc.tracer, "statechart.transition", fields...)
	if sc.trace != nil {
		if request.terminate {
			t.end = sc.trace(t.ctx, "terminate", sc)
		} else {
			t.end = sc.trace(t.ctx, "gotoState", request.target)
		}
	}
	t.steps = steps
	sc.transition = t
	sc.run(t)
}

// plan lists the steps of request: exits deepest first, then entries
// outermost first.
func (sc *Statechart) plan(request *request) ([]step, error) {
	var steps []step
	root := sc.Root()
	if request.terminate {
		if root.isEntered() {
			steps = sc.planExit(steps, root)
		}
		return steps, nil
	}
	target := request.target
	var pivot *Node
	if from := request.from.FindFirstRelativeCurrentState(target); from != nil {
		pivot = from.lca(target)
		if pivot == target {
			pivot = target.Parent()
		}
		if pivot != nil && pivot.concurrent && pivot.toward(from) != pivot.toward(target) {
			return nil, fmt.Errorf("%w: %s and %s are regions of %s", ErrOrthogonalTransition, from.QualifiedName(), target.QualifiedName(), pivot.QualifiedName())
		}
		top := root
		if pivot != nil {
			top = pivot.toward(from)
		}
		if top.isEntered() {
			steps = sc.planExit(steps, top)
		}
	}
	lineage := target.lineage(pivot)
	return sc.planEnter(steps, lineage[0], lineage[1:], request.useHistory), nil
}

// planExit exits the entered substates of node, last region first, then
// node.
func (sc *Statechart) planExit(steps []step, node *Node) []step {
	substates := node.Substates()
	for i := len(substates) - 1; i >= 0; i-- {
		if substates[i].isEntered() {
			steps = sc.planExit(steps, substates[i])
		}
	}
	return append(steps, step{kind: exitStep, node: node, leaf: node.current.Contains(node.handle)})
}

// planEnter enters node, then the rest of lineage below it. Once lineage is
// exhausted, default entry applies: every region of a concurrent state, the
// recorded history with useHistory, else the initial substate.
func (sc *Statechart) planEnter(steps []step, node *Node, lineage []*Node, useHistory bool) []step {
	steps = append(steps, step{kind: enterStep, node: node})
	if len(lineage) > 0 {
		next := lineage[0]
		if !node.concurrent {
			return sc.planEnter(steps, next, lineage[1:], useHistory)
		}
		for _, region := range node.Substates() {
			if region == next {
				steps = sc.planEnter(steps, region, lineage[1:], useHistory)
			} else {
				steps = sc.planEnter(steps, region, nil, false)
			}
		}
		return steps
	}
	if node.concurrent && len(node.substates) > 0 {
		for _, region := range node.Substates() {
			steps = sc.planEnter(steps, region, nil, useHistory)
		}
		return steps
	}
	substate := node.InitialSubstate()
	if recorded := node.HistoryState(); useHistory && recorded != nil {
		substate = recorded
	}
	if substate != nil && substate.isHistory() {
		resolved, recursive := substate.resolveHistory()
		substate, useHistory = resolved, useHistory || recursive
	}
	if substate == nil {
		steps[len(steps)-1].leaf = true
		return steps
	}
	return sc.planEnter(steps, substate, nil, useHistory)
}

// run executes steps from the cursor until the plan completes or a step
// suspends.
func (sc *Statechart) run(t *transition) {
	for sc.transition == t && t.cursor < len(t.steps) {
		step := t.steps[t.cursor]
		ctx := sc.newContext(t.ctx, step.node, t.event, t.data)
		var async *Async
		switch step.kind {
		case exitStep:
			async = sc.exitState(t, ctx, step.node)
		case enterStep:
			async = sc.enterState(t, ctx, step.node)
		}
		if async != nil {
			t.awaiting = async
			sc.logTrace("transition suspended", "suspend", "state", step.node.QualifiedName(), "async", async.Id())
			async.perform(ctx)
			return
		}
		sc.commit(t, step)
	}
	if sc.transition == t {
		sc.complete(t)
	}
}

func (sc *Statechart) exitState(t *transition, ctx *Context, node *Node) *Async {
	if sc.trace != nil {
		t.done = sc.trace(ctx, "exit", node)
	}
	sc.logTrace("exiting state", "exit", "state", node.QualifiedName())
	if node.exit == nil {
		return nil
	}
	return node.exit(ctx)
}

func (sc *Statechart) enterState(t *transition, ctx *Context, node *Node) *Async {
	if sc.trace != nil {
		t.done = sc.trace(ctx, "enter", node)
	}
	sc.logTrace("entering state", "enter", "state", node.QualifiedName())
	for _, binding := range node.observers {
		binding.attach()
	}
	if node.entry == nil {
		return nil
	}
	return node.entry(ctx)
}

// commit records a finished step. Leaves change their current status only
// when the whole transition completes.
func (sc *Statechart) commit(t *transition, step step) {
	node := step.node
	switch step.kind {
	case exitStep:
		for _, binding := range node.observers {
			binding.detach()
		}
		for ancestor := node; ancestor != nil; ancestor = ancestor.Parent() {
			ancestor.entered.Remove(node.handle)
			ancestor.object.NotifyPropertyChange("enteredSubstates")
		}
		if parent := node.Parent(); parent != nil {
			parent.history = node.handle
		}
		if step.leaf {
			t.exited = append(t.exited, node)
		}
	case enterStep:
		for ancestor := node; ancestor != nil; ancestor = ancestor.Parent() {
			ancestor.entered.Add(node.handle)
			ancestor.object.NotifyPropertyChange("enteredSubstates")
		}
		if step.leaf || len(node.substates) == 0 {
			t.entered = append(t.entered, node)
		}
	}
	if t.done != nil {
		t.done()
		t.done = nil
	}
	t.cursor++
}

func (sc *Statechart) complete(t *transition) {
	touched := set.New[*Node]()
	for _, leaf := range t.exited {
		for ancestor := leaf; ancestor != nil; ancestor = ancestor.Parent() {
			ancestor.current.Remove(leaf.handle)
			touched.Add(ancestor)
		}
	}
	for _, leaf := range t.entered {
		for ancestor := leaf; ancestor != nil; ancestor = ancestor.Parent() {
			ancestor.current.Add(leaf.handle)
			touched.Add(ancestor)
		}
	}
	sc.observation.Run(func() {
		for node := range touched.Items() {
			node.object.NotifyPropertyChange("currentSubstates")
		}
	})
	if t.terminate {
		sc.initialized = false
		sc.events.Drain()
		sc.requests.Drain()
	}
	sc.transition = nil
	if t.end != nil {
		t.end()
	}
	telemetry.End(t.span, nil)
	sc.logTrace("transition complete", "complete", "states", sc.States())
	for next, ok := sc.requests.Pop(); ok; next, ok = sc.requests.Pop() {
		if sc.begin(next) {
			return
		}
	}
	sc.drain(t.ctx)
}
