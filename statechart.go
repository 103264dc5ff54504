package statechart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-statechart/embedded"
	"github.com/stateforward/go-statechart/kinds"
	"github.com/stateforward/go-statechart/observable"
	"github.com/stateforward/go-statechart/pkg/set"
	"github.com/stateforward/go-statechart/pkg/telemetry"
	"github.com/stateforward/go-statechart/queue"
)

const instrumentation = "github.com/stateforward/go-statechart"

type subcontext = context.Context

// Trace is called before each step with the elements involved; the returned
// function is called once the step is done.
type Trace func(ctx context.Context, step string, elements ...embedded.Element) func(...any)

type Statechart struct {
	subcontext
	element
	model          *Model
	local          *Model
	nodes          []*Node
	logger         *slog.Logger
	trace          Trace
	tracer         oteltrace.Tracer
	global         bool
	traceLogging   bool
	matcher        Matcher
	owner          *observable.Object
	observation    *observable.Context
	autoInitialize bool
	initialized    bool
	transition     *transition
	requests       *queue.Queue[*request]
	events         *queue.Queue[Event]
	dispatching    bool
	event          Event
}

type Option func(*Statechart)

func WithLogger(logger *slog.Logger) Option {
	return func(sc *Statechart) {
		sc.logger = logger
	}
}

func WithTrace(trace Trace) Option {
	return func(sc *Statechart) {
		sc.trace = trace
	}
}

func WithTracer(tracer oteltrace.Tracer) Option {
	return func(sc *Statechart) {
		sc.tracer = tracer
	}
}

// WithGlobalTracer takes spans from the globally registered tracer provider.
func WithGlobalTracer() Option {
	return func(sc *Statechart) {
		sc.global = true
	}
}

// WithTraceLogging logs every routing and transition step at debug level.
func WithTraceLogging(enabled bool) Option {
	return func(sc *Statechart) {
		sc.traceLogging = enabled
	}
}

// WithOwner sets the object observe handlers resolve non-relative paths on.
func WithOwner(owner *observable.Object) Option {
	return func(sc *Statechart) {
		sc.owner = owner
	}
}

func WithMatcher(matcher Matcher) Option {
	return func(sc *Statechart) {
		sc.matcher = matcher
	}
}

// WithObservationContext sets the context the node attributes batch through.
func WithObservationContext(ctx *observable.Context) Option {
	return func(sc *Statechart) {
		sc.observation = ctx
	}
}

// WithAutoInitialize controls whether New enters the initial states.
func WithAutoInitialize(enabled bool) Option {
	return func(sc *Statechart) {
		sc.autoInitialize = enabled
	}
}

// New builds a statechart from model and, unless disabled, enters its
// initial configuration.
func New(ctx context.Context, model *Model, opts ...Option) (*Statechart, error) {
	sc := &Statechart{
		subcontext:     ctx,
		element:        element{kind: kinds.Statechart, qualifiedName: model.Id(), id: uuid.NewString()},
		model:          model,
		logger:         slog.Default(),
		matcher:        PathMatcher{},
		autoInitialize: true,
		requests:       queue.New[*request](),
		events:         queue.New[Event](),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.tracer == nil {
		sc.tracer = telemetry.Tracer(instrumentation, sc.global)
	}
	if sc.observation == nil {
		sc.observation = observable.DefaultContext()
	}
	if sc.owner == nil {
		sc.owner = observable.New(
			observable.WithReceiver(sc),
			observable.WithContext(sc.observation),
			observable.WithLogger(sc.logger),
		)
	}
	for _, err := range model.errors {
		sc.logError("invalid statechart declaration", err)
	}
	root := sc.build(&model.state, nil)
	if len(root.substates) > 0 && !root.concurrent && root.initial == noNode {
		err := fmt.Errorf("%w: root state of %s", ErrMissingInitialState, sc.Name())
		sc.logError("can not initialize statechart", err)
		return nil, err
	}
	if sc.autoInitialize {
		sc.InitStatechart()
	}
	return sc, nil
}

// InitStatechart enters the root state and its default substates.
func (sc *Statechart) InitStatechart() {
	if sc == nil {
		return
	}
	if sc.initialized {
		sc.logWarning("statechart is already initialized")
		return
	}
	sc.initialized = true
	sc.gotoState(sc, sc.Root(), nil, false, nil)
}

func (sc *Statechart) Root() *Node {
	if sc == nil || len(sc.nodes) == 0 {
		return nil
	}
	return sc.nodes[0]
}

// declarations is the model nodes are built from: the shared model, or the
// instance's fork once substates were added at runtime.
func (sc *Statechart) declarations() *Model {
	if sc.local != nil {
		return sc.local
	}
	return sc.model
}

func (sc *Statechart) Model() *Model {
	if sc == nil {
		return nil
	}
	return sc.model
}

// Owner is the object observe handlers resolve non-relative paths on.
func (sc *Statechart) Owner() *observable.Object {
	if sc == nil {
		return nil
	}
	return sc.owner
}

func (sc *Statechart) Initialized() bool {
	return sc != nil && sc.initialized
}

// Suspended reports whether a transition is waiting on ResumeGotoState.
func (sc *Statechart) Suspended() bool {
	return sc != nil && sc.transition != nil && sc.transition.awaiting != nil
}

// GetState resolves value from the root.
func (sc *Statechart) GetState(value any, resolve ...ResolveFunc) *Node {
	return sc.Root().GetState(value, resolve...)
}

// CurrentStates returns the current leaf states.
func (sc *Statechart) CurrentStates() []*Node {
	return sc.Root().CurrentSubstates()
}

// States returns the qualified names of the current leaf states.
func (sc *Statechart) States() []string {
	var names []string
	for _, node := range sc.CurrentStates() {
		names = append(names, node.QualifiedName())
	}
	return names
}

func (sc *Statechart) IsCurrentState(value any) bool {
	return sc.GetState(value).IsCurrentState()
}

// SendEvent dispatches a new event named name.
func (sc *Statechart) SendEvent(name string, maybeData ...any) bool {
	return sc.Dispatch(NewEvent(name, maybeData...))
}

// Dispatch offers event to every current state and its ancestors, stopping
// each walk at the first state that handles it. Events raised while another
// event or a transition is in progress are queued and report false.
func (sc *Statechart) Dispatch(event Event) bool {
	if sc == nil || event == nil {
		return false
	}
	ctx, span := telemetry.Start(sc, sc.tracer, "statechart.Dispatch",
		attribute.String("statechart.event", event.Name()),
		attribute.String("statechart.event.id", event.Id()),
	)
	defer span.End()
	if !sc.initialized {
		sc.logError("can not dispatch event", ErrNotInitialized, "event", event.Name())
		return false
	}
	if sc.dispatching || sc.transition != nil {
		sc.events.Push(event)
		sc.logTrace("event queued", "queue", "event", event.Name())
		return false
	}
	handled := sc.process(ctx, event)
	span.SetAttributes(attribute.Bool("statechart.handled", handled))
	sc.drain(ctx)
	return handled
}

func (sc *Statechart) process(ctx context.Context, event Event) bool {
	if sc.trace != nil {
		defer sc.trace(ctx, "Dispatch", event)()
	}
	previous := sc.event
	sc.dispatching, sc.event = true, event
	defer func() {
		sc.dispatching, sc.event = false, previous
	}()
	handled := false
	checked := set.New[nodeID]()
	for _, leaf := range sc.CurrentStates() {
		if !leaf.current.Contains(leaf.handle) {
			continue
		}
		for node := leaf; node != nil; node = node.Parent() {
			if checked.Contains(node.handle) {
				continue
			}
			checked.Add(node.handle)
			if node.tryToHandleEvent(ctx, event) {
				handled = true
				break
			}
		}
	}
	if !handled {
		sc.logTrace("event not handled", "event", "event", event.Name())
	}
	return handled
}

// drain dispatches queued events once nothing else is in progress.
func (sc *Statechart) drain(ctx context.Context) {
	for !sc.dispatching && sc.transition == nil {
		event, ok := sc.events.Pop()
		if !ok {
			return
		}
		sc.process(ctx, event)
	}
}

// Terminate exits every entered state. Queued events are dropped.
func (sc *Statechart) Terminate() {
	if sc == nil {
		return
	}
	if sc.trace != nil {
		defer sc.trace(sc, "Terminate", sc)()
	}
	if sc.Suspended() {
		sc.logError("can not terminate statechart", ErrTransitionSuspended)
		return
	}
	request := &request{ctx: sc, terminate: true}
	if sc.transition != nil {
		sc.requests.Push(request)
		return
	}
	sc.begin(request)
}
