package statechart

import (
	"fmt"
	"path"
	"regexp"
	"slices"

	"github.com/stateforward/go-statechart/embedded"
	"github.com/stateforward/go-statechart/kinds"
	"github.com/stateforward/go-statechart/observable"
	"github.com/stateforward/go-statechart/pkg/set"
)

type nodeID int

const noNode nodeID = -1

const placeholderName = ".placeholder"

// attributes are the observable properties every node exposes.
var attributes = observable.NewTemplate().
	Define("currentSubstates", observable.Getter(func(o *observable.Object) any {
		return o.Receiver().(*Node).CurrentSubstates()
	})).
	Define("enteredSubstates", observable.Getter(func(o *observable.Object) any {
		return o.Receiver().(*Node).EnteredSubstates()
	})).
	Define("isCurrentState", observable.Getter(func(o *observable.Object) any {
		node := o.Receiver().(*Node)
		return node.current.Contains(node.handle)
	}, "currentSubstates").Cacheable()).
	Define("isEnteredState", observable.Getter(func(o *observable.Object) any {
		node := o.Receiver().(*Node)
		return node.entered.Contains(node.handle)
	}, "enteredSubstates").Cacheable()).
	Define("isRootState", observable.Getter(func(o *observable.Object) any {
		return o.Receiver().(*Node).parent == noNode
	}).Cacheable()).
	Define("isConcurrentState", observable.Getter(func(o *observable.Object) any {
		return o.Receiver().(*Node).concurrent
	}).Cacheable()).
	Define("hasSubstates", observable.Getter(func(o *observable.Object) any {
		return len(o.Receiver().(*Node).substates) > 0
	}).Cacheable()).
	Define("fullPath", observable.Getter(func(o *observable.Object) any {
		return o.Receiver().(*Node).QualifiedName()
	}).Cacheable())

type pattern struct {
	expression *regexp.Regexp
	fn         HandlerFunc
}

// entry is a descendant registered in an ancestor's lookup index.
type entry struct {
	path string
	node nodeID
}

// Node is a state of a running statechart. Nodes live in the statechart's
// arena and refer to each other by handle.
type Node struct {
	element
	chart        *Statechart
	handle       nodeID
	parent       nodeID
	substates    []nodeID
	initial      nodeID
	historyNode  nodeID
	history      nodeID
	defaultState nodeID
	recursive    bool
	concurrent   bool
	entry        Action
	exit         Action
	methods      map[string]HandlerFunc
	strings      map[string]HandlerFunc
	patterns     []pattern
	unknown      HandlerFunc
	internal     *set.Set[string]
	observers    []*binding
	index        map[string][]entry
	current      *set.Set[nodeID]
	entered      *set.Set[nodeID]
	object       *observable.Object
	initialized  bool
}

func (sc *Statechart) newNode(kind uint64, qualifiedName string, parent *Node) *Node {
	node := &Node{
		element:      element{kind: kind, qualifiedName: qualifiedName, id: qualifiedName},
		chart:        sc,
		handle:       nodeID(len(sc.nodes)),
		parent:       noNode,
		initial:      noNode,
		historyNode:  noNode,
		history:      noNode,
		defaultState: noNode,
		methods:      map[string]HandlerFunc{},
		strings:      map[string]HandlerFunc{},
		internal:     set.New[string](),
		index:        map[string][]entry{},
		current:      set.New[nodeID](),
		entered:      set.New[nodeID](),
	}
	if parent != nil {
		node.parent = parent.handle
	}
	node.object = attributes.New(
		observable.WithReceiver(node),
		observable.WithContext(sc.observation),
		observable.WithLogger(sc.logger),
	)
	sc.nodes = append(sc.nodes, node)
	// every ancestor indexes the node by name for path lookups
	for ancestor := parent; ancestor != nil; ancestor = ancestor.Parent() {
		relative := qualifiedName[len(ancestor.QualifiedName()):]
		if relative[0] == '/' {
			relative = relative[1:]
		}
		ancestor.index[node.Name()] = append(ancestor.index[node.Name()], entry{path: relative, node: node.handle})
	}
	return node
}

func (sc *Statechart) node(id nodeID) *Node {
	if sc == nil || id < 0 || int(id) >= len(sc.nodes) {
		return nil
	}
	return sc.nodes[id]
}

// build instantiates decl and its descendants depth first.
func (sc *Statechart) build(decl *state, parent *Node) *Node {
	node := sc.newNode(kinds.State, decl.QualifiedName(), parent)
	node.concurrent = decl.concurrent
	if entry := get[*behavior](sc.declarations(), decl.entry); entry != nil {
		node.entry = entry.action
	}
	if exit := get[*behavior](sc.declarations(), decl.exit); exit != nil {
		node.exit = exit.action
	}
	for _, qualifiedName := range decl.handlers {
		if handler := get[*handler](sc.declarations(), qualifiedName); handler != nil {
			node.register(handler)
		}
	}
	if unknown := get[*handler](sc.declarations(), decl.unknown); unknown != nil {
		node.unknown = unknown.fn
	}
	for _, qualifiedName := range decl.observers {
		if observer := get[*observer](sc.declarations(), qualifiedName); observer != nil {
			node.internal.Add(observer.Name())
			node.observers = append(node.observers, &binding{node: node, observer: observer})
		}
	}
	for _, qualifiedName := range decl.substates {
		if substate := get[*state](sc.declarations(), qualifiedName); substate != nil {
			node.substates = append(node.substates, sc.build(substate, node).handle)
		}
	}
	if history := get[*history](sc.declarations(), decl.history); history != nil {
		historyNode := sc.newNode(kinds.History, history.QualifiedName(), node)
		historyNode.recursive = history.recursive
		historyNode.defaultState = node.child(history.defaultState)
		if history.defaultState != "" && historyNode.defaultState == noNode {
			sc.logError("invalid history default", fmt.Errorf("%w: %s", ErrStateNotFound, history.defaultState), "state", node.QualifiedName())
		}
		historyNode.initialized = true
		node.historyNode = historyNode.handle
	}
	if decl.initial != "" {
		node.initial = node.child(decl.initial)
		if node.initial == noNode {
			sc.logError("invalid initial substate", fmt.Errorf("%w: %s", ErrStateNotFound, decl.initial), "state", node.QualifiedName())
		}
	}
	if node.initial == noNode && len(node.substates) > 0 && !node.concurrent && parent != nil {
		placeholder := sc.newNode(kinds.Placeholder, path.Join(node.QualifiedName(), placeholderName), node)
		placeholder.initialized = true
		node.substates = append(node.substates, placeholder.handle)
		node.initial = placeholder.handle
		sc.logWarning("state has substates but no initial substate, entering a placeholder", "state", node.QualifiedName(), "error", ErrMissingInitialState)
	}
	sc.compile(node, decl)
	node.initialized = true
	return node
}

// child returns the direct substate or history node named qualifiedName.
func (node *Node) child(qualifiedName string) nodeID {
	if qualifiedName == "" {
		return noNode
	}
	for _, id := range append(slices.Clone(node.substates), node.historyNode) {
		if child := node.chart.node(id); child != nil && child.QualifiedName() == qualifiedName {
			return id
		}
	}
	return noNode
}

func (node *Node) register(handler *handler) {
	switch {
	case kinds.IsKind(handler.Kind(), kinds.Method):
		node.methods[handler.Name()] = handler.fn
	case kinds.IsKind(handler.Kind(), kinds.Pattern):
		node.internal.Add(handler.Name())
		for _, expression := range handler.patterns {
			node.patterns = append(node.patterns, pattern{expression: expression, fn: handler.fn})
		}
	default:
		node.internal.Add(handler.Name())
		for _, event := range handler.events {
			if _, ok := node.strings[event]; ok {
				node.chart.logWarning("event already has a handler", "state", node.QualifiedName(), "event", event, "handler", handler.Name())
				continue
			}
			node.strings[event] = handler.fn
		}
	}
}

// AddSubstate declares and initializes a new substate of node. The first
// substate added to a leaf becomes its initial substate.
func (node *Node) AddSubstate(name string, partialElements ...RedefinableElement) *Node {
	if node == nil {
		return nil
	}
	sc := node.chart
	if !node.initialized || kinds.IsKind(node.Kind(), kinds.History, kinds.Placeholder) {
		sc.logError("can not add substate", fmt.Errorf("%w: %s", ErrNotInitialized, node.QualifiedName()), "substate", name)
		return nil
	}
	if sc.local == nil {
		sc.local = sc.model.fork()
	}
	model := sc.local
	// the partial appends to a scratch owner so shared declarations stay untouched
	owner := &state{vertex: vertex{element: element{kind: kinds.State, qualifiedName: node.QualifiedName()}}}
	before := len(model.errors)
	substate, _ := State(name, partialElements...)(model, []embedded.Element{owner}).(*state)
	model.build([]embedded.Element{owner})
	for _, err := range model.errors[before:] {
		sc.logError("invalid statechart declaration", err, "state", node.QualifiedName())
	}
	if substate == nil {
		return nil
	}
	child := sc.build(substate, node)
	leaf := len(node.substates) == 0
	node.substates = append(node.substates, child.handle)
	if leaf && !node.concurrent {
		node.initial = child.handle
	}
	node.object.NotifyPropertyChange("hasSubstates")
	return child
}

// Reenter exits node and enters it again.
func (node *Node) Reenter() bool {
	if node == nil {
		return false
	}
	if !node.isEntered() {
		node.chart.logError("can not reenter state", fmt.Errorf("%w: %s", ErrNotEntered, node.QualifiedName()))
		return false
	}
	return node.chart.GotoState(node, node, false, nil)
}

func (node *Node) Statechart() *Statechart {
	if node == nil {
		return nil
	}
	return node.chart
}

// Object returns the node's observable attributes.
func (node *Node) Object() *observable.Object {
	if node == nil {
		return nil
	}
	return node.object
}

func (node *Node) FullPath() string {
	return node.QualifiedName()
}

func (node *Node) Parent() *Node {
	if node == nil {
		return nil
	}
	return node.chart.node(node.parent)
}

func (node *Node) Substates() []*Node {
	if node == nil {
		return nil
	}
	substates := make([]*Node, 0, len(node.substates))
	for _, id := range node.substates {
		substates = append(substates, node.chart.node(id))
	}
	return substates
}

func (node *Node) InitialSubstate() *Node {
	if node == nil {
		return nil
	}
	return node.chart.node(node.initial)
}

// HistoryNode returns the declared history node, if any.
func (node *Node) HistoryNode() *Node {
	if node == nil {
		return nil
	}
	return node.chart.node(node.historyNode)
}

// HistoryState returns the direct substate exited last.
func (node *Node) HistoryState() *Node {
	if node == nil {
		return nil
	}
	return node.chart.node(node.history)
}

func (node *Node) CurrentSubstates() []*Node {
	if node == nil {
		return nil
	}
	return node.chart.nodesOf(node.current)
}

func (node *Node) EnteredSubstates() []*Node {
	if node == nil {
		return nil
	}
	return node.chart.nodesOf(node.entered)
}

func (node *Node) IsCurrentState() bool {
	return node.attribute("isCurrentState")
}

func (node *Node) IsEnteredState() bool {
	return node.attribute("isEnteredState")
}

func (node *Node) IsRootState() bool {
	return node.attribute("isRootState")
}

func (node *Node) IsConcurrentState() bool {
	return node.attribute("isConcurrentState")
}

func (node *Node) HasSubstates() bool {
	return node.attribute("hasSubstates")
}

func (node *Node) attribute(key string) bool {
	if node == nil {
		return false
	}
	value, _ := node.object.Get(key).(bool)
	return value
}

func (node *Node) isEntered() bool {
	return node.entered.Contains(node.handle)
}

func (node *Node) isHistory() bool {
	return kinds.IsKind(node.Kind(), kinds.History)
}

func (node *Node) isAncestorOf(other *Node) bool {
	for current := other.Parent(); current != nil; current = current.Parent() {
		if current == node {
			return true
		}
	}
	return false
}

// lca returns the deepest node that is node or one of its ancestors and
// also other or one of its ancestors.
func (node *Node) lca(other *Node) *Node {
	ancestors := set.New[*Node]()
	for current := node; current != nil; current = current.Parent() {
		ancestors.Add(current)
	}
	for current := other; current != nil; current = current.Parent() {
		if ancestors.Contains(current) {
			return current
		}
	}
	return nil
}

// toward returns the child of node on the path down to descendant.
func (node *Node) toward(descendant *Node) *Node {
	for current := descendant; current != nil; current = current.Parent() {
		if current.parent == node.handle {
			return current
		}
	}
	return nil
}

// lineage returns the nodes strictly below pivot down to node, outermost
// first. A nil pivot starts at the root.
func (node *Node) lineage(pivot *Node) []*Node {
	var nodes []*Node
	for current := node; current != nil && current != pivot; current = current.Parent() {
		nodes = append(nodes, current)
	}
	slices.Reverse(nodes)
	return nodes
}

// resolveHistory returns the node a history node stands for and whether it
// replays history below it.
func (node *Node) resolveHistory() (*Node, bool) {
	owner := node.Parent()
	if recorded := owner.HistoryState(); recorded != nil {
		return recorded, node.recursive
	}
	if fallback := node.chart.node(node.defaultState); fallback != nil {
		return fallback, node.recursive
	}
	if initial := owner.InitialSubstate(); initial != nil && initial != node {
		return initial, false
	}
	if substates := owner.Substates(); len(substates) > 0 {
		return substates[0], false
	}
	return nil, false
}

func (sc *Statechart) nodesOf(ids *set.Set[nodeID]) []*Node {
	nodes := make([]*Node, 0, ids.Size())
	for id := range ids.Items() {
		nodes = append(nodes, sc.node(id))
	}
	return nodes
}
