package embedded

type Element interface {
	Kind() uint64
	Id() string
}

type NamedElement interface {
	Element
	Owner() string
	QualifiedName() string
	Name() string
}

// Model is a declared statechart, indexed by qualified name.
type Model interface {
	NamedElement
	Namespace() map[string]NamedElement
}

// Transition is a declarative event route from Source to Target.
type Transition interface {
	NamedElement
	Source() string
	Target() string
	Events() []string
}

type Vertex interface {
	NamedElement
	Transitions() []string
}

type State interface {
	Vertex
	Initial() string
	Concurrent() bool
	Substates() []string
	History() string
	Entry() string
	Exit() string
	Handlers() []string
}

type History interface {
	NamedElement
	Default() string
	Recursive() bool
}

type Event interface {
	Kind() uint64
	Name() string
	Data() any
	Id() string
}
