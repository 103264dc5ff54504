package statechart

import (
	"github.com/google/uuid"

	"github.com/stateforward/go-statechart/kinds"
)

// AsyncFunc is started once a transition has suspended on its token. It is
// expected to call ResumeGotoState when the work completes.
type AsyncFunc func(ctx *Context, args ...any)

// Async is returned from an entry or exit action to suspend the transition
// until ResumeGotoState is called.
type Async struct {
	id     string
	action AsyncFunc
	args   []any
}

// PerformAsync returns a suspension token that runs action after the
// transition has suspended.
func PerformAsync(action AsyncFunc, args ...any) *Async {
	return &Async{id: uuid.NewString(), action: action, args: args}
}

func (async *Async) Id() string {
	if async == nil {
		return ""
	}
	return async.id
}

func (async *Async) Kind() uint64 {
	return kinds.Async
}

func (async *Async) perform(ctx *Context) {
	if async.action != nil {
		async.action(ctx, async.args...)
	}
}
