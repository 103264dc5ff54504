package observable

import (
	"sync"

	"github.com/petermattis/goid"

	"github.com/stateforward/go-statechart/pkg/set"
)

// Context scopes the suspension of observer notification. While a Context is
// suspended, objects bound to it queue their changes; the queued changes are
// flushed, object by object in the order they were queued, when the last
// suspension is released.
type Context struct {
	suspended int
	deferred  *set.Set[*Object]
}

func NewContext() *Context {
	return &Context{deferred: set.New[*Object]()}
}

var contexts sync.Map

// DefaultContext returns the calling goroutine's context, creating it on
// first use.
func DefaultContext() *Context {
	gid := goid.Get()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*Context)
	}
	ctx := NewContext()
	contexts.Store(gid, ctx)
	return ctx
}

func (c *Context) Suspended() bool {
	return c != nil && c.suspended > 0
}

// Suspend suspends notification until the returned release func is called.
// Calling release more than once has no further effect.
func (c *Context) Suspend() (release func()) {
	c.suspended++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		c.suspended--
		if c.suspended == 0 {
			c.flush()
		}
	}
}

// Run calls fn with notification suspended, releasing on every exit path.
func (c *Context) Run(fn func()) {
	release := c.Suspend()
	defer release()
	fn()
}

func (c *Context) enqueue(o *Object) {
	c.deferred.Add(o)
}

func (c *Context) flush() {
	for c.deferred.Size() > 0 && !c.Suspended() {
		objects := c.deferred
		c.deferred = set.New[*Object]()
		for o := range objects.Items() {
			// an object still inside a batch flushes from EndPropertyChanges
			if o.level == 0 && o.pending.Size() > 0 {
				o.flush()
			}
		}
	}
}
