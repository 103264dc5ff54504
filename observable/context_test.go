package observable_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforward/go-statechart/observable"
)

func TestContextSuspend(t *testing.T) {
	ctx := observable.NewContext()
	first := observable.New(observable.WithContext(ctx))
	second := observable.New(observable.WithContext(ctx))
	var order []string
	first.AddObserver("a", nil, func(sender *observable.Object, key string, revision uint64) {
		order = append(order, "first")
	})
	second.AddObserver("a", nil, func(sender *observable.Object, key string, revision uint64) {
		order = append(order, "second")
	})

	release := ctx.Suspend()
	second.Set("a", 1)
	first.Set("a", 1)
	first.Set("a", 2)
	assert.True(t, ctx.Suspended())
	assert.Empty(t, order)

	release()
	release()
	assert.False(t, ctx.Suspended())
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestContextRunReleasesOnPanic(t *testing.T) {
	ctx := observable.NewContext()
	o := observable.New(observable.WithContext(ctx))
	c := &counter{}
	o.AddObserver("a", c, c.observe)

	assert.Panics(t, func() {
		ctx.Run(func() {
			o.Set("a", 1)
			panic("boom")
		})
	})
	assert.False(t, ctx.Suspended())
	assert.Equal(t, 1, c.n)
}

func TestContextWithBatch(t *testing.T) {
	ctx := observable.NewContext()
	o := observable.New(observable.WithContext(ctx))
	c := &counter{}
	o.AddObserver("a", c, c.observe)

	ctx.Run(func() {
		o.Batch(func() {
			o.Set("a", 1)
		})
		assert.Equal(t, 0, c.n)
	})
	assert.Equal(t, 1, c.n)
}

func TestDefaultContext(t *testing.T) {
	here := observable.DefaultContext()
	assert.Same(t, here, observable.DefaultContext())

	var there *observable.Context
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		there = observable.DefaultContext()
	}()
	wg.Wait()
	assert.NotSame(t, here, there)
}
