package observable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforward/go-statechart/observable"
)

func TestChainObserver(t *testing.T) {
	ctx := observable.NewContext()
	oldLeaf := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"c": 1}))
	mid := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"b": oldLeaf}))
	root := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"a": mid}))

	c := &counter{}
	root.AddObserver("a.b.c", c, c.observe)
	assert.Equal(t, 3, root.Links("a.b.c"))

	oldLeaf.Set("c", 2)
	assert.Equal(t, 1, c.n)
	assert.Equal(t, []string{"a.b.c"}, c.keys)

	newLeaf := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"c": 10}))
	mid.Set("b", newLeaf)
	assert.Equal(t, 2, c.n, "swapping an intermediate changes the terminal value")

	newLeaf.Set("c", 11)
	assert.Equal(t, 3, c.n)

	oldLeaf.Set("c", 3)
	assert.Equal(t, 3, c.n, "the detached object is no longer observed")
	assert.False(t, oldLeaf.HasObserverFor("c"))
	assert.True(t, newLeaf.HasObserverFor("c"))

	root.RemoveObserver("a.b.c", c, c.observe)
	assert.Equal(t, 0, root.Links("a.b.c"))
	assert.False(t, root.HasObserverFor("a"))
	assert.False(t, mid.HasObserverFor("b"))
	assert.False(t, newLeaf.HasObserverFor("c"))

	newLeaf.Set("c", 12)
	assert.Equal(t, 3, c.n)
}

func TestChainObserverMissingLink(t *testing.T) {
	ctx := observable.NewContext()
	root := observable.New(observable.WithContext(ctx))
	c := &counter{}
	root.AddObserver("a.b", c, c.observe)
	assert.Equal(t, 1, root.Links("a.b"))

	mid := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"b": "x"}))
	root.Set("a", mid)
	assert.Equal(t, 1, c.n)
	assert.Equal(t, 2, root.Links("a.b"))

	root.Set("a", nil)
	assert.Equal(t, 2, c.n)
	assert.Equal(t, 1, root.Links("a.b"))
	assert.False(t, mid.HasObserverFor("b"))
}

func TestChainObserverDeduplication(t *testing.T) {
	ctx := observable.NewContext()
	leaf := observable.New(observable.WithContext(ctx))
	root := observable.New(observable.WithContext(ctx), observable.WithValues(map[string]any{"a": leaf}))
	c := &counter{}
	root.AddObserver("a.b", c, c.observe)
	root.AddObserver("a.b", c, c.observe)
	assert.Equal(t, 2, root.Links("a.b"))
	leaf.Set("b", 1)
	assert.Equal(t, 1, c.n)
}
