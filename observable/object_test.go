package observable_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-statechart/observable"
)

type counter struct {
	n    int
	keys []string
}

func (c *counter) observe(sender *observable.Object, key string, revision uint64) {
	c.n++
	c.keys = append(c.keys, key)
}

func newObject(values ...map[string]any) *observable.Object {
	opts := []observable.Option{observable.WithContext(observable.NewContext())}
	for _, v := range values {
		opts = append(opts, observable.WithValues(v))
	}
	return observable.New(opts...)
}

func TestGetSet(t *testing.T) {
	t.Run("plain values", func(t *testing.T) {
		o := newObject(map[string]any{"a": 1})
		assert.Equal(t, 1, o.Get("a"))
		assert.Nil(t, o.Get("missing"))
		o.Set("a", 2)
		assert.Equal(t, 2, o.Get("a"))
	})

	t.Run("unknown property fallback", func(t *testing.T) {
		store := map[string]any{}
		o := observable.New(observable.WithContext(observable.NewContext()), observable.WithUnknownProperty(
			func(o *observable.Object, key string, value any, isSet bool) any {
				if isSet {
					store[key] = value
					return value
				}
				return store[key]
			},
		))
		o.Set("x", 1)
		assert.Equal(t, 1, store["x"])
		assert.Equal(t, 1, o.Get("x"))
	})

	t.Run("set if changed", func(t *testing.T) {
		o := newObject(map[string]any{"a": 1})
		c := &counter{}
		o.AddObserver("a", c, c.observe)
		o.SetIfChanged("a", 1)
		assert.Equal(t, 0, c.n)
		o.SetIfChanged("a", 2)
		assert.Equal(t, 1, c.n)
	})
}

func TestBatchNotifiesOnce(t *testing.T) {
	o := newObject()
	a, b := &counter{}, &counter{}
	o.AddObserver("a", a, a.observe)
	o.AddObserver("b", b, b.observe)

	o.Batch(func() {
		o.Set("a", 1)
		o.Set("a", 2)
		o.Set("b", 1)
		o.Batch(func() {
			o.Set("a", 3)
		})
		assert.Equal(t, 0, a.n, "no notification inside the batch")
	})

	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
	assert.Equal(t, 3, o.Get("a"))
}

func TestObserverDeduplication(t *testing.T) {
	o := newObject()
	first, second := &counter{}, &counter{}
	o.AddObserver("a", first, first.observe)
	o.AddObserver("a", first, first.observe)
	o.AddObserver("a", second, second.observe)

	o.Set("a", 1)
	assert.Equal(t, 1, first.n)
	assert.Equal(t, 1, second.n)

	o.RemoveObserver("a", first, first.observe)
	o.Set("a", 2)
	assert.Equal(t, 1, first.n)
	assert.Equal(t, 2, second.n)
	assert.Equal(t, []string{"a"}, o.ObservedKeys())
}

func TestClosureObservers(t *testing.T) {
	o := newObject()
	hits := make([]int, 3)
	observers := make([]observable.Method, 0, len(hits))
	for i := range hits {
		observer := func(sender *observable.Object, key string, revision uint64) {
			hits[i]++
		}
		observers = append(observers, observer)
		o.AddObserver("k", nil, observer)
	}

	o.Set("k", 1)
	assert.Equal(t, []int{1, 1, 1}, hits, "closures from one literal are distinct observers")

	o.AddObserver("k", nil, observers[0])
	o.RemoveObserver("k", nil, observers[1])
	o.Set("k", 2)
	assert.Equal(t, []int{2, 1, 2}, hits)

	target := &counter{}
	o.AddObserver("t", target, func(sender *observable.Object, key string, revision uint64) { hits[0]++ })
	o.AddObserver("t", target, func(sender *observable.Object, key string, revision uint64) { hits[1]++ })
	o.Set("t", 1)
	assert.Equal(t, []int{3, 2, 2}, hits, "one target may register several closures")
}

type valueTarget struct {
	tags []string
}

func (v valueTarget) observe(sender *observable.Object, key string, revision uint64) {}

func TestUncomparableTarget(t *testing.T) {
	o := newObject()
	target := valueTarget{tags: []string{"x"}}
	o.AddObserver("a", target, target.observe)
	assert.False(t, o.HasObserverFor("a"), "a target that can not be matched is rejected")

	pointer := &valueTarget{tags: []string{"x"}}
	o.AddObserver("a", pointer, pointer.observe)
	o.AddObserver("a", pointer, pointer.observe)
	require.True(t, o.HasObserverFor("a"))
	o.RemoveObserver("a", pointer, pointer.observe)
	assert.False(t, o.HasObserverFor("a"))
}

func TestCacheableDependent(t *testing.T) {
	o := newObject()
	calls := 0
	o.Define("full", observable.Property(func(o *observable.Object, key string, value any, isSet bool) any {
		calls++
		return fmt.Sprintf("%v %v", o.Get("first"), o.Get("last"))
	}, "first", "last").Cacheable())
	o.Define("shout", observable.Getter(func(o *observable.Object) any {
		return o.Get("full").(string) + "!"
	}, "full").Cacheable())
	full := &counter{}
	o.AddObserver("full", full, full.observe)

	o.Set("first", "Ada")
	o.Set("last", "Lovelace")
	assert.Equal(t, 2, full.n, "dependent observers fire with their base")

	assert.Equal(t, "Ada Lovelace", o.Get("full"))
	assert.Equal(t, "Ada Lovelace", o.Get("full"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Ada Lovelace!", o.Get("shout"))

	o.Set("first", "Grace")
	assert.Equal(t, "Grace Lovelace!", o.Get("shout"), "transitive dependents are cleared")
	assert.Equal(t, 2, calls)
	o.Get("full")
	assert.Equal(t, 2, calls)
}

func TestComputedSet(t *testing.T) {
	o := newObject()
	calls := 0
	identity := func(o *observable.Object, key string, value any, isSet bool) any {
		calls++
		return value
	}

	o.Define("v", observable.Property(identity))
	o.Set("v", 1)
	o.Set("v", 1)
	assert.Equal(t, 1, calls, "same input is not re-applied")

	calls = 0
	o.Define("w", observable.Property(identity).Volatile())
	o.Set("w", 1)
	o.Set("w", 1)
	assert.Equal(t, 2, calls, "volatile properties always re-apply")

	calls = 0
	o.Define("cached", observable.Property(identity, "base").Cacheable())
	o.Set("cached", 1)
	o.Set("cached", 1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, o.Get("cached"))
	o.Set("base", "changed")
	o.Set("cached", 1)
	assert.Equal(t, 2, calls, "a dependency change clears the last input")
}

func TestReentrantFlush(t *testing.T) {
	o := newObject()
	var log []string
	o.AddObserver("a", nil, func(sender *observable.Object, key string, revision uint64) {
		value := sender.Get("a").(int)
		log = append(log, fmt.Sprintf("a=%d", value))
		if value < 3 {
			sender.Set("a", value+1)
			return
		}
		sender.Set("b", value*10)
	})
	o.AddObserver("b", nil, func(sender *observable.Object, key string, revision uint64) {
		log = append(log, fmt.Sprintf("b=%d", sender.Get("b")))
	})

	o.Set("a", 1)

	assert.Equal(t, []string{"a=1", "a=2", "a=3", "b=30"}, log)
}

func TestSuppressedNotification(t *testing.T) {
	o := newObject()
	c := &counter{}
	o.AddObserver("a", c, c.observe)
	o.SetAutomaticNotification("a", false)
	o.Set("a", 1)
	assert.Equal(t, 0, c.n)
	o.NotifyPropertyChange("a")
	assert.Equal(t, 1, c.n)
	o.SetAutomaticNotification("a", true)
	o.Set("a", 2)
	assert.Equal(t, 2, c.n)
}

func TestWildcardFlush(t *testing.T) {
	o := newObject(map[string]any{"first": "Ada", "title": "Countess"})
	calls := 0
	o.Define("full", observable.Property(func(o *observable.Object, key string, value any, isSet bool) any {
		calls++
		return o.Get("first")
	}, "first").Cacheable())
	o.Define("initials", observable.Getter(func(o *observable.Object) any {
		return o.Get("title").(string)[:1]
	}, "title"))

	all := &counter{}
	o.AddObserver(observable.AllKeys, all, all.observe)
	noop := func(sender *observable.Object, key string, revision uint64) {}
	o.AddObserver("full", nil, noop)
	o.AddObserver("title", nil, noop)

	o.Get("full")
	require.Equal(t, 1, calls)

	o.AllPropertiesDidChange()

	// observed keys plus their graph dependents; unobserved bases are not delivered
	assert.Equal(t, []string{"full", "title", "initials"}, all.keys)
	o.Get("full")
	assert.Equal(t, 2, calls, "every cache is cleared")
}

func TestRevision(t *testing.T) {
	o := newObject()
	start := o.Revision()
	o.Set("a", 1)
	assert.True(t, o.ChangedSince("a", start))
	mark := o.Revision()
	o.Set("b", 1)
	assert.False(t, o.ChangedSince("a", mark))
	assert.True(t, o.ChangedSince("b", mark))
	assert.Greater(t, o.Revision(), mark)
}

func TestPaths(t *testing.T) {
	leaf := newObject(map[string]any{"c": 1})
	mid := newObject(map[string]any{"b": leaf})
	root := newObject(map[string]any{"a": mid})

	assert.Equal(t, 1, root.GetPath("a.b.c"))
	root.SetPath("a.b.c", 2)
	assert.Equal(t, 2, leaf.Get("c"))

	object, key, ok := observable.TupleForPath(root, "a.b.c")
	require.True(t, ok)
	assert.Same(t, leaf, object)
	assert.Equal(t, "c", key)

	assert.Nil(t, root.GetPath("a.missing.c"))
	assert.NotPanics(t, func() { root.SetPath("a.missing.c", 3) })
	_, _, ok = observable.TupleForPath(root, "x.y")
	assert.False(t, ok)
}
