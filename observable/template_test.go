package observable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforward/go-statechart/observable"
)

func TestTemplate(t *testing.T) {
	calls := 0
	var senders []*observable.Object
	template := observable.NewTemplate().
		Define("double", observable.Getter(func(o *observable.Object) any {
			calls++
			return o.Get("n").(int) * 2
		}, "n").Cacheable()).
		Value("n", 1).
		Observe("n", func(sender *observable.Object, key string, revision uint64) {
			senders = append(senders, sender)
		})

	ctx := observable.NewContext()
	a := template.New(observable.WithContext(ctx))
	b := template.New(observable.WithContext(ctx))

	assert.Equal(t, 2, a.Get("double"))
	b.Set("n", 5)
	assert.Equal(t, 10, b.Get("double"))
	assert.Equal(t, 2, a.Get("double"))
	assert.Equal(t, 2, calls, "caches are per object")
	assert.Equal(t, []*observable.Object{b}, senders)

	local := &counter{}
	a.AddObserver("n", local, local.observe)
	b.Set("n", 6)
	assert.Equal(t, 0, local.n, "a local observer does not leak into the shared registry")
	a.Set("n", 2)
	assert.Equal(t, 1, local.n)
	assert.Equal(t, []*observable.Object{b, b, a}, senders, "template observers survive the copy")

	a.Define("triple", observable.Getter(func(o *observable.Object) any {
		return o.Get("n").(int) * 3
	}, "n").Cacheable())
	assert.Equal(t, 6, a.Get("triple"))
	assert.Nil(t, b.Computed("triple"))
	b.Set("n", 7)
	assert.Equal(t, 14, b.Get("double"))
}
