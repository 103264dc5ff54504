package observable

import (
	"slices"

	"github.com/stateforward/go-statechart/pkg/set"
)

// flush delivers pending changes. Observers may change properties of o while
// it runs; those changes land in a fresh pending set and are delivered by the
// next pass of the loop.
func (o *Object) flush(keys ...string) {
	o.level++
	defer func() { o.level-- }()
	o.pending.Add(keys...)
	for o.pending.Size() > 0 {
		changes := o.pending
		o.pending = set.New[string]()
		revision := o.revision
		if changes.Remove(AllKeys) {
			changes.Add(o.ObservedKeys()...)
		}
		// the set grows while ranging, so transitive dependents are visited
		for key := range changes.Items() {
			for _, dependent := range o.graph.dependents[key] {
				if changes.Contains(dependent) {
					continue
				}
				if computed := o.props[dependent]; computed.IsCacheable() {
					computed.invalidate()
				}
				changes.Add(dependent)
			}
		}
		for key := range changes.Items() {
			o.notify(key, revision)
		}
	}
}

func (o *Object) notify(key string, revision uint64) {
	for _, reg := range slices.Clone(o.observers.byKey[key]) {
		if reg.removed || (reg.stamp == o && reg.revision == revision) {
			continue
		}
		reg.stamp, reg.revision = o, revision
		reg.method(o, key, revision)
	}
	for _, reg := range slices.Clone(o.observers.byKey[AllKeys]) {
		if reg.removed {
			continue
		}
		reg.method(o, key, revision)
	}
	if o.hook != nil {
		o.hook(o, key, revision)
	}
}
