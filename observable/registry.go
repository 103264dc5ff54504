package observable

import "slices"

// Method is an observer callback. sender is the object whose key changed and
// revision is the sender's revision at the time of the flush.
type Method func(sender *Object, key string, revision uint64)

type registration struct {
	target  any
	method  Method
	id      uintptr
	removed bool

	// stamp records the last (object, revision) this registration was
	// notified for, so a key marked dirty twice in one flush notifies once.
	stamp    *Object
	revision uint64
}

// registry holds observers by key. A shared registry is copied by the first
// object that mutates it.
type registry struct {
	byKey  map[string][]*registration
	order  []string
	shared bool
}

var emptyRegistry = &registry{shared: true}

func (r *registry) clone() *registry {
	c := &registry{byKey: make(map[string][]*registration, len(r.byKey)), order: slices.Clone(r.order)}
	for key, registrations := range r.byKey {
		copied := make([]*registration, 0, len(registrations))
		for _, reg := range registrations {
			copied = append(copied, &registration{target: reg.target, method: reg.method, id: reg.id})
		}
		c.byKey[key] = copied
	}
	return c
}

func (r *registry) find(key string, target any, id uintptr) int {
	return slices.IndexFunc(r.byKey[key], func(reg *registration) bool {
		return reg.id == id && identical(reg.target, target)
	})
}

func (r *registry) add(key string, target any, method Method) bool {
	id := methodID(method)
	if r.find(key, target, id) >= 0 {
		return false
	}
	if r.byKey == nil {
		r.byKey = map[string][]*registration{}
	}
	if _, ok := r.byKey[key]; !ok {
		r.order = append(r.order, key)
	}
	r.byKey[key] = append(r.byKey[key], &registration{target: target, method: method, id: id})
	return true
}

func (r *registry) remove(key string, target any, method Method) bool {
	i := r.find(key, target, methodID(method))
	if i < 0 {
		return false
	}
	registrations := r.byKey[key]
	registrations[i].removed = true
	registrations = slices.Delete(slices.Clone(registrations), i, i+1)
	if len(registrations) == 0 {
		delete(r.byKey, key)
		r.order = slices.DeleteFunc(r.order, func(k string) bool { return k == key })
		return true
	}
	r.byKey[key] = registrations
	return true
}

func (r *registry) has(key string) bool {
	return len(r.byKey[key]) > 0
}

// keys returns observed keys in first-registration order, excluding AllKeys.
func (r *registry) keys() []string {
	keys := make([]string, 0, len(r.order))
	for _, key := range r.order {
		if key != AllKeys {
			keys = append(keys, key)
		}
	}
	return keys
}
