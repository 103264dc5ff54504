package observable

import (
	"slices"
	"strings"
)

// chain observes a dotted path from root. links[i] observes keys[i] on the
// object reached after i segments; links past a missing object do not exist.
type chain struct {
	root   *Object
	path   string
	keys   []string
	target any
	method Method
	id     uintptr
	links  []*link
	value  any
}

type link struct {
	chain  *chain
	index  int
	object *Object
}

func (l *link) changed(sender *Object, key string, revision uint64) {
	c := l.chain
	if l.index >= len(c.links) || c.links[l.index] != l {
		return
	}
	c.rewire(l.index, revision)
}

func (o *Object) addChain(path string, target any, method Method) {
	id := methodID(method)
	if slices.ContainsFunc(o.chains[path], func(c *chain) bool { return c.id == id && identical(c.target, target) }) {
		return
	}
	c := &chain{
		root:   o,
		path:   path,
		keys:   strings.Split(path, "."),
		target: target,
		method: method,
		id:     id,
	}
	c.attach(0, o)
	c.value = o.GetPath(path)
	if o.chains == nil {
		o.chains = map[string][]*chain{}
	}
	o.chains[path] = append(o.chains[path], c)
}

func (o *Object) removeChain(path string, target any, method Method) {
	id := methodID(method)
	chains := o.chains[path]
	i := slices.IndexFunc(chains, func(c *chain) bool { return c.id == id && identical(c.target, target) })
	if i < 0 {
		return
	}
	chains[i].detach(0)
	chains = slices.Delete(chains, i, i+1)
	if len(chains) == 0 {
		delete(o.chains, path)
		return
	}
	o.chains[path] = chains
}

// attach installs links from index on, starting at object.
func (c *chain) attach(index int, object *Object) {
	for i := index; i < len(c.keys) && object != nil; i++ {
		l := &link{chain: c, index: i, object: object}
		object.AddObserver(c.keys[i], l, l.changed)
		c.links = append(c.links, l)
		next, _ := object.Get(c.keys[i]).(*Object)
		object = next
	}
}

// detach removes links from index on.
func (c *chain) detach(index int) {
	if index >= len(c.links) {
		return
	}
	for _, l := range c.links[index:] {
		l.object.RemoveObserver(c.keys[l.index], l, l.changed)
	}
	clear(c.links[index:])
	c.links = c.links[:index]
}

// rewire rebuilds the links after index and notifies the target if the
// terminal value changed identity.
func (c *chain) rewire(index int, revision uint64) {
	if index < len(c.keys)-1 {
		c.detach(index + 1)
		next, _ := c.links[index].object.Get(c.keys[index]).(*Object)
		c.attach(index+1, next)
	}
	value := c.root.GetPath(c.path)
	if identical(value, c.value) {
		return
	}
	c.value = value
	c.method(c.root, c.path, revision)
}

// Links reports how many link observers the chains on path hold, for
// detecting leaked links.
func (o *Object) Links(path string) int {
	count := 0
	for _, c := range o.chains[path] {
		count += len(c.links)
	}
	return count
}
