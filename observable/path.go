package observable

import "strings"

// TupleForPath resolves every segment of path but the last, returning the
// object that holds the final key. ok is false when an intermediate value is
// missing or is not an *Object.
func TupleForPath(root *Object, path string) (object *Object, key string, ok bool) {
	if root == nil || path == "" {
		return nil, "", false
	}
	keys := strings.Split(path, ".")
	object = root
	for _, segment := range keys[:len(keys)-1] {
		next, isObject := object.Get(segment).(*Object)
		if !isObject || next == nil {
			return nil, "", false
		}
		object = next
	}
	return object, keys[len(keys)-1], true
}

// GetPath returns the value at a dotted path, or nil if the path is broken.
func (o *Object) GetPath(path string) any {
	object, key, ok := TupleForPath(o, path)
	if !ok {
		return nil
	}
	return object.Get(key)
}

// SetPath sets the value at a dotted path. A broken path is a no-op.
func (o *Object) SetPath(path string, value any) *Object {
	object, key, ok := TupleForPath(o, path)
	if ok {
		object.Set(key, value)
	}
	return o
}
