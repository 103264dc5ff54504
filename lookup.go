package statechart

import (
	"fmt"
	"slices"
	"strings"
)

// Matcher tests the relative paths of indexed descendants against a lookup
// expression.
type Matcher interface {
	// Tokens splits expression into path segments. The last token selects
	// the candidates that Match is asked about.
	Tokens(expression string) []string
	Match(tokens []string, relativePath string) bool
}

// PathMatcher matches when the tokens equal the trailing segments of the
// relative path. Segments are separated by "." or "/".
type PathMatcher struct{}

func (PathMatcher) Tokens(expression string) []string {
	return strings.FieldsFunc(expression, func(r rune) bool {
		return r == '.' || r == '/'
	})
}

func (matcher PathMatcher) Match(tokens []string, relativePath string) bool {
	segments := matcher.Tokens(relativePath)
	if len(tokens) == 0 || len(tokens) > len(segments) {
		return false
	}
	return slices.Equal(tokens, segments[len(segments)-len(tokens):])
}

// ResolveFunc settles a lookup that matched no descendant or several. It
// receives the candidate relative paths and returns the node to use.
type ResolveFunc func(node *Node, expression string, candidates []string) *Node

// GetSubstate returns the descendant of node identified by value, a *Node or
// a path expression such as "b" or "a.b".
func (node *Node) GetSubstate(value any, resolve ...ResolveFunc) *Node {
	found, _ := node.lookup(value, first(resolve), true)
	return found
}

// GetState is GetSubstate widened to node itself and, failing that, to each
// ancestor in turn.
func (node *Node) GetState(value any, resolve ...ResolveFunc) *Node {
	if node == nil {
		return nil
	}
	if other, ok := value.(*Node); ok {
		if other != nil && other.chart == node.chart {
			return other
		}
		return nil
	}
	for current := node; current != nil; current = current.Parent() {
		if name, ok := value.(string); ok && name == current.Name() {
			return current
		}
		found, ambiguous := current.lookup(value, first(resolve), current.parent == noNode)
		if found != nil || ambiguous {
			return found
		}
	}
	return nil
}

func first[T any](values []T) T {
	var zero T
	if len(values) > 0 {
		return values[0]
	}
	return zero
}

// lookup resolves value among node's descendants. missing controls whether a
// failed lookup is offered to resolve.
func (node *Node) lookup(value any, resolve ResolveFunc, missing bool) (*Node, bool) {
	if node == nil {
		return nil, false
	}
	switch value := value.(type) {
	case *Node:
		if value != nil && value.chart == node.chart && node.isAncestorOf(value) {
			return value, false
		}
		return nil, false
	case string:
		matcher := node.chart.matcher
		tokens := matcher.Tokens(value)
		if len(tokens) == 0 {
			return nil, false
		}
		var candidates []string
		var match nodeID
		for _, entry := range node.index[tokens[len(tokens)-1]] {
			if matcher.Match(tokens, entry.path) {
				candidates = append(candidates, entry.path)
				match = entry.node
			}
		}
		switch {
		case len(candidates) == 1:
			return node.chart.node(match), false
		case len(candidates) > 1 && resolve != nil:
			return resolve(node, value, candidates), true
		case len(candidates) > 1:
			node.chart.logError("can not resolve substate", fmt.Errorf("%w: %q matches %s", ErrAmbiguousState, value, strings.Join(candidates, ", ")), "state", node.QualifiedName())
			return nil, true
		case missing && resolve != nil:
			return resolve(node, value, nil), false
		}
	}
	return nil, false
}

// FindFirstRelativeCurrentState returns the current state closest to node.
// When node has current substates in several regions, anchor, a
// descendant, selects the region.
func (node *Node) FindFirstRelativeCurrentState(anchor any) *Node {
	if node == nil {
		return nil
	}
	if node.current.Contains(node.handle) {
		return node
	}
	switch node.current.Size() {
	case 0:
		return node.Parent().FindFirstRelativeCurrentState(anchor)
	case 1:
	default:
		if anchor != nil {
			if found, _ := node.lookup(anchor, nil, false); found != nil {
				return found.FindFirstRelativeCurrentState(nil)
			}
		}
	}
	return node.chart.node(node.current.At(0))
}
