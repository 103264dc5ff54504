package set

import (
	"iter"
	"slices"
)

// Set is an insertion-ordered set. The zero value is ready to use.
type Set[T comparable] struct {
	index map[T]int
	items []T
}

func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(items...)
	return s
}

// Add appends items that are not already present, keeping first-insertion order.
func (s *Set[T]) Add(items ...T) {
	if s.index == nil {
		s.index = make(map[T]int, len(items))
	}
	for _, item := range items {
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = len(s.items)
		s.items = append(s.items, item)
	}
}

// Remove deletes item, shifting later items down one position.
func (s *Set[T]) Remove(item T) bool {
	i, ok := s.index[item]
	if !ok {
		return false
	}
	delete(s.index, item)
	s.items = slices.Delete(s.items, i, i+1)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *Set[T]) Contains(item T) bool {
	if s == nil {
		return false
	}
	_, exists := s.index[item]
	return exists
}

func (s *Set[T]) Size() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// At returns the item at insertion position i.
func (s *Set[T]) At(i int) T {
	return s.items[i]
}

// Items returns all items in insertion order. Items added while ranging are
// visited; removal while ranging is not supported.
func (s *Set[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for i := 0; i < len(s.items); i++ {
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the items in insertion order.
func (s *Set[T]) Slice() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}
